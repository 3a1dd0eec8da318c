package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	quoteapp "github.com/erp/quotedesk/internal/application/quote"
)

// promptConfirmer asks on out and reads a y/N answer from in. End of input
// counts as no.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptConfirmer(in io.Reader, out io.Writer) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm implements quoteapp.Confirmer
func (p *promptConfirmer) Confirm(ctx context.Context, prompt quoteapp.Prompt) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(p.out, "%s [y/N]: ", prompt.Message)

	answer, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		if err == io.EOF {
			fmt.Fprintln(p.out)
		}
		return false, nil
	}
}
