package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/erp/quotedesk/internal/domain/shared"
	"github.com/erp/quotedesk/internal/infrastructure/httpclient"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)

	statusColors = map[quote.Status]lipgloss.Color{
		quote.StatusDraft:     lipgloss.Color("8"),
		quote.StatusSent:      lipgloss.Color("12"),
		quote.StatusPending:   lipgloss.Color("11"),
		quote.StatusApproved:  lipgloss.Color("10"),
		quote.StatusDeclined:  lipgloss.Color("9"),
		quote.StatusExpired:   lipgloss.Color("9"),
		quote.StatusConverted: lipgloss.Color("13"),
	}
)

// printer writes command results in the selected format. Human-oriented
// messages are only written in table format so json and yaml stay parseable.
type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) *printer {
	return &printer{w: w, format: format}
}

// emit writes v as json or yaml, or the rows as a table
func (p *printer) emit(v any, headers []string, rows [][]string) error {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		return writeYAML(p.w, v)
	default:
		if len(rows) == 0 {
			p.messagef("%s", mutedStyle.Render("No results."))
			return nil
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers(headers...).
			Rows(rows...).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		_, err := fmt.Fprintln(p.w, t.String())
		return err
	}
}

// document writes v as json or yaml, or as "key: value" lines
func (p *printer) document(v any, fields [][2]string) error {
	if p.format != formatTable {
		return p.emit(v, nil, nil)
	}
	width := 0
	for _, f := range fields {
		width = max(width, len(f[0]))
	}
	for _, f := range fields {
		if _, err := fmt.Fprintf(p.w, "%-*s  %s\n", width+1, f[0]+":", f[1]); err != nil {
			return err
		}
	}
	return nil
}

func (p *printer) messagef(format string, args ...any) {
	if p.format == formatTable {
		fmt.Fprintf(p.w, format+"\n", args...)
	}
}

func (p *printer) warnf(format string, args ...any) {
	if p.format == formatTable {
		fmt.Fprintln(p.w, warnStyle.Render(fmt.Sprintf(format, args...)))
	}
}

func statusCell(s quote.Status) string {
	color, ok := statusColors[s]
	if !ok {
		return s.Label()
	}
	return lipgloss.NewStyle().Foreground(color).Render(s.Label())
}

// writeYAML writes v in block style under its JSON field names
func writeYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// userMessage returns the text shown for a failed command
func userMessage(err error) string {
	var apiErr *httpclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}
