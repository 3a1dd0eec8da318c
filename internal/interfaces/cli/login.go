package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/quotedesk/internal/infrastructure/httpclient"
	"github.com/spf13/cobra"
)

func newLoginCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "login [token]",
		Short: "Store the bearer token used for the ERP backend",
		Long: `Store the bearer token used for the ERP backend. Without an argument the
token is read from the first line of standard input.`,
		Args: cobra.MaximumNArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			token, err := e.readToken(args)
			if err != nil {
				return err
			}
			p := e.printer(cmd)
			if exp, ok := httpclient.TokenExpiry(token); ok && time.Now().After(exp) {
				p.warnf("Warning: token expired at %s", exp.Local().Format(time.RFC1123))
			}

			app, err := e.application(cmd, nil)
			if err != nil {
				return err
			}
			if err := app.Tokens.Save(cmd.Context(), token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			p.messagef("Token saved")
			return nil
		}),
	}
}

func newLogoutCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored bearer token",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string) error {
			app, err := e.application(cmd, nil)
			if err != nil {
				return err
			}
			if err := app.Tokens.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}
			e.printer(cmd).messagef("Token removed")
			return nil
		}),
	}
}

func (e *env) readToken(args []string) (string, error) {
	var token string
	if len(args) == 1 {
		token = args[0]
	} else {
		sc := bufio.NewScanner(e.in)
		if sc.Scan() {
			token = sc.Text()
		}
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
	}
	token = strings.TrimPrefix(strings.TrimSpace(token), "Bearer ")
	if token == "" {
		return "", errors.New("token is required")
	}
	return token, nil
}
