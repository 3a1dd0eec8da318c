// Package cli implements the quotedesk command line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	quoteapp "github.com/erp/quotedesk/internal/application/quote"
	"github.com/erp/quotedesk/internal/bootstrap"
	"github.com/erp/quotedesk/internal/infrastructure/config"
	"github.com/erp/quotedesk/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version is set at build time
var Version = "dev"

// Option configures the root command
type Option func(*env)

// WithViper loads configuration through v instead of a fresh instance
func WithViper(v *viper.Viper) Option {
	return func(e *env) { e.v = v }
}

// WithInput sets where confirmation answers and piped tokens are read from
func WithInput(r io.Reader) Option {
	return func(e *env) { e.in = r }
}

// WithAppOptions passes options to bootstrap.New
func WithAppOptions(opts ...bootstrap.Option) Option {
	return func(e *env) { e.appOpts = append(e.appOpts, opts...) }
}

// env is the state shared by the commands of one invocation
type env struct {
	v       *viper.Viper
	in      io.Reader
	appOpts []bootstrap.Option

	cfgFile string
	output  string
	yes     bool

	cfg *config.Config
	log *zap.Logger
	app *bootstrap.App
}

// NewRootCommand builds the command tree
func NewRootCommand(opts ...Option) *cobra.Command {
	e := &env{v: viper.New(), in: os.Stdin}
	for _, opt := range opts {
		opt(e)
	}

	root := &cobra.Command{
		Use:   "quotedesk",
		Short: "Quote lifecycle client for the ERP backend",
		Long: `quotedesk lists, edits, versions, clones and converts quotes held by the
ERP backend. When the backend cannot convert a quote, the order is created
on this device and kept in the local store.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: e.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&e.cfgFile, "config", "c", "", "config file (default is ./quotedesk.toml or "+config.DefaultDir()+"/quotedesk.toml)")
	flags.StringVarP(&e.output, "output", "o", "table", "output format: table, json or yaml")
	flags.BoolVarP(&e.yes, "yes", "y", false, "confirm clone and convert without asking")
	flags.String("api-url", "", "ERP backend base URL")
	flags.String("token", "", "bearer token for the ERP backend")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("store", "", "local store driver: badger, sqlite or memory")

	_ = e.v.BindPFlag("api.base_url", flags.Lookup("api-url"))
	_ = e.v.BindPFlag("auth.token", flags.Lookup("token"))
	_ = e.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = e.v.BindPFlag("store.driver", flags.Lookup("store"))

	root.AddCommand(
		newLoginCommand(e),
		newLogoutCommand(e),
		newQuotesCommand(e),
		newOrdersCommand(e),
		newJobsCommand(e),
		newCustomersCommand(e),
		newMaterialsCommand(e),
		newSuppliersCommand(e),
		newAuditCommand(e),
		newServeCommand(e),
	)
	return root
}

// Execute runs the command line client and returns the process exit code
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", userMessage(err))
		if errors.Is(err, context.Canceled) {
			return 130
		}
		return 1
	}
	return 0
}

func (e *env) setup(cmd *cobra.Command, _ []string) error {
	switch e.output {
	case formatTable, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unknown output format %q", e.output)
	}

	cfg, err := config.Load(e.v, e.cfgFile)
	if err != nil {
		return err
	}
	e.cfg = cfg

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Format = cfg.Log.Format
	logCfg.Output = cfg.Log.Output
	if cmd.Name() == "serve" {
		logCfg = logger.ServerConfig()
		logCfg.Level = cfg.Log.Level
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	e.log = log.With(zap.String("command", cmd.CommandPath()))
	return nil
}

// application wires the application on first use so commands that never
// reach the backend do not open the store
func (e *env) application(cmd *cobra.Command, confirmer quoteapp.Confirmer) (*bootstrap.App, error) {
	if e.app != nil {
		return e.app, nil
	}
	if confirmer == nil {
		confirmer = quoteapp.ContextConfirmer
	}
	opts := append([]bootstrap.Option{bootstrap.WithConfirmer(confirmer)}, e.appOpts...)
	app, err := bootstrap.New(cmd.Context(), e.cfg, e.log, opts...)
	if err != nil {
		return nil, err
	}
	e.app = app
	return app, nil
}

// interactive wires the application with a confirmer prompting on the
// command's input, or confirming everything with --yes
func (e *env) interactive(cmd *cobra.Command) (*bootstrap.App, error) {
	var confirmer quoteapp.Confirmer = newPromptConfirmer(e.in, cmd.ErrOrStderr())
	if e.yes {
		confirmer = quoteapp.AutoConfirm
	}
	return e.application(cmd, confirmer)
}

// run wraps a RunE so the application is closed however the command ends
func (e *env) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := e.close(); err == nil {
				err = cerr
			}
		}()
		return fn(cmd, args)
	}
}

func (e *env) close() error {
	var err error
	if e.app != nil {
		err = e.app.Close()
		e.app = nil
	}
	if e.log != nil {
		logger.Sync(e.log)
	}
	return err
}

func (e *env) printer(cmd *cobra.Command) *printer {
	return newPrinter(cmd.OutOrStdout(), e.output)
}
