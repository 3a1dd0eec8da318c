package cli

import (
	"os/signal"
	"syscall"

	"github.com/erp/quotedesk/internal/interfaces/http/handler"
	"github.com/erp/quotedesk/internal/interfaces/http/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for browser clients",
		Long: `Run the HTTP API for browser clients. Requests carry their own bearer
token and confirm clone and convert with {"confirm": true} in the body.`,
		Args: cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := e.application(cmd, nil)
			if err != nil {
				return err
			}

			var documents handler.DocumentRenderer
			if docs, err := app.Documents(ctx); err != nil {
				e.log.Warn("Document rendering disabled", zap.Error(err))
			} else {
				documents = docs
			}

			engine := server.NewEngine(server.Deps{
				Config:       e.cfg.Server,
				ServiceName:  e.cfg.App.Name,
				Version:      Version,
				Logger:       e.log,
				Metrics:      app.Metrics,
				Quotes:       app.Quotes,
				Documents:    documents,
				Intelligence: app.Intelligence,
			})

			e.log.Info("Starting server",
				zap.String("port", e.cfg.Server.Port),
				zap.String("api", e.cfg.API.BaseURL),
			)
			return server.Run(ctx, e.cfg.Server, engine, e.log)
		}),
	}
	cmd.Flags().String("port", "", "listen port (default 8090)")
	_ = e.v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	return cmd
}
