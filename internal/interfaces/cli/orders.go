package cli

import (
	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/spf13/cobra"
)

func newOrdersCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Orders created on this device",
	}
	cmd.AddCommand(newOrdersLocalCommand(e), newOrdersPDFCommand(e))
	return cmd
}

func newOrdersLocalCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "local",
		Short: "List orders that exist only in the local store",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string) error {
			app, err := e.application(cmd, nil)
			if err != nil {
				return err
			}
			orders, err := app.Quotes.LocalOrders(cmd.Context())
			if err != nil {
				return err
			}
			return printOrders(e.printer(cmd), orders)
		}),
	}
}

func newOrdersPDFCommand(e *env) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "pdf <id>",
		Short: "Render a local order as PDF",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			app, err := e.application(cmd, nil)
			if err != nil {
				return err
			}
			order, err := app.Orders.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			docs, err := app.Documents(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := docs.RenderFallbackOrder(cmd.Context(), order)
			if err != nil {
				return err
			}
			return printDocument(e.printer(cmd), out, doc.Key, doc.URL, doc.Size, doc.PageCount, doc.PDF)
		}),
	}
	cmd.Flags().StringVar(&out, "out", "", "also write the PDF to this file")
	return cmd
}

func printOrders(p *printer, orders []quote.FallbackOrder) error {
	if orders == nil {
		orders = []quote.FallbackOrder{}
	}
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			o.ID,
			o.QuoteReference,
			o.CustomerName,
			o.Value.StringFixed(2),
			o.PaymentTerms,
			o.Deadline.Format("2006-01-02"),
			o.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	if len(orders) > 0 {
		p.warnf("These orders have not been synced to the server.")
	}
	return p.emit(orders, []string{"ID", "QUOTE", "CUSTOMER", "VALUE", "TERMS", "DEADLINE", "CREATED"}, rows)
}
