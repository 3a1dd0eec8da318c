package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/erp/quotedesk/internal/application/smartquote"
	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/erp/quotedesk/internal/domain/shared"
	"github.com/erp/quotedesk/internal/interfaces/http/dto"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newQuotesCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quotes",
		Aliases: []string{"quote", "q"},
		Short:   "List and manage quotes",
	}
	cmd.AddCommand(
		newQuotesListCommand(e),
		newQuotesShowCommand(e),
		newQuotesEditCommand(e),
		newQuotesVersionCommand(e),
		newQuotesSaveCommand(e),
		newQuotesCloneCommand(e),
		newQuotesConvertCommand(e),
		newQuotesPDFCommand(e),
		newQuotesSuggestCommand(e),
	)
	return cmd
}

func newQuotesListCommand(e *env) *cobra.Command {
	var status, search string
	var latest bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quotes",
		Long: `List quotes newest first.

Search matches the title, customer name and reference, ignoring case.
--latest hides superseded versions.`,
		Args: cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string) error {
			var filter quote.Filter
			if status != "" {
				filter.Status = quote.ParseStatus(status)
				if !filter.Status.IsValid() {
					return fmt.Errorf("unknown status %q", status)
				}
			}
			filter.Search = search
			filter.LatestOnly = latest

			app, err := e.application(cmd, nil)
			if err != nil {
				return err
			}
			if _, err := app.Quotes.Refresh(cmd.Context()); err != nil {
				return err
			}
			quotes, err := app.Quotes.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printQuotes(e.printer(cmd), quotes)
		}),
	}
	cmd.Flags().StringVar(&status, "status", "", "only quotes in this status, e.g. APPROVED")
	cmd.Flags().StringVarP(&search, "search", "s", "", "search text")
	cmd.Flags().BoolVar(&latest, "latest", false, "only the latest version of each quote")
	return cmd
}

func newQuotesShowCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one quote",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			app, err := e.application(cmd, nil)
			if err != nil {
				return err
			}
			q, err := app.Quotes.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printQuote(e.printer(cmd), q)
		}),
	}
}

func newQuotesEditCommand(e *env) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Write the editor form of a draft quote",
		Long: `Write the editor form of a quote for in-place editing. Only quotes in
status Draft, Sent or Pending can be edited; use "quotes version" otherwise.
Save the edited form with "quotes save -f <file>".`,
		Args: cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			app, err := e.application(cmd, nil)
			if err != nil {
				return err
			}
			form, err := app.Quotes.Edit(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeForm(cmd, file, e.output, form)
		}),
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "write the form to this file instead of stdout")
	return cmd
}

func newQuotesVersionCommand(e *env) *cobra.Command {
	var file, reason string

	cmd := &cobra.Command{
		Use:   "version <id>",
		Short: "Write a form that saves as a new version of the quote",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			app, err := e.application(cmd, nil)
			if err != nil {
				return err
			}
			form, err := app.Quotes.NewVersion(cmd.Context(), args[0], reason)
			if err != nil {
				return err
			}
			return writeForm(cmd, file, e.output, form)
		}),
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "write the form to this file instead of stdout")
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "why the new version is created")
	return cmd
}

func newQuotesSaveCommand(e *env) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or update a quote from a form file",
		Long: `Create or update a quote from a YAML or JSON form.

A form with an id updates that draft. A form with a parentQuoteId creates a
new version. Any other form creates a new quote. Use "-f -" to read stdin.`,
		Args: cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string) error {
			form, err := readForm(e.in, file)
			if err != nil {
				return err
			}
			app, err := e.application(cmd, nil)
			if err != nil {
				return err
			}
			saved, err := app.Quotes.Save(cmd.Context(), form)
			if err != nil {
				return err
			}

			p := e.printer(cmd)
			if saved == nil {
				p.messagef("Saved.")
				return nil
			}
			switch {
			case form.IsInPlaceEdit():
				p.messagef("Updated quote %s", saved.DisplayReference())
			case form.ParentQuoteID != "":
				p.messagef("Created version %s", saved.DisplayReference())
			default:
				p.messagef("Created quote %s", saved.DisplayReference())
			}
			return printQuote(p, saved)
		}),
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "form file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newQuotesCloneCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "clone <id>",
		Short: "Copy a quote into a new draft",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			app, err := e.interactive(cmd)
			if err != nil {
				return err
			}
			p := e.printer(cmd)
			cloned, err := app.Quotes.Clone(cmd.Context(), args[0])
			if err != nil {
				return cancelled(p, err)
			}
			if cloned == nil {
				p.messagef("Cloned.")
				return nil
			}
			p.messagef("Created quote %s", cloned.DisplayReference())
			return printQuote(p, cloned)
		}),
	}
}

func newQuotesConvertCommand(e *env) *cobra.Command {
	var createJob bool

	cmd := &cobra.Command{
		Use:   "convert <id>",
		Short: "Convert an approved quote into an order",
		Long: `Convert an approved quote into an order.

When the backend cannot create the order, the order is created on this
device and listed by "orders local". Such orders are not synced to the
server.`,
		Args: cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			app, err := e.interactive(cmd)
			if err != nil {
				return err
			}
			p := e.printer(cmd)

			result, err := app.Quotes.Convert(cmd.Context(), args[0])
			if err != nil {
				return cancelled(p, err)
			}
			if result.Fallback {
				p.warnf("%s", result.Message)
			} else {
				p.messagef("%s", result.Message)
			}

			resp := dto.ToConversionResponse(result)
			if createJob && result.JobDraft != nil {
				j, err := app.Quotes.CreateJob(cmd.Context(), *result.JobDraft)
				if err != nil {
					return fmt.Errorf("order %s was created but the job was not: %w", result.OrderID, err)
				}
				p.messagef("Created job %s", firstNonEmpty(j.JobNumber, j.ID))
			}

			fields := [][2]string{
				{"Order", result.OrderID},
				{"Local only", strconv.FormatBool(result.Fallback)},
			}
			if result.Order != nil {
				fields = append(fields,
					[2]string{"Value", result.Order.Value.StringFixed(2)},
					[2]string{"Payment terms", result.Order.PaymentTerms},
					[2]string{"Deadline", result.Order.Deadline.Format("2006-01-02")},
				)
			}
			return p.document(resp, fields)
		}),
	}
	cmd.Flags().BoolVar(&createJob, "create-job", false, "create a production job for the new order")
	return cmd
}

func newQuotesPDFCommand(e *env) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "pdf <id>",
		Short: "Render a quote as PDF",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			app, err := e.application(cmd, nil)
			if err != nil {
				return err
			}
			q, err := app.Quotes.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			docs, err := app.Documents(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := docs.RenderQuote(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printDocument(e.printer(cmd), out, doc.Key, doc.URL, doc.Size, doc.PageCount, doc.PDF)
		}),
	}
	cmd.Flags().StringVar(&out, "out", "", "also write the PDF to this file")
	return cmd
}

func newQuotesSuggestCommand(e *env) *cobra.Command {
	var file, panel, customer string
	var pick int

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Show smart quote recommendations for a draft",
		Long: `Show the recommendations of one smart quote panel: suggestions, bundles,
templates or health.

With --file the draft is read from a form file. With --select the line items
of that proposal are appended to the form, which is written back to --file
or to stdout.`,
		Args: cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string) error {
			var form quote.Form
			if file != "" {
				var err error
				if form, err = readForm(e.in, file); err != nil {
					return err
				}
			}
			if customer != "" {
				form.CustomerID = customer
			}

			app, err := e.application(cmd, nil)
			if err != nil {
				return err
			}
			builder := smartquote.NewBuilder(app.Intelligence, smartquote.WithLogger(app.Logger))
			tab, err := builder.TabByName(panel)
			if err != nil {
				return err
			}
			if err := builder.SetTab(tab); err != nil {
				return err
			}
			proposals, err := builder.LoadActive(cmd.Context(), smartquote.Input{
				CustomerID: form.CustomerID,
				Title:      form.Title,
				Items:      form.Items(),
			})
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("select") {
				return printProposals(e.printer(cmd), panel, proposals)
			}
			items, err := builder.Select(pick)
			if err != nil {
				return err
			}
			form.AppendItems(items...)
			target := file
			if target == "-" {
				target = ""
			}
			return writeForm(cmd, target, e.output, &form)
		}),
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "draft form file (YAML or JSON)")
	cmd.Flags().StringVarP(&panel, "panel", "p", smartquote.PanelSuggestions, "panel: suggestions, bundles, templates or health")
	cmd.Flags().StringVar(&customer, "customer", "", "customer ID, overrides the form's")
	cmd.Flags().IntVar(&pick, "select", 0, "append the line items of this proposal (0-based) to the form")
	return cmd
}

// cancelled reports a declined confirmation as a message instead of a failure
func cancelled(p *printer, err error) error {
	if errors.Is(err, shared.ErrCancelled) {
		p.messagef("Cancelled.")
		return nil
	}
	return err
}

func printQuotes(p *printer, quotes []quote.Quote) error {
	rows := make([][]string, 0, len(quotes))
	for i := range quotes {
		q := &quotes[i]
		rows = append(rows, []string{
			q.ID,
			q.DisplayReference(),
			q.Title,
			q.CustomerName,
			statusCell(q.Status),
			q.TotalAmount.StringFixed(2),
			joinActions(quote.AllowedActions(q.Status)),
		})
	}
	return p.emit(dto.ToQuoteResponses(quotes),
		[]string{"ID", "REFERENCE", "TITLE", "CUSTOMER", "STATUS", "TOTAL", "ACTIONS"}, rows)
}

func printQuote(p *printer, q *quote.Quote) error {
	if err := p.document(dto.ToQuoteResponse(q), [][2]string{
		{"ID", q.ID},
		{"Reference", q.DisplayReference()},
		{"Title", q.Title},
		{"Customer", strings.TrimSpace(q.CustomerName + " (" + q.CustomerID + ")")},
		{"Status", statusCell(q.Status)},
		{"Total", q.TotalAmount.StringFixed(2)},
		{"Order", firstNonEmpty(q.OrderID, "-")},
		{"Actions", joinActions(quote.AllowedActions(q.Status))},
	}); err != nil {
		return err
	}
	if p.format != formatTable || len(q.LineItems) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(q.LineItems))
	for _, li := range q.LineItems {
		rows = append(rows, []string{
			li.Description,
			li.Quantity.String(),
			li.UnitPrice.StringFixed(2),
			li.Total().StringFixed(2),
		})
	}
	return p.emit(nil, []string{"DESCRIPTION", "QTY", "UNIT PRICE", "TOTAL"}, rows)
}

func printProposals(p *printer, panel string, proposals []smartquote.Proposal) error {
	if proposals == nil {
		proposals = []smartquote.Proposal{}
	}
	rows := make([][]string, 0, len(proposals))
	for i, prop := range proposals {
		var meta []string
		for k, v := range prop.Meta {
			meta = append(meta, k+"="+v)
		}
		slices.Sort(meta)
		rows = append(rows, []string{
			strconv.Itoa(i),
			prop.Title,
			prop.Detail,
			strconv.Itoa(len(prop.Items)),
			strings.Join(meta, " "),
		})
	}
	return p.emit(dto.PanelResponse{Panel: panel, Proposals: proposals},
		[]string{"#", "TITLE", "DETAIL", "ITEMS", "INFO"}, rows)
}

func printDocument(p *printer, out, key, url string, size int64, pages int, pdf []byte) error {
	if out != "" {
		if err := os.WriteFile(out, pdf, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		p.messagef("Wrote %s", out)
	}
	return p.document(dto.DocumentResponse{Key: key, URL: url, Size: size, PageCount: pages}, [][2]string{
		{"Key", key},
		{"URL", firstNonEmpty(url, "-")},
		{"Pages", strconv.Itoa(pages)},
		{"Size", strconv.FormatInt(size, 10) + " bytes"},
	})
}

// readForm decodes a form file. JSON is detected by extension or a leading
// brace; anything else is YAML.
func readForm(stdin io.Reader, file string) (quote.Form, error) {
	var form quote.Form
	var data []byte
	var err error
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return form, fmt.Errorf("failed to read form: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.EqualFold(filepath.Ext(file), ".json") || strings.HasPrefix(trimmed, "{") {
		err = json.Unmarshal(data, &form)
	} else {
		err = yaml.Unmarshal(data, &form)
	}
	if err != nil {
		return form, fmt.Errorf("failed to parse form: %w", err)
	}
	return form, nil
}

// writeForm writes form as YAML, or JSON when the output format is json
func writeForm(cmd *cobra.Command, file, format string, form *quote.Form) error {
	var data []byte
	var err error
	if format == formatJSON {
		data, err = json.MarshalIndent(form, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(form)
	}
	if err != nil {
		return err
	}

	if file == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(file, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", file, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", file)
	return nil
}

func joinActions(actions []quote.Action) string {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	return strings.Join(names, ",")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
