package cli

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/erp/quotedesk/internal/domain/job"
	"github.com/erp/quotedesk/internal/infrastructure/api"
	"github.com/spf13/cobra"
)

func newJobsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Production jobs",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string) error {
			app, err := e.application(cmd, nil)
			if err != nil {
				return err
			}
			jobs, err := app.Jobs.List(cmd.Context())
			if err != nil {
				return err
			}
			return printJobs(e.printer(cmd), jobs)
		}),
	}

	var draft job.Draft
	var due string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a job for an order",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string) error {
			if due != "" {
				t, err := time.Parse("2006-01-02", due)
				if err != nil {
					return fmt.Errorf("invalid --due %q, expected YYYY-MM-DD", due)
				}
				draft.DueDate = &t
			}
			app, err := e.application(cmd, nil)
			if err != nil {
				return err
			}
			j, err := app.Quotes.CreateJob(cmd.Context(), draft)
			if err != nil {
				return err
			}
			p := e.printer(cmd)
			p.messagef("Created job %s", firstNonEmpty(j.JobNumber, j.ID))
			return printJobs(p, []job.Job{*j})
		}),
	}
	create.Flags().StringVar(&draft.OrderID, "order", "", "order ID")
	create.Flags().StringVar(&draft.QuoteID, "quote", "", "quote ID")
	create.Flags().StringVar(&draft.Title, "title", "", "job title")
	create.Flags().StringVar(&draft.CustomerID, "customer", "", "customer ID")
	create.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	_ = create.MarkFlagRequired("order")

	cmd.AddCommand(list, create)
	return cmd
}

func printJobs(p *printer, jobs []job.Job) error {
	if jobs == nil {
		jobs = []job.Job{}
	}
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		dueDate := "-"
		if j.DueDate != nil {
			dueDate = j.DueDate.Format("2006-01-02")
		}
		rows = append(rows, []string{
			firstNonEmpty(j.JobNumber, j.ID), j.Title, j.Status, j.CustomerName,
			firstNonEmpty(j.OrderID, "-"), dueDate,
		})
	}
	return p.emit(jobs, []string{"JOB", "TITLE", "STATUS", "CUSTOMER", "ORDER", "DUE"}, rows)
}

func newCustomersCommand(e *env) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "customers",
		Short: "List customers",
		Long:  "List customers. An unreachable backend yields an empty list.",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string) error {
			app, err := e.application(cmd, nil)
			if err != nil {
				return err
			}
			result := app.Customers.List(cmd.Context(), page)

			rows := make([][]string, 0, len(result.Customers))
			for _, c := range result.Customers {
				rows = append(rows, []string{c.ID, c.Name, c.Company, c.Email, c.Status})
			}
			p := e.printer(cmd)
			if err := p.emit(result, []string{"ID", "NAME", "COMPANY", "EMAIL", "STATUS"}, rows); err != nil {
				return err
			}
			if result.TotalPages > 1 {
				p.messagef("Page %d of %d (%d customers)", result.CurrentPage, result.TotalPages, result.TotalCustomers)
			}
			return nil
		}),
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func newMaterialsCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "materials",
		Short: "List catalog materials",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string) error {
			app, err := e.application(cmd, nil)
			if err != nil {
				return err
			}
			materials, err := app.Catalog.Materials(cmd.Context())
			if err != nil {
				return err
			}
			if materials == nil {
				materials = []api.Material{}
			}
			rows := make([][]string, 0, len(materials))
			for _, m := range materials {
				rows = append(rows, []string{m.ID, m.Code, m.Name, m.Unit, m.UnitPrice.StringFixed(2), m.Stock.String()})
			}
			return e.printer(cmd).emit(materials, []string{"ID", "CODE", "NAME", "UNIT", "PRICE", "STOCK"}, rows)
		}),
	}
}

func newSuppliersCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "suppliers",
		Short: "List suppliers",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string) error {
			app, err := e.application(cmd, nil)
			if err != nil {
				return err
			}
			suppliers, err := app.Catalog.Suppliers(cmd.Context())
			if err != nil {
				return err
			}
			if suppliers == nil {
				suppliers = []api.Supplier{}
			}
			rows := make([][]string, 0, len(suppliers))
			for _, s := range suppliers {
				rows = append(rows, []string{s.ID, s.Name, s.Contact, s.Email, s.Phone})
			}
			return e.printer(cmd).emit(suppliers, []string{"ID", "NAME", "CONTACT", "EMAIL", "PHONE"}, rows)
		}),
	}
}

func newAuditCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit trail and legal evidence",
	}

	history := &cobra.Command{
		Use:   "history <entity-type> <id>",
		Short: "Show the audit history of an entity",
		Args:  cobra.ExactArgs(2),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			app, err := e.application(cmd, nil)
			if err != nil {
				return err
			}
			entries, err := app.Audit.History(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if entries == nil {
				entries = []api.AuditEntry{}
			}
			rows := make([][]string, 0, len(entries))
			for _, en := range entries {
				rows = append(rows, []string{
					en.Timestamp.Local().Format("2006-01-02 15:04:05"),
					en.Action,
					firstNonEmpty(en.UserName, en.UserID, "-"),
				})
			}
			return e.printer(cmd).emit(entries, []string{"TIME", "ACTION", "USER"}, rows)
		}),
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Summarize audit activity",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string) error {
			app, err := e.application(cmd, nil)
			if err != nil {
				return err
			}
			s := app.Audit.Statistics(cmd.Context())

			var rows [][]string
			for _, k := range slices.Sorted(maps.Keys(s.EventsByAction)) {
				rows = append(rows, []string{"action", k, strconv.Itoa(s.EventsByAction[k])})
			}
			for _, k := range slices.Sorted(maps.Keys(s.EventsByEntity)) {
				rows = append(rows, []string{"entity", k, strconv.Itoa(s.EventsByEntity[k])})
			}
			p := e.printer(cmd)
			p.messagef("Total events: %d", s.TotalEvents)
			return p.emit(s, []string{"BY", "NAME", "EVENTS"}, rows)
		}),
	}

	var reason string
	evidence := &cobra.Command{
		Use:   "evidence <entity-type> <id>",
		Short: "Request a legal evidence bundle for an entity",
		Args:  cobra.ExactArgs(2),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			app, err := e.application(cmd, nil)
			if err != nil {
				return err
			}
			ev, err := app.Audit.GenerateLegalEvidence(cmd.Context(), api.LegalEvidenceRequest{
				EntityType: args[0],
				EntityID:   args[1],
				Reason:     reason,
			})
			if err != nil {
				return err
			}
			return e.printer(cmd).document(ev, [][2]string{
				{"ID", ev.ID},
				{"Document", firstNonEmpty(ev.DocumentURL, "-")},
				{"Hash", firstNonEmpty(ev.Hash, "-")},
			})
		}),
	}
	evidence.Flags().StringVar(&reason, "reason", "", "why the evidence is requested")

	cmd.AddCommand(history, stats, evidence)
	return cmd
}
