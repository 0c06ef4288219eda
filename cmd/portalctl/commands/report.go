package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"portal-backend/internal/bootstrap"
	"portal-backend/internal/compliance"
)

func newReportCommand(env Env) *cobra.Command {
	var month, category, department string

	cmd := &cobra.Command{
		Use:   "report",
		Args:  cobra.NoArgs,
		Short: "Print the compliance report",
		Long:  `Print one row per employee and category. Without --month the report covers all time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := compliance.Query{Category: category, Department: department}
			if month != "" {
				w, err := compliance.ParseMonth(month)
				if err != nil {
					return err
				}
				q.Window = &w
			}
			return withApp(cmd, env, func(app *bootstrap.App) error {
				rows, err := app.ComplianceService.Compute(cmd.Context(), q)
				if err != nil {
					return err
				}
				return printReport(cmd, rows)
			})
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM")
	cmd.Flags().StringVar(&category, "category", "all", "file category")
	cmd.Flags().StringVar(&department, "department", "all", "department")

	return cmd
}

func printReport(cmd *cobra.Command, rows []compliance.Row) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EMPLOYEE\tDEPARTMENT\tCATEGORY\tSTATUS\tLAST UPLOAD\tDAYS OVERDUE")
	for _, r := range rows {
		last, days := "-", "-"
		if r.LastUpload != nil {
			last = r.LastUpload.UTC().Format("2006-01-02")
		}
		if r.DaysOverdue != nil {
			days = strconv.Itoa(*r.DaysOverdue)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.EmployeeName, r.Department, r.Category, r.Status, last, days)
	}
	s := compliance.Summarize(rows)
	fmt.Fprintf(tw, "\ntotal %d\tuploaded %d\tpending %d\toverdue %d\tmissing %d\t\n", s.Total, s.Uploaded, s.Pending, s.Overdue, s.Missing)
	return tw.Flush()
}
