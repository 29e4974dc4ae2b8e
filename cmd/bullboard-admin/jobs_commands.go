package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/target/bullboard/internal/domain/jobview"
	"github.com/target/bullboard/internal/domain/model"
	apperrors "github.com/target/bullboard/internal/errors"
	"github.com/target/bullboard/internal/util"
)

type jobsOptions struct {
	search    string
	statuses  []string
	queue     string
	sort      string
	page      int
	pageSize  int
	dataQuery string
	asJSON    bool
}

func (o jobsOptions) filter(defaultPageSize int) (model.FilterState, error) {
	f := model.DefaultFilterState(defaultPageSize)
	f.SearchText = o.search
	if len(o.statuses) > 0 {
		f.StatusFilters = o.statuses
	}
	if q := strings.TrimSpace(o.queue); q != "" {
		f.QueueFilter = q
	}
	if s := strings.TrimSpace(o.sort); s != "" {
		col, rawDir, hasDir := strings.Cut(s, ":")
		f.SortColumn = col
		f.SortDirection = model.SortAscend
		if hasDir {
			dir, ok := model.ParseSortDirection(rawDir)
			if !ok {
				return f, apperrors.Validationf("invalid sort direction %q (use asc or desc)", rawDir)
			}
			f.SortDirection = dir
		}
	}
	if o.page > 0 {
		f.CurrentPage = o.page
	}
	if o.pageSize > 0 {
		f.PageSize = o.pageSize
	}
	f.DataQuery = strings.TrimSpace(o.dataQuery)
	return f, nil
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var opts jobsOptions

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List jobs with the board's filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withApp(cmd.Context(), func(c context.Context, app *appHandle) error {
				f, err := opts.filter(app.PageSize)
				if err != nil {
					return err
				}
				page, err := app.Board.Jobs(c, f)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return writeJSON(cmd, page)
				}
				return printJobPage(cmd, app, page)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.search, "search", "q", "", "Case-insensitive substring search over id and name")
	cmd.Flags().StringSliceVarP(&opts.statuses, "status", "s", nil, "Status filter (repeatable or comma separated)")
	cmd.Flags().StringVar(&opts.queue, "queue", "", "Queue filter")
	cmd.Flags().StringVar(&opts.sort, "sort", "", "Sort column with optional direction, e.g. timestamp:desc")
	cmd.Flags().IntVar(&opts.page, "page", 1, "Page number")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 0, "Rows per page (defaults to BOARD_DEFAULT_PAGE_SIZE)")
	cmd.Flags().StringVar(&opts.dataQuery, "data-query", "", "JMESPath expression over job data")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print JSON")
	return cmd
}

func printJobPage(cmd *cobra.Command, app *appHandle, page model.JobPage) error {
	out := cmd.OutOrStdout()
	if page.Total == 0 {
		fmt.Fprintln(out, "No jobs match.")
		return nil
	}

	rows := make([][]string, 0, len(page.Rows))
	for _, r := range page.Rows {
		rows = append(rows, []string{
			r.ID,
			r.QueueName,
			r.Name,
			util.StatusLabel(r.CurrentStatus),
			strconv.Itoa(r.AttemptsMade),
			util.FormatTimestamp(&r.Timestamp, app.Location),
			util.FormatTimestamp(r.FinishedOn, app.Location),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Queue", "Name", "Status", "Attempts", "Created", "Finished"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	))
	fmt.Fprintf(out, "Page %d of %d (%s)\n",
		page.Page, jobview.PageCount(page.Total, page.PageSize), util.FormatJobCount(page.Total))
	return nil
}

func parseJobRef(args []string) model.JobRef {
	return model.JobRef{Queue: args[0], ID: args[1]}
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <queue> <id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(c context.Context, app *appHandle) error {
				detail, err := app.Board.Detail(c, parseJobRef(args))
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, detail)
				}
				printDetail(cmd, detail)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func printDetail(cmd *cobra.Command, d model.JobDetail) {
	out := cmd.OutOrStdout()
	fields := [][]string{
		{"ID", d.Row.ID},
		{"Queue", d.Row.QueueName},
		{"Name", d.Row.Name},
		{"Status", d.StatusLabel},
		{"Attempts", strconv.Itoa(d.Row.AttemptsMade)},
		{"Created", d.CreatedAt},
		{"Processed", d.ProcessedAt},
		{"Finished", d.FinishedAt},
	}
	if d.Duration != "" {
		fields = append(fields, []string{"Duration", d.Duration})
	}
	if d.ProgressText != "" {
		fields = append(fields, []string{"Progress", d.ProgressText})
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, fields, nil))

	for _, section := range []struct{ title, body string }{
		{"Data", d.DataJSON},
		{"Options", d.OptsJSON},
		{"Return value", d.ReturnJSON},
		{"Error", d.ErrorTrace},
	} {
		if section.body == "" {
			continue
		}
		fmt.Fprintf(out, "\n%s:\n%s\n", section.title, section.body)
	}
}

func newLogsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logs <queue> <id>",
		Short: "Print a job's log lines",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(c context.Context, app *appHandle) error {
				lines, err := app.Actions.Logs(c, parseJobRef(args))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(lines) == 0 {
					fmt.Fprintln(out, "No logs.")
					return nil
				}
				for _, line := range lines {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <queue> <id>",
		Short: "Retry a failed job",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(c context.Context, app *appHandle) error {
				ref := parseJobRef(args)
				if err := app.Actions.Retry(c, ref); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried job %s in %s\n", ref.ID, ref.Queue)
				return nil
			})
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <queue> <id>",
		Short: "Delete a job and its logs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := parseJobRef(args)
			if err := confirm(cmd, yes, fmt.Sprintf("Delete job %s from %s?", ref.ID, ref.Queue)); err != nil {
				return err
			}
			return ctx.withApp(cmd.Context(), func(c context.Context, app *appHandle) error {
				if err := app.Actions.Delete(c, ref); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %s from %s\n", ref.ID, ref.Queue)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

type addOptions struct {
	data     string
	jobID    string
	delay    int64
	priority int
	attempts int
	lifo     bool
}

func (o addOptions) request(queue, name string) model.AddJobRequest {
	req := model.AddJobRequest{Queue: queue, Name: name}
	if strings.TrimSpace(o.data) != "" {
		req.Data = model.ParseJobData(o.data)
	}
	jobOpts := model.JobOptions{
		JobID:    strings.TrimSpace(o.jobID),
		Delay:    o.delay,
		Priority: o.priority,
		Attempts: o.attempts,
		LIFO:     o.lifo,
	}
	if jobOpts.JobID != "" || jobOpts.Delay != 0 || jobOpts.Priority != 0 || jobOpts.Attempts != 0 || jobOpts.LIFO {
		req.Options = &jobOpts
	}
	return req
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var opts addOptions
	cmd := &cobra.Command{
		Use:   "add <queue> <name>",
		Short: "Add a job to a queue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(c context.Context, app *appHandle) error {
				row, err := app.Actions.AddJob(c, opts.request(args[0], args[1]))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added job %s to %s (%s)\n",
					row.ID, row.QueueName, util.StatusLabel(row.CurrentStatus))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&opts.data, "data", "d", "", "Job data; JSON or plain text")
	cmd.Flags().StringVar(&opts.jobID, "job-id", "", "Custom job id")
	cmd.Flags().Int64Var(&opts.delay, "delay", 0, "Delay in milliseconds")
	cmd.Flags().IntVar(&opts.priority, "priority", 0, "Priority (1 is highest)")
	cmd.Flags().IntVar(&opts.attempts, "attempts", 0, "Total attempts before the job fails")
	cmd.Flags().BoolVar(&opts.lifo, "lifo", false, "Add to the front of the wait list")
	return cmd
}
