package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/target/bullboard/internal/devseed"
	"github.com/target/bullboard/internal/domain/model"
	"github.com/target/bullboard/internal/service"
	"github.com/target/bullboard/internal/util"
)

var errAborted = errors.New("aborted")

// confirm asks for a y/N answer on stdin unless yes is set.
func confirm(cmd *cobra.Command, yes bool, prompt string) error {
	if yes {
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && answer == "" {
		return errAborted
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return errAborted
	}
}

func newQueuesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "queues",
		Short: "List queues with their job counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withApp(cmd.Context(), func(c context.Context, app *appHandle) error {
				queues, err := app.Board.Queues(c)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, queues)
				}
				printQueues(cmd, queues)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func printQueues(cmd *cobra.Command, queues []model.QueueSummary) {
	out := cmd.OutOrStdout()
	if len(queues) == 0 {
		fmt.Fprintln(out, "No queues found.")
		return
	}
	statuses := []string{
		model.StatusWaiting,
		model.StatusActive,
		model.StatusDelayed,
		model.StatusFailed,
		model.StatusCompleted,
	}
	headers := []string{"Queue", "State", "Total"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight}
	for _, s := range statuses {
		headers = append(headers, util.StatusLabel(s))
		aligns = append(aligns, alignRight)
	}

	rows := make([][]string, 0, len(queues))
	for _, q := range queues {
		state := "running"
		if q.IsPaused {
			state = "paused"
		}
		row := []string{q.Name, state, strconv.Itoa(q.Total)}
		for _, s := range statuses {
			row = append(row, strconv.Itoa(q.Counts[s]))
		}
		rows = append(rows, row)
	}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
}

func newInsightsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Show the status distribution across all queues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withApp(cmd.Context(), func(c context.Context, app *appHandle) error {
				insights, err := app.Board.Insights(c)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, insights)
				}
				printInsights(cmd, insights)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func printInsights(cmd *cobra.Command, in model.Insights) {
	out := cmd.OutOrStdout()
	if in.Empty {
		fmt.Fprintln(out, "No jobs yet.")
		return
	}
	rows := make([][]string, 0, len(in.Statuses))
	for _, s := range in.Statuses {
		rows = append(rows, []string{s.Label, strconv.Itoa(s.Count), strconv.Itoa(s.Percentage) + "%"})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Status", "Jobs", "Share"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
	))
	fmt.Fprintf(out, "Total: %s\n", util.FormatJobCount(in.TotalJobs))
}

func newPauseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pause <queue>",
		Short: "Pause a queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(c context.Context, app *appHandle) error {
				if err := app.Actions.Pause(c, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Paused %s\n", args[0])
				return nil
			})
		},
	}
}

func newResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <queue>",
		Short: "Resume a paused queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(c context.Context, app *appHandle) error {
				if err := app.Actions.Resume(c, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Resumed %s\n", args[0])
				return nil
			})
		},
	}
}

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var (
		states []string
		yes    bool
	)
	cmd := &cobra.Command{
		Use:   "clean <queue>",
		Short: "Remove every job of a queue in the given states",
		Long:  "Remove every job of a queue in the given states. Valid states: " + strings.Join(service.CleanableStatuses(), ", ") + ".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(states) == 0 {
				return errors.New("at least one --state is required")
			}
			for _, s := range states {
				if !slices.Contains(service.CleanableStatuses(), strings.ToLower(strings.TrimSpace(s))) {
					return fmt.Errorf("invalid state %q", s)
				}
			}
			prompt := fmt.Sprintf("Remove all %s jobs from %s?", strings.Join(states, ", "), args[0])
			if err := confirm(cmd, yes, prompt); err != nil {
				return err
			}
			return ctx.withApp(cmd.Context(), func(c context.Context, app *appHandle) error {
				removed, err := app.Actions.Clean(c, args[0], states)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d jobs from %s\n", removed, args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&states, "state", nil, "State to clean (repeatable or comma separated)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

func newSeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Add demo jobs for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withApp(cmd.Context(), func(c context.Context, app *appHandle) error {
				res, err := devseed.Run(c, app.Backend, ctx.logger)
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d jobs, %d already present\n", res.Created, res.Skipped)
				return err
			})
		},
	}
}
