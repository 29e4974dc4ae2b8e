package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bullboard-admin",
		Short:         "Inspect and operate BullMQ queues",
		Long:          "bullboard-admin reads its Redis and board settings from the same environment as the bullboard server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().DurationVar(&ctx.timeout, "timeout", defaultCommandTimeout, "Timeout for each command")

	rootCmd.AddCommand(
		newJobsCommand(ctx),
		newShowCommand(ctx),
		newLogsCommand(ctx),
		newRetryCommand(ctx),
		newDeleteCommand(ctx),
		newAddCommand(ctx),
		newQueuesCommand(ctx),
		newInsightsCommand(ctx),
		newPauseCommand(ctx),
		newResumeCommand(ctx),
		newCleanCommand(ctx),
		newSeedCommand(ctx),
	)

	return rootCmd
}
