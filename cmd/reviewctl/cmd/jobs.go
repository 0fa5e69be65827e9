package cmd

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/reviewdesk/reviewdesk/internal/conversions"
	"github.com/reviewdesk/reviewdesk/jobs"
)

var syncNetworks = []string{conversions.NetworkImpact, conversions.NetworkPartnerstack}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// jobsClient wraps manual management helpers for asynq jobs.
type jobsClient struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

func newJobsClient(opts asynq.RedisClientOpt) (*jobsClient, error) {
	client, err := jobs.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return &jobsClient{client: client, inspector: asynq.NewInspector(opts)}, nil
}

func (c *jobsClient) Close() error {
	return errors.Join(c.inspector.Close(), c.client.Close())
}

func (c *jobsClient) inspect() (QueueStats, error) {
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	return stats, nil
}

// validateTrigger checks a trigger request before any connection is made.
func validateTrigger(name string, networks []string) error {
	if name != jobs.TaskAffiliateSync {
		return fmt.Errorf("unsupported job %q (supported: %s)", name, jobs.TaskAffiliateSync)
	}
	if len(networks) == 0 {
		return errors.New("--network is required")
	}
	for _, network := range networks {
		if !slices.Contains(syncNetworks, network) {
			return fmt.Errorf("unknown network %q (supported: %v)", network, syncNetworks)
		}
	}
	return nil
}

func newJobsCmd(rt *runtime) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Trigger and inspect background jobs",
	}

	var networks []string
	var all bool
	triggerCmd := &cobra.Command{
		Use:     "trigger <job>",
		Short:   "Enqueue a job immediately",
		Example: "reviewctl jobs trigger affiliate:sync --network impact",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				networks = syncNetworks
			}
			if err := validateTrigger(args[0], networks); err != nil {
				return err
			}
			client, err := newJobsClient(rt.cfg.redis().AsynqOpt())
			if err != nil {
				return err
			}
			defer client.Close()
			return enqueueSync(cmd.Context(), cmd, client.client, networks)
		},
	}
	triggerCmd.Flags().StringSliceVar(&networks, "network", nil, "affiliate network to sync (repeatable)")
	triggerCmd.Flags().BoolVar(&all, "all", false, "sync every network")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show default queue statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newJobsClient(rt.cfg.redis().AsynqOpt())
			if err != nil {
				return err
			}
			defer client.Close()
			stats, err := client.inspect()
			if err != nil {
				return fmt.Errorf("inspect queue: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
				stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
			return nil
		},
	}

	jobsCmd.AddCommand(triggerCmd, statusCmd)
	return jobsCmd
}

func enqueueSync(ctx context.Context, cmd *cobra.Command, client *jobs.Client, networks []string) error {
	for _, network := range networks {
		info, err := client.EnqueueAffiliateSync(ctx, network)
		if err != nil {
			return fmt.Errorf("enqueue %s: %w", network, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s network=%s id=%s\n", info.Type, network, info.ID)
	}
	return nil
}
