package agent

import "context"

// Agent is a background worker with an optional cron schedule.
//
// Implementations:
//   - NewsAgent: imports and rewrites articles from RSS feeds
//   - PlayerCountAgent: samples Steam player counts
//   - GameSyncAgent: refreshes catalog metadata
//   - CleanupAgent: prunes expired cache rows and old samples
type Agent interface {
	// GetName returns the unique agent name, used for logging and manual runs.
	GetName() string

	// GetSchedule returns the cron expression (for example "0 7,19 * * *").
	// An empty string registers the agent as on-demand only.
	GetSchedule() string

	// Execute runs the agent's task once.
	Execute(ctx context.Context) error
}
