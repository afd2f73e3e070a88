// Package retention removes old evidence records.
//
// Pruning runs in two phases:
//
//  1. Age: records evaluated more than RetentionDays ago are deleted.
//  2. Count: if more than MaxRecords remain, the oldest are deleted.
//
// Either phase is skipped when its limit is zero. Prune can be called
// directly (the "evidence prune" command does) or on a cron schedule:
//
//	pruner := retention.NewPruner(store, &retention.Config{
//	    RetentionDays: 90,
//	    PruneSchedule: "0 3 * * *",
//	}, retention.WithLogger(logger), retention.WithMetrics(collector))
//	if err := pruner.Start(ctx); err != nil {
//	    return err
//	}
//	defer pruner.Stop()
package retention
