// Package refresher runs the two background loops: the periodic
// conversation poll that backstops the live channel, and the
// cron-scheduled retention sweep over the local cache.
package refresher

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"confmatch/pkg/config"
	"confmatch/pkg/logger"
	"confmatch/pkg/store"
	csync "confmatch/pkg/sync"
)

const defaultPollInterval = 30 * time.Second

// Start launches the poll loop and, when enabled, the retention sweep.
// The poll only refreshes conversation summaries; it never touches an
// open timeline. The returned cancel stops both loops.
func Start(ctx context.Context, cfg config.Config, st *csync.Store, cache *store.Cache) (context.CancelFunc, error) {
	ctx2, cancel := context.WithCancel(ctx)

	interval := cfg.Refresh.Interval.Or(defaultPollInterval)
	go runPoll(ctx2, st, interval)
	logger.Info("poll_started", "interval", interval.String())

	ret := cfg.Cache.Retention
	if ret.Enabled && cache != nil {
		cronExpr := ret.Cron
		if cronExpr == "" {
			cronExpr = "0 3 * * *"
		}
		if !gronx.IsValid(cronExpr) {
			cancel()
			return nil, fmt.Errorf("invalid retention cron expression: %s", ret.Cron)
		}
		period, err := time.ParseDuration(ret.Period)
		if err != nil || period <= 0 {
			cancel()
			return nil, fmt.Errorf("invalid retention period %q", ret.Period)
		}
		go runSweep(ctx2, cache, cronExpr, period)
		logger.Info("retention_enabled", "cron", cronExpr, "period", ret.Period)
	}

	return cancel, nil
}

func runPoll(ctx context.Context, st *csync.Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("poll_stopping")
			return
		case <-ticker.C:
			_ = st.Refresh(ctx, "poll")
		}
	}
}

// runSweep sleeps until the next cron tick, then purges cached messages
// older than the retention period.
func runSweep(ctx context.Context, cache *store.Cache, cronExpr string, period time.Duration) {
	for {
		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-ctx.Done():
			logger.Info("retention_stopping")
			return
		case <-time.After(time.Until(next)):
		}

		cutoff := time.Now().UTC().Add(-period)
		if n, err := cache.PurgeMessagesBefore(cutoff); err != nil {
			logger.Error("retention_run_error", "error", err)
		} else if n > 0 {
			logger.Info("retention_run_complete", "purged", n)
		}
	}
}
