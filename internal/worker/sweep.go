package worker

import (
	"StudyVault/config"
	"StudyVault/internal/repo"
	"StudyVault/internal/service"
	"context"
	"log"
	"time"
)

// RunAutoCancelSweeper periodically cancels stale pending access requests.
// A redis lock keeps overlapping deployments from sweeping at the same time;
// the sweep itself is idempotent, so a lost lock only costs duplicate work.
func RunAutoCancelSweeper(ctx context.Context) {
	interval := config.AppConfig.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepOnce(ctx)
		}
	}
}

func sweepOnce(ctx context.Context) {
	lock := repo.NewRedisLock(repo.Redis, "lock:access-request-sweep", time.Minute)
	if err := lock.Lock(ctx); err != nil {
		log.Printf("sweep: skipped: %v", err)
		return
	}
	defer lock.Unlock(ctx)

	cancelled, err := service.AutoCancelSweep(time.Now())
	if err != nil {
		log.Printf("sweep: failed: %v", err)
		return
	}
	if cancelled > 0 {
		log.Printf("sweep: cancelled %d stale access requests", cancelled)
	}
}
