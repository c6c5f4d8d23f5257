package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/factionrealms/factionbot/factionbot/economy"
	"github.com/factionrealms/factionbot/factionbot/ledger"
	"github.com/factionrealms/factionbot/factionbot/logger"
)

const runTimeout = 30 * time.Minute

// Runner drives the once-per-day economy pass: resource consumption for
// every living character followed by the aging sweep.
type Runner struct {
	engine  *economy.Engine
	ledger  *ledger.Service
	hourUTC int
}

func NewRunner(engine *economy.Engine, ledgerSvc *ledger.Service, hourUTC int) *Runner {
	if hourUTC < 0 || hourUTC > 23 {
		hourUTC = 0
	}
	return &Runner{
		engine:  engine,
		ledger:  ledgerSvc,
		hourUTC: hourUTC,
	}
}

// RunOnce executes a single daily pass. Re-running on the same day is
// harmless since per-day deduction is idempotent.
func (r *Runner) RunOnce(ctx context.Context) error {
	start := time.Now()

	results, err := r.engine.ProcessAllDailyConsumption(ctx)
	if err != nil {
		logger.LogJob("daily_consumption", time.Since(start), err)
		return err
	}

	var deducted, skipped, failed int
	for _, res := range results {
		switch {
		case res.Err != nil:
			failed++
		case res.Result != nil && res.Result.Deducted:
			deducted++
		default:
			skipped++
		}
	}
	slog.Info("Daily consumption pass finished",
		slog.String("type", "job"),
		slog.Int("deducted", deducted),
		slog.Int("skipped", skipped),
		slog.Int("failed", failed),
		slog.Duration("took", time.Since(start)))

	ageStart := time.Now()
	aged, err := r.ledger.AgeCharacters(ctx)
	logger.LogJob("character_aging", time.Since(ageStart), err)
	if err != nil {
		return err
	}
	slog.Info("Characters aged",
		slog.String("type", "job"),
		slog.Int64("count", aged))
	return nil
}

// Start launches the daily loop and returns immediately. The loop stops
// when ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	go func() {
		for {
			wait := time.Until(r.nextRun(time.Now().UTC()))
			slog.Info("Daily job scheduled",
				slog.String("type", "job"),
				slog.Duration("in", wait))

			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return
			}

			runCtx, cancel := context.WithTimeout(context.Background(), runTimeout)
			if err := r.RunOnce(runCtx); err != nil {
				slog.Error("Daily job run failed",
					slog.String("type", "job"),
					slog.Any("error", err))
			}
			cancel()
		}
	}()
}

func (r *Runner) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), r.hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
