package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kampfth/partner-center/internal/balance"
	jobmetrics "github.com/kampfth/partner-center/internal/jobs"
)

// LedgerWarmer is the slice of the balance service the warm job needs.
type LedgerWarmer interface {
	Years(ctx context.Context) ([]int, error)
	GetYear(ctx context.Context, year int) (*balance.Year, error)
}

// NewBalanceWarmHandler returns the handler that recomputes every fiscal
// year so dashboard reads hit a warm cache. GetYear populates the cache as
// a side effect; the computed value itself is discarded.
func NewBalanceWarmHandler(warmer LedgerWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskBalanceWarm)
		var payload BalanceWarmPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return tracker.End(asynq.SkipRetry)
		}

		years, err := warmer.Years(ctx)
		if err != nil {
			return tracker.End(err)
		}
		start := time.Now()
		for _, year := range years {
			if _, err := warmer.GetYear(ctx, year); err != nil {
				logger.Error("warm ledger", slog.Int("year", year), slog.Any("error", err))
				return tracker.End(err)
			}
		}
		logger.Info("ledger cache warmed",
			slog.Int("years", len(years)),
			slog.Duration("took", time.Since(start)),
			slog.Time("requested_at", payload.RequestedAt),
		)
		return tracker.End(nil)
	}
}

// NewImportPruneHandler returns the handler that deletes import history
// entries older than the payload's retention window.
func NewImportPruneHandler(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskImportPrune)
		var payload ImportPrunePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return tracker.End(asynq.SkipRetry)
		}
		if payload.KeepDays <= 0 {
			payload.KeepDays = 180
		}
		tag, err := pool.Exec(ctx,
			`DELETE FROM import_logs WHERE created_at < now() - make_interval(days => $1)`,
			payload.KeepDays)
		if err != nil {
			logger.Error("prune import logs", slog.Any("error", err))
			return tracker.End(err)
		}
		logger.Info("import logs pruned",
			slog.Int64("deleted", tag.RowsAffected()),
			slog.Int("keep_days", payload.KeepDays),
		)
		return tracker.End(nil)
	}
}
