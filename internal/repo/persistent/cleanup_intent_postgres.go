package persistent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/postgres"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/types/errs"
	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	// Table
	intentsTable = "cleanup_intents"

	// Columns
	intentIDColumn          = "id"
	intentAggregateColumn   = "aggregate"
	intentAggregateIDColumn = "aggregate_id"
	intentKeysColumn        = "keys"
	intentStatusColumn      = "status"
	intentRetryCountColumn  = "retry_count"
	intentLastErrorColumn   = "last_error"
	intentCreatedAtColumn   = "created_at"
	intentUpdatedAtColumn   = "updated_at"
	intentProcessedAtColumn = "processed_at"

	maxLastErrorLen = 1024
)

var intentColumns = []string{
	intentIDColumn,
	intentAggregateColumn,
	intentAggregateIDColumn,
	intentKeysColumn,
	intentStatusColumn,
	intentRetryCountColumn,
	intentLastErrorColumn,
	intentCreatedAtColumn,
	intentUpdatedAtColumn,
	intentProcessedAtColumn,
}

type CleanupIntentRepo struct {
	*postgres.Postgres
}

func NewCleanupIntentRepo(pg *postgres.Postgres) *CleanupIntentRepo {
	return &CleanupIntentRepo{pg}
}

func (r *CleanupIntentRepo) Create(ctx context.Context, intent *entity.CleanupIntent) error {
	sql, args, err := r.Builder.
		Insert(intentsTable).
		Columns(
			intentIDColumn,
			intentAggregateColumn,
			intentAggregateIDColumn,
			intentKeysColumn,
			intentStatusColumn,
			intentRetryCountColumn,
			intentLastErrorColumn,
			intentCreatedAtColumn,
			intentUpdatedAtColumn,
		).
		Values(
			intent.ID,
			intent.Aggregate,
			intent.AggregateID,
			intent.Keys,
			intent.Status,
			intent.RetryCount,
			intent.LastError,
			intent.CreatedAt,
			intent.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("CleanupIntentRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("CleanupIntentRepo - Create - executor.Exec: %w: %w", errs.ErrStore, err)
	}

	return nil
}

func (r *CleanupIntentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.CleanupIntent, error) {
	sql, args, err := r.Builder.
		Select(intentColumns...).
		From(intentsTable).
		Where(squirrel.Eq{intentIDColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("CleanupIntentRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	intent, err := scanIntent(executor.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("CleanupIntentRepo - GetByID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("CleanupIntentRepo - GetByID - executor.QueryRow: %w: %w", errs.ErrStore, err)
	}

	return intent, nil
}

func (r *CleanupIntentRepo) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()

	sql, args, err := r.Builder.
		Update(intentsTable).
		Set(intentStatusColumn, entity.IntentCompleted).
		Set(intentUpdatedAtColumn, now).
		Set(intentProcessedAtColumn, now).
		Where(squirrel.Eq{intentIDColumn: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("CleanupIntentRepo - MarkCompleted - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("CleanupIntentRepo - MarkCompleted - executor.Exec: %w: %w", errs.ErrStore, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("CleanupIntentRepo - MarkCompleted: %w", errs.ErrRecordNotFound)
	}

	return nil
}

// GetStalePending returns pending intents untouched since staleBefore, oldest
// first. Fresh intents still belong to the request that created them.
func (r *CleanupIntentRepo) GetStalePending(ctx context.Context, staleBefore time.Time, maxRetries, limit int) ([]*entity.CleanupIntent, error) {
	sql, args, err := r.Builder.
		Select(intentColumns...).
		From(intentsTable).
		Where(squirrel.And{
			squirrel.Eq{intentStatusColumn: entity.IntentPending},
			squirrel.Lt{intentRetryCountColumn: maxRetries},
			squirrel.Lt{intentUpdatedAtColumn: staleBefore},
		}).
		OrderBy(intentCreatedAtColumn + " ASC").
		Limit(uint64(limit)). //nolint:gosec // limit comes from config
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("CleanupIntentRepo - GetStalePending - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("CleanupIntentRepo - GetStalePending - executor.Query: %w: %w", errs.ErrStore, err)
	}
	defer rows.Close()

	intents := make([]*entity.CleanupIntent, 0, limit)
	for rows.Next() {
		intent, err := scanIntent(rows)
		if err != nil {
			return nil, fmt.Errorf("CleanupIntentRepo - GetStalePending - rows.Scan: %w: %w", errs.ErrStore, err)
		}
		intents = append(intents, intent)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("CleanupIntentRepo - GetStalePending - rows.Err: %w: %w", errs.ErrStore, err)
	}

	return intents, nil
}

func (r *CleanupIntentRepo) MarkAsProcessingBatch(ctx context.Context, ids uuid.UUIDs) error {
	sql, args, err := r.Builder.
		Update(intentsTable).
		Set(intentStatusColumn, entity.IntentProcessing).
		Set(intentUpdatedAtColumn, time.Now().UTC()).
		Where(squirrel.Eq{intentIDColumn: ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("CleanupIntentRepo - MarkAsProcessingBatch - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("CleanupIntentRepo - MarkAsProcessingBatch - executor.Exec: %w: %w", errs.ErrStore, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("CleanupIntentRepo - MarkAsProcessingBatch: %w", errs.ErrRecordNotFound)
	}

	return nil
}

// IncrementRetryCountBatch returns the intents to pending with one more
// recorded attempt.
func (r *CleanupIntentRepo) IncrementRetryCountBatch(ctx context.Context, ids uuid.UUIDs, lastError string) error {
	lastError = truncateLastError(lastError)

	sql, args, err := r.Builder.
		Update(intentsTable).
		Set(intentRetryCountColumn, squirrel.Expr(intentRetryCountColumn+" + 1")).
		Set(intentStatusColumn, entity.IntentPending).
		Set(intentLastErrorColumn, lastError).
		Set(intentUpdatedAtColumn, time.Now().UTC()).
		Where(squirrel.Eq{intentIDColumn: ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("CleanupIntentRepo - IncrementRetryCountBatch - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("CleanupIntentRepo - IncrementRetryCountBatch - executor.Exec: %w: %w", errs.ErrStore, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("CleanupIntentRepo - IncrementRetryCountBatch: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *CleanupIntentRepo) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) (int64, error) {
	sql, args, err := r.Builder.
		Update(intentsTable).
		Set(intentStatusColumn, entity.IntentFailed).
		Set(intentUpdatedAtColumn, time.Now().UTC()).
		Where(squirrel.And{
			squirrel.Eq{intentStatusColumn: entity.IntentPending},
			squirrel.GtOrEq{intentRetryCountColumn: maxRetries},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("CleanupIntentRepo - MarkMaxRetriesAsFailed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("CleanupIntentRepo - MarkMaxRetriesAsFailed - executor.Exec: %w: %w", errs.ErrStore, err)
	}

	return tag.RowsAffected(), nil
}

// RequeueStuckProcessing puts intents that were dispatched but never
// completed back to pending, counting the lost attempt.
func (r *CleanupIntentRepo) RequeueStuckProcessing(ctx context.Context, stuckBefore time.Time) (int64, error) {
	sql, args, err := r.Builder.
		Update(intentsTable).
		Set(intentStatusColumn, entity.IntentPending).
		Set(intentRetryCountColumn, squirrel.Expr(intentRetryCountColumn+" + 1")).
		Set(intentUpdatedAtColumn, time.Now().UTC()).
		Where(squirrel.And{
			squirrel.Eq{intentStatusColumn: entity.IntentProcessing},
			squirrel.Lt{intentUpdatedAtColumn: stuckBefore},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("CleanupIntentRepo - RequeueStuckProcessing - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("CleanupIntentRepo - RequeueStuckProcessing - executor.Exec: %w: %w", errs.ErrStore, err)
	}

	return tag.RowsAffected(), nil
}

func (r *CleanupIntentRepo) DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error) {
	sql, args, err := r.Builder.
		Delete(intentsTable).
		Where(squirrel.And{
			squirrel.Eq{intentStatusColumn: []entity.IntentStatus{entity.IntentCompleted, entity.IntentFailed}},
			squirrel.Lt{intentUpdatedAtColumn: before},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("CleanupIntentRepo - DeleteFinishedBefore - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("CleanupIntentRepo - DeleteFinishedBefore - executor.Exec: %w: %w", errs.ErrStore, err)
	}

	return tag.RowsAffected(), nil
}

func scanIntent(row pgx.Row) (*entity.CleanupIntent, error) {
	var intent entity.CleanupIntent

	err := row.Scan(
		&intent.ID,
		&intent.Aggregate,
		&intent.AggregateID,
		&intent.Keys,
		&intent.Status,
		&intent.RetryCount,
		&intent.LastError,
		&intent.CreatedAt,
		&intent.UpdatedAt,
		&intent.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}

	return &intent, nil
}

// truncateLastError cuts s to at most maxLastErrorLen bytes on a rune
// boundary. TEXT columns reject invalid UTF-8.
func truncateLastError(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if len(s) <= maxLastErrorLen {
		return s
	}

	cut := maxLastErrorLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut]
}
