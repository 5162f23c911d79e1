package persistent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/postgres"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/types/errs"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	// Table
	registrationImagesTable = "registration_images"

	// Columns
	regIDColumn        = "id"
	regSlotColumn      = "slot"
	regImageURLColumn  = "image_url"
	regTitleColumn     = "title"
	regVersionColumn   = "version"
	regUpdatedAtColumn = "updated_at"

	uniqueViolation = "23505"
)

var registrationImageColumns = []string{
	regIDColumn,
	regSlotColumn,
	regImageURLColumn,
	regTitleColumn,
	regVersionColumn,
	regUpdatedAtColumn,
}

type RegistrationImageRepo struct {
	*postgres.Postgres
}

func NewRegistrationImageRepo(pg *postgres.Postgres) *RegistrationImageRepo {
	return &RegistrationImageRepo{pg}
}

// GetBySlot locks the row when called inside a transaction.
func (r *RegistrationImageRepo) GetBySlot(ctx context.Context, slot entity.Slot) (*entity.RegistrationImage, error) {
	sql, args, err := r.Builder.
		Select(registrationImageColumns...).
		From(registrationImagesTable).
		Where(squirrel.Eq{regSlotColumn: slot}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("RegistrationImageRepo - GetBySlot - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	img, err := scanRegistrationImage(executor.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("RegistrationImageRepo - GetBySlot: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("RegistrationImageRepo - GetBySlot - executor.QueryRow: %w: %w", errs.ErrStore, err)
	}

	return img, nil
}

func (r *RegistrationImageRepo) List(ctx context.Context) ([]*entity.RegistrationImage, error) {
	sql, args, err := r.Builder.
		Select(registrationImageColumns...).
		From(registrationImagesTable).
		OrderBy(regSlotColumn).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("RegistrationImageRepo - List - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("RegistrationImageRepo - List - executor.Query: %w: %w", errs.ErrStore, err)
	}
	defer rows.Close()

	images := make([]*entity.RegistrationImage, 0, len(entity.Slots))
	for rows.Next() {
		img, err := scanRegistrationImage(rows)
		if err != nil {
			return nil, fmt.Errorf("RegistrationImageRepo - List - rows.Scan: %w: %w", errs.ErrStore, err)
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("RegistrationImageRepo - List - rows.Err: %w: %w", errs.ErrStore, err)
	}

	return images, nil
}

// Upsert relies on the unique index on slot, so two concurrent first uploads
// to a slot end up as one row. The conflict update only applies when the row
// still carries prevVersion; otherwise nothing is returned and the write is a
// conflict.
func (r *RegistrationImageRepo) Upsert(ctx context.Context, img *entity.RegistrationImage, prevVersion int64) error {
	sql, args, err := r.Builder.
		Insert(registrationImagesTable).
		Columns(
			regSlotColumn,
			regImageURLColumn,
			regTitleColumn,
			regVersionColumn,
			regUpdatedAtColumn,
		).
		Values(
			img.Slot,
			img.ImageURL,
			img.Title,
			1,
			img.UpdatedAt,
		).
		Suffix(
			"ON CONFLICT ("+regSlotColumn+") DO UPDATE SET "+
				regImageURLColumn+" = EXCLUDED."+regImageURLColumn+", "+
				regTitleColumn+" = EXCLUDED."+regTitleColumn+", "+
				regUpdatedAtColumn+" = EXCLUDED."+regUpdatedAtColumn+", "+
				regVersionColumn+" = "+registrationImagesTable+"."+regVersionColumn+" + 1 "+
				"WHERE "+registrationImagesTable+"."+regVersionColumn+" = ? "+
				"RETURNING "+regIDColumn+", "+regVersionColumn,
			prevVersion,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("RegistrationImageRepo - Upsert - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	err = executor.QueryRow(ctx, sql, args...).Scan(&img.ID, &img.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("RegistrationImageRepo - Upsert: slot %s: %w", img.Slot, errs.ErrConflict)
		}
		return fmt.Errorf("RegistrationImageRepo - Upsert - executor.QueryRow: %w: %w", errs.ErrStore, err)
	}

	return nil
}

func (r *RegistrationImageRepo) Relabel(ctx context.Context, id, version int64, to entity.Slot, at time.Time) error {
	sql, args, err := r.Builder.
		Update(registrationImagesTable).
		Set(regSlotColumn, to).
		Set(regVersionColumn, squirrel.Expr(regVersionColumn+" + 1")).
		Set(regUpdatedAtColumn, at).
		Where(squirrel.Eq{
			regIDColumn:      id,
			regVersionColumn: version,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("RegistrationImageRepo - Relabel - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("RegistrationImageRepo - Relabel: slot %s is occupied: %w", to, errs.ErrConflict)
		}
		return fmt.Errorf("RegistrationImageRepo - Relabel - executor.Exec: %w: %w", errs.ErrStore, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("RegistrationImageRepo - Relabel: %w", errs.ErrConflict)
	}

	return nil
}

func (r *RegistrationImageRepo) Delete(ctx context.Context, id, version int64) error {
	sql, args, err := r.Builder.
		Delete(registrationImagesTable).
		Where(squirrel.Eq{
			regIDColumn:      id,
			regVersionColumn: version,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("RegistrationImageRepo - Delete - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("RegistrationImageRepo - Delete - executor.Exec: %w: %w", errs.ErrStore, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("RegistrationImageRepo - Delete: %w", errs.ErrConflict)
	}

	return nil
}

func scanRegistrationImage(row pgx.Row) (*entity.RegistrationImage, error) {
	var img entity.RegistrationImage

	err := row.Scan(
		&img.ID,
		&img.Slot,
		&img.ImageURL,
		&img.Title,
		&img.Version,
		&img.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &img, nil
}
