package persistent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/dto"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/postgres"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/types/errs"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

const (
	// Table
	mediaTable = "media_assets"

	// Columns
	mediaIDColumn           = "id"
	mediaParentColumn       = "parent"
	mediaAthleteIDColumn    = "athlete_id"
	mediaNameColumn         = "name"
	mediaDescriptionColumn  = "description"
	mediaDateColumn         = "date"
	mediaCategoryColumn     = "category"
	mediaURLColumn          = "media_url"
	mediaTypeColumn         = "media_type"
	mediaThumbnailURLColumn = "thumbnail_url"
	mediaVersionColumn      = "version"
	mediaCreatedAtColumn    = "created_at"
	mediaUpdatedAtColumn    = "updated_at"
)

var mediaColumns = []string{
	mediaIDColumn,
	mediaParentColumn,
	mediaAthleteIDColumn,
	mediaNameColumn,
	mediaDescriptionColumn,
	mediaDateColumn,
	mediaCategoryColumn,
	mediaURLColumn,
	mediaTypeColumn,
	mediaThumbnailURLColumn,
	mediaVersionColumn,
	mediaCreatedAtColumn,
	mediaUpdatedAtColumn,
}

type MediaRepo struct {
	*postgres.Postgres
}

func NewMediaRepo(pg *postgres.Postgres) *MediaRepo {
	return &MediaRepo{pg}
}

func (r *MediaRepo) Create(ctx context.Context, media *entity.MediaAsset) error {
	now := time.Now().UTC()

	sql, args, err := r.Builder.
		Insert(mediaTable).
		Columns(
			mediaParentColumn,
			mediaAthleteIDColumn,
			mediaNameColumn,
			mediaDescriptionColumn,
			mediaDateColumn,
			mediaCategoryColumn,
			mediaURLColumn,
			mediaTypeColumn,
			mediaThumbnailURLColumn,
			mediaVersionColumn,
			mediaCreatedAtColumn,
			mediaUpdatedAtColumn,
		).
		Values(
			media.Parent,
			media.AthleteID,
			media.Name,
			media.Description,
			media.Date,
			media.Category,
			media.MediaURL,
			media.MediaType,
			media.ThumbnailURL,
			1,
			now,
			now,
		).
		Suffix("RETURNING " + mediaIDColumn).
		ToSql()
	if err != nil {
		return fmt.Errorf("MediaRepo - Create - r.Builder.ToSql: %w", err)
	}

	// Pool / Tx
	executor := r.GetExecutor(ctx)

	err = executor.QueryRow(ctx, sql, args...).Scan(&media.ID)
	if err != nil {
		return fmt.Errorf("MediaRepo - Create - executor.QueryRow: %w: %w", errs.ErrStore, err)
	}

	media.Version = 1
	media.CreatedAt = now
	media.UpdatedAt = now

	return nil
}

func (r *MediaRepo) GetByID(ctx context.Context, id int64) (*entity.MediaAsset, error) {
	sql, args, err := r.Builder.
		Select(mediaColumns...).
		From(mediaTable).
		Where(squirrel.Eq{mediaIDColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("MediaRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	media, err := scanMedia(executor.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("MediaRepo - GetByID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("MediaRepo - GetByID - executor.QueryRow: %w: %w", errs.ErrStore, err)
	}

	return media, nil
}

func (r *MediaRepo) List(ctx context.Context, filter dto.MediaFilter) ([]*entity.MediaAsset, error) {
	where := squirrel.And{squirrel.Eq{mediaParentColumn: filter.Parent}}
	if filter.AthleteID != nil {
		where = append(where, squirrel.Eq{mediaAthleteIDColumn: *filter.AthleteID})
	}

	sql, args, err := r.Builder.
		Select(mediaColumns...).
		From(mediaTable).
		Where(where).
		OrderBy(mediaDateColumn+" DESC NULLS LAST", mediaIDColumn+" DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("MediaRepo - List - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("MediaRepo - List - executor.Query: %w: %w", errs.ErrStore, err)
	}
	defer rows.Close()

	items := make([]*entity.MediaAsset, 0)
	for rows.Next() {
		media, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("MediaRepo - List - rows.Scan: %w: %w", errs.ErrStore, err)
		}
		items = append(items, media)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("MediaRepo - List - rows.Err: %w: %w", errs.ErrStore, err)
	}

	return items, nil
}

func (r *MediaRepo) Update(ctx context.Context, media *entity.MediaAsset) error {
	now := time.Now().UTC()

	sql, args, err := r.Builder.
		Update(mediaTable).
		Set(mediaNameColumn, media.Name).
		Set(mediaDescriptionColumn, media.Description).
		Set(mediaDateColumn, media.Date).
		Set(mediaCategoryColumn, media.Category).
		Set(mediaURLColumn, media.MediaURL).
		Set(mediaTypeColumn, media.MediaType).
		Set(mediaThumbnailURLColumn, media.ThumbnailURL).
		Set(mediaVersionColumn, squirrel.Expr(mediaVersionColumn+" + 1")).
		Set(mediaUpdatedAtColumn, now).
		Where(squirrel.Eq{
			mediaIDColumn:      media.ID,
			mediaVersionColumn: media.Version,
		}).
		Suffix("RETURNING " + mediaVersionColumn).
		ToSql()
	if err != nil {
		return fmt.Errorf("MediaRepo - Update - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var version int64
	err = executor.QueryRow(ctx, sql, args...).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("MediaRepo - Update: %w", r.missingOrConflict(ctx, media.ID))
		}
		return fmt.Errorf("MediaRepo - Update - executor.QueryRow: %w: %w", errs.ErrStore, err)
	}

	media.Version = version
	media.UpdatedAt = now

	return nil
}

func (r *MediaRepo) Delete(ctx context.Context, id int64, version int64) error {
	where := squirrel.Eq{mediaIDColumn: id}
	if version > 0 {
		where[mediaVersionColumn] = version
	}

	sql, args, err := r.Builder.
		Delete(mediaTable).
		Where(where).
		ToSql()
	if err != nil {
		return fmt.Errorf("MediaRepo - Delete - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("MediaRepo - Delete - executor.Exec: %w: %w", errs.ErrStore, err)
	}

	if tag.RowsAffected() == 0 {
		if version <= 0 {
			return fmt.Errorf("MediaRepo - Delete: %w", errs.ErrRecordNotFound)
		}
		return fmt.Errorf("MediaRepo - Delete: %w", r.missingOrConflict(ctx, id))
	}

	return nil
}

// missingOrConflict explains why a versioned write matched no row.
func (r *MediaRepo) missingOrConflict(ctx context.Context, id int64) error {
	_, err := r.GetByID(ctx, id)
	if err == nil {
		return errs.ErrConflict
	}
	if errors.Is(err, errs.ErrRecordNotFound) {
		return errs.ErrRecordNotFound
	}

	return err
}

func scanMedia(row pgx.Row) (*entity.MediaAsset, error) {
	var m entity.MediaAsset

	err := row.Scan(
		&m.ID,
		&m.Parent,
		&m.AthleteID,
		&m.Name,
		&m.Description,
		&m.Date,
		&m.Category,
		&m.MediaURL,
		&m.MediaType,
		&m.ThumbnailURL,
		&m.Version,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &m, nil
}
