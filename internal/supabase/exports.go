package supabase

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"layertext-backend/internal/models"
)

func (d *DatabaseClient) CreateExport(ctx context.Context, export *models.Export) error {
	err := d.executor(ctx).QueryRowContext(ctx, `
		INSERT INTO exports (id, user_id, upload_id, export_url, storage_path, text_content,
			font_size, font_color, shadow, position_x, position_y)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`, export.ID, export.UserID, export.UploadID, export.ExportURL, export.StoragePath, export.TextContent,
		export.FontSize, export.FontColor, export.Shadow, export.PositionX, export.PositionY).Scan(&export.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create export: %w", err)
	}
	return nil
}

func (d *DatabaseClient) ListExports(ctx context.Context, userID string, limit, offset int) ([]models.Export, error) {
	query, args, err := d.builder.
		Select("id", "user_id", "upload_id", "export_url", "storage_path", "text_content",
			"font_size", "font_color", "shadow", "position_x", "position_y", "created_at").
		From("exports").
		Where("user_id = ?", userID).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := d.executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	defer rows.Close()

	var exports []models.Export
	for rows.Next() {
		var e models.Export
		if err := rows.Scan(&e.ID, &e.UserID, &e.UploadID, &e.ExportURL, &e.StoragePath, &e.TextContent,
			&e.FontSize, &e.FontColor, &e.Shadow, &e.PositionX, &e.PositionY, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan export: %w", err)
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}

// CountExports counts the user's exports created at or after since. A zero since
// counts everything.
func (d *DatabaseClient) CountExports(ctx context.Context, userID string, since time.Time) (int, error) {
	q := d.builder.Select("COUNT(*)").From("exports").Where(sq.Eq{"user_id": userID})
	if !since.IsZero() {
		q = q.Where(sq.GtOrEq{"created_at": since})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	var n int
	if err := d.executor(ctx).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count exports: %w", err)
	}
	return n, nil
}

// DailyExportCounts returns one row per UTC day with at least one export since the
// given time, oldest first.
func (d *DatabaseClient) DailyExportCounts(ctx context.Context, userID string, since time.Time) ([]models.DailyExportCount, error) {
	query, args, err := d.builder.
		Select("date_trunc('day', created_at AT TIME ZONE 'UTC') AS day", "COUNT(*)").
		From("exports").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.GtOrEq{"created_at": since}).
		GroupBy("day").
		OrderBy("day").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := d.executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count daily exports: %w", err)
	}
	defer rows.Close()

	var counts []models.DailyExportCount
	for rows.Next() {
		var c models.DailyExportCount
		if err := rows.Scan(&c.Day, &c.Exports); err != nil {
			return nil, fmt.Errorf("failed to scan daily export count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
