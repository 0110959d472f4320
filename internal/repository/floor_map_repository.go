package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/seatplan/internal/model"
)

// FloorMapRepo keeps the single floor map image.
type FloorMapRepo struct{ db DBTX }

func NewFloorMapRepo(db DBTX) *FloorMapRepo { return &FloorMapRepo{db: db} }

// Replace deletes every stored image and inserts img.  Run it inside a
// transaction so readers never see an empty slot.
func (r *FloorMapRepo) Replace(ctx context.Context, img *model.FloorMapImage) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM floor_map_images`); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO floor_map_images (filename, data, mime_type, size) VALUES (?, ?, ?, ?)`,
		img.Filename, img.Data, img.MimeType, img.Size)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	img.ID = uint64(id)
	return nil
}

// Current returns the newest image or ErrFloorMapNotFound.
func (r *FloorMapRepo) Current(ctx context.Context) (*model.FloorMapImage, error) {
	var img model.FloorMapImage
	err := r.db.QueryRowContext(ctx,
		`SELECT id, filename, data, mime_type, size, created_at
		 FROM floor_map_images ORDER BY id DESC LIMIT 1`).
		Scan(&img.ID, &img.Filename, &img.Data, &img.MimeType, &img.Size, &img.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFloorMapNotFound
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}
