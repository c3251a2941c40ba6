package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/pratik-mahalle/altseo/internal/domain/image"
	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
)

// ImageRepository implements image.Repository
type ImageRepository struct {
	db *DB
}

// NewImageRepository creates a new image repository
func NewImageRepository(db *DB) image.Repository {
	return &ImageRepository{db: db}
}

const imageColumns = `
	id, user_id, filename, storage_key, public_url, content_type, size_bytes,
	width, height, alt_text, alt_text_status, created_at, updated_at
`

func scanImage(row rowScanner) (*image.Image, error) {
	var img image.Image
	var createdAt, updatedAt int64
	if err := row.Scan(
		&img.ID, &img.UserID, &img.Filename, &img.StorageKey, &img.PublicURL, &img.ContentType, &img.SizeBytes,
		&img.Width, &img.Height, &img.AltText, &img.AltTextStatus, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	img.CreatedAt = time.Unix(createdAt, 0)
	img.UpdatedAt = time.Unix(updatedAt, 0)
	return &img, nil
}

// Create inserts an image row
func (r *ImageRepository) Create(ctx context.Context, img *image.Image) error {
	now := time.Now()
	img.CreatedAt = now
	img.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO images (user_id, filename, storage_key, public_url, content_type, size_bytes,
			width, height, alt_text, alt_text_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, img.UserID, img.Filename, img.StorageKey, img.PublicURL, img.ContentType, img.SizeBytes,
		img.Width, img.Height, img.AltText, img.AltTextStatus, now.Unix(), now.Unix(),
	).Scan(&img.ID)
	observe("insert", "images", now)
	if err != nil {
		return errors.DatabaseError("Failed to save image", err)
	}
	return nil
}

// GetByID retrieves an image owned by a user
func (r *ImageRepository) GetByID(ctx context.Context, userID, id int64) (*image.Image, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images WHERE id = ? AND user_id = ?`, id, userID)
	img, err := scanImage(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("Image")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get image", err)
	}
	return img, nil
}

// List retrieves a user's images, newest first
func (r *ImageRepository) List(ctx context.Context, userID int64, filter image.Filter, limit, offset int) ([]*image.Image, int64, error) {
	where := ` WHERE user_id = ?`
	args := []interface{}{userID}
	if filter.AltTextStatus != "" {
		where += ` AND alt_text_status = ?`
		args = append(args, filter.AltTextStatus)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count images", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+imageColumns+` FROM images`+where+` ORDER BY id DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list images", err)
	}
	defer rows.Close()

	var images []*image.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan image", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to iterate images", err)
	}
	return images, total, nil
}

// UpdateAltText replaces the ALT text and its status
func (r *ImageRepository) UpdateAltText(ctx context.Context, userID, id int64, altText, status string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE images SET alt_text = ?, alt_text_status = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, altText, status, time.Now().Unix(), id, userID)
	if err != nil {
		return errors.DatabaseError("Failed to update alt text", err)
	}
	return expectRow(result, "Image")
}

// Delete deletes an image row
func (r *ImageRepository) Delete(ctx context.Context, userID, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return errors.DatabaseError("Failed to delete image", err)
	}
	return expectRow(result, "Image")
}
