package postgres

import (
	"context"
	"testing"

	"github.com/pratik-mahalle/altseo/internal/domain/image"
	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
)

func TestImageRepository_CRUD(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	owner := createUser(t, users, "owner@example.com")
	other := createUser(t, users, "other@example.com")
	repo := NewImageRepository(db)
	ctx := context.Background()

	img := &image.Image{
		UserID:        owner.ID,
		Filename:      "cat.png",
		StorageKey:    "users/1/abc.png",
		PublicURL:     "https://cdn.test/users/1/abc.png",
		ContentType:   "image/png",
		SizeBytes:     1024,
		Width:         640,
		Height:        480,
		AltText:       "A cat on a sofa",
		AltTextStatus: image.AltStatusGenerated,
	}
	if err := repo.Create(ctx, img); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if img.ID == 0 {
		t.Fatal("Create() did not set ID")
	}

	got, err := repo.GetByID(ctx, owner.ID, img.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Width != 640 || got.AltText != "A cat on a sofa" {
		t.Errorf("GetByID() = %+v", got)
	}

	if _, err := repo.GetByID(ctx, other.ID, img.ID); !errors.IsNotFound(err) {
		t.Errorf("GetByID(other owner) error = %v, want NOT_FOUND", err)
	}

	if err := repo.UpdateAltText(ctx, owner.ID, img.ID, "A grey cat", image.AltStatusEdited); err != nil {
		t.Fatalf("UpdateAltText() error = %v", err)
	}

	list, total, err := repo.List(ctx, owner.ID, image.Filter{AltTextStatus: image.AltStatusEdited}, 10, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].AltText != "A grey cat" {
		t.Errorf("List() = %d rows (total %d)", len(list), total)
	}

	if err := repo.Delete(ctx, other.ID, img.ID); !errors.IsNotFound(err) {
		t.Errorf("Delete(other owner) error = %v, want NOT_FOUND", err)
	}
	if err := repo.Delete(ctx, owner.ID, img.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}
