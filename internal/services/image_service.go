package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/altseo/internal/config"
	"github.com/pratik-mahalle/altseo/internal/domain/audit"
	"github.com/pratik-mahalle/altseo/internal/domain/image"
	"github.com/pratik-mahalle/altseo/internal/domain/subscription"
	"github.com/pratik-mahalle/altseo/internal/domain/usage"
	"github.com/pratik-mahalle/altseo/internal/imagecheck"
	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
	"github.com/pratik-mahalle/altseo/internal/pkg/metrics"
)

// MaxAltTextLength bounds manually edited ALT text
const MaxAltTextLength = 1000

// cleanupTimeout bounds blob removal after the request budget is spent
const cleanupTimeout = 10 * time.Second

// ImageService implements image.Service
type ImageService struct {
	repo      image.Repository
	storage   image.Storage
	describer image.Describer
	gate      usage.Gate
	audit     audit.Service
	limits    config.UploadConfig
	logger    *logger.Logger
}

// NewImageService creates a new image service. auditSvc may be nil.
func NewImageService(
	repo image.Repository,
	storage image.Storage,
	describer image.Describer,
	gate usage.Gate,
	auditSvc audit.Service,
	limits config.UploadConfig,
	log *logger.Logger,
) *ImageService {
	return &ImageService{
		repo:      repo,
		storage:   storage,
		describer: describer,
		gate:      gate,
		audit:     auditSvc,
		limits:    limits,
		logger:    log.Component("images"),
	}
}

// MaxBytes returns the upload size limit of a plan
func (s *ImageService) MaxBytes(plan string) int64 {
	if plan == subscription.PlanPro {
		return s.limits.ProMaxBytes
	}
	return s.limits.FreeMaxBytes
}

func (s *ImageService) withBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.limits.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.limits.Timeout)
}

// Upload validates, stores and describes an image. The quota is only
// counted when the describer produced ALT text.
func (s *ImageService) Upload(ctx context.Context, in image.UploadInput) (*image.Image, error) {
	ctx, cancel := s.withBudget(ctx)
	defer cancel()

	log := s.logger.WithFields(map[string]interface{}{
		"user_id":  in.UserID,
		"filename": in.Filename,
	})

	res, err := s.gate.Reserve(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	settled := false
	defer func() {
		if !settled {
			res.Release()
		}
	}()

	check := imagecheck.Validate(in.Data, in.DeclaredType, s.MaxBytes(res.Plan()))
	if !check.Valid {
		metrics.RecordUploadRejection(check.Stage)
		log.WithFields(map[string]interface{}{"stage": check.Stage}).Info("Upload rejected")
		return nil, errors.BadRequest(check.Error)
	}

	width, height := check.Width, check.Height
	if in.Width > 0 && in.Height > 0 {
		if !imagecheck.ValidDimension(in.Width) || !imagecheck.ValidDimension(in.Height) {
			return nil, errors.BadRequest(fmt.Sprintf("Width and height must be between %d and %d",
				imagecheck.MinDimension, imagecheck.MaxDimension))
		}
		width, height = in.Width, in.Height
	}

	key := fmt.Sprintf("users/%d/%s%s", in.UserID, uuid.NewString(), imagecheck.Extension(check.ContentType))
	publicURL, err := s.storage.Put(ctx, key, check.ContentType, in.Data)
	if err != nil {
		if isDeadline(ctx, err) {
			return nil, errors.Timeout("Upload timed out", err)
		}
		log.ErrorWithErr(err, "Failed to store image")
		return nil, errors.StorageError(s.storage.Name(), err)
	}

	status := image.AltStatusGenerated
	altText, err := s.describer.Describe(ctx, publicURL)
	if err != nil {
		if isDeadline(ctx, err) {
			s.removeBlob(ctx, key)
			log.Warn("Alt text generation exceeded the upload budget")
			return nil, errors.Timeout("Alt text generation timed out", err)
		}
		log.ErrorWithErr(err, "Alt text generation failed")
		altText, status = "", image.AltStatusFailed
	}

	img := &image.Image{
		UserID:        in.UserID,
		Filename:      in.Filename,
		StorageKey:    key,
		PublicURL:     publicURL,
		ContentType:   check.ContentType,
		SizeBytes:     int64(len(in.Data)),
		Width:         width,
		Height:        height,
		AltText:       altText,
		AltTextStatus: status,
	}
	if err := s.repo.Create(ctx, img); err != nil {
		s.removeBlob(ctx, key)
		log.ErrorWithErr(err, "Failed to save image record")
		return nil, errors.DatabaseError("Failed to save image", err)
	}

	if status == image.AltStatusGenerated {
		settled = true
		if _, err := res.Commit(context.WithoutCancel(ctx)); err != nil {
			log.ErrorWithErr(err, "Failed to count generation")
		}
	}

	metrics.RecordUpload(img.SizeBytes)
	log.WithFields(map[string]interface{}{
		"image_id": img.ID,
		"status":   img.AltTextStatus,
	}).Info("Image uploaded")
	return img, nil
}

// RegenerateAltText describes a stored image again
func (s *ImageService) RegenerateAltText(ctx context.Context, userID, id int64) (*image.Image, error) {
	img, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withBudget(ctx)
	defer cancel()

	res, err := s.gate.Reserve(ctx, userID)
	if err != nil {
		return nil, err
	}

	altText, err := s.describer.Describe(ctx, img.PublicURL)
	if err != nil {
		res.Release()
		if isDeadline(ctx, err) {
			return nil, errors.Timeout("Alt text generation timed out", err)
		}
		s.logger.WithFields(map[string]interface{}{"image_id": id}).ErrorWithErr(err, "Alt text regeneration failed")
		return nil, errors.AIError(err)
	}

	if err := s.repo.UpdateAltText(ctx, userID, id, altText, image.AltStatusGenerated); err != nil {
		res.Release()
		return nil, err
	}
	if _, err := res.Commit(context.WithoutCancel(ctx)); err != nil {
		s.logger.ErrorWithErr(err, "Failed to count generation")
	}

	img.AltText = altText
	img.AltTextStatus = image.AltStatusGenerated
	img.UpdatedAt = time.Now()
	return img, nil
}

// EditAltText stores hand-written ALT text
func (s *ImageService) EditAltText(ctx context.Context, userID, id int64, altText string) (*image.Image, error) {
	altText = strings.TrimSpace(altText)
	if altText == "" {
		return nil, errors.BadRequest("ALT text must not be empty")
	}
	if utf8.RuneCountInString(altText) > MaxAltTextLength {
		return nil, errors.BadRequest(fmt.Sprintf("ALT text must be at most %d characters", MaxAltTextLength))
	}

	if err := s.repo.UpdateAltText(ctx, userID, id, altText, image.AltStatusEdited); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, userID, id)
}

// Get returns one image of a user
func (s *ImageService) Get(ctx context.Context, userID, id int64) (*image.Image, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// List returns a page of a user's images, newest first
func (s *ImageService) List(ctx context.Context, userID int64, filter image.Filter, limit, offset int) ([]*image.Image, int64, error) {
	switch filter.AltTextStatus {
	case "", image.AltStatusGenerated, image.AltStatusFailed, image.AltStatusEdited:
	default:
		return nil, 0, errors.BadRequest("Unknown alt text status filter")
	}
	return s.repo.List(ctx, userID, filter, limit, offset)
}

// Delete removes the image record and its blob
func (s *ImageService) Delete(ctx context.Context, userID, id int64) error {
	img, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.removeBlob(ctx, img.StorageKey)

	if s.audit != nil {
		actor := userID
		_ = s.audit.Record(ctx, &audit.Entry{
			ActorID:    &actor,
			Action:     audit.ActionImageDeleted,
			TargetType: audit.TargetImage,
			TargetID:   strconv.FormatInt(id, 10),
			Details:    map[string]interface{}{"filename": img.Filename},
		})
	}
	return nil
}

// removeBlob deletes an object even when ctx is already done
func (s *ImageService) removeBlob(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.WithFields(map[string]interface{}{"key": key}).ErrorWithErr(err, "Failed to remove stored image")
	}
}

func isDeadline(ctx context.Context, err error) bool {
	return stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded)
}
