package handlers

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/pratik-mahalle/altseo/internal/api/dto"
	"github.com/pratik-mahalle/altseo/internal/api/middleware"
	"github.com/pratik-mahalle/altseo/internal/domain/image"
	"github.com/pratik-mahalle/altseo/internal/imagecheck"
	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
	"github.com/pratik-mahalle/altseo/internal/pkg/utils"
	"github.com/pratik-mahalle/altseo/internal/pkg/validator"
)

// multipartOverhead is allowed on top of the largest file for form fields and boundaries
const multipartOverhead = 1 << 20

// ImageHandler handles image upload and library requests
type ImageHandler struct {
	images    image.Service
	maxUpload int64
	logger    *logger.Logger
	validator *validator.Validator
}

// NewImageHandler creates a new image handler. maxUpload is the largest
// file any plan may upload.
func NewImageHandler(images image.Service, maxUpload int64, log *logger.Logger, val *validator.Validator) *ImageHandler {
	return &ImageHandler{
		images:    images,
		maxUpload: maxUpload,
		logger:    log,
		validator: val,
	}
}

// Upload handles an image upload
// @Summary Upload an image
// @Description Validate and store an image, then generate ALT text. Counts against the daily quota.
// @Tags Images
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PNG, JPEG or WEBP image"
// @Param width formData int false "Display width override"
// @Param height formData int false "Display height override"
// @Success 201 {object} image.Image "Stored image with ALT text"
// @Failure 400 {object} utils.ErrorResponse "Invalid file"
// @Failure 429 {object} utils.ErrorResponse "Daily limit reached"
// @Failure 504 {object} utils.ErrorResponse "Generation timed out"
// @Security BearerAuth
// @Router /images [post]
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			utils.WriteError(w, errors.BadRequest(imagecheck.TooLarge(h.maxUpload)))
			return
		}
		utils.WriteError(w, errors.BadRequest("Expected a multipart form with a file field"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, errors.BadRequest("No file uploaded"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		utils.WriteError(w, errors.BadRequest("Could not read uploaded file"))
		return
	}

	width, werr := optionalInt(r.FormValue("width"))
	height, herr := optionalInt(r.FormValue("height"))
	if werr != nil || herr != nil {
		utils.WriteError(w, errors.BadRequest("Width and height must be integers"))
		return
	}

	declared := header.Header.Get("Content-Type")
	if _, ok := imagecheck.Normalize(declared); !ok {
		declared = imagecheck.TypeFromExtension(header.Filename)
	}

	middleware.AddLogField(w, "upload_bytes", len(data))

	img, err := h.images.Upload(r.Context(), image.UploadInput{
		UserID:       userID,
		Filename:     header.Filename,
		DeclaredType: declared,
		Data:         data,
		Width:        width,
		Height:       height,
	})
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to process upload")
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, img)
}

// List returns the caller's images
// @Summary List images
// @Description List the caller's images, newest first
// @Tags Images
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param status query string false "Filter by ALT text status (generated, failed, edited)"
// @Success 200 {object} utils.Page[image.Image]
// @Security BearerAuth
// @Router /images [get]
func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	p := utils.ParsePaginationParams(r)
	items, total, err := h.images.List(r.Context(), userID, image.Filter{
		AltTextStatus: r.URL.Query().Get("status"),
	}, p.PageSize, p.Offset)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to list images")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, utils.NewPage(items, p, total))
}

// Get returns one image
// @Summary Get image
// @Tags Images
// @Produce json
// @Param id path int true "Image ID"
// @Success 200 {object} image.Image
// @Failure 404 {object} utils.ErrorResponse "Image not found"
// @Security BearerAuth
// @Router /images/{id} [get]
func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	img, err := h.images.Get(r.Context(), userID, id)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to get image")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, img)
}

// EditAltText replaces the ALT text by hand
// @Summary Edit ALT text
// @Tags Images
// @Accept json
// @Produce json
// @Param id path int true "Image ID"
// @Param request body dto.EditAltTextRequest true "New ALT text"
// @Success 200 {object} image.Image
// @Security BearerAuth
// @Router /images/{id} [patch]
func (h *ImageHandler) EditAltText(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req dto.EditAltTextRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	img, err := h.images.EditAltText(r.Context(), userID, id, req.AltText)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to update ALT text")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, img)
}

// RegenerateAltText generates new ALT text for a stored image
// @Summary Regenerate ALT text
// @Description Counts against the daily quota like an upload
// @Tags Images
// @Produce json
// @Param id path int true "Image ID"
// @Success 200 {object} image.Image
// @Failure 429 {object} utils.ErrorResponse "Daily limit reached"
// @Security BearerAuth
// @Router /images/{id}/alt-text [post]
func (h *ImageHandler) RegenerateAltText(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	img, err := h.images.RegenerateAltText(r.Context(), userID, id)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to regenerate ALT text")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, img)
}

// Delete removes an image and its stored file
// @Summary Delete image
// @Tags Images
// @Param id path int true "Image ID"
// @Success 200 {object} utils.SuccessResponse
// @Security BearerAuth
// @Router /images/{id} [delete]
func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.images.Delete(r.Context(), userID, id); err != nil {
		utils.WriteServiceError(w, err, "Failed to delete image")
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Image deleted")
}

func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
