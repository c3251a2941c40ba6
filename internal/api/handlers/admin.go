package handlers

import (
	"net/http"
	"strconv"

	"github.com/pratik-mahalle/altseo/internal/api/dto"
	"github.com/pratik-mahalle/altseo/internal/domain/audit"
	"github.com/pratik-mahalle/altseo/internal/domain/user"
	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
	"github.com/pratik-mahalle/altseo/internal/pkg/utils"
	"github.com/pratik-mahalle/altseo/internal/pkg/validator"
)

// AdminHandler serves operator and admin endpoints. Permission checks happen in the router.
type AdminHandler struct {
	users     user.Service
	audit     audit.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(users user.Service, auditSvc audit.Service, log *logger.Logger, val *validator.Validator) *AdminHandler {
	return &AdminHandler{
		users:     users,
		audit:     auditSvc,
		logger:    log,
		validator: val,
	}
}

// ListUsers returns all users
// @Summary List users
// @Tags Admin
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.Page[dto.UserDTO]
// @Failure 403 {object} utils.ErrorResponse "Missing users:read"
// @Security BearerAuth
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p := utils.ParsePaginationParams(r)
	users, total, err := h.users.List(r.Context(), p.PageSize, p.Offset)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to list users")
		return
	}

	out := make([]*dto.UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, dto.NewUserDTO(u))
	}
	utils.WriteSuccess(w, http.StatusOK, utils.NewPage(out, p, total))
}

// SetRole changes a user's role
// @Summary Change user role
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body dto.UpdateRoleRequest true "New role"
// @Success 200 {object} dto.UserDTO
// @Failure 403 {object} utils.ErrorResponse "Missing users:write or own account"
// @Security BearerAuth
// @Router /admin/users/{id}/role [put]
func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req dto.UpdateRoleRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	u, err := h.users.SetRole(r.Context(), actorID, id, req.Role)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to change role")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.NewUserDTO(u))
}

// ListAuditLogs returns audit entries, newest first
// @Summary List audit logs
// @Tags Admin
// @Produce json
// @Param action query string false "Filter by action"
// @Param actor_id query int false "Filter by actor"
// @Param target_id query string false "Filter by target"
// @Success 200 {object} utils.Page[audit.Entry]
// @Failure 403 {object} utils.ErrorResponse "Missing audit:read"
// @Security BearerAuth
// @Router /admin/audit-logs [get]
func (h *AdminHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{
		Action:   q.Get("action"),
		TargetID: q.Get("target_id"),
	}
	if v := q.Get("actor_id"); v != "" {
		actor, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			utils.WriteError(w, errors.BadRequest("Invalid actor_id"))
			return
		}
		filter.ActorID = &actor
	}

	p := utils.ParsePaginationParams(r)
	entries, total, err := h.audit.List(r.Context(), filter, p.PageSize, p.Offset)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to list audit logs")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, utils.NewPage(entries, p, total))
}
