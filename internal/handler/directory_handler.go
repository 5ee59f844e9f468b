package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushq/gatepass-backend/internal/middleware"
	"github.com/campushq/gatepass-backend/internal/model"
	"github.com/campushq/gatepass-backend/internal/response"
	"github.com/campushq/gatepass-backend/internal/service"
	"github.com/campushq/gatepass-backend/internal/validator"
)

// DirectoryHandler handles admin grant management and profile lookup.
type DirectoryHandler struct {
	directoryService *service.DirectoryService
}

// NewDirectoryHandler creates a new DirectoryHandler.
func NewDirectoryHandler(directoryService *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directoryService: directoryService}
}

// ListAdmins godoc
// GET /api/v1/admin/directory/admins
// Lists every admin grant. Admin only.
func (h *DirectoryHandler) ListAdmins(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	grants, err := h.directoryService.ListAdmins(c.Request.Context(), sess)
	if err != nil {
		failFromServiceErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"admins": grants})
}

// GrantAdmin godoc
// POST /api/v1/admin/directory/admins
// Adds an admin grant keyed by normalized email. Idempotent.
func (h *DirectoryHandler) GrantAdmin(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.GrantAdminRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	grant, err := h.directoryService.GrantAdmin(c.Request.Context(), sess, req.Email)
	if err != nil {
		failFromServiceErr(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"admin": grant})
}

// RevokeAdmin godoc
// DELETE /api/v1/admin/directory/admins/:email
// Removes an admin grant. The last remaining grant cannot be removed.
func (h *DirectoryHandler) RevokeAdmin(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	email := c.Param("email")
	if model.NormalizeEmail(email) == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	if err := h.directoryService.RevokeAdmin(c.Request.Context(), sess, email); err != nil {
		failFromServiceErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "admin grant removed"})
}

// GetMyProfile godoc
// GET /api/v1/profile
// Returns the caller's student profile for form prefill.
func (h *DirectoryHandler) GetMyProfile(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	profile, err := h.directoryService.GetProfile(c.Request.Context(), sess)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		failFromServiceErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"profile": profile})
}
