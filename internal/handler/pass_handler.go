package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campushq/gatepass-backend/internal/middleware"
	"github.com/campushq/gatepass-backend/internal/model"
	"github.com/campushq/gatepass-backend/internal/response"
	"github.com/campushq/gatepass-backend/internal/service"
	"github.com/campushq/gatepass-backend/internal/validator"
)

// PassHandler handles gate-pass lifecycle endpoints.
type PassHandler struct {
	passService *service.PassService
}

// NewPassHandler creates a new PassHandler.
func NewPassHandler(passService *service.PassService) *PassHandler {
	return &PassHandler{passService: passService}
}

// failFromServiceErr maps lifecycle sentinel errors to API error codes.
func failFromServiceErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidTimeWindow):
		response.Fail(c, http.StatusBadRequest, response.ErrTimeWindow)
	case errors.Is(err, service.ErrInvalidStatus):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
	case errors.Is(err, service.ErrNotAuthorized):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrInvalidState):
		response.Fail(c, http.StatusConflict, response.ErrInvalidState)
	case errors.Is(err, service.ErrLastAdmin):
		response.Fail(c, http.StatusConflict, response.ErrLastAdmin)
	default:
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStoreUnavailable)
	}
}

// Submit godoc
// POST /api/v1/passes
// Creates a Pending gate pass owned by the caller.
func (h *PassHandler) Submit(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitPassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	pass, err := h.passService.Submit(c.Request.Context(), sess, req)
	if err != nil {
		failFromServiceErr(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"pass": pass})
}

// ListMine godoc
// GET /api/v1/passes
// Lists the caller's passes, newest first.
func (h *PassHandler) ListMine(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	passes, err := h.passService.ListForOwner(c.Request.Context(), sess)
	if err != nil {
		failFromServiceErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"passes": passes})
}

// Get godoc
// GET /api/v1/passes/:id
// Returns a single pass to its owner or an admin.
func (h *PassHandler) Get(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	pass, err := h.passService.Get(c.Request.Context(), sess, id)
	if err != nil {
		failFromServiceErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"pass": pass})
}

// Remove godoc
// DELETE /api/v1/passes/:id
// Deletes a pass. Allowed for the owner and for admins, any status.
func (h *PassHandler) Remove(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.passService.Remove(c.Request.Context(), sess, id); err != nil {
		failFromServiceErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "pass removed"})
}

// ListAll godoc
// GET /api/v1/admin/passes
// Lists every pass, newest first. Admin only.
func (h *PassHandler) ListAll(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	passes, err := h.passService.ListAll(c.Request.Context(), sess)
	if err != nil {
		failFromServiceErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"passes": passes})
}

// Decide godoc
// POST /api/v1/admin/passes/:id/decision
// Approves or rejects a Pending pass. Admin only; re-decisions conflict.
func (h *PassHandler) Decide(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.DecidePassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	pass, err := h.passService.Decide(c.Request.Context(), sess, id, req.Status, req.Notes)
	if err != nil {
		failFromServiceErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"pass": pass})
}
