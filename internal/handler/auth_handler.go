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

// AuthHandler handles signup, login, logout, and the identity endpoint.
type AuthHandler struct {
	authService      *service.AuthService
	directoryService *service.DirectoryService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, directoryService *service.DirectoryService) *AuthHandler {
	return &AuthHandler{authService: authService, directoryService: directoryService}
}

// Signup godoc
// POST /api/v1/auth/signup
// Creates an account plus its initial profile and signs the caller in.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateEmail) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStoreUnavailable)
		return
	}

	token, err := h.authService.GenerateToken(c.Request.Context(), user)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, model.AuthResponse{
		Token: token,
		User:  *user,
		Role:  h.directoryService.ResolveRole(c.Request.Context(), user.Email),
	})
}

// Login godoc
// POST /api/v1/auth/login
// Authenticates and establishes the single logical session for the identity.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.authService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStoreUnavailable)
		return
	}

	token, err := h.authService.GenerateToken(c.Request.Context(), user)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, model.AuthResponse{
		Token: token,
		User:  *user,
		Role:  h.directoryService.ResolveRole(c.Request.Context(), user.Email),
	})
}

// Logout godoc
// POST /api/v1/auth/logout
// Clears the session registration; the token stops working immediately.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.ClearSession(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStoreUnavailable)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "signed out"})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the caller's identity with a freshly resolved role.
func (h *AuthHandler) Me(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"id":    sess.UserID,
		"email": sess.Email,
		"name":  sess.Name,
		"role":  h.directoryService.ResolveRole(c.Request.Context(), sess.Email),
	})
}
