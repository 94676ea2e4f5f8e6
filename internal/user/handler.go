package user

import (
	"net/http"
	"time"

	"edm-backend/auth"
	"edm-backend/internal/config"
	"edm-backend/internal/errors"
	"edm-backend/internal/permission"
	"edm-backend/redis"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for users
type Handler struct {
	service Service
}

// NewHandler creates a new user handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// FormLogin represents login form data
type FormLogin struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// FormRegister represents registration form data
type FormRegister struct {
	Username   string  `json:"username" binding:"required,min=3,max=64"`
	Email      string  `json:"email" binding:"required,email"`
	Password   string  `json:"password" binding:"required,min=6"`
	FirstName  string  `json:"first_name" binding:"required"`
	LastName   string  `json:"last_name" binding:"required"`
	Department *string `json:"department"`
}

type FormChangePassword struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

type FormUpdateProfile struct {
	FirstName  string  `json:"first_name" binding:"required"`
	LastName   string  `json:"last_name" binding:"required"`
	Department *string `json:"department"`
}

type FormSetRole struct {
	Role string `json:"role" binding:"required"`
}

type FormRequestPasswordReset struct {
	Email string `json:"email" binding:"required,email"`
}

type FormResetPassword struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// Register handles user registration
func (h *Handler) Register(c *gin.Context) {
	var form FormRegister
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	u := &User{
		Username:   form.Username,
		Email:      form.Email,
		Password:   form.Password,
		FirstName:  form.FirstName,
		LastName:   form.LastName,
		Department: form.Department,
		Role:       permission.RoleUser,
	}

	if err := h.service.Register(c.Request.Context(), u); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": u.ToSafeUser()})
}

// Login handles user login and issues a bearer token backed by a Redis
// session.
func (h *Handler) Login(c *gin.Context) {
	var form FormLogin
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	u, err := h.service.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		c.Error(err)
		return
	}

	token, err := auth.GenerateJWT(u.ID, u.Username, string(u.Role))
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}

	if err := redis.StoreSession(c.Request.Context(), token, config.AppConfig.TokenLifetime); err != nil {
		c.Error(errors.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"expires_at":   time.Now().Add(config.AppConfig.TokenLifetime).UTC(),
		"user":         u.ToSafeUser(),
	})
}

// Logout revokes the current session
func (h *Handler) Logout(c *gin.Context) {
	if err := redis.DeleteSession(c.Request.Context(), auth.CurrentToken(c)); err != nil {
		c.Error(errors.Internal(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// GetProfile handles getting the current user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	u, err := h.service.GetUserByID(c.Request.Context(), auth.CurrentUserID(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, u.ToSafeUser())
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var form FormUpdateProfile
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	u, err := h.service.UpdateProfile(c.Request.Context(), auth.CurrentUserID(c), UpdateProfileRequest{
		FirstName:  form.FirstName,
		LastName:   form.LastName,
		Department: form.Department,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, u.ToSafeUser())
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var form FormChangePassword
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	err := h.service.ChangePassword(c.Request.Context(), auth.CurrentUserID(c), form.CurrentPassword, form.NewPassword)
	if err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var form FormRequestPasswordReset
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.RequestPasswordReset(c.Request.Context(), form.Email); err != nil {
		c.Error(err)
		return
	}

	// Always accepted, even for unknown addresses
	c.Status(http.StatusAccepted)
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var form FormResetPassword
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), form.Token, form.NewPassword); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListUsers is admin-only (enforced by route middleware).
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// SetRole is admin-only (enforced by route middleware).
func (h *Handler) SetRole(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	var form FormSetRole
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	role, ok := permission.ParseRole(form.Role)
	if !ok {
		c.Error(errors.BadRequest("Unknown role", nil))
		return
	}

	if err := h.service.SetRole(c.Request.Context(), userID, role); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Deactivate is admin-only (enforced by route middleware).
func (h *Handler) Deactivate(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.DeactivateUser(c.Request.Context(), userID); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// BackfillPersonalFolders is admin-only (enforced by route middleware).
func (h *Handler) BackfillPersonalFolders(c *gin.Context) {
	created, err := h.service.BackfillPersonalFolders(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"created": created})
}
