package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ParkerJahn/sweatsheet-web/internal/domain"
	"github.com/ParkerJahn/sweatsheet-web/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- Request/Response Structs ---

type RegisterRequest struct {
	Username  string      `json:"username" binding:"required"`
	Email     string      `json:"email" binding:"required,email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Password  string      `json:"password" binding:"required,min=8"`
	Role      domain.Role `json:"role" binding:"omitempty,oneof=PRO SWEAT_TEAM_MEMBER ATHLETE"`
}

// UserResponse excludes sensitive info like the password hash.
type UserResponse struct {
	ID        string         `json:"id"`
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Profile   domain.Profile `json:"profile"`
	CreatedAt time.Time      `json:"created_at"`
}

// MapUserToResponse converts a domain user into its API shape.
func MapUserToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID.Hex(),
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Profile:   user.Profile,
		CreatedAt: user.CreatedAt,
	}
}

type TokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	User    UserResponse `json:"user"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// --- Handler Methods ---

// Register godoc
// @Summary Register a new user
// @Description Creates a user account with its profile and calendar. Role defaults to ATHLETE.
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Registration details"
// @Success 201 {object} UserResponse "User created successfully"
// @Failure 400 {object} gin.H "Invalid input or duplicate username/email"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Username, req.Email, req.FirstName, req.LastName, req.Password, req.Role)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// Token godoc
// @Summary Obtain an access/refresh token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body TokenRequest true "Login credentials"
// @Success 200 {object} TokenResponse "Login successful"
// @Failure 401 {object} gin.H "Invalid credentials"
// @Router /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	pair, user, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		Access:  pair.Access,
		Refresh: pair.Refresh,
		User:    MapUserToResponse(user),
	})
}

// RefreshToken exchanges a valid refresh token for a fresh pair.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access": pair.Access, "refresh": pair.Refresh})
}
