package api

import (
	"fmt"
	"net/http"

	"github.com/ParkerJahn/sweatsheet-web/internal/domain"
	"github.com/ParkerJahn/sweatsheet-web/internal/service"

	"github.com/gin-gonic/gin"
)

// ProfileHandler serves profile, calendar, user listing and note endpoints.
type ProfileHandler struct {
	profileService service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// --- Request Structs ---

type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email" binding:"omitempty,email"`
	PhoneNumber *string `json:"phone_number"`
}

type PutCalendarRequest struct {
	Events map[string][]domain.CalendarEvent `json:"events" binding:"required"`
}

type CreateNoteRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

// --- Handler Methods ---

// GetProfile returns the caller's own profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	user, err := h.profileService.GetProfile(c.Request.Context(), p.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// UpdateProfile patches name/email/phone on the caller's own profile.
// Role is not patchable through this endpoint.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.profileService.UpdateProfile(c.Request.Context(), p.ID, service.ProfileUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// GetCalendar returns the caller's calendar.
func (h *ProfileHandler) GetCalendar(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	cal, err := h.profileService.GetCalendar(c.Request.Context(), p.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cal)
}

// PutCalendar replaces the caller's whole events map.
func (h *ProfileHandler) PutCalendar(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	var req PutCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.profileService.PutCalendar(c.Request.Context(), p.ID, domain.Calendar{Events: req.Events}); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": req.Events})
}

// ListUsers returns all users.
func (h *ProfileHandler) ListUsers(c *gin.Context) {
	users, err := h.profileService.ListUsers(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapUsersToResponse(users))
}

// ListAthletes returns the athlete roster. Coach-privileged callers only.
func (h *ProfileHandler) ListAthletes(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	athletes, err := h.profileService.ListAthletes(c.Request.Context(), p)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapUsersToResponse(athletes))
}

func mapUsersToResponse(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, MapUserToResponse(&users[i]))
	}
	return out
}

// === Notes ===

// ListNotes returns the caller's notes, newest first.
func (h *ProfileHandler) ListNotes(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	notes, err := h.profileService.ListNotes(c.Request.Context(), p.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

// CreateNote creates a note owned by the caller.
func (h *ProfileHandler) CreateNote(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	var req CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	note, err := h.profileService.CreateNote(c.Request.Context(), p.ID, req.Title, req.Content)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

// DeleteNote removes one of the caller's notes.
func (h *ProfileHandler) DeleteNote(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	noteID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.profileService.DeleteNote(c.Request.Context(), p.ID, noteID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
