package api

import (
	"fmt"
	"net/http"

	"github.com/ParkerJahn/sweatsheet-web/internal/domain"
	"github.com/ParkerJahn/sweatsheet-web/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SweatSheetHandler serves the sheet/phase/section/exercise tree.
type SweatSheetHandler struct {
	sheetService service.SweatSheetService
}

// NewSweatSheetHandler creates a new SweatSheetHandler.
func NewSweatSheetHandler(sheetService service.SweatSheetService) *SweatSheetHandler {
	return &SweatSheetHandler{sheetService: sheetService}
}

// --- Request Structs ---

type CreateSheetRequest struct {
	Name       string `json:"name" binding:"required"`
	IsTemplate bool   `json:"is_template"`
}

type UpdateSheetRequest struct {
	Name       *string `json:"name"`
	IsActive   *bool   `json:"is_active"`
	IsTemplate *bool   `json:"is_template"`
}

type AssignSheetRequest struct {
	AthleteIDs []string `json:"athlete_ids" binding:"required,min=1"`
}

type CreatePhaseRequest struct {
	PhaseNumber int `json:"phase_number" binding:"required,min=1"`
}

type CreateSectionRequest struct {
	SectionNumber int    `json:"section_number" binding:"required,min=1"`
	Date          string `json:"date" binding:"required"`
}

type CreateExerciseRequest struct {
	CategoryID        string `json:"category_id" binding:"required"`
	WorkoutExerciseID string `json:"workout_exercise_id" binding:"required"`
	Sets              string `json:"sets"`
	Reps              string `json:"reps"`
	Weight            string `json:"weight"`
	Order             int    `json:"order"`
}

// --- Handler Methods ---

// CreateSheet creates a sheet owned by the calling coach.
func (h *SweatSheetHandler) CreateSheet(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	var req CreateSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	sheet, err := h.sheetService.CreateSheet(c.Request.Context(), p, req.Name, req.IsTemplate)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sheet)
}

// ListSheets returns the sheets visible to the caller.
func (h *SweatSheetHandler) ListSheets(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	sheets, err := h.sheetService.ListSheets(c.Request.Context(), p)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheets)
}

// GetSheet returns one sheet; 404 covers both missing and invisible.
func (h *SweatSheetHandler) GetSheet(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	sheetID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	sheet, err := h.sheetService.GetSheet(c.Request.Context(), p, sheetID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

// UpdateSheet patches a sheet header. Owner only.
func (h *SweatSheetHandler) UpdateSheet(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	sheetID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	sheet, err := h.sheetService.UpdateSheet(c.Request.Context(), p, sheetID, service.SheetUpdate{
		Name:       req.Name,
		IsActive:   req.IsActive,
		IsTemplate: req.IsTemplate,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

// DeleteSheet removes a sheet and its subtree. Owner only.
func (h *SweatSheetHandler) DeleteSheet(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	sheetID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.sheetService.DeleteSheet(c.Request.Context(), p, sheetID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AssignSheet clones the sheet (full tree) to each listed athlete.
func (h *SweatSheetHandler) AssignSheet(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	sheetID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	var req AssignSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	athleteIDs := make([]primitive.ObjectID, 0, len(req.AthleteIDs))
	for _, raw := range req.AthleteIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("invalid athlete id: %s", raw))
			return
		}
		athleteIDs = append(athleteIDs, id)
	}

	created, err := h.sheetService.AssignSheet(c.Request.Context(), p, sheetID, athleteIDs)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// === Phases ===

// ListPhases returns the phases of a visible sheet, ordered by phase number.
func (h *SweatSheetHandler) ListPhases(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	sheetID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	phases, err := h.sheetService.ListPhases(c.Request.Context(), p, sheetID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, phases)
}

// CreatePhase adds a phase under a sheet.
func (h *SweatSheetHandler) CreatePhase(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	sheetID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	var req CreatePhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	phase, err := h.sheetService.CreatePhase(c.Request.Context(), p, sheetID, req.PhaseNumber)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, phase)
}

// CompletePhase marks a phase completed (one-way).
func (h *SweatSheetHandler) CompletePhase(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	phaseID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	phase, err := h.sheetService.CompletePhase(c.Request.Context(), p, phaseID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Phase completed successfully", "phase": phase})
}

// === Sections ===

// ListSections returns the sections of a phase.
func (h *SweatSheetHandler) ListSections(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	phaseID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	sections, err := h.sheetService.ListSections(c.Request.Context(), p, phaseID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sections)
}

// CreateSection adds a dated section under a phase.
func (h *SweatSheetHandler) CreateSection(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	phaseID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	var req CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	section, err := h.sheetService.CreateSection(c.Request.Context(), p, phaseID, req.SectionNumber, req.Date)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, section)
}

// === Exercises ===

// ListExercises returns a section's exercises in display order.
func (h *SweatSheetHandler) ListExercises(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	sectionID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	exercises, err := h.sheetService.ListExercises(c.Request.Context(), p, sectionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exercises)
}

// CreateExercise adds an exercise instance under a section.
func (h *SweatSheetHandler) CreateExercise(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	sectionID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	var req CreateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	categoryID, err := primitive.ObjectIDFromHex(req.CategoryID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid category_id")
		return
	}
	workoutExerciseID, err := primitive.ObjectIDFromHex(req.WorkoutExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid workout_exercise_id")
		return
	}

	exercise, err := h.sheetService.CreateExercise(c.Request.Context(), p, sectionID, domain.Exercise{
		CategoryID:        categoryID,
		WorkoutExerciseID: workoutExerciseID,
		Sets:              req.Sets,
		Reps:              req.Reps,
		Weight:            req.Weight,
		Order:             req.Order,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exercise)
}

// CompleteExercise toggles the completed flag and reports the new state.
func (h *SweatSheetHandler) CompleteExercise(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	exerciseID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	exercise, err := h.sheetService.CompleteExercise(c.Request.Context(), p, exerciseID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Exercise status updated", "completed": exercise.Completed})
}
