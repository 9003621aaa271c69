package api

import (
	"net/http"

	"github.com/ParkerJahn/sweatsheet-web/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogHandler serves the read-only workout catalog.
type CatalogHandler struct {
	catalogService service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListCategories returns all workout categories.
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// ListExercises returns catalog exercises, filtered by ?category_id when
// provided.
func (h *CatalogHandler) ListExercises(c *gin.Context) {
	var categoryID *primitive.ObjectID
	if raw := c.Query("category_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "invalid category_id")
			return
		}
		categoryID = &id
	}

	exercises, err := h.catalogService.ListExercises(c.Request.Context(), categoryID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exercises)
}
