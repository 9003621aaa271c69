package service

import (
	"context"

	"github.com/ParkerJahn/sweatsheet-web/internal/domain"
	"github.com/ParkerJahn/sweatsheet-web/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogService exposes the read-only workout catalog.
type CatalogService interface {
	ListCategories(ctx context.Context) ([]domain.WorkoutCategory, error)
	// ListExercises filters by category when categoryID is non-nil.
	ListExercises(ctx context.Context, categoryID *primitive.ObjectID) ([]domain.WorkoutExercise, error)
}

type catalogService struct {
	catalogRepo repository.CatalogRepository
}

// NewCatalogService creates a new instance of catalogService.
func NewCatalogService(catalogRepo repository.CatalogRepository) CatalogService {
	return &catalogService{catalogRepo: catalogRepo}
}

func (s *catalogService) ListCategories(ctx context.Context) ([]domain.WorkoutCategory, error) {
	return s.catalogRepo.ListCategories(ctx)
}

func (s *catalogService) ListExercises(ctx context.Context, categoryID *primitive.ObjectID) ([]domain.WorkoutExercise, error) {
	return s.catalogRepo.ListExercises(ctx, categoryID)
}
