package service

import (
	"context"

	"labmanager/internal/domain"
	"labmanager/internal/models"

	"github.com/rs/zerolog"
)

type ResourceService struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewResourceService(store domain.Store, logger *zerolog.Logger) *ResourceService {
	return &ResourceService{
		store:  store,
		logger: logger,
	}
}

func (s *ResourceService) ListResources(ctx context.Context) ([]models.Resource, error) {
	return s.store.ListResources(ctx)
}

func (s *ResourceService) GetResource(ctx context.Context, id int64) (*models.Resource, error) {
	return s.store.GetResource(ctx, id)
}

// EnsureSeeded is invoked exactly once at process start with the configured
// pool size and template.
func (s *ResourceService) EnsureSeeded(ctx context.Context, count int, nameTemplate string) error {
	return s.store.EnsureSeeded(ctx, count, nameTemplate)
}
