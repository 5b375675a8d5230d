package service

import (
	"context"

	"github.com/anonto42/pins/backend/internal/models"
	"github.com/anonto42/pins/backend/internal/repositories"
	"github.com/anonto42/pins/backend/pkg/api"
)

type CommunityService struct {
	communities repositories.CommunityRepository
}

func NewCommunityService(communities repositories.CommunityRepository) *CommunityService {
	return &CommunityService{communities: communities}
}

// All returns the communities ordered by name.
func (s *CommunityService) All(ctx context.Context) ([]api.Community, error) {
	communities, err := s.communities.GetCommunities(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]api.Community, len(communities))
	for i := range communities {
		out[i] = *communities[i].ToAPI()
	}
	return out, nil
}

func (s *CommunityService) ByID(ctx context.Context, id string) (*api.Community, error) {
	return s.one(s.communities.GetCommunityByID(ctx, id))
}

func (s *CommunityService) ByName(ctx context.Context, name string) (*api.Community, error) {
	return s.one(s.communities.GetCommunityByName(ctx, name))
}

func (s *CommunityService) one(c *models.Community, err error) (*api.Community, error) {
	if err != nil {
		missing, err := notFoundAsNil(err)
		if missing {
			return nil, nil
		}
		return nil, err
	}
	return c.ToAPI(), nil
}
