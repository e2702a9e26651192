package professionals

import (
	"context"

	"github.com/Domenick1991/servicebooking/internal/cache"
	"github.com/Domenick1991/servicebooking/internal/domain"
	"github.com/Domenick1991/servicebooking/internal/repository"
)

type ProfessionalUseCase interface {
	GetByID(ctx context.Context, id string) (*domain.Professional, error)
}

type ProfessionalService struct {
	repo   repository.ProfessionalRepository
	loader *cache.Loader
}

func NewProfessionalService(repo repository.ProfessionalRepository, loader *cache.Loader) *ProfessionalService {
	return &ProfessionalService{repo: repo, loader: loader}
}

// GetByID returns the profile with its rating aggregate. Review writes drop the cached copy.
func (s *ProfessionalService) GetByID(ctx context.Context, id string) (*domain.Professional, error) {
	key := cache.Key{Collection: cache.CollectionProfessionals, Owner: id}
	pro, err := cache.Fetch(ctx, s.loader, key, func(ctx context.Context) (domain.Professional, error) {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return domain.Professional{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, err
	}
	return &pro, nil
}

var _ ProfessionalUseCase = (*ProfessionalService)(nil)
