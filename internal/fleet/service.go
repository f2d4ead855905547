package fleet

import (
	"context"
	"fmt"

	"dejair/internal/shared/constants"
	"dejair/pkg/cache"
	"dejair/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	Create(ctx context.Context, req CreateHelicopterRequest) (*Helicopter, error)
	Get(ctx context.Context, id uuid.UUID) (*Helicopter, error)
	List(ctx context.Context) ([]Helicopter, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateHelicopterRequest) (*Helicopter, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo  Repository
	cache cache.Service
	log   *logger.Logger
}

func NewService(repo Repository, cacheService cache.Service) Service {
	return &service{
		repo:  repo,
		cache: cacheService,
		log:   logger.GetDefault(),
	}
}

func (s *service) Create(ctx context.Context, req CreateHelicopterRequest) (*Helicopter, error) {
	helicopter := &Helicopter{
		ID:       uuid.New(),
		Model:    req.Model,
		Capacity: req.Capacity,
		ImageURL: req.ImageURL,
	}

	if err := s.repo.Create(ctx, helicopter); err != nil {
		return nil, fmt.Errorf("failed to create helicopter: %w", err)
	}

	s.invalidateFleetCache(ctx)
	return helicopter, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Helicopter, error) {
	cacheKey := constants.BuildFleetDetailKey(id.String())

	var helicopter Helicopter
	err := s.cache.GetOrSet(ctx, cacheKey, constants.TTL_FLEET_DETAIL, func() (interface{}, error) {
		return s.repo.GetByID(ctx, id)
	}, &helicopter)
	if err != nil {
		return nil, err
	}
	return &helicopter, nil
}

func (s *service) List(ctx context.Context) ([]Helicopter, error) {
	var helicopters []Helicopter
	err := s.cache.GetOrSet(ctx, constants.CACHE_KEY_FLEET_LIST, constants.TTL_FLEET_LIST, func() (interface{}, error) {
		return s.repo.List(ctx)
	}, &helicopters)
	if err != nil {
		return nil, fmt.Errorf("failed to list helicopters: %w", err)
	}
	return helicopters, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateHelicopterRequest) (*Helicopter, error) {
	helicopter, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Model != nil {
		helicopter.Model = *req.Model
	}
	if req.Capacity != nil {
		helicopter.Capacity = *req.Capacity
	}
	if req.ImageURL != nil {
		helicopter.ImageURL = *req.ImageURL
	}

	if err := s.repo.Update(ctx, helicopter); err != nil {
		return nil, fmt.Errorf("failed to update helicopter: %w", err)
	}

	s.invalidateFleetCache(ctx)
	return helicopter, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateFleetCache(ctx)
	return nil
}

func (s *service) invalidateFleetCache(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, constants.PATTERN_INVALIDATE_FLEET_ALL); err != nil {
		s.log.Warn("failed to invalidate fleet cache", "error", err)
	}
}
