package query

import (
	"context"
	"fmt"

	"github.com/changzer/choppy/shared/cqrs"
	"github.com/changzer/choppy/shared/exception"
	"github.com/changzer/choppy/shared/models"
)

type StationReader interface {
	GetByID(ctx context.Context, id int64) (*models.StationView, error)
	FindStationPage(ctx context.Context, q cqrs.StationPageQuery) (*models.Page[models.StationView], error)
}

type StationQueryService struct {
	readRepo StationReader
}

func NewStationQueryService(readRepo StationReader) *StationQueryService {
	return &StationQueryService{readRepo: readRepo}
}

func (s *StationQueryService) GetStation(ctx context.Context, q cqrs.GetStationQuery) (*models.StationView, error) {
	return s.readRepo.GetByID(ctx, q.StationID)
}

// FindStationPage lists stations with their org names.
func (s *StationQueryService) FindStationPage(ctx context.Context, q cqrs.StationPageQuery) (*models.Page[models.StationView], error) {
	if q.CreatedAfter != nil && q.CreatedBefore != nil && q.CreatedAfter.After(*q.CreatedBefore) {
		return nil, fmt.Errorf("created range starts after it ends: %w", exception.ErrIllegalArgument)
	}
	return s.readRepo.FindStationPage(ctx, q)
}
