package command

import (
	"context"
	"time"

	"github.com/changzer/choppy/shared/cqrs"
	"github.com/changzer/choppy/shared/events"
	"github.com/changzer/choppy/shared/exception"
	"github.com/changzer/choppy/shared/models"
	"github.com/changzer/choppy/shared/utils"
	"go.uber.org/zap"
)

// StationWriter is the PostgreSQL write store for stations.
type StationWriter interface {
	Create(ctx context.Context, station *models.Station) error
	GetByID(ctx context.Context, id int64) (*models.Station, error)
	Update(ctx context.Context, cmd cqrs.UpdateStationCommand, at time.Time) error
	Remove(ctx context.Context, ids []int64) ([]int64, error)
}

// OrgLookup resolves the org a station belongs to.
type OrgLookup interface {
	GetByID(ctx context.Context, id int64) (*models.Org, error)
}

type StationCommandService struct {
	writeRepo StationWriter
	orgs      OrgLookup
	cache     StationCache
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewStationCommandService(writeRepo StationWriter, orgs OrgLookup, cache StationCache, publisher Publisher, logger *zap.Logger) *StationCommandService {
	return &StationCommandService{
		writeRepo: writeRepo,
		orgs:      orgs,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *StationCommandService) CreateStation(ctx context.Context, cmd cqrs.CreateStationCommand) (*models.StationView, error) {
	orgName, err := s.orgName(ctx, cmd.OrgID)
	if err != nil {
		return nil, err
	}
	station := &models.Station{
		Name:     cmd.Name,
		OrgID:    cmd.OrgID,
		Status:   true,
		Describe: cmd.Describe,
	}
	if cmd.Status != nil {
		station.Status = *cmd.Status
	}
	if err := s.writeRepo.Create(ctx, station); err != nil {
		return nil, err
	}

	view := &models.StationView{Station: *station, OrgName: orgName}
	s.cache.CacheStation(ctx, view)
	s.publish(ctx, events.StationCreated, events.StationCreatedEvent{
		StationID: station.ID,
		OrgID:     station.OrgID,
		Name:      station.Name,
	})
	return view, nil
}

// UpdateStation applies the fields set on cmd.
func (s *StationCommandService) UpdateStation(ctx context.Context, cmd cqrs.UpdateStationCommand) (*models.StationView, error) {
	if cmd.OrgID != nil {
		if _, err := s.orgName(ctx, cmd.OrgID); err != nil {
			return nil, err
		}
	}
	if err := s.writeRepo.Update(ctx, cmd, s.now().UTC()); err != nil {
		return nil, err
	}

	station, err := s.writeRepo.GetByID(ctx, cmd.StationID)
	if err != nil {
		return nil, err
	}
	orgName, err := s.orgName(ctx, station.OrgID)
	if err != nil {
		return nil, err
	}
	view := &models.StationView{Station: *station, OrgName: orgName}
	s.cache.CacheStation(ctx, view)
	s.publish(ctx, events.StationUpdated, events.StationUpdatedEvent{
		StationID: station.ID,
		OrgID:     station.OrgID,
		Name:      station.Name,
	})
	return view, nil
}

func (s *StationCommandService) Remove(ctx context.Context, cmd cqrs.RemoveStationsCommand) ([]int64, error) {
	if err := exception.CheckVar("ids", cmd.StationIDs, idListConstraint); err != nil {
		return nil, err
	}
	removed, err := s.writeRepo.Remove(ctx, utils.UniqueIDs(cmd.StationIDs))
	if err != nil {
		return nil, err
	}
	if len(removed) == 0 {
		return nil, exception.NotFound("station")
	}

	s.cache.InvalidateStations(ctx, removed...)
	s.publish(ctx, events.StationDeleted, events.StationDeletedEvent{StationIDs: removed})
	return removed, nil
}

// orgName checks that orgID refers to a live org. A nil id is a station
// without an org.
func (s *StationCommandService) orgName(ctx context.Context, orgID *int64) (string, error) {
	if orgID == nil {
		return "", nil
	}
	org, err := s.orgs.GetByID(ctx, *orgID)
	if err != nil {
		return "", err
	}
	return org.Name, nil
}

func (s *StationCommandService) publish(ctx context.Context, eventType string, data any) {
	if err := s.publisher.Publish(ctx, events.StationEventsStream, eventType, data); err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
