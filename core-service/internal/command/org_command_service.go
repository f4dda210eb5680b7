package command

import (
	"context"
	"errors"
	"time"

	"github.com/changzer/choppy/shared/cqrs"
	"github.com/changzer/choppy/shared/events"
	"github.com/changzer/choppy/shared/exception"
	"github.com/changzer/choppy/shared/models"
	"github.com/changzer/choppy/shared/utils"
	"go.uber.org/zap"
)

const idListConstraint = "required,min=1,dive,gt=0"

// OrgWriter is the PostgreSQL write store for orgs.
type OrgWriter interface {
	Create(ctx context.Context, org *models.Org) error
	GetByID(ctx context.Context, id int64) (*models.Org, error)
	Update(ctx context.Context, cmd cqrs.UpdateOrgCommand, at time.Time) ([]int64, error)
	Remove(ctx context.Context, ids []int64) (orgIDs, stationIDs []int64, err error)
	StationIDsOf(ctx context.Context, orgIDs []int64) ([]int64, error)
}

// OrgCache is the Redis read model for orgs.
type OrgCache interface {
	CacheOrg(ctx context.Context, org *models.Org)
	InvalidateOrgs(ctx context.Context, ids ...int64)
}

// StationCache is the Redis read model for station views.
type StationCache interface {
	CacheStation(ctx context.Context, view *models.StationView)
	InvalidateStations(ctx context.Context, ids ...int64)
}

type Publisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// OrgCommandService maintains the org tree.
type OrgCommandService struct {
	writeRepo OrgWriter
	orgs      OrgCache
	stations  StationCache
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewOrgCommandService(writeRepo OrgWriter, orgs OrgCache, stations StationCache, publisher Publisher, logger *zap.Logger) *OrgCommandService {
	return &OrgCommandService{
		writeRepo: writeRepo,
		orgs:      orgs,
		stations:  stations,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateOrg adds an org under cmd.ParentID, or as a root when it is 0.
func (s *OrgCommandService) CreateOrg(ctx context.Context, cmd cqrs.CreateOrgCommand) (*models.Org, error) {
	treePath, err := s.childPath(ctx, cmd.ParentID)
	if err != nil {
		return nil, err
	}
	org := &models.Org{
		Name:         cmd.Name,
		Abbreviation: cmd.Abbreviation,
		ParentID:     cmd.ParentID,
		TreePath:     treePath,
		SortValue:    cmd.SortValue,
		Status:       true,
		Describe:     cmd.Describe,
	}
	if cmd.Status != nil {
		org.Status = *cmd.Status
	}
	if err := s.writeRepo.Create(ctx, org); err != nil {
		return nil, err
	}

	s.orgs.CacheOrg(ctx, org)
	s.publish(ctx, events.OrgEventsStream, events.OrgCreated, events.OrgCreatedEvent{
		OrgID:    org.ID,
		ParentID: org.ParentID,
		Name:     org.Name,
	})
	return org, nil
}

// UpdateOrg applies the fields set on cmd. Changing the parent moves the
// whole subtree; an org cannot be moved below itself.
func (s *OrgCommandService) UpdateOrg(ctx context.Context, cmd cqrs.UpdateOrgCommand) (*models.Org, error) {
	current, err := s.writeRepo.GetByID(ctx, cmd.OrgID)
	if err != nil {
		return nil, err
	}

	moved, err := s.writeRepo.Update(ctx, cmd, s.now().UTC())
	if err != nil {
		return nil, err
	}
	org, err := s.writeRepo.GetByID(ctx, cmd.OrgID)
	if err != nil {
		return nil, err
	}
	s.orgs.CacheOrg(ctx, org)
	s.orgs.InvalidateOrgs(ctx, moved...)

	if org.Name != current.Name {
		// Station views carry the org name.
		stationIDs, err := s.writeRepo.StationIDsOf(ctx, []int64{org.ID})
		if err != nil {
			s.logger.Warn("failed to list stations of renamed org", zap.Int64("org_id", org.ID), zap.Error(err))
		}
		s.stations.InvalidateStations(ctx, stationIDs...)
	}

	s.publish(ctx, events.OrgEventsStream, events.OrgUpdated, events.OrgUpdatedEvent{
		OrgID:    org.ID,
		ParentID: org.ParentID,
		Name:     org.Name,
	})
	return org, nil
}

// Remove deletes the orgs together with all their descendants and detaches
// their stations.
func (s *OrgCommandService) Remove(ctx context.Context, cmd cqrs.RemoveOrgsCommand) ([]int64, error) {
	if err := exception.CheckVar("ids", cmd.OrgIDs, idListConstraint); err != nil {
		return nil, err
	}
	orgIDs, stationIDs, err := s.writeRepo.Remove(ctx, utils.UniqueIDs(cmd.OrgIDs))
	if err != nil {
		return nil, err
	}
	if len(orgIDs) == 0 {
		return nil, exception.NotFound("org")
	}

	s.orgs.InvalidateOrgs(ctx, orgIDs...)
	s.stations.InvalidateStations(ctx, stationIDs...)
	s.logger.Info("removed orgs", zap.Int64s("org_ids", orgIDs), zap.Int("detached_stations", len(stationIDs)))
	s.publish(ctx, events.OrgEventsStream, events.OrgDeleted, events.OrgDeletedEvent{OrgIDs: orgIDs})
	return orgIDs, nil
}

// childPath is the tree path of a new child of parentID.
func (s *OrgCommandService) childPath(ctx context.Context, parentID int64) (string, error) {
	if parentID == 0 {
		return ",", nil
	}
	parent, err := s.writeRepo.GetByID(ctx, parentID)
	if errors.Is(err, exception.ErrNotFound) {
		return "", exception.NotFound("parent org")
	}
	if err != nil {
		return "", err
	}
	return parent.ChildTreePath(), nil
}

func (s *OrgCommandService) publish(ctx context.Context, stream, eventType string, data any) {
	if err := s.publisher.Publish(ctx, stream, eventType, data); err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
