package query

import (
	"context"

	"github.com/changzer/choppy/shared/cqrs"
	"github.com/changzer/choppy/shared/exception"
	"github.com/changzer/choppy/shared/models"
	"github.com/changzer/choppy/shared/utils"
)

type OrgReader interface {
	GetByID(ctx context.Context, id int64) (*models.Org, error)
	FindPage(ctx context.Context, q cqrs.OrgPageQuery) (*models.Page[models.Org], error)
	FindChildren(ctx context.Context, ids []int64) ([]models.Org, error)
	ListAll(ctx context.Context) ([]models.Org, error)
}

type OrgQueryService struct {
	readRepo OrgReader
}

func NewOrgQueryService(readRepo OrgReader) *OrgQueryService {
	return &OrgQueryService{readRepo: readRepo}
}

func (s *OrgQueryService) GetOrg(ctx context.Context, q cqrs.GetOrgQuery) (*models.Org, error) {
	return s.readRepo.GetByID(ctx, q.OrgID)
}

func (s *OrgQueryService) FindPage(ctx context.Context, q cqrs.OrgPageQuery) (*models.Page[models.Org], error) {
	return s.readRepo.FindPage(ctx, q)
}

// FindChildren returns the listed orgs and all of their descendants.
func (s *OrgQueryService) FindChildren(ctx context.Context, q cqrs.FindChildrenQuery) ([]models.Org, error) {
	if err := exception.CheckVar("ids", q.OrgIDs, "required,min=1,dive,gt=0"); err != nil {
		return nil, err
	}
	return s.readRepo.FindChildren(ctx, utils.UniqueIDs(q.OrgIDs))
}

// Tree returns the whole org forest, siblings ordered by sort value.
func (s *OrgQueryService) Tree(ctx context.Context) ([]*models.OrgNode, error) {
	orgs, err := s.readRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return models.BuildOrgTree(orgs), nil
}
