package query

import (
	"context"

	"github.com/changzer/choppy/shared/cqrs"
	"github.com/changzer/choppy/shared/exception"
	"github.com/changzer/choppy/shared/models"
	"github.com/changzer/choppy/shared/storage"
)

// UserReader is the read model: Redis first, PostgreSQL behind it.
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*models.UserView, error)
	GetByAccount(ctx context.Context, account string) (*models.UserView, error)
	FindPage(ctx context.Context, q cqrs.UserPageQuery) (*models.Page[models.UserView], error)
	FindByRoleID(ctx context.Context, roleID int64, keyword string) ([]models.UserView, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
}

// UserQueryService reads user views from the Redis cache (with a Postgres fallback).
type UserQueryService struct {
	readRepo UserReader
	avatars  storage.AvatarStore
}

func NewUserQueryService(readRepo UserReader, avatars storage.AvatarStore) *UserQueryService {
	if avatars == nil {
		avatars = storage.Unconfigured{}
	}
	return &UserQueryService{readRepo: readRepo, avatars: avatars}
}

func (s *UserQueryService) GetUser(ctx context.Context, q cqrs.GetUserQuery) (*models.UserView, error) {
	return s.readRepo.GetByID(ctx, q.UserID)
}

func (s *UserQueryService) GetByAccount(ctx context.Context, q cqrs.GetUserByAccountQuery) (*models.UserView, error) {
	if err := exception.CheckVar("account", q.Account, "required"); err != nil {
		return nil, err
	}
	return s.readRepo.GetByAccount(ctx, q.Account)
}

func (s *UserQueryService) FindPage(ctx context.Context, q cqrs.UserPageQuery) (*models.Page[models.UserView], error) {
	return s.readRepo.FindPage(ctx, q)
}

func (s *UserQueryService) FindUserByRoleID(ctx context.Context, q cqrs.FindUsersByRoleQuery) ([]models.UserView, error) {
	return s.readRepo.FindByRoleID(ctx, q.RoleID, q.Keyword)
}

func (s *UserQueryService) ListRoles(ctx context.Context) ([]models.Role, error) {
	return s.readRepo.ListRoles(ctx)
}

// AvatarURL returns a temporary link to the user's avatar image.
func (s *UserQueryService) AvatarURL(ctx context.Context, q cqrs.GetUserQuery) (string, error) {
	view, err := s.readRepo.GetByID(ctx, q.UserID)
	if err != nil {
		return "", err
	}
	if view.Avatar == "" {
		return "", exception.NotFound("avatar")
	}
	return s.avatars.AvatarURL(ctx, view.Avatar)
}
