package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/changzer/choppy/shared/cqrs"
	"github.com/changzer/choppy/shared/events"
	"github.com/changzer/choppy/shared/exception"
	"github.com/changzer/choppy/shared/models"
	"github.com/changzer/choppy/shared/storage"
	"github.com/changzer/choppy/shared/utils"
	"go.uber.org/zap"
)

const idListConstraint = "required,min=1,dive,gt=0"

// UserWriter is the PostgreSQL write store for users.
type UserWriter interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Update(ctx context.Context, cmd cqrs.UpdateUserCommand, passwordHash *string, at time.Time) error
	Remove(ctx context.Context, ids []int64) (int64, error)
	ResetPasswords(ctx context.Context, ids []int64, passwordHash string) (int64, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	ResetPasswordErrorNum(ctx context.Context, id int64) (int64, error)
	IncrPasswordErrorNum(ctx context.Context, id int64, at time.Time) error
	UpdateLastLoginTime(ctx context.Context, account string, at time.Time) (int64, error)
	UpdateAvatar(ctx context.Context, id int64, key string) error
	ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error
	DetachOrgs(ctx context.Context, orgIDs []int64) ([]int64, error)
	DetachStations(ctx context.Context, stationIDs []int64) ([]int64, error)
}

// ViewCache is the Redis read model the command side keeps current.
type ViewCache interface {
	CacheUserView(ctx context.Context, view *models.UserView)
	InvalidateUserViews(ctx context.Context, ids ...int64)
}

type Publisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// UserCommandService writes user state to PostgreSQL and keeps the Redis
// read model up to date.
type UserCommandService struct {
	writeRepo       UserWriter
	cache           ViewCache
	publisher       Publisher
	avatars         storage.AvatarStore
	defaultPassword string
	logger          *zap.Logger
	now             func() time.Time
}

func NewUserCommandService(
	writeRepo UserWriter,
	cache ViewCache,
	publisher Publisher,
	avatars storage.AvatarStore,
	defaultPassword string,
	logger *zap.Logger,
) *UserCommandService {
	if avatars == nil {
		avatars = storage.Unconfigured{}
	}
	return &UserCommandService{
		writeRepo:       writeRepo,
		cache:           cache,
		publisher:       publisher,
		avatars:         avatars,
		defaultPassword: defaultPassword,
		logger:          logger,
		now:             time.Now,
	}
}

// SaveUser creates a user whose password never expires.
func (s *UserCommandService) SaveUser(ctx context.Context, cmd cqrs.SaveUserCommand) (*models.UserView, error) {
	passwordHash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Account:          cmd.Account,
		Name:             cmd.Name,
		OrgID:            cmd.OrgID,
		StationID:        cmd.StationID,
		Email:            cmd.Email,
		Mobile:           cmd.Mobile,
		Sex:              cmd.Sex,
		Status:           true,
		WorkDescribe:     cmd.WorkDescribe,
		Password:         passwordHash,
		PasswordErrorNum: 0,
	}
	if user.Sex == "" {
		user.Sex = models.SexNone
	}
	if cmd.Status != nil {
		user.Status = *cmd.Status
	}
	if err := s.writeRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	view := user.View()
	s.cache.CacheUserView(ctx, view)
	s.publish(ctx, events.UserEventsStream, events.UserCreated, events.UserCreatedEvent{
		UserID:  user.ID,
		Account: user.Account,
		Name:    user.Name,
	})
	return view, nil
}

// UpdateUser applies the fields set on cmd. A non-empty password is hashed
// before it is stored.
func (s *UserCommandService) UpdateUser(ctx context.Context, cmd cqrs.UpdateUserCommand) (*models.UserView, error) {
	var passwordHash *string
	if cmd.Password != nil && *cmd.Password != "" {
		hash, err := utils.HashPassword(*cmd.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		passwordHash = &hash
	}

	if err := s.writeRepo.Update(ctx, cmd, passwordHash, s.now().UTC()); err != nil {
		return nil, err
	}
	view, err := s.refreshView(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.UserEventsStream, events.UserUpdated, events.UserUpdatedEvent{
		UserID:  view.ID,
		Account: view.Account,
		Name:    view.Name,
	})
	return view, nil
}

// Remove deletes the users and their role links.
func (s *UserCommandService) Remove(ctx context.Context, cmd cqrs.RemoveUsersCommand) error {
	if err := exception.CheckVar("ids", cmd.UserIDs, idListConstraint); err != nil {
		return err
	}
	ids := utils.UniqueIDs(cmd.UserIDs)
	removed, err := s.writeRepo.Remove(ctx, ids)
	if err != nil {
		return err
	}
	if removed == 0 {
		return exception.NotFound("user")
	}

	s.cache.InvalidateUserViews(ctx, ids...)
	s.publish(ctx, events.UserEventsStream, events.UserDeleted, events.UserDeletedEvent{UserIDs: ids})
	return nil
}

// Reset puts the default password back on every listed user.
func (s *UserCommandService) Reset(ctx context.Context, cmd cqrs.ResetPasswordsCommand) error {
	if err := exception.CheckVar("ids", cmd.UserIDs, idListConstraint); err != nil {
		return err
	}
	hash, err := utils.HashPassword(s.defaultPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	ids := utils.UniqueIDs(cmd.UserIDs)
	if _, err := s.writeRepo.ResetPasswords(ctx, ids, hash); err != nil {
		return err
	}
	s.cache.InvalidateUserViews(ctx, ids...)
	return nil
}

func (s *UserCommandService) UpdatePassword(ctx context.Context, cmd cqrs.UpdatePasswordCommand) error {
	if err := exception.AssertEqual(cmd.ConfirmPassword, cmd.Password, "password and confirmation do not match"); err != nil {
		return err
	}

	user, err := s.writeRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	if err := exception.AssertTrue(utils.CheckPassword(cmd.OldPassword, user.Password), "old password is incorrect"); err != nil {
		return err
	}

	hash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.writeRepo.UpdatePassword(ctx, cmd.UserID, hash); err != nil {
		return err
	}
	s.cache.InvalidateUserViews(ctx, cmd.UserID)
	return nil
}

// ResetPassErrorNum clears the wrong password counter and returns the number
// of rows changed.
func (s *UserCommandService) ResetPassErrorNum(ctx context.Context, id int64) (int64, error) {
	rows, err := s.writeRepo.ResetPasswordErrorNum(ctx, id)
	if err != nil {
		return 0, err
	}
	if rows > 0 {
		s.cache.InvalidateUserViews(ctx, id)
	}
	return rows, nil
}

func (s *UserCommandService) UpdatePasswordErrorNumByID(ctx context.Context, id int64) error {
	if err := s.writeRepo.IncrPasswordErrorNum(ctx, id, s.now().UTC()); err != nil {
		return err
	}
	s.cache.InvalidateUserViews(ctx, id)
	return nil
}

func (s *UserCommandService) UpdateLoginTime(ctx context.Context, account string) error {
	if err := exception.CheckVar("account", account, "required"); err != nil {
		return err
	}
	id, err := s.writeRepo.UpdateLastLoginTime(ctx, account, s.now().UTC())
	if err != nil {
		return err
	}
	s.cache.InvalidateUserViews(ctx, id)
	return nil
}

// AssignRoles replaces the role set of a user.
func (s *UserCommandService) AssignRoles(ctx context.Context, cmd cqrs.AssignRolesCommand) error {
	if err := exception.CheckVar("roleIds", cmd.RoleIDs, "dive,gt=0"); err != nil {
		return err
	}
	return s.writeRepo.ReplaceRoles(ctx, cmd.UserID, utils.UniqueIDs(cmd.RoleIDs))
}

// UploadAvatar stores an image and points the user's avatar at it.
func (s *UserCommandService) UploadAvatar(ctx context.Context, cmd cqrs.UploadAvatarCommand) (*models.UserView, error) {
	if !strings.HasPrefix(cmd.ContentType, "image/") {
		return nil, &exception.MediaTypeError{ContentType: cmd.ContentType}
	}
	if _, err := s.writeRepo.GetByID(ctx, cmd.UserID); err != nil {
		return nil, err
	}

	key, err := s.avatars.PutAvatar(ctx, cmd.FileName, cmd.ContentType, cmd.Size, cmd.Body)
	if err != nil {
		return nil, err
	}
	if err := s.writeRepo.UpdateAvatar(ctx, cmd.UserID, key); err != nil {
		return nil, err
	}
	return s.refreshView(ctx, cmd.UserID)
}

// HandleEvent is the Redis stream subscriber handler. It detaches users from
// orgs and stations removed by core-service, and drops the cached view of
// users whose login columns auth-service changed.
func (s *UserCommandService) HandleEvent(ctx context.Context, event events.Event) error {
	var (
		detached []int64
		err      error
	)
	switch event.Type {
	case events.LoginSucceeded, events.LoginFailed:
		data, decodeErr := events.DecodeData[events.LoginEvent](event)
		if decodeErr != nil {
			return decodeErr
		}
		s.cache.InvalidateUserViews(ctx, data.UserID)
		return nil
	case events.OrgDeleted:
		data, decodeErr := events.DecodeData[events.OrgDeletedEvent](event)
		if decodeErr != nil {
			return decodeErr
		}
		detached, err = s.writeRepo.DetachOrgs(ctx, data.OrgIDs)
	case events.StationDeleted:
		data, decodeErr := events.DecodeData[events.StationDeletedEvent](event)
		if decodeErr != nil {
			return decodeErr
		}
		detached, err = s.writeRepo.DetachStations(ctx, data.StationIDs)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.Info("detached users", zap.String("event", event.Type), zap.Int("users", len(detached)))
	s.cache.InvalidateUserViews(ctx, detached...)
	return nil
}

func (s *UserCommandService) refreshView(ctx context.Context, id int64) (*models.UserView, error) {
	user, err := s.writeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := user.View()
	s.cache.CacheUserView(ctx, view)
	return view, nil
}

func (s *UserCommandService) publish(ctx context.Context, stream, eventType string, data any) {
	if err := s.publisher.Publish(ctx, stream, eventType, data); err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
