// Package service authenticates accounts and issues session tokens.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/changzer/choppy/shared/cqrs"
	"github.com/changzer/choppy/shared/errcode"
	"github.com/changzer/choppy/shared/events"
	"github.com/changzer/choppy/shared/exception"
	"github.com/changzer/choppy/shared/middleware"
	"github.com/changzer/choppy/shared/models"
	"github.com/changzer/choppy/shared/utils"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	ErrBadCredentials  = exception.NewBiz(errcode.Unauthorized, "account or password incorrect")
	ErrAccountDisabled = exception.NewBiz(errcode.Forbidden, "account is disabled")
	ErrPasswordExpired = exception.NewBiz(errcode.Unauthorized, "password has expired, please reset it")
)

// UserStore is the slice of the user table login needs.
type UserStore interface {
	GetByAccount(ctx context.Context, account string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	RecordPasswordError(ctx context.Context, id int64, at time.Time) error
	RecordLogin(ctx context.Context, id int64, at time.Time) error
}

// Publisher announces login outcomes so user-service can drop its cached
// view of the user.
type Publisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

type Options struct {
	TokenTTL          time.Duration
	MaxPasswordErrors int
	LockDuration      time.Duration
}

// Token is what a successful login or refresh returns.
type Token struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	User      *models.UserView `json:"user,omitempty"`
}

type AuthService struct {
	users     UserStore
	publisher Publisher
	opts      Options
	logger    *zap.Logger
	now       func() time.Time
}

func NewAuthService(users UserStore, publisher Publisher, opts Options, logger *zap.Logger) *AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	return &AuthService{users: users, publisher: publisher, opts: opts, logger: logger, now: time.Now}
}

func (s *AuthService) Login(ctx context.Context, cmd cqrs.LoginCommand) (*Token, error) {
	now := cmd.Now
	if now.IsZero() {
		now = s.now()
	}

	user, err := s.users.GetByAccount(ctx, cmd.Account)
	if errors.Is(err, exception.ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}

	if !user.Status {
		return nil, ErrAccountDisabled
	}
	if until, locked := s.lockedUntil(user); locked && now.Before(until) {
		return nil, exception.NewBiz(errcode.TooManyRequests,
			fmt.Sprintf("password entered wrong %d times, account locked until %s", user.PasswordErrorNum, until.Format(time.DateTime)))
	}
	if user.PasswordExpireTime != nil && user.PasswordExpireTime.Before(now) {
		return nil, ErrPasswordExpired
	}

	if !utils.CheckPassword(cmd.Password, user.Password) {
		if err := s.users.RecordPasswordError(ctx, user.ID, now); err != nil {
			return nil, err
		}
		s.publishLogin(ctx, events.LoginFailed, user, now)
		s.logger.Info("wrong password", zap.String("account", user.Account), zap.Int("errors", user.PasswordErrorNum+1))
		return nil, ErrBadCredentials
	}

	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	s.publishLogin(ctx, events.LoginSucceeded, user, now)
	user.LastLoginTime = &now
	user.PasswordErrorNum = 0

	token, err := s.issue(user, now)
	if err != nil {
		return nil, err
	}
	token.User = user.View()
	return token, nil
}

func (s *AuthService) RefreshToken(ctx context.Context, cmd cqrs.RefreshTokenCommand) (*Token, error) {
	claims, err := middleware.ParseToken(cmd.Token)
	if err != nil {
		return nil, exception.NewBiz(middleware.TokenErrorCode(err), "")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, exception.ErrNotFound) {
		return nil, exception.NewBiz(errcode.JWTParserTokenFail, "")
	}
	if err != nil {
		return nil, err
	}
	if !user.Status {
		return nil, ErrAccountDisabled
	}
	return s.issue(user, s.now())
}

func (s *AuthService) publishLogin(ctx context.Context, eventType string, user *models.User, at time.Time) {
	event := events.LoginEvent{UserID: user.ID, Account: user.Account, At: at.UTC()}
	if err := s.publisher.Publish(ctx, events.AuthEventsStream, eventType, event); err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}

// lockedUntil reports when the error lock on user ends, if one applies.
func (s *AuthService) lockedUntil(user *models.User) (time.Time, bool) {
	if s.opts.MaxPasswordErrors <= 0 || user.PasswordErrorNum < s.opts.MaxPasswordErrors || user.PasswordErrorLastTime == nil {
		return time.Time{}, false
	}
	return user.PasswordErrorLastTime.Add(s.opts.LockDuration), true
}

func (s *AuthService) issue(user *models.User, now time.Time) (*Token, error) {
	expiresAt := now.Add(s.opts.TokenTTL)
	claims := middleware.Claims{
		UserID:  user.ID,
		Account: user.Account,
		Name:    user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(middleware.JWTSecret())
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &Token{Token: signed, ExpiresAt: expiresAt}, nil
}
