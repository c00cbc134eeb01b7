package service

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/lexbrief/lexbrief/internal/model"
	appErr "github.com/lexbrief/lexbrief/internal/pkg/errors"
	"github.com/lexbrief/lexbrief/internal/pkg/jwt"
	"github.com/lexbrief/lexbrief/internal/pkg/password"
	"github.com/lexbrief/lexbrief/internal/pkg/timeutil"
)

type AccountStore interface {
	Create(ctx context.Context, account *model.Account) error
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	GetByID(ctx context.Context, accountID string) (*model.Account, error)
}

type ProfileCreator interface {
	Create(ctx context.Context, profile *model.UsageProfile) error
}

type AuthService struct {
	accounts     AccountStore
	profiles     ProfileCreator
	jwtSecret    []byte
	tokenTTL     time.Duration
	defaultLimit int64
}

func NewAuthService(accounts AccountStore, profiles ProfileCreator, jwtSecret []byte, tokenTTL time.Duration, defaultLimit int64) *AuthService {
	return &AuthService{
		accounts:     accounts,
		profiles:     profiles,
		jwtSecret:    jwtSecret,
		tokenTTL:     tokenTTL,
		defaultLimit: defaultLimit,
	}
}

// Register creates the account together with its usage profile so every
// caller has a quota row before their first analyze request.
func (s *AuthService) Register(ctx context.Context, email, plainPassword string) (*model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") || len(plainPassword) < 8 {
		return nil, appErr.ErrInvalid
	}
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, err
	}
	account := &model.Account{
		ID:           newID(),
		Email:        email,
		PasswordHash: hash,
		Ctime:        timeutil.NowUnix(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	profile := &model.UsageProfile{
		CallerID:      account.ID,
		DocumentCount: 0,
		DocumentLimit: s.defaultLimit,
		PeriodStart:   timeutil.MonthStart(now),
		Mtime:         now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		logutil.GetLogger(ctx).Error("create usage profile failed",
			zap.String("account_id", account.ID), zap.Error(err))
		return nil, err
	}
	return account, nil
}

func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (string, *model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if appErr.IsNotFound(err) {
			return "", nil, appErr.ErrUnauthorized
		}
		return "", nil, err
	}
	if err := password.Compare(account.PasswordHash, plainPassword); err != nil {
		return "", nil, appErr.ErrUnauthorized
	}
	token, err := jwt.GenerateToken(account.ID, account.Email, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return "", nil, err
	}
	return token, account, nil
}
