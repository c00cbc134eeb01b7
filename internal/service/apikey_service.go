package service

import (
	"context"

	"github.com/lexbrief/lexbrief/internal/model"
	appErr "github.com/lexbrief/lexbrief/internal/pkg/errors"
	"github.com/lexbrief/lexbrief/internal/pkg/timeutil"
)

type APIKeyStore interface {
	Create(ctx context.Context, key *model.APIKey) error
	GetActiveByKey(ctx context.Context, key string) (*model.APIKey, error)
	ListByCaller(ctx context.Context, callerID string) ([]model.APIKey, error)
	Deactivate(ctx context.Context, callerID, keyID string) error
}

type APIKeyService struct {
	keys APIKeyStore
}

func NewAPIKeyService(keys APIKeyStore) *APIKeyService {
	return &APIKeyService{keys: keys}
}

// Issue mints a new key for the caller. The key material is returned
// only once, at creation.
func (s *APIKeyService) Issue(ctx context.Context, callerID, name string) (*model.APIKey, error) {
	key := &model.APIKey{
		ID:       newID(),
		CallerID: callerID,
		Key:      newAPIKey(),
		Name:     name,
		IsActive: 1,
		Ctime:    timeutil.NowUnix(),
	}
	if err := s.keys.Create(ctx, key); err != nil {
		return nil, err
	}
	return key, nil
}

func (s *APIKeyService) List(ctx context.Context, callerID string) ([]model.APIKey, error) {
	keys, err := s.keys.ListByCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	// Key material is shown once at issue time only.
	for i := range keys {
		keys[i].Key = ""
	}
	return keys, nil
}

func (s *APIKeyService) Revoke(ctx context.Context, callerID, keyID string) error {
	return s.keys.Deactivate(ctx, callerID, keyID)
}

// Resolve maps a presented bearer key to its caller. Missing or
// deactivated keys both resolve to ErrInvalidAPIKey.
func (s *APIKeyService) Resolve(ctx context.Context, presented string) (*model.APIKey, error) {
	if presented == "" {
		return nil, appErr.ErrInvalidAPIKey
	}
	record, err := s.keys.GetActiveByKey(ctx, presented)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.ErrInvalidAPIKey
		}
		return nil, err
	}
	return record, nil
}
