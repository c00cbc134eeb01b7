package service

import (
	"context"

	"github.com/lexbrief/lexbrief/internal/model"
)

type UsageLogReader interface {
	ListRecent(ctx context.Context, callerID string, limit uint) ([]model.UsageLog, error)
}

type ProfileGetter interface {
	Get(ctx context.Context, callerID string) (*model.UsageProfile, error)
}

type UsageOverview struct {
	Profile *model.UsageProfile `json:"profile"`
	Recent  []model.UsageLog    `json:"recent"`
}

type UsageService struct {
	profiles ProfileGetter
	logs     UsageLogReader
}

func NewUsageService(profiles ProfileGetter, logs UsageLogReader) *UsageService {
	return &UsageService{profiles: profiles, logs: logs}
}

func (s *UsageService) Overview(ctx context.Context, callerID string) (*UsageOverview, error) {
	profile, err := s.profiles.Get(ctx, callerID)
	if err != nil {
		return nil, err
	}
	recent, err := s.logs.ListRecent(ctx, callerID, 20)
	if err != nil {
		return nil, err
	}
	return &UsageOverview{Profile: profile, Recent: recent}, nil
}
