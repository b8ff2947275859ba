package service

import (
	"context"
	"time"

	"mash_controller"
	"mash_controller/internal/models"
	"mash_controller/internal/repository"
)

type MonitoringService struct {
	stateRepo repository.StateRepo
}

func NewMonitoringService(stateRepo repository.StateRepo) *MonitoringService {
	return &MonitoringService{stateRepo: stateRepo}
}

// GetState returns the latest persisted mash state.
// If no state is persisted yet, returns a baseline idle snapshot.
func (s *MonitoringService) GetState(ctx context.Context) (models.MashState, error) {
	state, err := s.stateRepo.Load(ctx)
	if err != nil {
		return models.MashState{}, err
	}
	if state.ID == 0 {
		return baselineState(), nil
	}
	state.UpdatedAt = toUTC(state.UpdatedAt)
	return state, nil
}

func baselineState() models.MashState {
	return models.MashState{
		ID:             1, // single-row table
		Activity:       mash_controller.ActivityIdle,
		Classification: "ok",
		UpdatedAt:      time.Now().UTC(),
	}
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
