package service

import (
	"context"
	"time"

	"mash_controller/internal/models"
	"mash_controller/internal/profile"
	"mash_controller/internal/repository"
)

// Controller runs the control loop and accepts operator lines.
type Controller interface {
	Submit(ctx context.Context, line string) error
	Run(ctx context.Context, tick time.Duration)
}

// Monitoring exposes the latest persisted control decision.
type Monitoring interface {
	GetState(ctx context.Context) (models.MashState, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.MashEvent, error)
}

// Presets loads, installs and enumerates stored profiles.
type Presets interface {
	Load(id string) (*profile.Profile, error)
	Import(src, id string) (string, error)
	List() ([]PresetInfo, error)
}

// Service aggregates all sub-services.
type Service struct {
	Controller
	Monitoring
	EventLog
	Presets
}

// NewService wires the repository layer and the hardware collaborators into concrete services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	return &Service{
		Controller: NewControllerService(repos.StateRepo, repos.EventRepo, deps),
		Monitoring: NewMonitoringService(repos.StateRepo),
		EventLog:   NewEventLogService(repos.EventRepo),
		Presets:    deps.Presets,
	}
}
