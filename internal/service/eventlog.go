package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"mash_controller"
	"mash_controller/internal/models"
	"mash_controller/internal/repository"
)

// EventLogService reads the controller's event history.
type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	errUnknownEventType = errors.New("unknown event type")
)

// eventTypes lists every type the controller writes.
var eventTypes = []string{
	mash_controller.EventStartup,
	mash_controller.EventShutdown,
	mash_controller.EventActivityChange,
	mash_controller.EventSetPoint,
	mash_controller.EventSensorFault,
	mash_controller.EventCommandError,
	mash_controller.EventHeater,
}

// normalizeAndValidateFilter prepares query parameters, validates the time
// range and rejects types the controller never writes.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := toUTC(f.From)
	to := toUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}
	typ := strings.ToUpper(strings.TrimSpace(f.Type))
	if typ != "" && !slices.Contains(eventTypes, typ) {
		return time.Time{}, time.Time{}, "", fmt.Errorf("%w %q (want one of %s)", errUnknownEventType, typ, strings.Join(eventTypes, ", "))
	}
	return from, to, typ, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.MashEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, from, to, typ)
}
