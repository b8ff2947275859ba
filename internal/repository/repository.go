package repository

import (
	"context"
	"database/sql"
	"time"

	"mash_controller/internal/models"
)

type StateRepo interface {
	Save(ctx context.Context, s models.MashState) error
	Load(ctx context.Context) (models.MashState, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.MashEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.MashEvent, error)
}

type Repository struct {
	StateRepo StateRepo
	EventRepo EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StateRepo: NewStateSQLite(db),
		EventRepo: NewEventSQLite(db),
	}
}
