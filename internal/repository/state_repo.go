package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"mash_controller/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

const (
	mashStateRowID = 1

	upsertStateSQL = `
		INSERT INTO mash_state (id, activity, source, average_c, has_reading, target_c, has_target,
			classification, heating, elapsed_s, sensor_errors, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			activity=excluded.activity,
			source=excluded.source,
			average_c=excluded.average_c,
			has_reading=excluded.has_reading,
			target_c=excluded.target_c,
			has_target=excluded.has_target,
			classification=excluded.classification,
			heating=excluded.heating,
			elapsed_s=excluded.elapsed_s,
			sensor_errors=excluded.sensor_errors,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT id, activity, source, average_c, has_reading, target_c, has_target,
			classification, heating, elapsed_s, sensor_errors, updated_at
		FROM mash_state WHERE id=?
	`
)

func marshalNames(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	b, err := json.Marshal(names)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalNames(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(s), &names); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}
	return names, nil
}

// Save upserts the single mash_state row.
func (r *StateSQLite) Save(ctx context.Context, state models.MashState) error {
	sensorErrors, err := marshalNames(state.SensorErrors)
	if err != nil {
		return err
	}

	ts := state.UpdatedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err = r.db.ExecContext(ctx, upsertStateSQL,
		mashStateRowID,
		state.Activity,
		state.Source,
		state.AverageC,
		state.HasReading,
		state.TargetC,
		state.HasTarget,
		state.Classification,
		state.Heating,
		state.ElapsedSeconds,
		sensorErrors,
		ts.UTC(),
	)
	return err
}

// Load returns the persisted row, or the zero state when none was written yet.
func (r *StateSQLite) Load(ctx context.Context) (models.MashState, error) {
	row := r.db.QueryRowContext(ctx, selectStateSQL, mashStateRowID)

	var s models.MashState
	var sensorErrors string
	if err := row.Scan(
		&s.ID,
		&s.Activity,
		&s.Source,
		&s.AverageC,
		&s.HasReading,
		&s.TargetC,
		&s.HasTarget,
		&s.Classification,
		&s.Heating,
		&s.ElapsedSeconds,
		&sensorErrors,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.MashState{}, nil
		}
		return models.MashState{}, err
	}

	names, err := unmarshalNames(sensorErrors)
	if err != nil {
		return models.MashState{}, err
	}
	s.SensorErrors = names
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}
