package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/pfeilbach/cohort/internal/constants"
	"github.com/pfeilbach/cohort/internal/models"
)

// PostgresStore implements Provider against a PostgreSQL database, for
// deployments where the engine runs alongside other services instead of on a
// local file.
type PostgresStore struct {
	dsn string
	db  *sql.DB
}

func NewPostgresStore(dsn string) *PostgresStore {
	return &PostgresStore{
		dsn: dsn,
	}
}

// IsPostgresDSN reports whether the config string is a PostgreSQL connection
// string rather than a file path.
func IsPostgresDSN(config string) bool {
	return strings.HasPrefix(config, "postgres://") || strings.HasPrefix(config, "postgresql://")
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS settings (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	timezone TEXT NOT NULL,
	batch_span_days INTEGER NOT NULL,
	charge_per_miss DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS batch (
	slot INTEGER PRIMARY KEY CHECK (slot = 1),
	name TEXT NOT NULL,
	created_date TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	status TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS habits (
	id TEXT PRIMARY KEY,
	participant TEXT NOT NULL,
	name TEXT NOT NULL,
	frequency INTEGER NOT NULL,
	minimal_dose TEXT NOT NULL,
	domains JSONB,
	context TEXT,
	why TEXT,
	batch TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS proofs (
	id TEXT PRIMARY KEY,
	habit_id TEXT NOT NULL REFERENCES habits(id),
	date TEXT NOT NULL,
	unit TEXT NOT NULL,
	note TEXT,
	is_minimal_dose BOOLEAN NOT NULL DEFAULT FALSE,
	is_cheat_day BOOLEAN NOT NULL DEFAULT FALSE,
	batch TEXT
);

CREATE INDEX IF NOT EXISTS idx_proofs_habit_date ON proofs(habit_id, date);
CREATE INDEX IF NOT EXISTS idx_habits_participant ON habits(participant);
`

func (s *PostgresStore) Init() error {
	db, err := sql.Open("postgres", s.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = db

	if _, err := s.db.Exec(pgSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if _, err := s.GetSettings(); err != nil {
		defaultSettings := models.Settings{
			Timezone:      constants.DefaultTimezone,
			BatchSpanDays: constants.DefaultBatchSpanDays,
			ChargePerMiss: constants.DefaultChargePerMiss,
		}
		if err := s.SaveSettings(defaultSettings); err != nil {
			return fmt.Errorf("failed to save default settings: %w", err)
		}
	}

	return nil
}

func (s *PostgresStore) Load() error {
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("postgres", s.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = db
	return nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *PostgresStore) GetSettings() (models.Settings, error) {
	row := s.db.QueryRow(`SELECT timezone, batch_span_days, charge_per_miss FROM settings WHERE id = 1`)

	var settings models.Settings
	if err := row.Scan(&settings.Timezone, &settings.BatchSpanDays, &settings.ChargePerMiss); err != nil {
		return models.Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	return settings, nil
}

func (s *PostgresStore) SaveSettings(settings models.Settings) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (id, timezone, batch_span_days, charge_per_miss)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			timezone = EXCLUDED.timezone,
			batch_span_days = EXCLUDED.batch_span_days,
			charge_per_miss = EXCLUDED.charge_per_miss`,
		settings.Timezone, settings.BatchSpanDays, settings.ChargePerMiss)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetBatch() (models.Batch, error) {
	row := s.db.QueryRow(`SELECT name, created_date, start_date, end_date, status FROM batch WHERE slot = 1`)

	var b models.Batch
	var status string
	err := row.Scan(&b.Name, &b.CreatedDate, &b.StartDate, &b.EndDate, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Batch{}, ErrNoBatch
	}
	if err != nil {
		return models.Batch{}, fmt.Errorf("failed to read batch: %w", err)
	}
	b.Status = constants.BatchStatus(status)
	return b, nil
}

func (s *PostgresStore) SaveBatch(batch models.Batch) error {
	_, err := s.db.Exec(`
		INSERT INTO batch (slot, name, created_date, start_date, end_date, status)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (slot) DO UPDATE SET
			name = EXCLUDED.name,
			created_date = EXCLUDED.created_date,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			status = EXCLUDED.status`,
		batch.Name, batch.CreatedDate, batch.StartDate, batch.EndDate, string(batch.Status))
	if err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}
	return nil
}

func (s *PostgresStore) ClearBatch() error {
	if _, err := s.db.Exec(`DELETE FROM batch WHERE slot = 1`); err != nil {
		return fmt.Errorf("failed to clear batch: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddHabit(habit models.Habit) error {
	domains, err := json.Marshal(habit.Domains)
	if err != nil {
		return fmt.Errorf("failed to serialize domains: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO habits (id, participant, name, frequency, minimal_dose, domains, context, why, batch, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		habit.ID, habit.Participant, habit.Name, habit.Frequency, habit.MinimalDose,
		string(domains), habit.Context, habit.Why, habit.Batch, habit.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add habit: %w", err)
	}
	return nil
}

const pgHabitColumns = `id, participant, name, frequency, minimal_dose, domains, context, why, batch, created_at`

func (s *PostgresStore) scanHabitRow(scan func(dest ...any) error) (models.Habit, error) {
	var h models.Habit
	var domains sql.NullString
	var createdAt time.Time

	err := scan(&h.ID, &h.Participant, &h.Name, &h.Frequency, &h.MinimalDose, &domains, &h.Context, &h.Why, &h.Batch, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, ErrNotFound
	}
	if err != nil {
		return models.Habit{}, err
	}

	if domains.Valid && domains.String != "null" {
		if err := json.Unmarshal([]byte(domains.String), &h.Domains); err != nil {
			return models.Habit{}, fmt.Errorf("failed to parse domains: %w", err)
		}
	}
	h.CreatedAt = createdAt
	return h, nil
}

func (s *PostgresStore) GetHabit(id string) (models.Habit, error) {
	row := s.db.QueryRow(`SELECT `+pgHabitColumns+` FROM habits WHERE id = $1`, id)
	return s.scanHabitRow(row.Scan)
}

func (s *PostgresStore) GetHabitByName(name string) (models.Habit, error) {
	row := s.db.QueryRow(`SELECT `+pgHabitColumns+` FROM habits WHERE name = $1`, name)
	return s.scanHabitRow(row.Scan)
}

func (s *PostgresStore) queryHabits(query string, args ...any) ([]models.Habit, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		h, err := s.scanHabitRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *PostgresStore) GetAllHabits() ([]models.Habit, error) {
	return s.queryHabits(`SELECT ` + pgHabitColumns + ` FROM habits ORDER BY name`)
}

func (s *PostgresStore) GetHabitsByParticipant(participant string) ([]models.Habit, error) {
	return s.queryHabits(`SELECT `+pgHabitColumns+` FROM habits WHERE participant = $1 ORDER BY name`, participant)
}

func (s *PostgresStore) UpdateHabit(habit models.Habit) error {
	domains, err := json.Marshal(habit.Domains)
	if err != nil {
		return fmt.Errorf("failed to serialize domains: %w", err)
	}

	res, err := s.db.Exec(`
		UPDATE habits SET participant = $1, name = $2, frequency = $3, minimal_dose = $4,
			domains = $5, context = $6, why = $7, batch = $8
		WHERE id = $9`,
		habit.Participant, habit.Name, habit.Frequency, habit.MinimalDose,
		string(domains), habit.Context, habit.Why, habit.Batch, habit.ID)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteHabit(id string) error {
	res, err := s.db.Exec(`DELETE FROM habits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AddProof(proof models.Proof) error {
	_, err := s.db.Exec(`
		INSERT INTO proofs (id, habit_id, date, unit, note, is_minimal_dose, is_cheat_day, batch)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		proof.ID, proof.HabitID, proof.Date, proof.Unit, proof.Note,
		proof.IsMinimalDose, proof.IsCheatDay, proof.Batch)
	if err != nil {
		return fmt.Errorf("failed to add proof: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetProofs(habitID, startDay, endDay string) ([]models.Proof, error) {
	query := `SELECT id, habit_id, date, unit, note, is_minimal_dose, is_cheat_day, batch FROM proofs WHERE habit_id = $1`
	args := []any{habitID}

	if startDay != "" {
		args = append(args, startDay)
		query += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if endDay != "" {
		args = append(args, endDay)
		query += fmt.Sprintf(` AND date <= $%d`, len(args))
	}
	query += ` ORDER BY date`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query proofs: %w", err)
	}
	defer rows.Close()

	var proofs []models.Proof
	for rows.Next() {
		var p models.Proof
		if err := rows.Scan(&p.ID, &p.HabitID, &p.Date, &p.Unit, &p.Note, &p.IsMinimalDose, &p.IsCheatDay, &p.Batch); err != nil {
			return nil, err
		}
		proofs = append(proofs, p)
	}
	return proofs, rows.Err()
}

func (s *PostgresStore) GetConfigPath() string {
	return s.dsn
}
