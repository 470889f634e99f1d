package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pfeilbach/cohort/internal/constants"
	"github.com/pfeilbach/cohort/internal/models"
)

type SQLiteStore struct {
	path string
	db   *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{
		path: path,
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	timezone TEXT NOT NULL,
	batch_span_days INTEGER NOT NULL,
	charge_per_miss REAL NOT NULL
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
	domains TEXT,
	context TEXT,
	why TEXT,
	batch TEXT,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS proofs (
	id TEXT PRIMARY KEY,
	habit_id TEXT NOT NULL,
	date TEXT NOT NULL,
	unit TEXT NOT NULL,
	note TEXT,
	is_minimal_dose INTEGER NOT NULL DEFAULT 0,
	is_cheat_day INTEGER NOT NULL DEFAULT 0,
	batch TEXT,
	FOREIGN KEY (habit_id) REFERENCES habits(id)
);

CREATE INDEX IF NOT EXISTS idx_proofs_habit_date ON proofs(habit_id, date);
CREATE INDEX IF NOT EXISTS idx_habits_participant ON habits(participant);
`

func (s *SQLiteStore) Init() error {
	// Create config directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Initialize default settings if not present
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

func (s *SQLiteStore) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'cohort init' first")
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *SQLiteStore) GetSettings() (models.Settings, error) {
	row := s.db.QueryRow(`SELECT timezone, batch_span_days, charge_per_miss FROM settings WHERE id = 1`)

	var settings models.Settings
	if err := row.Scan(&settings.Timezone, &settings.BatchSpanDays, &settings.ChargePerMiss); err != nil {
		return models.Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	return settings, nil
}

func (s *SQLiteStore) SaveSettings(settings models.Settings) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (id, timezone, batch_span_days, charge_per_miss)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			timezone = excluded.timezone,
			batch_span_days = excluded.batch_span_days,
			charge_per_miss = excluded.charge_per_miss`,
		settings.Timezone, settings.BatchSpanDays, settings.ChargePerMiss)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetBatch() (models.Batch, error) {
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

func (s *SQLiteStore) SaveBatch(batch models.Batch) error {
	_, err := s.db.Exec(`
		INSERT INTO batch (slot, name, created_date, start_date, end_date, status)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			name = excluded.name,
			created_date = excluded.created_date,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			status = excluded.status`,
		batch.Name, batch.CreatedDate, batch.StartDate, batch.EndDate, string(batch.Status))
	if err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ClearBatch() error {
	if _, err := s.db.Exec(`DELETE FROM batch WHERE slot = 1`); err != nil {
		return fmt.Errorf("failed to clear batch: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AddHabit(habit models.Habit) error {
	domains, err := json.Marshal(habit.Domains)
	if err != nil {
		return fmt.Errorf("failed to serialize domains: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO habits (id, participant, name, frequency, minimal_dose, domains, context, why, batch, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		habit.ID, habit.Participant, habit.Name, habit.Frequency, habit.MinimalDose,
		string(domains), habit.Context, habit.Why, habit.Batch, habit.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to add habit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) scanHabit(row *sql.Row) (models.Habit, error) {
	var h models.Habit
	var domains, createdAt string

	err := row.Scan(&h.ID, &h.Participant, &h.Name, &h.Frequency, &h.MinimalDose, &domains, &h.Context, &h.Why, &h.Batch, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, ErrNotFound
	}
	if err != nil {
		return models.Habit{}, err
	}

	if domains != "" && domains != "null" {
		if err := json.Unmarshal([]byte(domains), &h.Domains); err != nil {
			return models.Habit{}, fmt.Errorf("failed to parse domains: %w", err)
		}
	}
	h.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return h, nil
}

const habitColumns = `id, participant, name, frequency, minimal_dose, domains, context, why, batch, created_at`

func (s *SQLiteStore) GetHabit(id string) (models.Habit, error) {
	row := s.db.QueryRow(`SELECT `+habitColumns+` FROM habits WHERE id = ?`, id)
	return s.scanHabit(row)
}

func (s *SQLiteStore) GetHabitByName(name string) (models.Habit, error) {
	row := s.db.QueryRow(`SELECT `+habitColumns+` FROM habits WHERE name = ?`, name)
	return s.scanHabit(row)
}

func (s *SQLiteStore) queryHabits(query string, args ...any) ([]models.Habit, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		var h models.Habit
		var domains, createdAt string

		if err := rows.Scan(&h.ID, &h.Participant, &h.Name, &h.Frequency, &h.MinimalDose, &domains, &h.Context, &h.Why, &h.Batch, &createdAt); err != nil {
			return nil, err
		}
		if domains != "" && domains != "null" {
			if err := json.Unmarshal([]byte(domains), &h.Domains); err != nil {
				return nil, fmt.Errorf("failed to parse domains: %w", err)
			}
		}
		h.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *SQLiteStore) GetAllHabits() ([]models.Habit, error) {
	return s.queryHabits(`SELECT ` + habitColumns + ` FROM habits ORDER BY name`)
}

func (s *SQLiteStore) GetHabitsByParticipant(participant string) ([]models.Habit, error) {
	return s.queryHabits(`SELECT `+habitColumns+` FROM habits WHERE participant = ? ORDER BY name`, participant)
}

func (s *SQLiteStore) UpdateHabit(habit models.Habit) error {
	domains, err := json.Marshal(habit.Domains)
	if err != nil {
		return fmt.Errorf("failed to serialize domains: %w", err)
	}

	res, err := s.db.Exec(`
		UPDATE habits SET participant = ?, name = ?, frequency = ?, minimal_dose = ?,
			domains = ?, context = ?, why = ?, batch = ?
		WHERE id = ?`,
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

func (s *SQLiteStore) DeleteHabit(id string) error {
	res, err := s.db.Exec(`DELETE FROM habits WHERE id = ?`, id)
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

func (s *SQLiteStore) AddProof(proof models.Proof) error {
	_, err := s.db.Exec(`
		INSERT INTO proofs (id, habit_id, date, unit, note, is_minimal_dose, is_cheat_day, batch)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		proof.ID, proof.HabitID, proof.Date, proof.Unit, proof.Note,
		boolToInt(proof.IsMinimalDose), boolToInt(proof.IsCheatDay), proof.Batch)
	if err != nil {
		return fmt.Errorf("failed to add proof: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetProofs(habitID, startDay, endDay string) ([]models.Proof, error) {
	query := `SELECT id, habit_id, date, unit, note, is_minimal_dose, is_cheat_day, batch FROM proofs WHERE habit_id = ?`
	args := []any{habitID}

	if startDay != "" {
		query += ` AND date >= ?`
		args = append(args, startDay)
	}
	if endDay != "" {
		query += ` AND date <= ?`
		args = append(args, endDay)
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
		var minimal, cheat int
		if err := rows.Scan(&p.ID, &p.HabitID, &p.Date, &p.Unit, &p.Note, &minimal, &cheat, &p.Batch); err != nil {
			return nil, err
		}
		p.IsMinimalDose = minimal != 0
		p.IsCheatDay = cheat != 0
		proofs = append(proofs, p)
	}
	return proofs, rows.Err()
}

func (s *SQLiteStore) GetConfigPath() string {
	return s.path
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// IsSQLitePath reports whether the config path looks like a SQLite database
// rather than the default JSON document.
func IsSQLitePath(path string) bool {
	return strings.HasSuffix(path, ".db") || strings.HasSuffix(path, ".sqlite")
}
