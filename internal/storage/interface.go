package storage

import (
	"errors"

	"github.com/pfeilbach/cohort/internal/models"
)

// ErrNoBatch is returned by GetBatch when the single batch slot is empty.
// It is distinct from real read failures: a store error must never be folded
// into a false "no batch" answer, or every downstream schedule would believe
// the challenge is inactive.
var ErrNoBatch = errors.New("no batch configured")

// ErrNotFound is returned when a habit or proof does not exist.
var ErrNotFound = errors.New("not found")

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Batch slot. SaveBatch replaces the whole record; there is no merge.
	// ClearBatch is idempotent.
	GetBatch() (models.Batch, error)
	SaveBatch(models.Batch) error
	ClearBatch() error

	// Habits
	AddHabit(models.Habit) error
	GetHabit(id string) (models.Habit, error)
	GetHabitByName(name string) (models.Habit, error)
	GetAllHabits() ([]models.Habit, error)
	GetHabitsByParticipant(participant string) ([]models.Habit, error)
	UpdateHabit(models.Habit) error
	DeleteHabit(id string) error

	// Proofs. GetProofs bounds by inclusive YYYY-MM-DD day strings; empty
	// bounds mean unbounded on that side.
	AddProof(models.Proof) error
	GetProofs(habitID, startDay, endDay string) ([]models.Proof, error)

	// Utils
	GetConfigPath() string
}
