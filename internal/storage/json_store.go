package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pfeilbach/cohort/internal/constants"
	"github.com/pfeilbach/cohort/internal/models"
)

type Store struct {
	Version  int                     `json:"version"`
	Settings models.Settings         `json:"settings"`
	Batch    *models.Batch           `json:"batch,omitempty"`
	Habits   map[string]models.Habit `json:"habits"`
	Proofs   map[string]models.Proof `json:"proofs"`
}

type JSONStore struct {
	path  string
	store *Store
}

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path: configPath,
	}
}

func (s *JSONStore) Init() error {
	// Create config directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Check if file already exists
	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	s.store = &Store{
		Version: 1,
		Settings: models.Settings{
			Timezone:      constants.DefaultTimezone,
			BatchSpanDays: constants.DefaultBatchSpanDays,
			ChargePerMiss: constants.DefaultChargePerMiss,
		},
		Habits: make(map[string]models.Habit),
		Proofs: make(map[string]models.Proof),
	}

	return s.save()
}

func (s *JSONStore) Load() error {
	if s.store != nil {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'cohort init' first")
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	s.store = &Store{}
	if err := json.Unmarshal(data, s.store); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}

	// Ensure maps are initialized
	if s.store.Habits == nil {
		s.store.Habits = make(map[string]models.Habit)
	}
	if s.store.Proofs == nil {
		s.store.Proofs = make(map[string]models.Proof)
	}

	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

// save writes the whole document through a temp file so readers never observe
// a partially written record.
func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace storage: %w", err)
	}

	return nil
}

func (s *JSONStore) GetSettings() (models.Settings, error) {
	if s.store == nil {
		return models.Settings{}, fmt.Errorf("storage not loaded")
	}
	return s.store.Settings, nil
}

func (s *JSONStore) SaveSettings(settings models.Settings) error {
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}
	s.store.Settings = settings
	return s.save()
}

func (s *JSONStore) GetBatch() (models.Batch, error) {
	if s.store == nil {
		return models.Batch{}, fmt.Errorf("storage not loaded")
	}
	if s.store.Batch == nil {
		return models.Batch{}, ErrNoBatch
	}
	return *s.store.Batch, nil
}

func (s *JSONStore) SaveBatch(batch models.Batch) error {
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}
	s.store.Batch = &batch
	return s.save()
}

func (s *JSONStore) ClearBatch() error {
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}
	if s.store.Batch == nil {
		return nil
	}
	s.store.Batch = nil
	return s.save()
}

func (s *JSONStore) AddHabit(habit models.Habit) error {
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}
	s.store.Habits[habit.ID] = habit
	return s.save()
}

func (s *JSONStore) GetHabit(id string) (models.Habit, error) {
	if s.store == nil {
		return models.Habit{}, fmt.Errorf("storage not loaded")
	}
	habit, ok := s.store.Habits[id]
	if !ok {
		return models.Habit{}, ErrNotFound
	}
	return habit, nil
}

func (s *JSONStore) GetHabitByName(name string) (models.Habit, error) {
	if s.store == nil {
		return models.Habit{}, fmt.Errorf("storage not loaded")
	}
	for _, habit := range s.store.Habits {
		if habit.Name == name {
			return habit, nil
		}
	}
	return models.Habit{}, ErrNotFound
}

func (s *JSONStore) GetAllHabits() ([]models.Habit, error) {
	if s.store == nil {
		return nil, fmt.Errorf("storage not loaded")
	}
	habits := make([]models.Habit, 0, len(s.store.Habits))
	for _, habit := range s.store.Habits {
		habits = append(habits, habit)
	}
	sort.Slice(habits, func(i, j int) bool { return habits[i].Name < habits[j].Name })
	return habits, nil
}

func (s *JSONStore) GetHabitsByParticipant(participant string) ([]models.Habit, error) {
	all, err := s.GetAllHabits()
	if err != nil {
		return nil, err
	}
	var habits []models.Habit
	for _, habit := range all {
		if habit.Participant == participant {
			habits = append(habits, habit)
		}
	}
	return habits, nil
}

func (s *JSONStore) UpdateHabit(habit models.Habit) error {
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}
	if _, ok := s.store.Habits[habit.ID]; !ok {
		return ErrNotFound
	}
	s.store.Habits[habit.ID] = habit
	return s.save()
}

func (s *JSONStore) DeleteHabit(id string) error {
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}
	if _, ok := s.store.Habits[id]; !ok {
		return ErrNotFound
	}
	delete(s.store.Habits, id)
	return s.save()
}

func (s *JSONStore) AddProof(proof models.Proof) error {
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}
	s.store.Proofs[proof.ID] = proof
	return s.save()
}

func (s *JSONStore) GetProofs(habitID, startDay, endDay string) ([]models.Proof, error) {
	if s.store == nil {
		return nil, fmt.Errorf("storage not loaded")
	}
	var proofs []models.Proof
	for _, proof := range s.store.Proofs {
		if proof.HabitID != habitID {
			continue
		}
		if startDay != "" && proof.Date < startDay {
			continue
		}
		if endDay != "" && proof.Date > endDay {
			continue
		}
		proofs = append(proofs, proof)
	}
	sort.Slice(proofs, func(i, j int) bool { return proofs[i].Date < proofs[j].Date })
	return proofs, nil
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}
