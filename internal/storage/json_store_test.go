package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/pfeilbach/cohort/internal/constants"
	"github.com/pfeilbach/cohort/internal/models"
)

func newTestStore(t *testing.T) *JSONStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cohort.json")
	s := NewJSONStore(path)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return s
}

func TestInitAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cohort.json")

	s := NewJSONStore(path)
	if err := s.Load(); err == nil {
		t.Fatal("Load before Init should fail")
	}
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := s.Init(); err == nil {
		t.Fatal("second Init should refuse to overwrite")
	}

	settings, err := s.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if settings.BatchSpanDays != constants.DefaultBatchSpanDays {
		t.Errorf("span = %d, want default %d", settings.BatchSpanDays, constants.DefaultBatchSpanDays)
	}
	if settings.ChargePerMiss != constants.DefaultChargePerMiss {
		t.Errorf("charge = %v, want default %v", settings.ChargePerMiss, constants.DefaultChargePerMiss)
	}

	// A fresh store against the same file sees persisted data.
	s2 := NewJSONStore(path)
	if err := s2.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := s2.GetSettings(); err != nil {
		t.Errorf("GetSettings after reload: %v", err)
	}
}

func TestBatchRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetBatch(); !errors.Is(err, ErrNoBatch) {
		t.Fatalf("GetBatch on empty store = %v, want ErrNoBatch", err)
	}

	batch := models.Batch{
		Name:        "spring",
		CreatedDate: "2026-02-20",
		StartDate:   "2026-03-01",
		EndDate:     "2026-05-05",
		Status:      constants.BatchPrePhase,
	}
	if err := s.SaveBatch(batch); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}

	got, err := s.GetBatch()
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if got != batch {
		t.Errorf("got %+v, want %+v", got, batch)
	}

	if err := s.ClearBatch(); err != nil {
		t.Fatalf("ClearBatch: %v", err)
	}
	if _, err := s.GetBatch(); !errors.Is(err, ErrNoBatch) {
		t.Errorf("GetBatch after clear = %v, want ErrNoBatch", err)
	}
	// Clearing again is a no-op.
	if err := s.ClearBatch(); err != nil {
		t.Errorf("second ClearBatch: %v", err)
	}
}

func TestHabitCRUD(t *testing.T) {
	s := newTestStore(t)

	h := models.Habit{
		ID:          "h1",
		Participant: "anna",
		Name:        "run",
		Frequency:   3,
		MinimalDose: "15 min",
		Batch:       "spring",
	}
	if err := s.AddHabit(h); err != nil {
		t.Fatalf("AddHabit: %v", err)
	}

	got, err := s.GetHabit("h1")
	if err != nil {
		t.Fatalf("GetHabit: %v", err)
	}
	if got.Name != "run" {
		t.Errorf("got %+v", got)
	}

	if _, err := s.GetHabitByName("run"); err != nil {
		t.Errorf("GetHabitByName: %v", err)
	}
	if _, err := s.GetHabitByName("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetHabitByName(missing) = %v, want ErrNotFound", err)
	}

	h.Frequency = 5
	if err := s.UpdateHabit(h); err != nil {
		t.Fatalf("UpdateHabit: %v", err)
	}
	got, _ = s.GetHabit("h1")
	if got.Frequency != 5 {
		t.Errorf("frequency after update = %d, want 5", got.Frequency)
	}

	if err := s.UpdateHabit(models.Habit{ID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateHabit(unknown) = %v, want ErrNotFound", err)
	}

	if err := s.DeleteHabit("h1"); err != nil {
		t.Fatalf("DeleteHabit: %v", err)
	}
	if _, err := s.GetHabit("h1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetHabit after delete = %v, want ErrNotFound", err)
	}
}

func TestHabitsByParticipant(t *testing.T) {
	s := newTestStore(t)

	for _, h := range []models.Habit{
		{ID: "h1", Participant: "anna", Name: "run"},
		{ID: "h2", Participant: "ben", Name: "read"},
		{ID: "h3", Participant: "anna", Name: "meditate"},
	} {
		if err := s.AddHabit(h); err != nil {
			t.Fatalf("AddHabit: %v", err)
		}
	}

	habits, err := s.GetHabitsByParticipant("anna")
	if err != nil {
		t.Fatalf("GetHabitsByParticipant: %v", err)
	}
	if len(habits) != 2 {
		t.Fatalf("got %d habits, want 2", len(habits))
	}
	// GetAllHabits sorts by name, the participant filter keeps that order.
	if habits[0].Name != "meditate" || habits[1].Name != "run" {
		t.Errorf("order = %s, %s", habits[0].Name, habits[1].Name)
	}
}

func TestProofBatchSurvivesHabitEdit(t *testing.T) {
	s := newTestStore(t)

	h := models.Habit{ID: "h1", Name: "run", Frequency: 3, Batch: "a"}
	if err := s.AddHabit(h); err != nil {
		t.Fatalf("AddHabit: %v", err)
	}
	p := models.Proof{ID: "p1", HabitID: "h1", Date: "2026-03-01", Unit: "15 min", Batch: h.Batch}
	if err := s.AddProof(p); err != nil {
		t.Fatalf("AddProof: %v", err)
	}

	// An administrative correction of the habit's batch must leave already
	// recorded proofs with their original provenance.
	h.Batch = "b"
	if err := s.UpdateHabit(h); err != nil {
		t.Fatalf("UpdateHabit: %v", err)
	}

	proofs, err := s.GetProofs("h1", "", "")
	if err != nil {
		t.Fatalf("GetProofs: %v", err)
	}
	if len(proofs) != 1 || proofs[0].Batch != "a" {
		t.Errorf("proof batch = %q, want %q untouched by the habit edit", proofs[0].Batch, "a")
	}
}

func TestProofWindow(t *testing.T) {
	s := newTestStore(t)

	if err := s.AddHabit(models.Habit{ID: "h1", Name: "run"}); err != nil {
		t.Fatalf("AddHabit: %v", err)
	}
	for i, date := range []string{"2026-03-01", "2026-03-03", "2026-03-08", "2026-03-10"} {
		p := models.Proof{ID: string(rune('a' + i)), HabitID: "h1", Date: date, Unit: "15 min", Batch: "spring"}
		if err := s.AddProof(p); err != nil {
			t.Fatalf("AddProof: %v", err)
		}
	}
	// A proof for another habit never leaks into the window.
	if err := s.AddProof(models.Proof{ID: "x", HabitID: "h2", Date: "2026-03-03", Unit: "5 km"}); err != nil {
		t.Fatalf("AddProof: %v", err)
	}

	proofs, err := s.GetProofs("h1", "2026-03-01", "2026-03-07")
	if err != nil {
		t.Fatalf("GetProofs: %v", err)
	}
	if len(proofs) != 2 {
		t.Fatalf("windowed proofs = %d, want 2", len(proofs))
	}
	if proofs[0].Date != "2026-03-01" || proofs[1].Date != "2026-03-03" {
		t.Errorf("dates = %s, %s, want ascending window", proofs[0].Date, proofs[1].Date)
	}

	all, err := s.GetProofs("h1", "", "")
	if err != nil {
		t.Fatalf("GetProofs: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("all proofs = %d, want 4", len(all))
	}
}
