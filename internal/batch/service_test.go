package batch

import (
	"errors"
	"testing"
	"time"

	"github.com/pfeilbach/cohort/internal/constants"
	"github.com/pfeilbach/cohort/internal/models"
	"github.com/pfeilbach/cohort/internal/storage"
)

type fakeStore struct {
	batch *models.Batch
	err   error
}

func (f *fakeStore) GetBatch() (models.Batch, error) {
	if f.err != nil {
		return models.Batch{}, f.err
	}
	if f.batch == nil {
		return models.Batch{}, storage.ErrNoBatch
	}
	return *f.batch, nil
}

func (f *fakeStore) SaveBatch(b models.Batch) error {
	if f.err != nil {
		return f.err
	}
	f.batch = &b
	return nil
}

func (f *fakeStore) ClearBatch() error {
	f.batch = nil
	return nil
}

func fixedClock(dateStr string) func() time.Time {
	t, err := time.Parse("2006-01-02 15:04", dateStr)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func newTestService(store *fakeStore, today string) *Service {
	return NewService(store, constants.DefaultBatchSpanDays, time.UTC).WithClock(fixedClock(today + " 12:00"))
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name       string
		today      string
		start      string
		wantStatus constants.BatchStatus
	}{
		{"future start is pre-phase", "2026-03-01", "2026-03-10", constants.BatchPrePhase},
		{"start today is active", "2026-03-01", "2026-03-01", constants.BatchActive},
		{"past start is active", "2026-03-10", "2026-03-01", constants.BatchActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&fakeStore{}, tt.today)
			b, err := svc.Create("Spring26", tt.start)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if b.Name != "spring26" {
				t.Errorf("name = %q, want lowercase %q", b.Name, "spring26")
			}
			if b.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", b.Status, tt.wantStatus)
			}
		})
	}
}

func TestCreateGuards(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, "2026-03-01")

	if _, err := svc.Create("  ", "2026-03-10"); err == nil {
		t.Error("expected error for blank name")
	}
	if _, err := svc.Create("spring", "March 10"); err == nil {
		t.Error("expected error for bad date format")
	}

	if _, err := svc.Create("spring", "2026-03-10"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create("summer", "2026-06-01"); err == nil {
		t.Error("expected error while a non-completed batch exists")
	}

	// A completed batch no longer blocks creation.
	store.batch.Status = constants.BatchCompleted
	if _, err := svc.Create("summer", "2026-06-01"); err != nil {
		t.Errorf("Create after completion: %v", err)
	}
}

func TestCreateEndDate(t *testing.T) {
	svc := newTestService(&fakeStore{}, "2026-03-01")
	b, err := svc.Create("spring", "2026-03-01")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// 66 days inclusive of the start date.
	if b.EndDate != "2026-05-05" {
		t.Errorf("end date = %s, want 2026-05-05", b.EndDate)
	}
}

func TestCurrentDay(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		today   string
		status  constants.BatchStatus
		wantDay int
		wantOK  bool
	}{
		{"first day", "2026-03-01", "2026-03-01", constants.BatchActive, 1, true},
		{"second day", "2026-03-01", "2026-03-02", constants.BatchActive, 2, true},
		{"last day", "2026-03-01", "2026-05-05", constants.BatchActive, 66, true},
		{"clamped past end", "2026-03-01", "2026-09-17", constants.BatchActive, 66, true},
		{"before start", "2026-03-10", "2026-03-01", constants.BatchPrePhase, 0, false},
		{"pre-phase past start date", "2026-03-10", "2026-03-12", constants.BatchPrePhase, 0, false},
		{"completed keeps its day", "2026-03-01", "2026-03-05", constants.BatchCompleted, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{batch: &models.Batch{
				Name:      "spring",
				StartDate: tt.start,
				EndDate:   "2026-05-05",
				Status:    tt.status,
			}}
			svc := newTestService(store, tt.today)

			day, ok, err := svc.CurrentDay()
			if err != nil {
				t.Fatalf("CurrentDay: %v", err)
			}
			if ok != tt.wantOK || day != tt.wantDay {
				t.Errorf("CurrentDay = (%d, %v), want (%d, %v)", day, ok, tt.wantDay, tt.wantOK)
			}
		})
	}
}

func TestCurrentDayNoBatch(t *testing.T) {
	svc := newTestService(&fakeStore{}, "2026-03-01")
	day, ok, err := svc.CurrentDay()
	if err != nil {
		t.Fatalf("CurrentDay: %v", err)
	}
	if ok || day != 0 {
		t.Errorf("CurrentDay with no batch = (%d, %v), want (0, false)", day, ok)
	}
}

func TestCurrentStoreFailureIsNotNoBatch(t *testing.T) {
	svc := newTestService(&fakeStore{err: errors.New("disk gone")}, "2026-03-01")
	b, err := svc.Current()
	if err == nil {
		t.Fatal("expected store failure to surface")
	}
	if b != nil {
		t.Error("expected nil batch on failure")
	}
}

func TestCurrentWeek(t *testing.T) {
	tests := []struct {
		today    string
		wantWeek int
	}{
		{"2026-03-01", 1},
		{"2026-03-07", 1},
		{"2026-03-08", 2},
		{"2026-03-15", 3},
	}

	for _, tt := range tests {
		store := &fakeStore{batch: &models.Batch{
			Name:      "spring",
			StartDate: "2026-03-01",
			EndDate:   "2026-05-05",
			Status:    constants.BatchActive,
		}}
		svc := newTestService(store, tt.today)

		week, ok, err := svc.CurrentWeek()
		if err != nil || !ok {
			t.Fatalf("CurrentWeek(%s): ok=%v err=%v", tt.today, ok, err)
		}
		if week != tt.wantWeek {
			t.Errorf("CurrentWeek at %s = %d, want %d", tt.today, week, tt.wantWeek)
		}
	}
}

func TestActivateIfDue(t *testing.T) {
	store := &fakeStore{batch: &models.Batch{
		Name:      "spring",
		StartDate: "2026-03-10",
		EndDate:   "2026-05-14",
		Status:    constants.BatchPrePhase,
	}}

	// Day before the start: nothing happens.
	svc := newTestService(store, "2026-03-09")
	activated, err := svc.ActivateIfDue()
	if err != nil {
		t.Fatalf("ActivateIfDue: %v", err)
	}
	if activated {
		t.Error("batch activated before its start date")
	}

	// Start date arrives.
	svc = newTestService(store, "2026-03-10")
	activated, err = svc.ActivateIfDue()
	if err != nil {
		t.Fatalf("ActivateIfDue: %v", err)
	}
	if !activated {
		t.Fatal("batch not activated on its start date")
	}
	if store.batch.Status != constants.BatchActive {
		t.Errorf("status = %q, want active", store.batch.Status)
	}
	if store.batch.StartDate != "2026-03-10" || store.batch.EndDate != "2026-05-14" {
		t.Error("activation must not touch the stored dates")
	}

	// Second tick is a no-op.
	activated, err = svc.ActivateIfDue()
	if err != nil {
		t.Fatalf("ActivateIfDue: %v", err)
	}
	if activated {
		t.Error("second activation should be a no-op")
	}
}

func TestComplete(t *testing.T) {
	store := &fakeStore{batch: &models.Batch{
		Name:      "spring",
		StartDate: "2026-03-01",
		EndDate:   "2026-05-05",
		Status:    constants.BatchActive,
	}}
	svc := newTestService(store, "2026-04-01")

	b, err := svc.Complete()
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !b.IsCompleted() {
		t.Error("batch not completed")
	}

	// Completing again is idempotent.
	if _, err := svc.Complete(); err != nil {
		t.Errorf("second Complete: %v", err)
	}

	store.batch = nil
	if _, err := svc.Complete(); err == nil {
		t.Error("expected error when no batch exists")
	}
}

func TestFilter(t *testing.T) {
	habits := []models.Habit{
		{Name: "run", Batch: "a"},
		{Name: "read", Batch: "b"},
		{Name: "old", Batch: ""},
	}

	got := Filter(habits, &models.Batch{Name: "a"})
	if len(got) != 1 || got[0].Name != "run" {
		t.Errorf("Filter kept %v, want only 'run'", got)
	}

	// Case-sensitive exact match.
	got = Filter(habits, &models.Batch{Name: "A"})
	if len(got) != 0 {
		t.Errorf("Filter matched %v against differently-cased batch", got)
	}

	// No batch: everything passes.
	got = Filter(habits, nil)
	if len(got) != 3 {
		t.Errorf("Filter with nil batch kept %d items, want all 3", len(got))
	}
}

func TestBindCreationBatch(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, "2026-03-01")

	label, err := svc.BindCreationBatch()
	if err != nil {
		t.Fatalf("BindCreationBatch: %v", err)
	}
	if label != "" {
		t.Errorf("label = %q, want empty with no batch", label)
	}

	if _, err := svc.Create("spring", "2026-03-01"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	label, err = svc.BindCreationBatch()
	if err != nil {
		t.Fatalf("BindCreationBatch: %v", err)
	}
	if label != "spring" {
		t.Errorf("label = %q, want %q", label, "spring")
	}
}

func TestStatusPredicates(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, "2026-03-01")

	active, err := svc.IsActive()
	if err != nil || active {
		t.Errorf("IsActive with no batch = (%v, %v), want (false, nil)", active, err)
	}

	if _, err := svc.Create("spring", "2026-03-10"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	pre, err := svc.IsPrePhase()
	if err != nil || !pre {
		t.Errorf("IsPrePhase before start = (%v, %v), want (true, nil)", pre, err)
	}

	store.batch.Status = constants.BatchActive
	active, err = svc.IsActive()
	if err != nil || !active {
		t.Errorf("IsActive = (%v, %v), want (true, nil)", active, err)
	}
}

func TestPastEnd(t *testing.T) {
	store := &fakeStore{batch: &models.Batch{
		Name:      "spring",
		StartDate: "2026-03-01",
		EndDate:   "2026-05-05",
		Status:    constants.BatchActive,
	}}

	svc := newTestService(store, "2026-04-01")
	past, err := svc.PastEnd()
	if err != nil || past {
		t.Errorf("PastEnd mid-batch = (%v, %v), want (false, nil)", past, err)
	}

	svc = newTestService(store, "2026-05-05")
	past, err = svc.PastEnd()
	if err != nil || !past {
		t.Errorf("PastEnd on the final day = (%v, %v), want (true, nil)", past, err)
	}
	// Reaching the final day never flips the status by itself.
	if store.batch.Status != constants.BatchActive {
		t.Errorf("status = %q, completion must stay an explicit action", store.batch.Status)
	}
}

func TestWeekBounds(t *testing.T) {
	store := &fakeStore{batch: &models.Batch{
		Name:      "spring",
		StartDate: "2026-03-01",
		EndDate:   "2026-05-05",
		Status:    constants.BatchActive,
	}}
	svc := newTestService(store, "2026-03-20")

	from, to, err := svc.WeekBounds(1)
	if err != nil {
		t.Fatalf("WeekBounds: %v", err)
	}
	if from != "2026-03-01" || to != "2026-03-07" {
		t.Errorf("week 1 = %s..%s, want 2026-03-01..2026-03-07", from, to)
	}

	from, to, err = svc.WeekBounds(10)
	if err != nil {
		t.Fatalf("WeekBounds: %v", err)
	}
	// Week 10 runs past the batch end and gets cut off.
	if from != "2026-05-03" || to != "2026-05-05" {
		t.Errorf("week 10 = %s..%s, want 2026-05-03..2026-05-05", from, to)
	}
}

func TestDaysUntilStart(t *testing.T) {
	store := &fakeStore{batch: &models.Batch{
		Name:      "spring",
		StartDate: "2026-03-10",
		EndDate:   "2026-05-14",
		Status:    constants.BatchPrePhase,
	}}

	svc := newTestService(store, "2026-03-01")
	days, ok, err := svc.DaysUntilStart()
	if err != nil || !ok {
		t.Fatalf("DaysUntilStart: ok=%v err=%v", ok, err)
	}
	if days != 9 {
		t.Errorf("days = %d, want 9", days)
	}

	svc = newTestService(store, "2026-03-15")
	days, ok, err = svc.DaysUntilStart()
	if err != nil || !ok {
		t.Fatalf("DaysUntilStart: ok=%v err=%v", ok, err)
	}
	if days != 0 {
		t.Errorf("days after start = %d, want 0", days)
	}
}
