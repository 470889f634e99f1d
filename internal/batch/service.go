package batch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pfeilbach/cohort/internal/constants"
	"github.com/pfeilbach/cohort/internal/models"
	"github.com/pfeilbach/cohort/internal/storage"
	"github.com/pfeilbach/cohort/internal/utils"
)

// Store is the slice of the storage provider the batch service needs.
type Store interface {
	GetBatch() (models.Batch, error)
	SaveBatch(batch models.Batch) error
	ClearBatch() error
}

// Service manages the single batch record and everything derived from it:
// lifecycle transitions, day arithmetic, and batch membership of habits and
// proofs.
type Service struct {
	store Store
	span  int
	loc   *time.Location
	now   func() time.Time
}

func NewService(store Store, span int, loc *time.Location) *Service {
	return &Service{
		store: store,
		span:  span,
		loc:   loc,
		now:   time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() time.Time {
	return utils.Midnight(s.now().In(s.loc))
}

// Current returns the stored batch, or nil when none exists. Store failures
// are reported, never collapsed into the no-batch case.
func (s *Service) Current() (*models.Batch, error) {
	b, err := s.store.GetBatch()
	if errors.Is(err, storage.ErrNoBatch) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create registers a new batch. The name is normalized to lowercase and the
// initial status depends on whether the start date is still in the future.
// Creation is refused while a non-completed batch exists.
func (s *Service) Create(name, startDate string) (models.Batch, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return models.Batch{}, fmt.Errorf("batch name must not be empty")
	}

	start, err := utils.ParseDateInLocation(startDate, s.loc)
	if err != nil {
		return models.Batch{}, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}

	existing, err := s.Current()
	if err != nil {
		return models.Batch{}, err
	}
	if existing != nil && !existing.IsCompleted() {
		return models.Batch{}, fmt.Errorf("batch %q is still %s, complete it before starting a new one", existing.Name, existing.Status)
	}

	today := s.today()
	status := constants.BatchPrePhase
	if !start.After(today) {
		status = constants.BatchActive
	}

	end := start.AddDate(0, 0, s.span-1)
	batch := models.Batch{
		Name:        name,
		CreatedDate: today.Format(constants.DateFormat),
		StartDate:   start.Format(constants.DateFormat),
		EndDate:     end.Format(constants.DateFormat),
		Status:      status,
	}

	if err := s.store.SaveBatch(batch); err != nil {
		return models.Batch{}, err
	}
	return batch, nil
}

// Save replaces the stored batch record wholesale. Administrative
// corrections go through here; there is no field-level merge.
func (s *Service) Save(batch models.Batch) error {
	return s.store.SaveBatch(batch)
}

// Clear removes the batch record entirely. Habits and proofs keep the batch
// name they were stamped with.
func (s *Service) Clear() error {
	return s.store.ClearBatch()
}

// IsActive reports whether a batch exists and is in its active phase.
func (s *Service) IsActive() (bool, error) {
	b, err := s.Current()
	if err != nil {
		return false, err
	}
	return b != nil && b.IsActive(), nil
}

// IsPrePhase reports whether a batch exists and has not started yet.
func (s *Service) IsPrePhase() (bool, error) {
	b, err := s.Current()
	if err != nil {
		return false, err
	}
	return b != nil && b.IsPrePhase(), nil
}

// CurrentDay returns the 1-based day number within the batch, clamped to
// [1, span]. The second return is false when there is no batch, it is still
// in pre-phase, or its start date has not arrived. A pre-phase batch has no
// day number even once its start date passes; the activation trigger flips
// the status first.
func (s *Service) CurrentDay() (int, bool, error) {
	b, err := s.Current()
	if err != nil {
		return 0, false, err
	}
	if b == nil || b.IsPrePhase() {
		return 0, false, nil
	}

	start, err := utils.ParseDateInLocation(b.StartDate, s.loc)
	if err != nil {
		return 0, false, fmt.Errorf("stored batch has invalid start date %q: %w", b.StartDate, err)
	}

	today := s.today()
	if today.Before(start) {
		return 0, false, nil
	}

	day := utils.DaysBetween(start, today) + 1
	return utils.Clamp(day, 1, s.span), true, nil
}

// CurrentWeek returns the 1-based week number derived from the current day.
func (s *Service) CurrentWeek() (int, bool, error) {
	day, ok, err := s.CurrentDay()
	if !ok || err != nil {
		return 0, ok, err
	}
	return (day-1)/7 + 1, true, nil
}

// DaysUntilStart reports how many days remain before the batch starts.
// Returns 0 when the batch already started, false when there is no batch.
func (s *Service) DaysUntilStart() (int, bool, error) {
	b, err := s.Current()
	if err != nil {
		return 0, false, err
	}
	if b == nil {
		return 0, false, nil
	}

	start, err := utils.ParseDateInLocation(b.StartDate, s.loc)
	if err != nil {
		return 0, false, fmt.Errorf("stored batch has invalid start date %q: %w", b.StartDate, err)
	}

	today := s.today()
	if !today.Before(start) {
		return 0, true, nil
	}
	return utils.DaysBetween(today, start), true, nil
}

// ShouldStart reports whether a pre-phase batch has reached its start date.
func (s *Service) ShouldStart() (bool, error) {
	b, err := s.Current()
	if err != nil {
		return false, err
	}
	if b == nil || !b.IsPrePhase() {
		return false, nil
	}

	start, err := utils.ParseDateInLocation(b.StartDate, s.loc)
	if err != nil {
		return false, fmt.Errorf("stored batch has invalid start date %q: %w", b.StartDate, err)
	}
	return !s.today().Before(start), nil
}

// ActivateIfDue flips a pre-phase batch to active once its start date has
// arrived. Idempotent: already active or completed batches are left alone,
// and the stored dates are never touched.
func (s *Service) ActivateIfDue() (bool, error) {
	due, err := s.ShouldStart()
	if err != nil || !due {
		return false, err
	}

	b, err := s.Current()
	if err != nil {
		return false, err
	}
	b.Status = constants.BatchActive
	if err := s.store.SaveBatch(*b); err != nil {
		return false, err
	}
	return true, nil
}

// Complete marks the batch completed. This is an explicit operation; reaching
// the last day on its own never completes a batch.
func (s *Service) Complete() (models.Batch, error) {
	b, err := s.Current()
	if err != nil {
		return models.Batch{}, err
	}
	if b == nil {
		return models.Batch{}, fmt.Errorf("no batch to complete")
	}
	if b.IsCompleted() {
		return *b, nil
	}

	b.Status = constants.BatchCompleted
	if err := s.store.SaveBatch(*b); err != nil {
		return models.Batch{}, err
	}
	return *b, nil
}

// PastEnd reports whether the batch day counter has reached the final day of
// the span.
func (s *Service) PastEnd() (bool, error) {
	day, ok, err := s.CurrentDay()
	if err != nil || !ok {
		return false, err
	}
	return day >= s.span, nil
}

// WeekBounds returns the inclusive date range of the given 1-based week of
// the batch. The last week is cut off at the batch end date.
func (s *Service) WeekBounds(week int) (string, string, error) {
	b, err := s.Current()
	if err != nil {
		return "", "", err
	}
	if b == nil {
		return "", "", fmt.Errorf("no batch registered")
	}

	start, err := utils.ParseDateInLocation(b.StartDate, s.loc)
	if err != nil {
		return "", "", fmt.Errorf("stored batch has invalid start date %q: %w", b.StartDate, err)
	}

	from := start.AddDate(0, 0, (week-1)*7)
	to := from.AddDate(0, 0, 6)
	end, err := utils.ParseDateInLocation(b.EndDate, s.loc)
	if err == nil && to.After(end) {
		to = end
	}
	return from.Format(constants.DateFormat), to.Format(constants.DateFormat), nil
}

// BindCreationBatch returns the batch name new habits are stamped with at
// creation time. Empty when no batch exists. The caller stores the value
// once and never recomputes it.
func (s *Service) BindCreationBatch() (string, error) {
	b, err := s.Current()
	if err != nil {
		return "", err
	}
	if b == nil {
		return "", nil
	}
	return b.Name, nil
}

// Filter keeps the items belonging to the current batch. When no batch
// exists every item passes through, so a fresh install still sees its data.
// Matching is exact and case-sensitive; items with no batch label are
// excluded while a batch is set.
func Filter[T models.Batched](items []T, current *models.Batch) []T {
	if current == nil {
		return items
	}

	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if item.BatchLabel() == current.Name {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
