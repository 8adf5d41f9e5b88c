package activity

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmallon/wellness-tracker/internal/streak"
)

// IDGenerator generates unique IDs for records
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// StreakSummary reports streaks across all activity and per kind.
type StreakSummary struct {
	Overall streak.Result          `json:"overall"`
	ByKind  map[Kind]streak.Result `json:"by_kind"`
}

// Service handles activity logging and streak reads
type Service struct {
	db          DB
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB) *Service {
	return &Service{
		db:          db,
		idGenerator: uuidGenerator{},
		timeSource:  defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Log records an activity for a user. A zero date means today. Logging the
// same kind twice on one day is idempotent.
func (s *Service) Log(userID string, kind Kind, date time.Time, note string) (*Record, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown activity kind: %q", kind)
	}

	now := s.timeSource.Now()
	if date.IsZero() {
		date = now
	}

	record := &Record{
		ID:        s.idGenerator.Generate(),
		UserID:    userID,
		Kind:      kind,
		Date:      streak.Day(date),
		Note:      note,
		CreatedAt: now,
	}

	if err := s.db.SaveRecord(record); err != nil {
		return nil, fmt.Errorf("saving activity record: %w", err)
	}
	return record, nil
}

// LogScan records a receipt scan as a qualifying activity.
func (s *Service) LogScan(userID string, date time.Time, note string) error {
	_, err := s.Log(userID, KindScan, date, note)
	return err
}

// List returns a user's activity records, optionally filtered by kind
func (s *Service) List(userID string, kind Kind) ([]*Record, error) {
	records, err := s.db.ListRecords(userID)
	if err != nil {
		return nil, fmt.Errorf("listing activity records: %w", err)
	}
	if kind == "" {
		return records, nil
	}
	filtered := make([]*Record, 0, len(records))
	for _, r := range records {
		if r.Kind == kind {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// Streaks recomputes a user's streaks from their full activity history.
// Nothing incremental is cached; every call walks the stored dates.
func (s *Service) Streaks(userID string) (*StreakSummary, error) {
	records, err := s.db.ListRecords(userID)
	if err != nil {
		return nil, fmt.Errorf("listing activity records: %w", err)
	}

	now := s.timeSource.Now()
	all := make([]time.Time, 0, len(records))
	byKind := make(map[Kind][]time.Time)
	for _, r := range records {
		all = append(all, r.Date)
		byKind[r.Kind] = append(byKind[r.Kind], r.Date)
	}

	summary := &StreakSummary{
		Overall: streak.Compute(all, now),
		ByKind:  make(map[Kind]streak.Result, len(byKind)),
	}
	for kind, dates := range byKind {
		summary.ByKind[kind] = streak.Compute(dates, now)
	}
	return summary, nil
}
