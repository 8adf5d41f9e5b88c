package receipt

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmallon/wellness-tracker/internal/scanning"
)

// IDGenerator generates unique IDs for receipts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// ActivityLog records a receipt scan as qualifying streak activity. Logging
// is best-effort; a failure never blocks the scan result.
type ActivityLog interface {
	LogScan(userID string, date time.Time, note string) error
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles receipt scanning and reads
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     Storage
	activities  ActivityLog
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source.
// activities may be nil when scan activity should not feed streaks.
func NewService(db DB, scanner scanning.Scanner, storage Storage, activities ActivityLog) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		activities:  activities,
		idGenerator: uuidGenerator{},
		timeSource:  defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, activities ActivityLog, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		activities:  activities,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	filenameCleanRe = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	spaceRunRe      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up phone-generated filenames: strips special
// characters, collapses whitespace, and bounds the length.
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	base = filenameCleanRe.ReplaceAllString(base, "")
	base = spaceRunRe.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)
	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}
	return base + ext
}

// ProcessReceipt stores the uploaded image, runs OCR, parses the text into a
// structured receipt, and persists it. The parse itself never fails; an OCR
// engine failure is returned to the caller and the stored image is cleaned
// up. A persistence failure after a successful parse is logged but does not
// block the result.
func (s *Service) ProcessReceipt(userID, filename string, data []byte, contentType string, estimatedCents *int64) (*Receipt, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	text, err := s.scanner.ExtractText(data, contentType)
	if err != nil {
		slog.Error("Failed to extract receipt text",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("extracting receipt text: %w", err)
	}

	parsed := ParseText(text, now)

	receipt := &Receipt{
		ID:            id,
		UserID:        userID,
		Store:         parsed.Store,
		Date:          parsed.Date,
		Items:         parsed.Items,
		SubtotalCents: parsed.SubtotalCents,
		TaxCents:      parsed.TaxCents,
		TotalCents:    parsed.TotalCents,
		Filename:      savedPath,
		ContentType:   contentType,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if estimatedCents != nil {
		difference, savings := Compare(parsed.TotalCents, *estimatedCents)
		receipt.EstimatedCents = estimatedCents
		receipt.DifferenceCents = &difference
		receipt.SavingsCents = &savings
	}

	if err := s.db.SaveReceipt(receipt); err != nil {
		slog.Warn("Failed to persist receipt", "id", id, "user", userID, "error", err)
	}

	if s.activities != nil {
		if err := s.activities.LogScan(userID, now, receipt.Store); err != nil {
			slog.Warn("Failed to log scan activity", "user", userID, "error", err)
		}
	}

	return receipt, nil
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all receipts owned by a user
func (s *Service) ListReceipts(userID string) ([]*Receipt, error) {
	receipts, err := s.db.ListReceipts(userID)
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return receipts, nil
}

// DeleteReceipt removes a receipt and its stored image
func (s *Service) DeleteReceipt(id string) error {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	if err := s.storage.Delete(receipt.Filename); err != nil {
		slog.Warn("Failed to delete file", "filename", receipt.Filename, "error", err)
	}

	if err := s.db.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}
	return nil
}

// GetReceiptFile retrieves the stored image for a receipt
func (s *Service) GetReceiptFile(id string) ([]byte, string, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}

	data, err := s.storage.Get(receipt.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}

	return data, receipt.ContentType, nil
}
