package receipt

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	unknownStore = "Unknown Store"

	maxItems    = 20
	maxItemName = 50

	// Items priced at 0 or over $500 are more likely OCR misreads than
	// grocery line items.
	maxItemCents = 50000

	minItemLineLen = 5
)

var (
	priceRe = regexp.MustCompile(`\$?\d+\.\d{2}`)
	dateRe  = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
	totalRe = regexp.MustCompile(`(?i)total[:\s]*\$?(\d+\.\d{2})`)
	taxRe   = regexp.MustCompile(`(?i)tax[:\s]*\$?(\d+\.\d{2})`)
)

// Parsed is the structured result of a best-effort parse of raw OCR text.
type Parsed struct {
	Store         string
	Date          time.Time
	Items         []Item
	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64
}

// ParseText heuristically extracts a structured receipt from noisy OCR text.
// It never fails: unreadable input degrades to "Unknown Store", the scan
// date, no items, and zero totals.
func ParseText(text string, now time.Time) *Parsed {
	lines := splitLines(text)
	items := extractItems(lines)
	total, tax := extractTotals(text, items)

	return &Parsed{
		Store:         extractStore(lines),
		Date:          extractDate(text, now),
		Items:         items,
		SubtotalCents: total - tax,
		TaxCents:      tax,
		TotalCents:    total,
	}
}

// Compare diffs an actual total against a prior estimate. Savings are only
// reported when actual spend came in under the estimate; an overage shows up
// as a positive difference.
func Compare(totalCents, estimatedCents int64) (difference, savings int64) {
	difference = totalCents - estimatedCents
	if difference < 0 {
		savings = -difference
	}
	return difference, savings
}

func splitLines(text string) []string {
	lines := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// extractStore picks the store name from the receipt header: the first of
// the first three non-empty lines with a plausible name length.
func extractStore(lines []string) string {
	for i, line := range lines {
		if i >= 3 {
			break
		}
		if len(line) > 3 && len(line) < 30 {
			return line
		}
	}
	return unknownStore
}

// extractDate finds the first D/M/Y-looking token anywhere in the text,
// falling back to the scan time. Ambiguous day/month order is read as
// month first.
func extractDate(text string, now time.Time) time.Time {
	match := dateRe.FindString(text)
	if match == "" {
		return now
	}
	normalized := strings.ReplaceAll(match, "-", "/")
	for _, format := range []string{"1/2/2006", "1/2/06"} {
		if d, err := time.Parse(format, normalized); err == nil {
			return d
		}
	}
	return now
}

// extractItems classifies each line as a line item or noise. A qualifying
// line has a price token, enough length to carry a name, and no totals
// keyword; those lines are reserved for extractTotals so the grand total
// never shows up as a phantom item.
func extractItems(lines []string) []Item {
	items := make([]Item, 0)
	for _, line := range lines {
		if len(items) >= maxItems {
			break
		}
		if len(line) <= minItemLineLen {
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(lower, "total") || strings.Contains(lower, "tax") {
			continue
		}
		tokens := priceRe.FindAllString(line, -1)
		if len(tokens) == 0 {
			continue
		}
		// Last token wins: on a "2 @ 1.99  3.98" quantity line the final
		// number is the extended price.
		price := parsePriceCents(tokens[len(tokens)-1])
		if price <= 0 || price >= maxItemCents {
			continue
		}
		name := strings.TrimSpace(priceRe.ReplaceAllString(line, ""))
		if len(name) > maxItemName {
			name = name[:maxItemName]
		}
		items = append(items, Item{Name: name, PriceCents: price})
	}
	return items
}

// extractTotals reads the keyword-anchored total and tax amounts. A missing
// total falls back to the item sum when there are items to sum.
func extractTotals(text string, items []Item) (total, tax int64) {
	if m := taxRe.FindStringSubmatch(text); m != nil {
		tax = parsePriceCents(m[1])
	}
	if m := totalRe.FindStringSubmatch(text); m != nil {
		total = parsePriceCents(m[1])
	} else if len(items) > 0 {
		for _, item := range items {
			total += item.PriceCents
		}
	}
	return total, tax
}

// parsePriceCents converts a price token like "$3.49" to cents. Tokens are
// pre-validated by priceRe, so they always carry exactly two decimals.
func parsePriceCents(token string) int64 {
	token = strings.TrimPrefix(token, "$")
	idx := strings.IndexByte(token, '.')
	dollars, _ := strconv.ParseInt(token[:idx], 10, 64)
	cents, _ := strconv.ParseInt(token[idx+1:], 10, 64)
	return dollars*100 + cents
}

// ParseDollars converts a user-supplied dollar amount like "50" or "49.95"
// to cents.
func ParseDollars(s string) (int64, error) {
	v, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(s), "$"), 64)
	if err != nil {
		return 0, err
	}
	cents := int64(v*100 + 0.5)
	if v < 0 {
		cents = int64(v*100 - 0.5)
	}
	return cents, nil
}
