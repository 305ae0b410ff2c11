package utils

import (
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	receiptPrefix = "DNTN"
	fragmentLen   = 8
)

// NewUUID generates a new UUID
func NewUUID() uuid.UUID {
	return uuid.New()
}

// ParseUUID parses a string into a UUID
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

var batchIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Fragment returns at most the first n characters of s
func Fragment(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// ValidBatchID reports whether id only holds letters, digits, '-' and '_'.
// Batch ids end up in receipt numbers and archive entry names.
func ValidBatchID(id string) bool {
	return batchIDPattern.MatchString(id)
}

// IndividualReceiptNumber builds DNTN-<order id prefix>-<unix ms>
func IndividualReceiptNumber(orderID string, at time.Time) string {
	return receiptPrefix + "-" + Fragment(orderID, fragmentLen) + "-" + strconv.FormatInt(at.UnixMilli(), 10)
}

// BatchReceiptNumber builds DNTN-<order id prefix>-BATCH-<batch id prefix>
func BatchReceiptNumber(orderID, batchID string) string {
	return receiptPrefix + "-" + Fragment(orderID, fragmentLen) + "-BATCH-" + Fragment(batchID, fragmentLen)
}

// DefaultBatchID derives a batch identifier from the wall clock
func DefaultBatchID(at time.Time) string {
	return strconv.FormatInt(at.UnixMilli(), 10)
}
