package utils

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestIndividualReceiptNumber(t *testing.T) {
	at := time.UnixMilli(1704067200123)
	got := IndividualReceiptNumber("4f9c2a1e-7b3d-4c55-9e0a-112233445566", at)
	assert.Equal(t, "DNTN-4f9c2a1e-1704067200123", got)
}

func TestBatchReceiptNumber(t *testing.T) {
	got := BatchReceiptNumber("4f9c2a1e-7b3d-4c55-9e0a-112233445566", "1704067200123")
	assert.Equal(t, "DNTN-4f9c2a1e-BATCH-17040672", got)

	short := BatchReceiptNumber("abc", "q1")
	assert.Equal(t, "DNTN-abc-BATCH-q1", short)
}

func TestDistinctOrdersGetDistinctNumbers(t *testing.T) {
	batch := "jan-2024"
	a := BatchReceiptNumber(NewUUID().String(), batch)
	b := BatchReceiptNumber(NewUUID().String(), batch)
	assert.NotEqual(t, a, b)
}

func TestDefaultBatchID(t *testing.T) {
	assert.Equal(t, "1704067200000", DefaultBatchID(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestFragmentCutsOnCharacters(t *testing.T) {
	got := Fragment("aééééééééé", 4)
	assert.Equal(t, "aééé", got)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "abc", Fragment("abc", 8))
}

func TestValidBatchID(t *testing.T) {
	for _, id := range []string{"1704067200123", "week-07", "jan_2024"} {
		assert.True(t, ValidBatchID(id), id)
	}
	for _, id := range []string{"", "/../../x", `..\x`, "a b", "aéééé", "x.pdf"} {
		assert.False(t, ValidBatchID(id), id)
	}
}
