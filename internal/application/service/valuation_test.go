package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int { return &n }

func TestCalculateAmount(t *testing.T) {
	rate := decimal.NewFromInt(50)

	tests := []struct {
		name   string
		serves *int
		want   string
	}{
		{"nil serves is zero", nil, "0"},
		{"zero serves", intPtr(0), "0"},
		{"negative serves", intPtr(-3), "0"},
		{"twenty serves", intPtr(20), "1000"},
		{"one serve", intPtr(1), "50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateAmount(tt.serves, rate)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestCalculateAmountFractionalRate(t *testing.T) {
	got := CalculateAmount(intPtr(3), decimal.RequireFromString("12.335"))
	assert.Equal(t, "37.01", got.StringFixed(2))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "INR 1000.00", FormatAmount("INR", decimal.NewFromInt(1000)))
	assert.Equal(t, "INR 0.00", FormatAmount("INR", decimal.Zero))
}
