package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPricing_RatesFor(t *testing.T) {
	tests := []struct {
		model string
		want  float64
	}{
		{model: "claude-opus-4-20250514", want: 15.0},
		{model: "claude-haiku-3-5", want: 0.80},
		{model: "claude-sonnet-4-20250514", want: 3.0},
		{model: "", want: 3.0},
		{model: "my-claude-opus", want: 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultPricing.RatesFor(tt.model).Input)
		})
	}
}

func TestRates_Cost(t *testing.T) {
	r := DefaultPricing.Default

	assert.InDelta(t, 3.0, r.Cost(1_000_000, 0, 0, 0), 1e-9)
	assert.InDelta(t, 15.0, r.Cost(0, 1_000_000, 0, 0), 1e-9)
	assert.InDelta(t, 0.003+0.015+0.00375+0.0003, r.Cost(1000, 1000, 1000, 1000), 1e-9)
	assert.Zero(t, r.Cost(0, 0, 0, 0))
}
