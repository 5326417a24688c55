// Package opt provides unit tests for learning rate schedules.
package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDecayOnIncrease tests that only a rising loss shrinks the rate.
func TestDecayOnIncrease(t *testing.T) {
	s := NewDecayOnIncrease(0.5)
	rate := float32(1)

	rate = s.Next(rate, 10) // first epoch never decays
	assert.Equal(t, float32(1), rate)
	rate = s.Next(rate, 8)
	assert.Equal(t, float32(1), rate)
	rate = s.Next(rate, 9)
	assert.Equal(t, float32(0.5), rate)
	rate = s.Next(rate, 9)
	assert.Equal(t, float32(0.5), rate)
	rate = s.Next(rate, 12)
	assert.Equal(t, float32(0.25), rate)
}

// TestStepDecay tests decay every Size epochs.
func TestStepDecay(t *testing.T) {
	s := NewStepDecay(2, 0.1)
	rate := float32(1)
	var got []float32
	for i := 0; i < 4; i++ {
		rate = s.Next(rate, 0)
		got = append(got, rate)
	}
	assert.InDeltaSlice(t, []float32{1, 0.1, 0.1, 0.01}, got, 1e-7)
}

// TestExponential tests a constant per-epoch factor.
func TestExponential(t *testing.T) {
	s := Exponential{Gamma: 0.9}
	assert.InDelta(t, 0.81, s.Next(s.Next(1, 0), 0), 1e-6)
}

// TestPlateau tests reduction after Patience epochs without improvement.
func TestPlateau(t *testing.T) {
	s := NewPlateau(0.5, 2, 0.01, 0.2)
	rate := float32(1)

	rate = s.Next(rate, 1.0)
	rate = s.Next(rate, 0.9)
	assert.Equal(t, float32(1), rate)

	rate = s.Next(rate, 0.895) // within threshold
	assert.Equal(t, float32(1), rate)
	rate = s.Next(rate, 0.91)
	assert.Equal(t, float32(0.5), rate)

	rate = s.Next(rate, 0.95)
	rate = s.Next(rate, 0.95)
	assert.Equal(t, float32(0.25), rate)

	rate = s.Next(rate, 0.95)
	rate = s.Next(rate, 0.95)
	assert.Equal(t, float32(0.2), rate, "never below MinRate")
}
