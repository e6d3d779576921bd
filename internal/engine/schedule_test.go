package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScheduleConstantWithoutAnnealing(t *testing.T) {
	s := Schedule{Initial: 2, Steps: 10}
	temperature := s.Initial
	for step := 0; step < s.Steps; step++ {
		temperature = s.Next(temperature, step)
		assert.Equal(t, 2.0, temperature)
	}
}

func TestScheduleLinearDecrease(t *testing.T) {
	s := Schedule{Initial: 1, Steps: 10, Annealing: true}
	temperature := s.Initial
	for step := 0; step < s.Steps; step++ {
		temperature = s.Next(temperature, step)
		assert.InDelta(t, float64(s.Steps-step)/float64(s.Steps), temperature, 1e-12, "step %d", step)
	}
}

func TestScheduleHoldsAtFloor(t *testing.T) {
	s := Schedule{Initial: 1, Steps: 10, Annealing: true}
	assert.Equal(t, TemperatureFloor, s.Next(TemperatureFloor, 9))
	assert.Equal(t, 0.0015, s.Next(0.0015, 3))
}
