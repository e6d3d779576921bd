package engine

// TemperatureFloor is the temperature below which annealing stops cooling.
const TemperatureFloor = 0.002

// Schedule yields the temperature of every step of a run.
type Schedule struct {
	Initial   float64
	Steps     int
	Annealing bool
}

// Next returns the temperature for step given the previous one. Without
// annealing it is constant. With annealing it falls linearly from Initial
// towards zero over Steps, and stops changing once the previous value has
// reached the floor.
func (s Schedule) Next(previous float64, step int) float64 {
	if !s.Annealing || previous <= TemperatureFloor || s.Steps <= 0 {
		return previous
	}
	slope := -s.Initial / float64(s.Steps)
	return slope * float64(step-s.Steps)
}
