package opt

// Schedule picks the learning rate of the next epoch from the current rate
// and the loss the last epoch ended with.
type Schedule interface {
	Next(rate, loss float32) float32
}

// DecayOnIncrease multiplies the rate by Factor every time the loss is higher
// than after the previous epoch.
type DecayOnIncrease struct {
	Factor float32

	previous float32
	seen     bool
}

// NewDecayOnIncrease creates the schedule; 0.99 is the customary factor.
func NewDecayOnIncrease(factor float32) *DecayOnIncrease {
	return &DecayOnIncrease{Factor: factor}
}

func (s *DecayOnIncrease) Next(rate, loss float32) float32 {
	if s.seen && loss > s.previous {
		rate *= s.Factor
	}
	s.previous = loss
	s.seen = true
	return rate
}

// StepDecay multiplies the rate by Gamma every Size epochs.
type StepDecay struct {
	Size  int
	Gamma float32

	epoch int
}

func NewStepDecay(size int, gamma float32) *StepDecay {
	return &StepDecay{Size: size, Gamma: gamma}
}

func (s *StepDecay) Next(rate, _ float32) float32 {
	s.epoch++
	if s.Size > 0 && s.epoch%s.Size == 0 {
		rate *= s.Gamma
	}
	return rate
}

// Exponential multiplies the rate by Gamma every epoch.
type Exponential struct {
	Gamma float32
}

func (s Exponential) Next(rate, _ float32) float32 {
	return rate * s.Gamma
}

// Plateau reduces the rate by Factor when the loss has not improved by more
// than Threshold for Patience epochs, never going below MinRate.
type Plateau struct {
	Factor    float32
	Patience  int
	Threshold float32
	Cooldown  int
	MinRate   float32

	best     float32
	seen     bool
	bad      int
	cooldown int
}

func NewPlateau(factor float32, patience int, threshold, minRate float32) *Plateau {
	return &Plateau{
		Factor:    factor,
		Patience:  patience,
		Threshold: threshold,
		MinRate:   minRate,
	}
}

func (s *Plateau) Next(rate, loss float32) float32 {
	if s.cooldown > 0 {
		s.cooldown--
		return rate
	}

	if !s.seen || loss < s.best-s.Threshold {
		s.seen = true
		s.best = loss
		s.bad = 0
	} else {
		s.bad++
	}

	if s.bad >= s.Patience {
		rate *= s.Factor
		if rate < s.MinRate {
			rate = s.MinRate
		}
		s.bad = 0
		s.cooldown = s.Cooldown
	}
	return rate
}
