package srs

// Params defines all configurable parameters for the scheduling algorithm
type Params struct {
	// Core limits for the ease factor
	MinEaseFactor float64
	MaxEaseFactor float64

	// Fixed intervals (in days) for the first two consecutive correct answers
	FirstCorrectInterval  int
	SecondCorrectInterval int

	// Interval a card falls back to after a failed review
	LapseInterval int

	// Ease factor penalties for failed reviews
	HardPenalty   float64
	ForgotPenalty float64

	// Status derivation thresholds: a card is "learning" until it has this
	// many consecutive correct answers, and "review" until its interval
	// reaches the mastery threshold
	LearningRepetitions int
	MasteryIntervalDays int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor: 1.3,
		MaxEaseFactor: 2.5,

		FirstCorrectInterval:  1,
		SecondCorrectInterval: 6,
		LapseInterval:         1,

		HardPenalty:   0.15,
		ForgotPenalty: 0.20,

		LearningRepetitions: 3,
		MasteryIntervalDays: 21,
	}
}

// ParamsConfig allows overriding the default parameters when creating a new
// Params instance. Zero-valued fields keep the defaults.
type ParamsConfig struct {
	MinEaseFactor float64
	MaxEaseFactor float64

	FirstCorrectInterval  int
	SecondCorrectInterval int
	LapseInterval         int

	HardPenalty   float64
	ForgotPenalty float64

	LearningRepetitions int
	MasteryIntervalDays int
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.MaxEaseFactor > 0 {
		params.MaxEaseFactor = config.MaxEaseFactor
	}
	if config.FirstCorrectInterval > 0 {
		params.FirstCorrectInterval = config.FirstCorrectInterval
	}
	if config.SecondCorrectInterval > 0 {
		params.SecondCorrectInterval = config.SecondCorrectInterval
	}
	if config.LapseInterval > 0 {
		params.LapseInterval = config.LapseInterval
	}
	if config.HardPenalty > 0 {
		params.HardPenalty = config.HardPenalty
	}
	if config.ForgotPenalty > 0 {
		params.ForgotPenalty = config.ForgotPenalty
	}
	if config.LearningRepetitions > 0 {
		params.LearningRepetitions = config.LearningRepetitions
	}
	if config.MasteryIntervalDays > 0 {
		params.MasteryIntervalDays = config.MasteryIntervalDays
	}

	return params
}
