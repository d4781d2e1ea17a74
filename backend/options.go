package backend

import (
	"errors"
)

// SolverOption defines option for altering the behavior of a solve call. See
// the descriptions of functions returning instances of this type for
// implemented options.
type SolverOption func(*SolverConfig) error

// SolverConfig is the configuration for a solve call with the options applied.
type SolverConfig struct {
	Backend       ID // UNKNOWN selects a backend from the program form
	MaxIterations int
	Tolerance     float64
	MaxCuts       int
}

// NewSolverConfig returns a default SolverConfig with given options applied.
func NewSolverConfig(opts ...SolverOption) (SolverConfig, error) {
	cfg := SolverConfig{
		MaxIterations: 1000,
		Tolerance:     1e-8,
		MaxCuts:       64,
	}
	for _, option := range opts {
		if err := option(&cfg); err != nil {
			return SolverConfig{}, err
		}
	}
	return cfg, nil
}

// WithBackend forces a specific solver backend instead of the automatic
// selection based on the program form.
func WithBackend(id ID) SolverOption {
	return func(cfg *SolverConfig) error {
		cfg.Backend = id
		return nil
	}
}

// WithMaxIterations bounds the iteration count of iterative backends.
func WithMaxIterations(n int) SolverOption {
	return func(cfg *SolverConfig) error {
		if n <= 0 {
			return errors.New("max iterations must be positive")
		}
		cfg.MaxIterations = n
		return nil
	}
}

// WithTolerance sets the feasibility and convergence tolerance.
func WithTolerance(eps float64) SolverOption {
	return func(cfg *SolverConfig) error {
		if eps <= 0 {
			return errors.New("tolerance must be positive")
		}
		cfg.Tolerance = eps
		return nil
	}
}

// WithMaxCuts bounds the number of outer-approximation rounds used for
// second-order cone constraints.
func WithMaxCuts(n int) SolverOption {
	return func(cfg *SolverConfig) error {
		if n <= 0 {
			return errors.New("max cuts must be positive")
		}
		cfg.MaxCuts = n
		return nil
	}
}
