package search

import (
	"fmt"
	"math"

	"github.com/poiesic/retrievit/core"
)

// Mode selects which ranking signals a retrieval uses.
type Mode int

const (
	// ModeHybrid fuses dense and sparse rankings.
	ModeHybrid Mode = iota + 1
	// ModeSemantic uses the dense index only.
	ModeSemantic
	// ModeKeyword uses the sparse index only.
	ModeKeyword
)

// String returns the mode name as used in configuration files and the CLI.
func (m Mode) String() string {
	switch m {
	case ModeHybrid:
		return "hybrid"
	case ModeSemantic:
		return "semantic"
	case ModeKeyword:
		return "keyword"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "hybrid":
		return ModeHybrid, nil
	case "semantic":
		return ModeSemantic, nil
	case "keyword":
		return ModeKeyword, nil
	default:
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidMode, s)
	}
}

// weightTolerance is how far hybrid weights may deviate from summing to 1.0.
const weightTolerance = 1e-6

// Config is the retriever configuration. Exactly one configuration is active
// at a time; the Retriever swaps it atomically so a change applies to all
// subsequent calls while calls already in flight keep the configuration they
// captured at start.
type Config struct {
	// Mode selects hybrid, semantic, or keyword retrieval.
	Mode Mode

	// DenseWeight and SparseWeight are the fusion weights. They must sum to
	// 1.0 when Mode is ModeHybrid and are ignored otherwise.
	DenseWeight  float64
	SparseWeight float64

	// OverfetchFactor is how many times the requested result count each
	// sub-index fetches in hybrid mode, so fusion has enough candidates to
	// re-rank. Minimum 1.
	OverfetchFactor int
}

// DefaultConfig returns the default retriever configuration: hybrid mode
// weighted 60% dense / 40% sparse.
func DefaultConfig() Config {
	return Config{
		Mode:            ModeHybrid,
		DenseWeight:     0.6,
		SparseWeight:    0.4,
		OverfetchFactor: 2,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeHybrid, ModeSemantic, ModeKeyword:
	default:
		return fmt.Errorf("%w: %d", core.ErrInvalidMode, int(c.Mode))
	}

	if c.Mode == ModeHybrid {
		if c.DenseWeight < 0 || c.SparseWeight < 0 {
			return fmt.Errorf("%w: weights must be non-negative", core.ErrInvalidWeights)
		}
		if math.Abs(c.DenseWeight+c.SparseWeight-1.0) > weightTolerance {
			return fmt.Errorf("%w: dense %v + sparse %v must sum to 1.0",
				core.ErrInvalidWeights, c.DenseWeight, c.SparseWeight)
		}
	}

	if c.OverfetchFactor < 1 {
		return fmt.Errorf("%w: overfetch factor must be at least 1", core.ErrInvalidTopK)
	}

	return nil
}
