package ai

import "fmt"

// EnhancementPolicy decides which extraction results are worth an AI pass.
// Records at or above the threshold are considered good enough as-is.
type EnhancementPolicy struct {
	Threshold float64
}

// NewEnhancementPolicy validates and builds a policy. A zero threshold
// disables enhancement entirely.
func NewEnhancementPolicy(threshold float64) (*EnhancementPolicy, error) {
	if threshold < 0.0 || threshold > 1.0 {
		return nil, fmt.Errorf("enhancement threshold must be between 0.0 and 1.0, got %.2f", threshold)
	}
	return &EnhancementPolicy{Threshold: threshold}, nil
}

// ShouldEnhance reports whether a record with this confidence should be sent
// through the enhancer.
func (p *EnhancementPolicy) ShouldEnhance(confidence float64) bool {
	if p == nil || p.Threshold <= 0 {
		return false
	}
	return confidence < p.Threshold
}
