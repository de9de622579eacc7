package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger so every combat draw is auditable.
// All draws are logged at debug level with their purpose and result.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs each draw to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Intn draws from the wrapped Source and logs the result.
//
// Precondition: n > 0.
func (r *Roller) Intn(n int) int {
	v := r.src.Intn(n)
	r.logger.Debug("dice draw", zap.Int("n", n), zap.Int("result", v))
	return v
}

// Float64 draws a unit float from the wrapped Source and logs the result.
func (r *Roller) Float64() float64 {
	v := r.src.Float64()
	r.logger.Debug("dice draw", zap.Float64("unit", v))
	return v
}

// Between draws a float in [lo, hi] for the given purpose, logging both the
// purpose and the value.
//
// Postcondition: lo <= result <= hi when lo <= hi; lo otherwise.
func (r *Roller) Between(purpose string, lo, hi float64) float64 {
	v := Range(r.src.Float64(), lo, hi)
	r.logger.Debug("dice range",
		zap.String("purpose", purpose),
		zap.Float64("lo", lo),
		zap.Float64("hi", hi),
		zap.Float64("result", v),
	)
	return v
}

// Chance reports whether a draw falls under p.
//
// Postcondition: Always false when p <= 0; always true when p >= 1.
func (r *Roller) Chance(purpose string, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	u := r.src.Float64()
	hit := u < p
	r.logger.Debug("dice chance",
		zap.String("purpose", purpose),
		zap.Float64("p", p),
		zap.Float64("draw", u),
		zap.Bool("hit", hit),
	)
	return hit
}
