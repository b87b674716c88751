package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged rolling.
// All rolls are logged at debug level with the range and the value drawn.
// Roller itself satisfies Source, so it can be handed to the battle resolver.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Intn draws from the wrapped source and logs the result at debug level.
//
// Precondition: n > 0.
// Postcondition: result logged; returns a value in [0, n).
func (r *Roller) Intn(n int) int {
	v := r.src.Intn(n)
	if ce := r.logger.Check(zap.DebugLevel, "dice roll"); ce != nil {
		ce.Write(zap.Int("range", n), zap.Int("value", v))
	}
	return v
}
