package ephemeris

import (
	"context"
	"time"

	"github.com/gnomonworks/sundial-forge/model"
)

// Fixed returns the same sun position for every query. It backs
// what-if validation (grade an instrument against a hand-picked sun)
// and keeps tests independent of the calendar.
type Fixed struct {
	Position model.SunPosition
}

// NewFixed pins the sun at the given position.
func NewFixed(pos model.SunPosition) *Fixed {
	return &Fixed{Position: pos}
}

// SunAt implements Source.
func (f *Fixed) SunAt(ctx context.Context, _ model.Location, _ time.Time) (model.SunPosition, error) {
	if err := ctx.Err(); err != nil {
		return model.SunPosition{}, err
	}
	return f.Position, nil
}
