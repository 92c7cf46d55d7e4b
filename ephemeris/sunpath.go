package ephemeris

import (
	"context"
	"time"

	"github.com/gnomonworks/sundial-forge/model"
)

// DefaultPathSamples traces a day at 15-minute resolution.
const DefaultPathSamples = 96

// DaySunPath samples the solar track across one UTC day. Sunrise and
// sunset are interpolated from the horizon crossings between adjacent
// samples; a day with no crossing (polar day or night) leaves them nil.
// Solar noon is the highest sample of a visible sun.
func DaySunPath(ctx context.Context, src Source, loc model.Location, date time.Time, samples int) (model.SunPath, error) {
	if samples < 2 {
		samples = DefaultPathSamples
	}

	date = date.UTC()
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	step := 24 * time.Hour / time.Duration(samples)

	path := model.SunPath{Points: make([]model.SunPathPoint, 0, samples)}

	var (
		prev    model.SunPosition
		prevAt  time.Time
		visible int
		noonAlt = -90.0
		noonAt  time.Time
	)
	for i := 0; i < samples; i++ {
		if err := ctx.Err(); err != nil {
			return model.SunPath{}, err
		}
		at := start.Add(time.Duration(i) * step)

		pos, err := src.SunAt(ctx, loc, at)
		if err != nil {
			return model.SunPath{}, err
		}
		path.Points = append(path.Points, model.SunPathPoint{
			Time:     at,
			Altitude: pos.Altitude,
			Azimuth:  pos.Azimuth,
			Visible:  pos.Visible(),
		})

		if pos.Visible() {
			visible++
			if pos.Altitude > noonAlt {
				noonAlt = pos.Altitude
				noonAt = at
			}
		}

		if i > 0 {
			if !prev.Visible() && pos.Visible() && path.Sunrise == nil {
				rise := crossing(prevAt, prev.Altitude, at, pos.Altitude)
				path.Sunrise = &rise
			}
			if prev.Visible() && !pos.Visible() {
				set := crossing(prevAt, prev.Altitude, at, pos.Altitude)
				path.Sunset = &set
			}
		}
		prev, prevAt = pos, at
	}

	if visible > 0 {
		noon := noonAt
		path.SolarNoon = &noon
		path.DayLength = float64(visible) / float64(samples) * 24
	}
	return path, nil
}

// crossing interpolates the instant the altitude passes zero between
// two bracketing samples, rounded to the second.
func crossing(t1 time.Time, alt1 float64, t2 time.Time, alt2 float64) time.Time {
	if alt1 == alt2 {
		return t1
	}
	frac := -alt1 / (alt2 - alt1)
	return t1.Add(time.Duration(frac * float64(t2.Sub(t1)))).Round(time.Second)
}
