package ephemeris

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gnomonworks/sundial-forge/model"
)

func TestDaySunPath_JaipurEquinox(t *testing.T) {
	day := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)

	path, err := DaySunPath(context.Background(), NewSolar(), jaipur, day, 0)
	if err != nil {
		t.Fatalf("DaySunPath error: %v", err)
	}

	if len(path.Points) != DefaultPathSamples {
		t.Fatalf("points = %d, want %d", len(path.Points), DefaultPathSamples)
	}
	if !path.Points[0].Time.Equal(day) {
		t.Errorf("first sample at %v, want UTC midnight", path.Points[0].Time)
	}
	if step := path.Points[1].Time.Sub(path.Points[0].Time); step != 15*time.Minute {
		t.Errorf("sample step = %v, want 15m", step)
	}
	for _, p := range path.Points {
		if p.Visible != (p.Altitude > 0) {
			t.Fatalf("visibility flag inconsistent at %v: alt %v visible %v", p.Time, p.Altitude, p.Visible)
		}
	}

	if path.Sunrise == nil || path.Sunset == nil || path.SolarNoon == nil {
		t.Fatalf("missing day summary: %+v", path)
	}
	if !path.Sunrise.Before(*path.SolarNoon) || !path.SolarNoon.Before(*path.Sunset) {
		t.Errorf("summary out of order: rise %v, noon %v, set %v", path.Sunrise, path.SolarNoon, path.Sunset)
	}
	// Jaipur sits at UTC+5:03 solar: rise just after midnight UTC, set
	// around 13:00 UTC, a hair over twelve daylight hours.
	if h := path.Sunrise.Hour(); h > 1 {
		t.Errorf("sunrise = %v, want within first two UTC hours", path.Sunrise)
	}
	if h := path.Sunset.Hour(); h < 12 || h > 13 {
		t.Errorf("sunset = %v, want about 13:00 UTC", path.Sunset)
	}
	if h := path.SolarNoon.Hour(); h < 6 || h > 7 {
		t.Errorf("solar noon = %v, want about 06:50 UTC", path.SolarNoon)
	}
	if path.DayLength < 11.5 || path.DayLength > 12.8 {
		t.Errorf("day length = %v hours, want about 12", path.DayLength)
	}
}

func TestDaySunPath_PolarNight(t *testing.T) {
	svalbard := model.Location{Latitude: 78.22, Longitude: 15.63, Elevation: 10}
	day := time.Date(2024, time.December, 21, 0, 0, 0, 0, time.UTC)

	path, err := DaySunPath(context.Background(), NewSolar(), svalbard, day, 48)
	if err != nil {
		t.Fatalf("DaySunPath error: %v", err)
	}

	if path.Sunrise != nil || path.Sunset != nil || path.SolarNoon != nil {
		t.Errorf("polar night produced a day summary: %+v", path)
	}
	if path.DayLength != 0 {
		t.Errorf("day length = %v, want 0", path.DayLength)
	}
	for _, p := range path.Points {
		if p.Visible {
			t.Fatalf("sun visible at %v during polar night (alt %v)", p.Time, p.Altitude)
		}
	}
}

func TestDaySunPath_PolarDay(t *testing.T) {
	svalbard := model.Location{Latitude: 78.22, Longitude: 15.63, Elevation: 10}
	day := time.Date(2024, time.June, 21, 0, 0, 0, 0, time.UTC)

	path, err := DaySunPath(context.Background(), NewSolar(), svalbard, day, 48)
	if err != nil {
		t.Fatalf("DaySunPath error: %v", err)
	}

	if path.Sunrise != nil || path.Sunset != nil {
		t.Errorf("midnight sun produced horizon crossings: rise %v, set %v", path.Sunrise, path.Sunset)
	}
	if path.SolarNoon == nil {
		t.Fatalf("midnight sun lost its culmination")
	}
	if path.DayLength != 24 {
		t.Errorf("day length = %v, want 24", path.DayLength)
	}
}

func TestDaySunPath_SampleOverride(t *testing.T) {
	src := &countingSource{}
	path, err := DaySunPath(context.Background(), src, jaipur, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), 24)
	if err != nil {
		t.Fatalf("DaySunPath error: %v", err)
	}
	if len(path.Points) != 24 || src.calls != 24 {
		t.Errorf("points = %d, source calls = %d, want 24 each", len(path.Points), src.calls)
	}
}

func TestDaySunPath_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := DaySunPath(ctx, NewSolar(), jaipur, time.Now(), 8); !errors.Is(err, context.Canceled) {
		t.Fatalf("DaySunPath err = %v, want context.Canceled", err)
	}
}

func TestCrossingInterpolation(t *testing.T) {
	t1 := time.Date(2024, time.March, 20, 6, 0, 0, 0, time.UTC)
	t2 := t1.Add(15 * time.Minute)

	// Altitude rises from -1 to +2: the zero sits a third of the way in.
	got := crossing(t1, -1, t2, 2)
	want := t1.Add(5 * time.Minute)
	if !got.Equal(want) {
		t.Errorf("crossing = %v, want %v", got, want)
	}

	if got := crossing(t1, 0, t2, 0); !got.Equal(t1) {
		t.Errorf("degenerate crossing = %v, want the left sample", got)
	}
}
