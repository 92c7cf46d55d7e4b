package ephemeris

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/gnomonworks/sundial-forge/model"
)

var (
	jaipur    = model.Location{Latitude: 26.9124, Longitude: 75.7873, Elevation: 431}
	greenwich = model.Location{Latitude: 51.4769, Longitude: 0, Elevation: 46}
)

func TestSolarSunAt_EquinoxNoonGreenwich(t *testing.T) {
	// 2024-03-20 12:00 UT, nine hours after the equinox instant: the
	// sun crosses the Greenwich meridian at 12:07 UT (equation of time
	// about -7.5 min), declination just past zero.
	at := time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)

	pos, err := NewSolar().SunAt(context.Background(), greenwich, at)
	if err != nil {
		t.Fatalf("SunAt error: %v", err)
	}

	if math.Abs(pos.Declination-0.15) > 0.2 {
		t.Errorf("declination = %v, want about 0.15", pos.Declination)
	}
	if math.Abs(pos.Altitude-38.6) > 0.3 {
		t.Errorf("altitude = %v, want about 38.6", pos.Altitude)
	}
	if math.Abs(pos.HourAngle+1.8) > 1.0 {
		t.Errorf("hour angle = %v, want about -1.8 (noon still ahead)", pos.HourAngle)
	}
	if math.Abs(pos.Azimuth-178) > 3 {
		t.Errorf("azimuth = %v, want just east of south", pos.Azimuth)
	}
}

func TestSolarSunAt_SolsticeDeclination(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want float64
	}{
		{
			name: "june solstice",
			at:   time.Date(2024, time.June, 20, 20, 51, 0, 0, time.UTC),
			want: 23.43,
		},
		{
			name: "december solstice",
			at:   time.Date(2024, time.December, 21, 9, 20, 0, 0, time.UTC),
			want: -23.43,
		},
		{
			name: "march equinox",
			at:   time.Date(2024, time.March, 20, 3, 6, 0, 0, time.UTC),
			want: 0,
		},
	}
	s := NewSolar()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := s.SunAt(context.Background(), jaipur, tc.at)
			if err != nil {
				t.Fatalf("SunAt error: %v", err)
			}
			if math.Abs(pos.Declination-tc.want) > 0.1 {
				t.Errorf("declination = %v, want %v +-0.1", pos.Declination, tc.want)
			}
		})
	}
}

func TestSolarSunAt_MorningGeometry(t *testing.T) {
	// 03:00 UT at Jaipur is about 07:56 local solar: sun low in the
	// southeast, well before the meridian.
	at := time.Date(2024, time.March, 20, 3, 0, 0, 0, time.UTC)

	pos, err := NewSolar().SunAt(context.Background(), jaipur, at)
	if err != nil {
		t.Fatalf("SunAt error: %v", err)
	}

	if pos.HourAngle >= 0 {
		t.Errorf("hour angle = %v, want negative before local noon", pos.HourAngle)
	}
	if pos.Azimuth <= 90 || pos.Azimuth >= 180 {
		t.Errorf("azimuth = %v, want southeast (90..180)", pos.Azimuth)
	}
	if pos.Altitude < 20 || pos.Altitude > 35 {
		t.Errorf("altitude = %v, want 20..35 for a low morning sun", pos.Altitude)
	}
	if !pos.Visible() {
		t.Errorf("morning sun reported below the horizon")
	}
}

func TestSolarSunAt_NightBelowHorizon(t *testing.T) {
	at := time.Date(2024, time.March, 20, 18, 0, 0, 0, time.UTC) // ~23:00 local solar

	pos, err := NewSolar().SunAt(context.Background(), jaipur, at)
	if err != nil {
		t.Fatalf("SunAt error: %v", err)
	}
	if pos.Altitude > -30 {
		t.Errorf("altitude = %v, want deep below the horizon near local midnight", pos.Altitude)
	}
	if pos.Visible() {
		t.Errorf("night sun reported visible")
	}
}

func TestSolarSunAt_NoonCulminationIdentity(t *testing.T) {
	// Scan a day at minute resolution for the meridian crossing; there
	// the altitude must equal 90 - |lat - dec| by plain spherical
	// geometry, independent of the sidereal bookkeeping.
	s := NewSolar()
	ctx := context.Background()
	day := time.Date(2024, time.June, 21, 0, 0, 0, 0, time.UTC)

	best := model.SunPosition{HourAngle: 180}
	for m := 0; m < 24*60; m++ {
		pos, err := s.SunAt(ctx, jaipur, day.Add(time.Duration(m)*time.Minute))
		if err != nil {
			t.Fatalf("SunAt error: %v", err)
		}
		if math.Abs(pos.HourAngle) < math.Abs(best.HourAngle) {
			best = pos
		}
	}

	if math.Abs(best.HourAngle) > 0.25 {
		t.Fatalf("no meridian crossing found, best hour angle %v", best.HourAngle)
	}
	wantAlt := 90 - math.Abs(jaipur.Latitude-best.Declination)
	if math.Abs(best.Altitude-wantAlt) > 0.05 {
		t.Errorf("culmination altitude = %v, want %v", best.Altitude, wantAlt)
	}
	// Near the zenith the azimuth swings about 15 deg per degree of
	// hour angle, so the minute-resolution scan leaves a couple of
	// degrees of slack.
	if math.Abs(best.Azimuth-180) > 4 {
		t.Errorf("culmination azimuth = %v, want about 180 (dec south of latitude)", best.Azimuth)
	}
}

func TestSolarSunAt_RejectsBadInput(t *testing.T) {
	s := NewSolar()

	_, err := s.SunAt(context.Background(), model.Location{Latitude: 91}, time.Now())
	if !errors.Is(err, model.ErrInvalidParameter) {
		t.Errorf("latitude 91 err = %v, want ErrInvalidParameter", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.SunAt(ctx, jaipur, time.Now()); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled ctx err = %v, want context.Canceled", err)
	}
}

func TestAngleHelpers(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 725, want: 5},
		{in: -90, want: 270},
		{in: 360, want: 0},
		{in: 359.5, want: 359.5},
	}
	for _, tc := range tests {
		if got := wrap360(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("wrap360(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}

	if got := wrapPi(3 * math.Pi); math.Abs(got+math.Pi) > 1e-9 {
		t.Errorf("wrapPi(3pi) = %v, want -pi", got)
	}
	if got := wrapPi(math.Pi / 4); math.Abs(got-math.Pi/4) > 1e-12 {
		t.Errorf("wrapPi(pi/4) = %v, want pi/4", got)
	}

	if clamp1(1.0000001) != 1 || clamp1(-1.0000001) != -1 || clamp1(0.5) != 0.5 {
		t.Errorf("clamp1 out of contract")
	}
}
