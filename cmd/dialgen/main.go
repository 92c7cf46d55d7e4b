package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/gnomonworks/sundial-forge/core"
	"github.com/gnomonworks/sundial-forge/ephemeris"
	"github.com/gnomonworks/sundial-forge/internal/export"
	"github.com/gnomonworks/sundial-forge/internal/logging"
	"github.com/gnomonworks/sundial-forge/model"
	"github.com/gnomonworks/sundial-forge/sites"
	"github.com/gnomonworks/sundial-forge/timectrl"
)

func main() {
	log := logging.NewFromEnv()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "generate":
		err = runGenerate(os.Args[2:], os.Stdout, log)
	case "validate":
		err = runValidate(os.Args[2:], os.Stdout, log)
	case "sunpath":
		err = runSunPath(os.Args[2:], os.Stdout)
	case "trace":
		err = runTrace(os.Args[2:], os.Stdout, log)
	case "help", "-h", "-help", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "dialgen: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "dialgen: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `dialgen generates and grades historical astronomical instruments.

Usage:
  dialgen <command> [flags]

Commands:
  generate  derive an instrument design and print or export it
  validate  sweep a day of sun positions and grade the readings
  sunpath   print the solar track for a site and date
  trace     replay a day through the instrument at accelerated speed

Use "dialgen <command> -h" for the command's flags.
`)
}

// siteFlags is the location selection shared by every command: either a
// catalog site by name or explicit coordinates.
type siteFlags struct {
	site string
	lat  float64
	lon  float64
	elev float64
}

func addSiteFlags(fs *flag.FlagSet) *siteFlags {
	f := &siteFlags{}
	fs.StringVar(&f.site, "site", "", "catalog site name (overrides -lat/-lon/-elev)")
	fs.Float64Var(&f.lat, "lat", 26.9124, "latitude in degrees, north positive")
	fs.Float64Var(&f.lon, "lon", 75.7873, "longitude in degrees, east positive")
	fs.Float64Var(&f.elev, "elev", 431, "elevation in metres")
	return f
}

func (f *siteFlags) location() (model.Location, error) {
	if f.site != "" {
		site, err := sites.Builtin().Get(f.site)
		if err != nil {
			return model.Location{}, err
		}
		return site.Location, nil
	}
	loc := model.Location{Latitude: f.lat, Longitude: f.lon, Elevation: f.elev}.Normalize()
	return loc, loc.Validate()
}

func parseKind(s string) (model.InstrumentKind, error) {
	kind := model.InstrumentKind(strings.ToLower(strings.TrimSpace(s)))
	if !kind.Valid() {
		return "", fmt.Errorf("unknown instrument %q (use %s or %s)",
			s, model.InstrumentEquatorialDial, model.InstrumentAltAzimuth)
	}
	return kind, nil
}

// parseDateFlag resolves a YYYY-MM-DD flag, defaulting to today UTC.
func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD", s)
	}
	return t, nil
}

func runGenerate(args []string, out io.Writer, log logging.Logger) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	instrument := fs.String("instrument", string(model.InstrumentEquatorialDial), "equatorial_dial or altazimuth")
	loc := addSiteFlags(fs)
	scale := fs.Float64("scale", 1.0, "scale factor relative to the reference build")
	thickness := fs.Float64("thickness", 0.05, "material thickness in metres")
	kerf := fs.Float64("kerf", 0, "cut allowance in metres")
	includeBase := fs.Bool("base", true, "include the base plate")
	materialName := fs.String("material", core.DefaultMaterial.Name, "stock material: "+strings.Join(core.MaterialNames(), ", "))
	format := fs.String("format", "", "export instead of summarising: dxf, stl or svg")
	outPath := fs.String("o", "", "write the export to this file instead of stdout")
	asJSON := fs.Bool("json", false, "print the summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	kind, err := parseKind(*instrument)
	if err != nil {
		return err
	}
	location, err := loc.location()
	if err != nil {
		return err
	}
	material, err := core.MaterialByName(*materialName)
	if err != nil {
		return err
	}
	params := model.BuildParameters{
		Scale:             *scale,
		MaterialThickness: *thickness,
		Kerf:              *kerf,
		IncludeBase:       *includeBase,
	}

	gen, err := core.NewGenerator(kind, location, params, material)
	if err != nil {
		return err
	}
	if err := gen.Generate(); err != nil {
		return err
	}

	if *format != "" {
		drawing, err := export.FromGenerator(gen)
		if err != nil {
			return err
		}
		data, err := export.Encode(*format, drawing)
		if err != nil {
			return err
		}
		if *outPath != "" {
			if err := os.WriteFile(*outPath, data, 0o644); err != nil {
				return err
			}
			log.Info(context.Background(), "wrote export",
				logging.String("path", *outPath),
				logging.String("format", *format),
				logging.Int("bytes", len(data)),
			)
			return nil
		}
		_, err = out.Write(data)
		return err
	}

	dims, err := gen.Dimensions()
	if err != nil {
		return err
	}
	bom, err := gen.BillOfMaterials()
	if err != nil {
		return err
	}

	if *asJSON {
		return writeJSON(out, struct {
			Instrument      model.InstrumentKind  `json:"instrument"`
			Location        model.Location        `json:"location"`
			Parameters      model.BuildParameters `json:"parameters"`
			Material        string                `json:"material"`
			Dimensions      map[string]any        `json:"dimensions"`
			BillOfMaterials []model.BOMItem       `json:"bill_of_materials"`
		}{kind, location, params, material.Name, dims, bom})
	}

	fmt.Fprintf(out, "%s at (%.4f, %.4f), elevation %.0f m, scale %gx, %s\n",
		kind, location.Latitude, location.Longitude, location.Elevation, params.Scale, material.Name)
	printDimensions(out, dims)
	printBOM(out, bom)
	return nil
}

func runValidate(args []string, out io.Writer, log logging.Logger) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	instrument := fs.String("instrument", string(model.InstrumentEquatorialDial), "equatorial_dial or altazimuth")
	loc := addSiteFlags(fs)
	scale := fs.Float64("scale", 1.0, "scale factor relative to the reference build")
	dateFlag := fs.String("date", "", "UTC day to sweep, YYYY-MM-DD (default today)")
	samples := fs.Int("samples", core.DefaultDaySamples, "samples across the day")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	kind, err := parseKind(*instrument)
	if err != nil {
		return err
	}
	location, err := loc.location()
	if err != nil {
		return err
	}
	date, err := parseDateFlag(*dateFlag)
	if err != nil {
		return err
	}

	params := model.DefaultBuildParameters()
	params.Scale = *scale
	gen, err := core.NewGenerator(kind, location, params, core.DefaultMaterial)
	if err != nil {
		return err
	}
	if err := gen.Generate(); err != nil {
		return err
	}

	oracle := ephemeris.NewCache(ephemeris.NewSolar(), ephemeris.DefaultCacheSize)
	validator, err := core.NewValidator(oracle, core.WithDaySamples(*samples))
	if err != nil {
		return err
	}

	report, err := validator.ValidateDay(context.Background(), gen, location, date)
	if err != nil {
		return err
	}

	if *asJSON {
		return writeJSON(out, struct {
			Location model.Location         `json:"location"`
			Date     string                 `json:"date"`
			Report   model.ValidationReport `json:"report"`
		}{location, date.Format("2006-01-02"), report})
	}

	fmt.Fprintf(out, "%s at (%.4f, %.4f) on %s\n", kind, location.Latitude, location.Longitude, date.Format("2006-01-02"))
	fmt.Fprintf(out, "  samples:     %d (%d unreadable)\n", report.Samples, report.Unreadable)
	fmt.Fprintf(out, "  mean error:  %.4f deg altitude, %.4f deg azimuth\n", report.MeanAltitudeError, report.MeanAzimuthError)
	fmt.Fprintf(out, "  rms error:   %.4f deg\n", report.RMSError)
	fmt.Fprintf(out, "  max error:   %.4f deg\n", report.MaxError)
	fmt.Fprintf(out, "  tier:        %s\n", report.Tier)
	return nil
}

func runSunPath(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sunpath", flag.ContinueOnError)
	loc := addSiteFlags(fs)
	dateFlag := fs.String("date", "", "UTC day to sample, YYYY-MM-DD (default today)")
	points := fs.Int("points", 48, "samples across the day")
	asJSON := fs.Bool("json", false, "print the path as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	location, err := loc.location()
	if err != nil {
		return err
	}
	date, err := parseDateFlag(*dateFlag)
	if err != nil {
		return err
	}

	path, err := ephemeris.DaySunPath(context.Background(), ephemeris.NewSolar(), location, date, *points)
	if err != nil {
		return err
	}

	if *asJSON {
		return writeJSON(out, path)
	}

	fmt.Fprintf(out, "Sun path at (%.4f, %.4f) on %s\n", location.Latitude, location.Longitude, date.Format("2006-01-02"))
	if path.Sunrise == nil {
		fmt.Fprintln(out, "  the sun never rises")
	} else {
		fmt.Fprintf(out, "  sunrise:    %s UTC\n", path.Sunrise.Format("15:04:05"))
		fmt.Fprintf(out, "  solar noon: %s UTC\n", path.SolarNoon.Format("15:04:05"))
		if path.Sunset != nil {
			fmt.Fprintf(out, "  sunset:     %s UTC\n", path.Sunset.Format("15:04:05"))
		}
		fmt.Fprintf(out, "  day length: %.2f h\n", path.DayLength)
	}
	for _, p := range path.Points {
		marker := " "
		if p.Visible {
			marker = "*"
		}
		fmt.Fprintf(out, "  %s %s alt %7.2f  az %7.2f\n", p.Time.Format("15:04"), marker, p.Altitude, p.Azimuth)
	}
	return nil
}

func runTrace(args []string, out io.Writer, log logging.Logger) error {
	fs := flag.NewFlagSet("trace", flag.ContinueOnError)
	instrument := fs.String("instrument", string(model.InstrumentEquatorialDial), "equatorial_dial or altazimuth")
	loc := addSiteFlags(fs)
	dateFlag := fs.String("date", "", "UTC day to replay, YYYY-MM-DD (default today)")
	step := fs.Duration("step", 15*time.Minute, "simulated time per tick")
	accel := fs.Float64("accel", 3600, "simulated-to-wall speed ratio (0 replays instantly)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	kind, err := parseKind(*instrument)
	if err != nil {
		return err
	}
	location, err := loc.location()
	if err != nil {
		return err
	}
	date, err := parseDateFlag(*dateFlag)
	if err != nil {
		return err
	}

	gen, err := core.NewGenerator(kind, location, model.DefaultBuildParameters(), core.DefaultMaterial)
	if err != nil {
		return err
	}
	if err := gen.Generate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	oracle := ephemeris.NewCache(ephemeris.NewSolar(), ephemeris.DefaultCacheSize)
	controller, err := timectrl.NewReplayController(timectrl.Config{
		Start:        date,
		End:          date.Add(24 * time.Hour),
		Step:         *step,
		Acceleration: *accel,
	})
	if err != nil {
		return err
	}

	controller.AddListener(func(at time.Time) {
		sun, err := oracle.SunAt(ctx, location, at)
		if err != nil {
			log.Warn(ctx, "oracle failed", logging.Err(err))
			return
		}
		reading, err := gen.PredictReading(sun.Altitude, sun.Azimuth)
		if err != nil {
			log.Warn(ctx, "reading failed", logging.Err(err))
			return
		}
		printTraceStep(out, kind, at, sun, reading)
	})

	fmt.Fprintf(out, "Replaying %s through %s at (%.4f, %.4f), %s per tick, %gx speed\n",
		date.Format("2006-01-02"), kind, location.Latitude, location.Longitude, *step, *accel)

	if err := controller.Start(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(out, "replay interrupted")
			return nil
		}
		return err
	}
	fmt.Fprintln(out, "replay complete")
	return nil
}

func printTraceStep(out io.Writer, kind model.InstrumentKind, at time.Time, sun model.SunPosition, reading model.InstrumentReading) {
	prefix := fmt.Sprintf("%s  sun alt %6.2f az %6.2f", at.Format("15:04"), sun.Altitude, sun.Azimuth)
	if !reading.Readable {
		fmt.Fprintf(out, "%s  (unreadable)\n", prefix)
		return
	}
	if kind == model.InstrumentEquatorialDial {
		fmt.Fprintf(out, "%s  reads %s solar on the %s quadrant (hour angle %7.2f)\n",
			prefix, formatSolarTime(reading.LocalSolarTime), reading.Quadrant, reading.HourAngle)
		return
	}
	fmt.Fprintf(out, "%s  reads alt %6.2f az %6.2f on %s (shadow %0.3f m)\n",
		prefix, reading.PredictedAltitude, reading.PredictedAzimuth, reading.Quadrant, reading.ShadowLength)
}

// formatSolarTime renders decimal hours as HH:MM.
func formatSolarTime(hours float64) string {
	hh := int(hours)
	mm := int(math.Round((hours - float64(hh)) * 60))
	if mm == 60 {
		hh++
		mm = 0
	}
	return fmt.Sprintf("%02d:%02d", hh%24, mm)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDimensions(out io.Writer, dims map[string]any) {
	fmt.Fprintln(out, "Dimensions:")
	for _, key := range sortedKeys(dims) {
		switch v := dims[key].(type) {
		case map[string]float64:
			fmt.Fprintf(out, "  %s:\n", key)
			for _, sub := range sortedKeys(v) {
				fmt.Fprintf(out, "    %-18s %v\n", sub, v[sub])
			}
		case map[string]any:
			fmt.Fprintf(out, "  %s:\n", key)
			for _, sub := range sortedKeys(v) {
				fmt.Fprintf(out, "    %-18s %v\n", sub, v[sub])
			}
		default:
			fmt.Fprintf(out, "  %-20s %v\n", key, v)
		}
	}
}

func printBOM(out io.Writer, bom []model.BOMItem) {
	fmt.Fprintln(out, "Bill of materials:")
	for _, item := range bom {
		fmt.Fprintf(out, "  %-26s x%-3d %-9s %-34s %8.3f kg\n",
			item.Item, item.Quantity, item.Material, item.Dimensions, item.Mass)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
