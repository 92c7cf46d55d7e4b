package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gnomonworks/sundial-forge/core"
	"github.com/gnomonworks/sundial-forge/ephemeris"
	"github.com/gnomonworks/sundial-forge/internal/export"
	"github.com/gnomonworks/sundial-forge/internal/logging"
	"github.com/gnomonworks/sundial-forge/model"
)

// logger returns the per-request logger when middleware installed one.
func (s *Server) logger(ctx context.Context) logging.Logger {
	if log := logging.LoggerFromContext(ctx); log != nil {
		return log
	}
	return s.log
}

// buildGenerator constructs and runs a generator from common request
// fields.
func (s *Server) buildGenerator(kind model.InstrumentKind, loc model.Location, params *model.BuildParameters, materialName string) (core.Generator, error) {
	p := model.DefaultBuildParameters()
	if params != nil {
		p = *params
	}
	material := core.DefaultMaterial
	if materialName != "" {
		var err error
		material, err = core.MaterialByName(materialName)
		if err != nil {
			return nil, err
		}
	}
	gen, err := core.NewGenerator(kind, loc, p, material)
	if err != nil {
		return nil, err
	}
	if err := gen.Generate(); err != nil {
		return nil, err
	}
	return gen, nil
}

type generateRequest struct {
	Instrument string                 `json:"instrument"`
	Site       string                 `json:"site,omitempty"`
	Location   *model.Location        `json:"location,omitempty"`
	Parameters *model.BuildParameters `json:"parameters,omitempty"`
	Material   string                 `json:"material,omitempty"`
}

type generateResponse struct {
	GenerationID    string                 `json:"generation_id"`
	Instrument      model.InstrumentKind   `json:"instrument"`
	Location        model.Location         `json:"location"`
	Parameters      model.BuildParameters  `json:"parameters"`
	Material        string                 `json:"material"`
	Dimensions      map[string]any         `json:"dimensions"`
	BillOfMaterials []model.BOMItem        `json:"bill_of_materials"`
	Accuracy        model.ValidationResult `json:"accuracy"`
	ElapsedMS       float64                `json:"elapsed_ms"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	kind, err := parseInstrument(req.Instrument)
	if err != nil {
		writeError(w, err)
		return
	}
	loc, err := resolveLocation(s.catalog, req.Site, req.Location)
	if err != nil {
		writeError(w, err)
		return
	}

	params := model.DefaultBuildParameters()
	if req.Parameters != nil {
		params = *req.Parameters
	}
	material := core.DefaultMaterial
	if req.Material != "" {
		if material, err = core.MaterialByName(req.Material); err != nil {
			writeError(w, err)
			return
		}
	}

	start := time.Now()
	gen, err := core.NewGenerator(kind, loc, params, material)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := gen.Generate(); err != nil {
		writeError(w, err)
		return
	}
	s.metrics.ObserveGeneration(string(kind), time.Since(start))

	dims, err := gen.Dimensions()
	if err != nil {
		writeError(w, err)
		return
	}
	bom, err := gen.BillOfMaterials()
	if err != nil {
		writeError(w, err)
		return
	}

	validator, err := core.NewValidator(s.oracle, core.WithDaySamples(s.daySamples))
	if err != nil {
		writeError(w, err)
		return
	}
	accuracy, err := validator.ValidateAtReference(ctx, gen, loc)
	if err != nil {
		writeError(w, err)
		return
	}
	s.metrics.ObserveValidation(string(kind), string(accuracy.Tier))

	resp := generateResponse{
		GenerationID:    uuid.NewString(),
		Instrument:      kind,
		Location:        loc,
		Parameters:      params,
		Material:        material.Name,
		Dimensions:      dims,
		BillOfMaterials: bom,
		Accuracy:        accuracy,
		ElapsedMS:       float64(time.Since(start)) / float64(time.Millisecond),
	}

	s.logger(ctx).Info(ctx, "generated instrument",
		logging.String("generation_id", resp.GenerationID),
		logging.String("instrument", string(kind)),
		logging.Float64("latitude", loc.Latitude),
		logging.String("tier", string(accuracy.Tier)),
	)
	writeJSON(w, http.StatusCreated, resp)
}

type validateRequest struct {
	Instrument string                 `json:"instrument"`
	Site       string                 `json:"site,omitempty"`
	Location   *model.Location        `json:"location,omitempty"`
	Parameters *model.BuildParameters `json:"parameters,omitempty"`
	Material   string                 `json:"material,omitempty"`
	Date       string                 `json:"date,omitempty"`
	Samples    int                    `json:"samples,omitempty"`
}

type validateResponse struct {
	Location model.Location         `json:"location"`
	Date     string                 `json:"date"`
	Report   model.ValidationReport `json:"report"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req validateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	kind, err := parseInstrument(req.Instrument)
	if err != nil {
		writeError(w, err)
		return
	}
	loc, err := resolveLocation(s.catalog, req.Site, req.Location)
	if err != nil {
		writeError(w, err)
		return
	}
	date := core.DefaultValidationTime
	if req.Date != "" {
		if date, err = parseDate(req.Date); err != nil {
			writeError(w, err)
			return
		}
	}
	samples := req.Samples
	if samples <= 0 {
		samples = s.daySamples
	}

	gen, err := s.buildGenerator(kind, loc, req.Parameters, req.Material)
	if err != nil {
		writeError(w, err)
		return
	}
	validator, err := core.NewValidator(s.oracle, core.WithDaySamples(samples))
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := validator.ValidateDay(ctx, gen, loc, date)
	if err != nil {
		writeError(w, err)
		return
	}
	s.metrics.ObserveValidation(string(kind), string(report.Tier))

	s.logger(ctx).Info(ctx, "validated instrument",
		logging.String("instrument", string(kind)),
		logging.Int("samples", report.Samples),
		logging.String("tier", string(report.Tier)),
	)
	writeJSON(w, http.StatusOK, validateResponse{
		Location: loc,
		Date:     date.Format("2006-01-02"),
		Report:   report,
	})
}

type validateLocationRequest struct {
	Site     string          `json:"site,omitempty"`
	Location *model.Location `json:"location,omitempty"`
}

// instrumentFit reports whether one instrument variant can be built at a
// location and why not when it cannot.
type instrumentFit struct {
	Buildable bool   `json:"buildable"`
	Reason    string `json:"reason,omitempty"`
}

type validateLocationResponse struct {
	Location    model.Location           `json:"location"`
	Valid       bool                     `json:"valid"`
	Error       string                   `json:"error,omitempty"`
	Instruments map[string]instrumentFit `json:"instruments"`
}

func (s *Server) handleValidateLocation(w http.ResponseWriter, r *http.Request) {
	var req validateLocationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var loc model.Location
	switch {
	case req.Site != "":
		site, err := s.catalog.Get(req.Site)
		if err != nil {
			writeError(w, err)
			return
		}
		loc = site.Location
	case req.Location != nil:
		loc = req.Location.Normalize()
	default:
		writeError(w, fmt.Errorf("%w: site or location is required", ErrInvalidRequest))
		return
	}

	resp := validateLocationResponse{
		Location:    loc,
		Valid:       true,
		Instruments: make(map[string]instrumentFit, 2),
	}
	if err := loc.Validate(); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
	}

	for _, kind := range []model.InstrumentKind{model.InstrumentEquatorialDial, model.InstrumentAltAzimuth} {
		fit := instrumentFit{Buildable: true}
		if _, err := core.NewGenerator(kind, loc, model.DefaultBuildParameters(), core.DefaultMaterial); err != nil {
			fit = instrumentFit{Buildable: false, Reason: err.Error()}
		}
		resp.Instruments[string(kind)] = fit
	}

	writeJSON(w, http.StatusOK, resp)
}

type suncheckRequest struct {
	Site     string          `json:"site,omitempty"`
	Location *model.Location `json:"location,omitempty"`
	Time     string          `json:"time,omitempty"`
}

// instrumentReadability is one instrument's view of a sun position.
type instrumentReadability struct {
	Readable bool           `json:"readable"`
	Quadrant model.Quadrant `json:"quadrant,omitempty"`
}

type suncheckResponse struct {
	Time        time.Time                        `json:"time"`
	Location    model.Location                   `json:"location"`
	Sun         model.SunPosition                `json:"sun"`
	Visible     bool                             `json:"visible"`
	Instruments map[string]instrumentReadability `json:"instruments"`
}

func (s *Server) handleSuncheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req suncheckRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	loc, err := resolveLocation(s.catalog, req.Site, req.Location)
	if err != nil {
		writeError(w, err)
		return
	}
	at := time.Now().UTC()
	if req.Time != "" {
		if at, err = parseTimestamp(req.Time); err != nil {
			writeError(w, err)
			return
		}
	}

	sun, err := s.oracle.SunAt(ctx, loc, at)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := suncheckResponse{
		Time:        at,
		Location:    loc,
		Sun:         sun,
		Visible:     sun.Visible(),
		Instruments: make(map[string]instrumentReadability, 2),
	}
	for _, kind := range []model.InstrumentKind{model.InstrumentEquatorialDial, model.InstrumentAltAzimuth} {
		check := instrumentReadability{}
		gen, err := s.buildGenerator(kind, loc, nil, "")
		if err == nil {
			if reading, err := gen.PredictReading(sun.Altitude, sun.Azimuth); err == nil {
				check.Readable = reading.Readable
				if reading.Readable {
					check.Quadrant = reading.Quadrant
				}
			}
		}
		resp.Instruments[string(kind)] = check
	}

	writeJSON(w, http.StatusOK, resp)
}

type sunPathRequest struct {
	Site     string          `json:"site,omitempty"`
	Location *model.Location `json:"location,omitempty"`
	Date     string          `json:"date"`
	Points   int             `json:"points,omitempty"`
}

func (s *Server) handleSunPath(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req sunPathRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	loc, err := resolveLocation(s.catalog, req.Site, req.Location)
	if err != nil {
		writeError(w, err)
		return
	}
	date := time.Now().UTC()
	if req.Date != "" {
		if date, err = parseDate(req.Date); err != nil {
			writeError(w, err)
			return
		}
	}
	points := req.Points
	if points <= 0 {
		points = s.pathSamples
	}

	path, err := ephemeris.DaySunPath(ctx, s.oracle, loc, date, points)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, path)
}

type sunPositionRequest struct {
	Site     string          `json:"site,omitempty"`
	Location *model.Location `json:"location,omitempty"`
	Time     string          `json:"time,omitempty"`
}

func (s *Server) handleSunPosition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req sunPositionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	loc, err := resolveLocation(s.catalog, req.Site, req.Location)
	if err != nil {
		writeError(w, err)
		return
	}
	at := time.Now().UTC()
	if req.Time != "" {
		if at, err = parseTimestamp(req.Time); err != nil {
			writeError(w, err)
			return
		}
	}

	sun, err := s.oracle.SunAt(ctx, loc, at)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sun)
}

type listSitesResponse struct {
	Sites []sitesEntry `json:"sites"`
	Count int          `json:"count"`
}

// sitesEntry flattens a catalog site for listing.
type sitesEntry struct {
	Name        string         `json:"name"`
	Location    model.Location `json:"location"`
	Timezone    string         `json:"timezone,omitempty"`
	Description string         `json:"description,omitempty"`
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	all := s.catalog.List()
	entries := make([]sitesEntry, 0, len(all))
	for _, site := range all {
		entries = append(entries, sitesEntry{
			Name:        site.Name,
			Location:    site.Location,
			Timezone:    site.Timezone,
			Description: site.Description,
		})
	}
	writeJSON(w, http.StatusOK, listSitesResponse{Sites: entries, Count: len(entries)})
}

func (s *Server) handleGetSite(w http.ResponseWriter, r *http.Request) {
	site, err := s.catalog.Get(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, site)
}

type exportRequest struct {
	Instrument string                 `json:"instrument"`
	Site       string                 `json:"site,omitempty"`
	Location   *model.Location        `json:"location,omitempty"`
	Parameters *model.BuildParameters `json:"parameters,omitempty"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	format := strings.ToLower(r.PathValue("format"))

	var req exportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	kind, err := parseInstrument(req.Instrument)
	if err != nil {
		writeError(w, err)
		return
	}
	loc, err := resolveLocation(s.catalog, req.Site, req.Location)
	if err != nil {
		writeError(w, err)
		return
	}

	gen, err := s.buildGenerator(kind, loc, req.Parameters, "")
	if err != nil {
		writeError(w, err)
		return
	}
	drawing, err := export.FromGenerator(gen)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := export.Encode(format, drawing)
	if err != nil {
		writeError(w, err)
		return
	}
	s.metrics.ObserveExport(format)

	s.logger(ctx).Info(ctx, "exported instrument",
		logging.String("instrument", string(kind)),
		logging.String("format", format),
		logging.Int("bytes", len(data)),
	)
	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(format, kind)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
