package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gnomonworks/sundial-forge/core"
	"github.com/gnomonworks/sundial-forge/ephemeris"
	"github.com/gnomonworks/sundial-forge/internal/httpapi"
	"github.com/gnomonworks/sundial-forge/internal/logging"
	"github.com/gnomonworks/sundial-forge/model"
	"github.com/gnomonworks/sundial-forge/sites"
	"github.com/gnomonworks/sundial-forge/timectrl"
)

type forgeEnv struct {
	t      *testing.T
	base   string
	client *http.Client
	oracle *ephemeris.Cache
}

func newForgeEnv(t *testing.T) *forgeEnv {
	t.Helper()

	oracle := ephemeris.NewCache(ephemeris.NewSolar(), 512)
	srv, err := httpapi.NewServer(httpapi.Config{
		Log:     logging.Noop(),
		Oracle:  oracle,
		Catalog: sites.Builtin(),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	return &forgeEnv{t: t, base: ts.URL, client: ts.Client(), oracle: oracle}
}

// post decodes a 2xx response into out and fails the test otherwise.
func (e *forgeEnv) post(path string, body, out any) {
	e.t.Helper()

	status, raw := e.do(http.MethodPost, path, body)
	if status < 200 || status >= 300 {
		e.t.Fatalf("POST %s = %d: %s", path, status, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			e.t.Fatalf("decode POST %s response: %v", path, err)
		}
	}
}

// postExpectError asserts the request fails with the given status and
// machine-readable code.
func (e *forgeEnv) postExpectError(path string, body any, wantStatus int, wantCode string) {
	e.t.Helper()

	status, raw := e.do(http.MethodPost, path, body)
	if status != wantStatus {
		e.t.Fatalf("POST %s status = %d, want %d: %s", path, status, wantStatus, raw)
	}
	var apiErr struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(raw, &apiErr); err != nil {
		e.t.Fatalf("decode error body: %v", err)
	}
	if apiErr.Code != wantCode {
		e.t.Fatalf("POST %s code = %q, want %q (error %q)", path, apiErr.Code, wantCode, apiErr.Error)
	}
}

func (e *forgeEnv) get(path string, out any) {
	e.t.Helper()

	resp, err := e.client.Get(e.base + path)
	if err != nil {
		e.t.Fatalf("GET %s: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		e.t.Fatalf("GET %s = %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		e.t.Fatalf("decode GET %s response: %v", path, err)
	}
}

func (e *forgeEnv) do(method, path string, body any) (int, []byte) {
	e.t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		e.t.Fatalf("marshal request: %v", err)
	}
	req, err := http.NewRequest(method, e.base+path, bytes.NewReader(payload))
	if err != nil {
		e.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		e.t.Fatalf("read response body: %v", err)
	}
	return resp.StatusCode, buf.Bytes()
}

func TestEndToEndGenerateValidateExport(t *testing.T) {
	env := newForgeEnv(t)

	var gen struct {
		GenerationID string          `json:"generation_id"`
		Instrument   string          `json:"instrument"`
		Material     string          `json:"material"`
		Dimensions   map[string]any  `json:"dimensions"`
		BOM          []model.BOMItem `json:"bill_of_materials"`
		Accuracy     struct {
			MaxError float64 `json:"max_error"`
			Tier     string  `json:"accuracy_tier"`
		} `json:"accuracy"`
	}
	genReq := map[string]any{
		"instrument": "equatorial_dial",
		"site":       "Jaipur Jantar Mantar",
		"material":   "brass",
		"parameters": map[string]any{"scale": 2.0, "material_thickness": 0.05, "include_base": true},
	}
	env.post("/api/v1/generate", genReq, &gen)

	if gen.GenerationID == "" {
		t.Fatal("empty generation_id")
	}
	if gen.Material != "brass" {
		t.Fatalf("material = %q, want brass", gen.Material)
	}
	if len(gen.Dimensions) == 0 || len(gen.BOM) == 0 {
		t.Fatalf("generation missing dimensions or BOM")
	}
	for _, item := range gen.BOM {
		if item.Quantity < 1 {
			t.Fatalf("BOM item %q has quantity %d", item.Item, item.Quantity)
		}
	}

	var validation struct {
		Date   string                 `json:"date"`
		Report model.ValidationReport `json:"report"`
	}
	valReq := map[string]any{
		"instrument": "equatorial_dial",
		"site":       "Jaipur Jantar Mantar",
		"date":       "2024-06-21",
		"samples":    96,
	}
	env.post("/api/v1/validate", valReq, &validation)

	if validation.Report.Samples != 96 {
		t.Fatalf("samples = %d, want 96", validation.Report.Samples)
	}
	if validation.Report.Unreadable == 0 || validation.Report.Unreadable >= 96 {
		t.Fatalf("unreadable = %d, want a partial day", validation.Report.Unreadable)
	}
	if validation.Report.Tier == model.TierPoor {
		t.Fatalf("day sweep tier = %q (reference %q), max error %.4f deg",
			validation.Report.Tier, gen.Accuracy.Tier, validation.Report.MaxError)
	}

	exports := []struct {
		format      string
		contentType string
		prefix      string
	}{
		{"dxf", "application/dxf", "0\nSECTION"},
		{"stl", "model/stl", "solid"},
		{"svg", "image/svg+xml", "<?xml"},
	}
	for _, ex := range exports {
		payload, _ := json.Marshal(map[string]any{
			"instrument": "equatorial_dial",
			"site":       "Jaipur Jantar Mantar",
		})
		resp, err := env.client.Post(env.base+"/api/v1/export/"+ex.format, "application/json", bytes.NewReader(payload))
		if err != nil {
			t.Fatalf("export %s: %v", ex.format, err)
		}
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("export %s = %d: %s", ex.format, resp.StatusCode, buf.String())
		}
		if got := resp.Header.Get("Content-Type"); got != ex.contentType {
			t.Fatalf("export %s content type = %q, want %q", ex.format, got, ex.contentType)
		}
		if !strings.HasPrefix(buf.String(), ex.prefix) {
			t.Fatalf("export %s does not start with %q", ex.format, ex.prefix)
		}
	}

	var siteList struct {
		Count int `json:"count"`
	}
	env.get("/api/v1/sites", &siteList)
	if siteList.Count != 5 {
		t.Fatalf("site count = %d, want 5", siteList.Count)
	}
}

// TestEndToEndReplayDay replays a full day through a generated dial at
// accelerated time and checks the readable window against the sun path
// the API reports for the same day.
func TestEndToEndReplayDay(t *testing.T) {
	env := newForgeEnv(t)

	var path struct {
		Sunrise   *time.Time `json:"sunrise"`
		Sunset    *time.Time `json:"sunset"`
		DayLength float64    `json:"day_length_hours"`
	}
	pathReq := map[string]any{
		"site":   "Jaipur Jantar Mantar",
		"date":   "2024-06-21",
		"points": 96,
	}
	env.post("/api/v1/astronomy/sunpath", pathReq, &path)
	if path.Sunrise == nil || path.Sunset == nil {
		t.Fatal("expected a sunrise and sunset at Jaipur midsummer")
	}

	site, err := sites.Builtin().Get("Jaipur Jantar Mantar")
	if err != nil {
		t.Fatalf("builtin site: %v", err)
	}
	gen, err := core.NewGenerator(model.InstrumentEquatorialDial, site.Location, model.DefaultBuildParameters(), core.DefaultMaterial)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if err := gen.Generate(); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	day := time.Date(2024, time.June, 21, 0, 0, 0, 0, time.UTC)
	step := 15 * time.Minute
	controller, err := timectrl.NewReplayController(timectrl.Config{
		Start: day,
		End:   day.Add(24 * time.Hour),
		Step:  step,
	})
	if err != nil {
		t.Fatalf("NewReplayController: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var steps, readable int
	var replayErr error
	controller.AddListener(func(at time.Time) {
		steps++
		sun, err := env.oracle.SunAt(ctx, site.Location, at)
		if err != nil {
			replayErr = err
			return
		}
		reading, err := gen.PredictReading(sun.Altitude, sun.Azimuth)
		if err != nil {
			replayErr = err
			return
		}
		if reading.Readable {
			readable++
		}
	})

	if err := controller.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if replayErr != nil {
		t.Fatalf("replay listener: %v", replayErr)
	}
	if steps != 97 {
		t.Fatalf("steps = %d, want 97", steps)
	}

	readableHours := float64(readable) * step.Hours()
	if readable == 0 {
		t.Fatal("no readable instants across midsummer")
	}
	// The dial reads only while the sun is up, so the readable window can
	// never exceed daylight by more than one sample of slack.
	if readableHours > path.DayLength+step.Hours() {
		t.Fatalf("readable %.2f h exceeds daylight %.2f h", readableHours, path.DayLength)
	}
}

func TestEndToEndRejectedRequests(t *testing.T) {
	env := newForgeEnv(t)

	env.postExpectError("/api/v1/generate",
		map[string]any{
			"instrument": "equatorial_dial",
			"location":   map[string]any{"latitude": 0.1, "longitude": 75.0, "elevation": 0},
		},
		http.StatusBadRequest, "invalid_argument")

	env.postExpectError("/api/v1/generate",
		map[string]any{"instrument": "equatorial_dial", "site": "atlantis"},
		http.StatusNotFound, "not_found")

	env.postExpectError("/api/v1/validate",
		map[string]any{
			"instrument": "equatorial_dial",
			"location":   map[string]any{"latitude": 80, "longitude": 0, "elevation": 0},
			"date":       "2024-12-21",
		},
		http.StatusUnprocessableEntity, "no_readable_samples")

	env.postExpectError("/api/v1/export/step",
		map[string]any{"instrument": "equatorial_dial", "site": "Jaipur Jantar Mantar"},
		http.StatusUnprocessableEntity, "unsupported_format")

	// Failed requests must not mutate the catalog.
	var siteList struct {
		Count int `json:"count"`
	}
	env.get("/api/v1/sites", &siteList)
	if siteList.Count != 5 {
		t.Fatalf("site count = %d after failed requests, want 5", siteList.Count)
	}
}
