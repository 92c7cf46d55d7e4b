package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gnomonworks/sundial-forge/model"
	"github.com/gnomonworks/sundial-forge/sites"
)

// ErrInvalidRequest is the sentinel wrapped by request decode and field
// validation failures.
var ErrInvalidRequest = errors.New("invalid request")

// maxBodyBytes bounds request bodies; every payload the API accepts is
// far below this.
const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into v.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// parseInstrument resolves a request's instrument field.
func parseInstrument(s string) (model.InstrumentKind, error) {
	kind := model.InstrumentKind(strings.ToLower(strings.TrimSpace(s)))
	if !kind.Valid() {
		return "", fmt.Errorf("%w: unknown instrument %q", ErrInvalidRequest, s)
	}
	return kind, nil
}

// parseDate resolves a YYYY-MM-DD request field, UTC.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidRequest, s)
	}
	return t, nil
}

// parseTimestamp resolves an RFC 3339 request field, converted to UTC.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time %q must be RFC 3339", ErrInvalidRequest, s)
	}
	return t.UTC(), nil
}

// resolveLocation returns the effective observer location for a request
// that names a catalog site or carries inline coordinates, exclusively.
func resolveLocation(catalog *sites.Catalog, siteName string, loc *model.Location) (model.Location, error) {
	switch {
	case siteName != "" && loc != nil:
		return model.Location{}, fmt.Errorf("%w: site and location are mutually exclusive", ErrInvalidRequest)
	case siteName != "":
		site, err := catalog.Get(siteName)
		if err != nil {
			return model.Location{}, err
		}
		return site.Location, nil
	case loc != nil:
		normalized := loc.Normalize()
		if err := normalized.Validate(); err != nil {
			return model.Location{}, err
		}
		return normalized, nil
	default:
		return model.Location{}, fmt.Errorf("%w: site or location is required", ErrInvalidRequest)
	}
}
