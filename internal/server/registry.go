package server

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/rezonia/facturae-processor/internal/model"
)

// Form fields of the render endpoint
const (
	fieldFile         = "file"
	fieldNumRegistro  = "num_registro"
	fieldTipoRegistro = "tipo_registro"
	fieldNumRCF       = "num_rcf"
	fieldFecha        = "fecha_registro"
	fieldFechaDate    = "fecha_registro_date"
	fieldHoraTime     = "hora_registro_time"
)

// maxFilenameStem caps the attachment name taken from num_rcf
const maxFilenameStem = 128

var unsafeFilenameChars = regexp.MustCompile(`[^\w.-]`)

// safeFilename maps s to word characters, dots and dashes
func safeFilename(s string) string {
	s = unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(s), "_")
	if len(s) > maxFilenameStem {
		s = s[:maxFilenameStem]
	}
	return s
}

// isoLayouts are accepted for fecha_registro, zoned layouts first
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// registryForm is the registration metadata as posted
type registryForm struct {
	Number    string
	Type      string
	RCF       string
	Timestamp string // ISO-8601 date and time
	Date      string // YYYY-MM-DD
	Time      string // HH:MM[:SS]
}

// resolve builds the RegistryInfo. A full timestamp wins over the separate
// date and time fields; whatever is still missing is taken from now. All
// values are expressed in loc.
func (f registryForm) resolve(loc *time.Location, now time.Time) (model.RegistryInfo, error) {
	reg := model.RegistryInfo{
		Number: strings.TrimSpace(f.Number),
		Type:   strings.TrimSpace(f.Type),
		RCF:    strings.TrimSpace(f.RCF),
	}
	if err := reg.Validate(); err != nil {
		return reg, err
	}

	now = now.In(loc)

	if ts := strings.TrimSpace(f.Timestamp); ts != "" {
		t, err := parseISO(ts, loc)
		if err != nil {
			return reg, model.NewValidationError(fieldFecha, ts, "format", "expected ISO 8601 (YYYY-MM-DDTHH:MM:SS)")
		}
		reg.Date = model.Some(civil.DateOf(t))
		reg.Time = model.Some(civil.TimeOf(t))
		return reg, nil
	}

	date := civil.DateOf(now)
	if d := strings.TrimSpace(f.Date); d != "" {
		parsed, err := civil.ParseDate(d)
		if err != nil {
			return reg, model.NewValidationError(fieldFechaDate, d, "format", "expected YYYY-MM-DD")
		}
		date = parsed
	}

	clock := civil.Time{Hour: now.Hour(), Minute: now.Minute(), Second: now.Second()}
	if h := strings.TrimSpace(f.Time); h != "" {
		parsed, err := model.ParseRegistryTime(h)
		if err != nil {
			return reg, err
		}
		clock = parsed
	}

	reg.Date = model.Some(date)
	reg.Time = model.Some(clock)
	return reg, nil
}

// parseISO reads a timestamp. Values without an offset are taken to be in
// loc; values with one are converted to loc.
func parseISO(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(isoLayouts[0], s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range isoLayouts[1:] {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
