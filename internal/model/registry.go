package model

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

// RegistryInfo is the out-of-band registration metadata printed on the
// rendered document. It is not part of the invoice itself.
type RegistryInfo struct {
	Number string               `json:"num_registro"`
	Type   string               `json:"tipo_registro"`
	RCF    string               `json:"num_rcf"`
	Date   Optional[civil.Date] `json:"fecha_registro"`
	Time   Optional[civil.Time] `json:"hora_registro"`
}

// Validate checks the required free-text fields
func (r RegistryInfo) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"num_registro", r.Number},
		{"tipo_registro", r.Type},
		{"num_rcf", r.RCF},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return NewValidationError(f.field, nil, "required", "field is required")
		}
	}
	return nil
}

// DateTime formats the registration date and time as dd/mm/yyyy hh:mm,
// omitting whichever part is absent.
func (r RegistryInfo) DateTime() string {
	var parts []string
	if d, ok := r.Date.Get(); ok {
		parts = append(parts, fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year))
	}
	if t, ok := r.Time.Get(); ok {
		parts = append(parts, fmt.Sprintf("%02d:%02d", t.Hour, t.Minute))
	}
	return strings.Join(parts, " ")
}

// ParseRegistryTime accepts HH:MM or HH:MM:SS
func ParseRegistryTime(s string) (civil.Time, error) {
	s = strings.TrimSpace(s)
	if strings.Count(s, ":") == 1 {
		s += ":00"
	}
	t, err := civil.ParseTime(s)
	if err != nil {
		return civil.Time{}, NewValidationError("hora_registro_time", s, "format", "expected HH:MM or HH:MM:SS")
	}
	return t, nil
}
