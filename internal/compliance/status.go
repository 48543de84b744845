package compliance

import (
	"strings"
	"time"
)

// StatusNormalizer classifies a single record (nil when the dose was never uploaded)
// into the closed Status set. Implementations must be total.
type StatusNormalizer func(record *UploadedDoseRecord, def DocumentTypeDefinition) Status

var statusSpellings = map[string]Status{
	"approved":     StatusApproved,
	"aprobado":     StatusApproved,
	"cumplido":     StatusApproved,
	"valido":       StatusApproved,
	"válido":       StatusApproved,
	"rejected":     StatusRejected,
	"rechazado":    StatusRejected,
	"expired":      StatusExpired,
	"expirado":     StatusExpired,
	"vencido":      StatusExpired,
	"pending":      StatusPending,
	"pendiente":    StatusPending,
	"sin revisar":  StatusPending,
	"en revision":  StatusPending,
	"en revisión":  StatusPending,
	"not-uploaded": StatusNotUploaded,
	"not_uploaded": StatusNotUploaded,
	"no subido":    StatusNotUploaded,
	"sin cargar":   StatusNotUploaded,
}

// ParseStatus maps a raw backend spelling onto the closed set. The second result is
// false for empty or unknown spellings.
func ParseStatus(raw string) (Status, bool) {
	s, ok := statusSpellings[strings.ToLower(strings.TrimSpace(raw))]
	return s, ok
}

// Canonical unifies synonymous spellings; unknown values are returned lower-cased.
func (s Status) Canonical() Status {
	if c, ok := ParseStatus(string(s)); ok {
		return c
	}
	return Status(strings.ToLower(strings.TrimSpace(string(s))))
}

func (s Status) IsApproved() bool { return s.Canonical() == StatusApproved }
func (s Status) IsPending() bool  { return s.Canonical() == StatusPending }
func (s Status) IsRejected() bool { return s.Canonical() == StatusRejected }
func (s Status) IsExpired() bool  { return s.Canonical() == StatusExpired }

func (s Status) IsNotUploaded() bool { return s.Canonical() == StatusNotUploaded }

// NewStatusNormalizer returns the default backend-string classifier. now is consulted
// for expiration checks; nil means time.Now.
func NewStatusNormalizer(now func() time.Time) StatusNormalizer {
	if now == nil {
		now = time.Now
	}
	return func(record *UploadedDoseRecord, def DocumentTypeDefinition) Status {
		if record == nil || !record.HasFile() {
			return StatusNotUploaded
		}

		status, ok := ParseStatus(record.State)
		if !ok || status == StatusNotUploaded {
			// A file exists, so anything unclassified is waiting for review.
			return StatusPending
		}

		if status == StatusApproved && def.Expires {
			if exp := ExpirationFor(*record, def); exp != nil && exp.Before(now()) {
				return StatusExpired
			}
		}
		return status
	}
}

// DefaultNormalizer classifies against the wall clock.
var DefaultNormalizer = NewStatusNormalizer(nil)

// ExpirationFor returns the effective expiration date of a record: its explicit
// expiration when parseable, otherwise the issue date plus the type's expiration period.
func ExpirationFor(record UploadedDoseRecord, def DocumentTypeDefinition) *time.Time {
	if t, ok := ParseDate(record.ExpiresAt); ok {
		return &t
	}
	if !def.Expires {
		return nil
	}
	weeks, ok := def.ExpirationWeeks()
	if !ok {
		return nil
	}
	issued, ok := ParseDate(record.IssuedAt)
	if !ok {
		return nil
	}
	exp := issued.AddDate(0, 0, 7*weeks)
	return &exp
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// ParseDate parses the date formats the backend emits. Empty and invalid calendar
// values report false.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
