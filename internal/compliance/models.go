package compliance

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Status is the normalized review state of a requirement or a single dose.
type Status string

const (
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusExpired     Status = "expired"
	StatusPending     Status = "pending"
	StatusNotUploaded Status = "not-uploaded"
)

// DoseMode declares how the doses of a document type are counted.
type DoseMode string

const (
	DoseModeFixed     DoseMode = "fixed"
	DoseModeOpenEnded DoseMode = "open_ended"
)

type EntryKind string

const (
	EntryKindGroup      EntryKind = "group"
	EntryKindStandalone EntryKind = "standalone"
)

// FlexNumber holds a numeric field that the backend may send as a JSON number, a
// numeric string, or a free-form label such as "Refuerzo".
type FlexNumber string

func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = FlexNumber(s)
		return nil
	}
	*n = FlexNumber(data)
	return nil
}

func (n FlexNumber) MarshalJSON() ([]byte, error) {
	if n == "" {
		return []byte("null"), nil
	}
	if v, ok := n.Int(); ok {
		return []byte(strconv.Itoa(v)), nil
	}
	return json.Marshal(string(n))
}

// Int coerces the value to an integer. Labels and fractional numbers do not coerce.
func (n FlexNumber) Int() (int, bool) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return 0, false
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) >= 1<<63 {
		return 0, false
	}
	return int(f), true
}

func (n FlexNumber) String() string {
	return string(n)
}

// DocumentTypeDefinition is a catalog entry describing a required document.
type DocumentTypeDefinition struct {
	DocumentTypeID   string     `json:"documentTypeId"`
	Name             string     `json:"name"`
	DoseCount        FlexNumber `json:"doseCount,omitempty"`
	Expires          bool       `json:"expires"`
	ExpirationPeriod FlexNumber `json:"expirationPeriod,omitempty"`
	DoseMode         DoseMode   `json:"doseMode,omitempty"`
}

// MaxDoseCount is the largest dose count a document type may declare.
const MaxDoseCount = 50

// DeclaredDoseCount returns the parsed dose count. Missing, non-numeric, non-positive and
// out-of-range values count as 1.
func (d DocumentTypeDefinition) DeclaredDoseCount() int {
	if v, ok := d.DoseCount.Int(); ok && v >= 1 && v <= MaxDoseCount {
		return v
	}
	return 1
}

// IsOpenEnded reports whether any number of doses may be uploaded for this type.
// An explicit DoseMode wins; otherwise COVID-19 types are open-ended by name.
func (d DocumentTypeDefinition) IsOpenEnded() bool {
	switch d.DoseMode {
	case DoseModeOpenEnded:
		return true
	case DoseModeFixed:
		return false
	}
	return strings.Contains(strings.ToLower(d.Name), "covid")
}

// ExpirationWeeks returns the auto-expiration period in weeks, if one is configured.
func (d DocumentTypeDefinition) ExpirationWeeks() (int, bool) {
	v, ok := d.ExpirationPeriod.Int()
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// UploadedDoseRecord is one user's uploaded instance of a document type.
type UploadedDoseRecord struct {
	DocumentID     string     `json:"documentId,omitempty"`
	UserID         string     `json:"userId,omitempty"`
	DocumentTypeID string     `json:"documentTypeId"`
	DoseNumber     FlexNumber `json:"doseNumber,omitempty"`
	State          string     `json:"state,omitempty"`
	FileReference  string     `json:"fileReference,omitempty"`
	UploadedAt     string     `json:"uploadedAt,omitempty"`
	IssuedAt       string     `json:"issuedAt,omitempty"`
	ExpiresAt      string     `json:"expiresAt,omitempty"`
	ReviewedAt     string     `json:"reviewedAt,omitempty"`
	Comments       string     `json:"comments,omitempty"`
}

// HasFile reports whether an artifact was actually uploaded.
func (r UploadedDoseRecord) HasFile() bool {
	return strings.TrimSpace(r.FileReference) != ""
}

// CatalogEntry is one element of the grouped catalog: either a multi-dose group or a
// standalone document type.
type CatalogEntry struct {
	Kind              EntryKind              `json:"kind"`
	DocumentTypeID    string                 `json:"documentTypeId"`
	Name              string                 `json:"name"`
	DeclaredDoseCount int                    `json:"declaredDoseCount"`
	Definition        DocumentTypeDefinition `json:"definition"`
}

// DoseGroup returns the resolver input for a group entry, or nil for standalone entries.
func (e CatalogEntry) DoseGroup() *DoseGroup {
	if e.Kind != EntryKindGroup {
		return nil
	}
	def := e.Definition
	return &DoseGroup{Definition: &def, DeclaredDoseCount: e.DeclaredDoseCount}
}

// DoseGroup is a multi-dose document type together with its declared dose count.
type DoseGroup struct {
	Definition        *DocumentTypeDefinition
	DeclaredDoseCount int
}

// DoseStatus is the classification of a single dose within a group.
type DoseStatus struct {
	DoseNumber   FlexNumber          `json:"doseNumber"`
	Status       Status              `json:"status"`
	SourceRecord *UploadedDoseRecord `json:"sourceRecord"`
}

// ConsolidatedDoseGroupStatus summarizes every dose of one multi-dose document type for one user.
type ConsolidatedDoseGroupStatus struct {
	DocumentTypeID           string       `json:"documentTypeId"`
	Name                     string       `json:"name"`
	OpenEnded                bool         `json:"openEnded"`
	ConsolidatedStatus       Status       `json:"consolidatedStatus"`
	PerDoseStatuses          []DoseStatus `json:"perDoseStatuses"`
	CompletedDoseCount       int          `json:"completedDoseCount"`
	UploadedDoseCount        int          `json:"uploadedDoseCount"`
	PendingDoseCount         int          `json:"pendingDoseCount"`
	RejectedDoseCount        int          `json:"rejectedDoseCount"`
	TotalDoseCount           int          `json:"totalDoseCount"`
	ProgressLabel            string       `json:"progressLabel"`
	MostRecentUploadDate     *time.Time   `json:"mostRecentUploadDate"`
	MostRecentIssueDate      *time.Time   `json:"mostRecentIssueDate"`
	MostRecentExpirationDate *time.Time   `json:"mostRecentExpirationDate"`
	MostRecentReviewDate     *time.Time   `json:"mostRecentReviewDate"`
}

// UserProfile is the user part of the backend profile bundle.
type UserProfile struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Role    string `json:"role,omitempty"`
	Program string `json:"program,omitempty"`
}

// ProfileBundle is what the backend returns for a user profile request.
type ProfileBundle struct {
	User          UserProfile              `json:"user"`
	Documents     []UploadedDoseRecord     `json:"documents"`
	DocumentTypes []DocumentTypeDefinition `json:"documentTypes,omitempty"`
	// Document is the legacy name of the catalog field; older backends still send it.
	Document []DocumentTypeDefinition `json:"document,omitempty"`
	Stats    map[string]any           `json:"stats,omitempty"`
}

// Catalog returns the document-type catalog carried by the bundle.
func (b ProfileBundle) Catalog() []DocumentTypeDefinition {
	if len(b.DocumentTypes) > 0 {
		return b.DocumentTypes
	}
	return b.Document
}
