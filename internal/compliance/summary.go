package compliance

import (
	"math"
	"time"
)

// StandaloneStatus is the classification of a single-document requirement.
type StandaloneStatus struct {
	DocumentTypeID string                 `json:"documentTypeId"`
	Name           string                 `json:"name"`
	Definition     DocumentTypeDefinition `json:"definition"`
	Status         Status                 `json:"status"`
	Record         *UploadedDoseRecord    `json:"record"`
	UploadedAt     *time.Time             `json:"uploadedAt"`
	IssuedAt       *time.Time             `json:"issuedAt"`
	ExpiresAt      *time.Time             `json:"expiresAt"`
	ReviewedAt     *time.Time             `json:"reviewedAt"`
}

// SummaryStats are the counters behind the summary chips.
type SummaryStats struct {
	Requirements      int     `json:"requirements"`
	Approved          int     `json:"approved"`
	Pending           int     `json:"pending"`
	Rejected          int     `json:"rejected"`
	Expired           int     `json:"expired"`
	NotUploaded       int     `json:"notUploaded"`
	CompliancePercent float64 `json:"compliancePercent"`
}

// Summary is the full compliance view of one user.
type Summary struct {
	User       UserProfile                   `json:"user"`
	Groups     []ConsolidatedDoseGroupStatus `json:"groups"`
	Standalone []StandaloneStatus            `json:"standalone"`
	Stats      SummaryStats                  `json:"stats"`
}

// Group returns the consolidated status of a multi-dose type, if the summary has one.
func (s Summary) Group(documentTypeID string) (ConsolidatedDoseGroupStatus, bool) {
	for _, g := range s.Groups {
		if g.DocumentTypeID == documentTypeID {
			return g, true
		}
	}
	return ConsolidatedDoseGroupStatus{}, false
}

// BuildSummary groups the bundle's catalog and classifies every requirement against the
// bundle's documents.
func BuildSummary(bundle ProfileBundle, normalize StatusNormalizer) Summary {
	if normalize == nil {
		normalize = DefaultNormalizer
	}

	records := bundle.Documents
	if records == nil {
		records = []UploadedDoseRecord{}
	}

	summary := Summary{
		User:       bundle.User,
		Groups:     []ConsolidatedDoseGroupStatus{},
		Standalone: []StandaloneStatus{},
	}

	for _, entry := range GroupDocumentTypes(bundle.Catalog()) {
		if group := entry.DoseGroup(); group != nil {
			resolved := ResolveDoseGroupStatus(group, records, normalize)
			summary.Groups = append(summary.Groups, resolved)
			summary.Stats.count(resolved.ConsolidatedStatus)
			continue
		}

		standalone := resolveStandalone(entry.Definition, records, normalize)
		summary.Standalone = append(summary.Standalone, standalone)
		summary.Stats.count(standalone.Status)
	}

	summary.Stats.CompliancePercent = CompliancePercent(summary.Stats.Approved, summary.Stats.Requirements)
	return summary
}

// CompliancePercent is approved over requirements as a percentage rounded to one decimal.
func CompliancePercent(approved, requirements int) float64 {
	if requirements <= 0 {
		return 0
	}
	return math.Round(float64(approved)/float64(requirements)*1000) / 10
}

func resolveStandalone(def DocumentTypeDefinition, records []UploadedDoseRecord, normalize StatusNormalizer) StandaloneStatus {
	out := StandaloneStatus{
		DocumentTypeID: def.DocumentTypeID,
		Name:           def.Name,
		Definition:     def,
	}
	for i := range records {
		if records[i].DocumentTypeID == def.DocumentTypeID {
			record := records[i]
			out.Record = &record
			break
		}
	}

	out.Status = normalize(out.Record, def)
	if out.Record != nil {
		out.UploadedAt = datePtr(out.Record.UploadedAt)
		out.IssuedAt = datePtr(out.Record.IssuedAt)
		out.ExpiresAt = ExpirationFor(*out.Record, def)
		out.ReviewedAt = datePtr(out.Record.ReviewedAt)
	}
	return out
}

func (s *SummaryStats) count(status Status) {
	s.Requirements++
	switch status.Canonical() {
	case StatusApproved:
		s.Approved++
	case StatusPending:
		s.Pending++
	case StatusRejected:
		s.Rejected++
	case StatusExpired:
		s.Expired++
	default:
		s.NotUploaded++
	}
}

func datePtr(raw string) *time.Time {
	t, ok := ParseDate(raw)
	if !ok {
		return nil
	}
	return &t
}
