package reports

import (
	"fmt"

	"practicum-portal/portal-backend/internal/compliance"
	"practicum-portal/portal-backend/internal/reports/export"
)

var requirementColumns = []export.Column{
	{Key: "user_id", Label: "User ID"},
	{Key: "user_name", Label: "User"},
	{Key: "document_type_id", Label: "Document Type ID"},
	{Key: "requirement", Label: "Requirement"},
	{Key: "status", Label: "Status"},
	{Key: "progress", Label: "Progress"},
	{Key: "uploaded_at", Label: "Last Upload"},
	{Key: "issued_at", Label: "Last Issued"},
	{Key: "expires_at", Label: "Expires"},
	{Key: "reviewed_at", Label: "Last Review"},
}

var doseColumns = []export.Column{
	{Key: "user_id", Label: "User ID"},
	{Key: "requirement", Label: "Requirement"},
	{Key: "dose", Label: "Dose"},
	{Key: "status", Label: "Status"},
	{Key: "file", Label: "File"},
	{Key: "uploaded_at", Label: "Uploaded"},
	{Key: "comments", Label: "Comments"},
}

// RequirementsTable has one row per requirement (dose group or standalone document)
// of every summary.
func RequirementsTable(summaries []compliance.Summary) export.Table {
	table := export.Table{Name: "Requirements", Columns: requirementColumns}
	for _, s := range summaries {
		for _, g := range s.Groups {
			table.Rows = append(table.Rows, map[string]any{
				"user_id":          s.User.ID,
				"user_name":        s.User.Name,
				"document_type_id": g.DocumentTypeID,
				"requirement":      g.Name,
				"status":           string(g.ConsolidatedStatus),
				"progress":         g.ProgressLabel,
				"uploaded_at":      g.MostRecentUploadDate,
				"issued_at":        g.MostRecentIssueDate,
				"expires_at":       g.MostRecentExpirationDate,
				"reviewed_at":      g.MostRecentReviewDate,
			})
		}
		for _, d := range s.Standalone {
			progress := "0/1"
			if d.Status != compliance.StatusNotUploaded {
				progress = "1/1"
			}
			table.Rows = append(table.Rows, map[string]any{
				"user_id":          s.User.ID,
				"user_name":        s.User.Name,
				"document_type_id": d.DocumentTypeID,
				"requirement":      d.Name,
				"status":           string(d.Status),
				"progress":         progress,
				"uploaded_at":      d.UploadedAt,
				"issued_at":        d.IssuedAt,
				"expires_at":       d.ExpiresAt,
				"reviewed_at":      d.ReviewedAt,
			})
		}
	}
	return table
}

// DosesTable has one row per dose of every multi-dose requirement.
func DosesTable(summaries []compliance.Summary) export.Table {
	table := export.Table{Name: "Doses", Columns: doseColumns}
	for _, s := range summaries {
		for _, g := range s.Groups {
			for _, dose := range g.PerDoseStatuses {
				row := map[string]any{
					"user_id":     s.User.ID,
					"requirement": g.Name,
					"dose":        dose.DoseNumber.String(),
					"status":      string(dose.Status),
				}
				if r := dose.SourceRecord; r != nil {
					row["file"] = r.FileReference
					row["uploaded_at"] = r.UploadedAt
					row["comments"] = r.Comments
				}
				table.Rows = append(table.Rows, row)
			}
		}
	}
	return table
}

// StatsItems lists the summary counters in display order.
func StatsItems(stats compliance.SummaryStats) [][2]string {
	return [][2]string{
		{"Requirements", fmt.Sprint(stats.Requirements)},
		{"Approved", fmt.Sprint(stats.Approved)},
		{"Pending", fmt.Sprint(stats.Pending)},
		{"Rejected", fmt.Sprint(stats.Rejected)},
		{"Expired", fmt.Sprint(stats.Expired)},
		{"Not uploaded", fmt.Sprint(stats.NotUploaded)},
		{"Compliance", fmt.Sprintf("%.1f%%", stats.CompliancePercent)},
	}
}
