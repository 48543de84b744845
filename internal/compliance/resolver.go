package compliance

import (
	"fmt"
	"time"
)

// ResolveDoseGroupStatus consolidates a user's records for one multi-dose document type.
//
// records is the user's full document list; it is filtered by document type here. A nil
// group, a group without a definition, or a nil records slice yields the zeroed result.
// The function never panics on malformed data and has no side effects.
func ResolveDoseGroupStatus(group *DoseGroup, records []UploadedDoseRecord, normalize StatusNormalizer) ConsolidatedDoseGroupStatus {
	if group == nil || group.Definition == nil || records == nil {
		return emptyGroupStatus()
	}
	if normalize == nil {
		normalize = DefaultNormalizer
	}

	def := *group.Definition
	declared := min(group.DeclaredDoseCount, MaxDoseCount)
	result := ConsolidatedDoseGroupStatus{
		DocumentTypeID: def.DocumentTypeID,
		Name:           def.Name,
		OpenEnded:      def.IsOpenEnded(),
	}

	if result.OpenEnded {
		result.PerDoseStatuses = openEndedDoses(def, records, normalize)
		result.TotalDoseCount = max(len(result.PerDoseStatuses), declared)
	} else {
		result.PerDoseStatuses = fixedDoses(def, declared, records, normalize)
		result.TotalDoseCount = max(declared, 0)
	}

	for _, dose := range result.PerDoseStatuses {
		switch {
		case dose.Status.IsApproved():
			result.CompletedDoseCount++
		case dose.Status.IsPending():
			result.PendingDoseCount++
		case dose.Status.IsRejected():
			result.RejectedDoseCount++
		}
		if dose.SourceRecord != nil && !dose.Status.IsNotUploaded() {
			result.UploadedDoseCount++
		}
	}

	result.ConsolidatedStatus = consolidate(result)

	if result.OpenEnded {
		result.ProgressLabel = fmt.Sprintf("%d dosis", result.UploadedDoseCount)
	} else {
		result.ProgressLabel = fmt.Sprintf("%d/%d", result.UploadedDoseCount, result.TotalDoseCount)
	}

	result.MostRecentUploadDate = latestDate(result.PerDoseStatuses, func(r *UploadedDoseRecord) string { return r.UploadedAt })
	result.MostRecentIssueDate = latestDate(result.PerDoseStatuses, func(r *UploadedDoseRecord) string { return r.IssuedAt })
	result.MostRecentExpirationDate = latestDate(result.PerDoseStatuses, func(r *UploadedDoseRecord) string { return r.ExpiresAt })
	result.MostRecentReviewDate = latestDate(result.PerDoseStatuses, func(r *UploadedDoseRecord) string { return r.ReviewedAt })

	return result
}

func emptyGroupStatus() ConsolidatedDoseGroupStatus {
	return ConsolidatedDoseGroupStatus{
		ConsolidatedStatus: StatusNotUploaded,
		PerDoseStatuses:    []DoseStatus{},
		ProgressLabel:      "0/0",
	}
}

// openEndedDoses takes every record of the type in source order, whatever its dose label.
func openEndedDoses(def DocumentTypeDefinition, records []UploadedDoseRecord, normalize StatusNormalizer) []DoseStatus {
	doses := []DoseStatus{}
	for i := range records {
		if records[i].DocumentTypeID != def.DocumentTypeID {
			continue
		}
		record := records[i]
		doses = append(doses, DoseStatus{
			DoseNumber:   record.DoseNumber,
			Status:       normalize(&record, def),
			SourceRecord: &record,
		})
	}
	return doses
}

// fixedDoses walks doses 1..declared in ascending order. Records whose dose number does
// not coerce to an integer never match.
func fixedDoses(def DocumentTypeDefinition, declared int, records []UploadedDoseRecord, normalize StatusNormalizer) []DoseStatus {
	doses := []DoseStatus{}
	for n := 1; n <= declared; n++ {
		var match *UploadedDoseRecord
		for i := range records {
			if records[i].DocumentTypeID != def.DocumentTypeID {
				continue
			}
			if v, ok := records[i].DoseNumber.Int(); ok && v == n {
				record := records[i]
				match = &record
				break
			}
		}
		doses = append(doses, DoseStatus{
			DoseNumber:   FlexNumber(fmt.Sprint(n)),
			Status:       normalize(match, def),
			SourceRecord: match,
		})
	}
	return doses
}

// consolidate applies the precedence rules; the first match wins.
func consolidate(r ConsolidatedDoseGroupStatus) Status {
	switch {
	case r.CompletedDoseCount == r.TotalDoseCount:
		return StatusApproved
	case r.RejectedDoseCount > 0:
		return StatusRejected
	case r.PendingDoseCount > 0:
		return StatusPending
	case r.UploadedDoseCount > 0:
		return StatusPending
	default:
		return StatusNotUploaded
	}
}

func latestDate(doses []DoseStatus, field func(*UploadedDoseRecord) string) *time.Time {
	var latest *time.Time
	for _, dose := range doses {
		if dose.SourceRecord == nil {
			continue
		}
		t, ok := ParseDate(field(dose.SourceRecord))
		if !ok {
			continue
		}
		if latest == nil || t.After(*latest) {
			latest = &t
		}
	}
	return latest
}
