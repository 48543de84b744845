package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"practicum-portal/portal-backend/internal/compliance"
	"practicum-portal/portal-backend/internal/reports/export"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts the export formats by name, case-insensitively
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatPDF, FormatCSV:
		return f, nil
	case "":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%q: %w", s, compliance.ErrUnsupportedFormat)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatCSV:
		return "text/csv"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

// Report is a rendered export ready to be served or stored
type Report struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Service renders compliance summaries into downloadable reports
type Service struct {
	compliance    compliance.Service
	logger        *zap.Logger
	maxConcurrent int
	now           func() time.Time
}

func NewService(cs compliance.Service, logger *zap.Logger, maxConcurrent int) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	return &Service{
		compliance:    cs,
		logger:        logger,
		maxConcurrent: maxConcurrent,
		now:           time.Now,
	}
}

// ExportUser renders one user's compliance summary
func (s *Service) ExportUser(ctx context.Context, userID string, format Format) (*Report, error) {
	summary, err := s.compliance.GetSummary(ctx, userID)
	if err != nil {
		return nil, err
	}

	subtitle := summary.User.Name
	if subtitle == "" {
		subtitle = summary.User.ID
	}
	report, err := Render(format, "Compliance Report", subtitle, []compliance.Summary{*summary}, summary.Stats)
	if err != nil {
		return nil, err
	}
	report.FileName = fmt.Sprintf("compliance_%s_%s.%s", sanitize(userID), s.now().Format("20060102"), format)

	s.logger.Info("Compliance report exported",
		zap.String("user_id", userID),
		zap.String("format", string(format)),
		zap.Int("bytes", len(report.Data)))

	return report, nil
}

// ExportRoster renders every user known to the backend into one report. Users whose
// profile cannot be loaded are skipped and counted in the returned report's log line.
func (s *Service) ExportRoster(ctx context.Context, format Format) (*Report, error) {
	ids, err := s.compliance.ListUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]*compliance.Summary, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for i, id := range ids {
		g.Go(func() error {
			summary, err := s.compliance.GetSummary(gctx, id)
			if err != nil {
				s.logger.Warn("Skipping user in roster report", zap.String("user_id", id), zap.Error(err))
				return nil
			}
			summaries[i] = summary
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var collected []compliance.Summary
	var stats compliance.SummaryStats
	for _, summary := range summaries {
		if summary == nil {
			continue
		}
		collected = append(collected, *summary)
		stats = mergeStats(stats, summary.Stats)
	}
	sort.Slice(collected, func(i, j int) bool { return collected[i].User.ID < collected[j].User.ID })

	subtitle := fmt.Sprintf("%d users", len(collected))
	report, err := Render(format, "Roster Compliance Report", subtitle, collected, stats)
	if err != nil {
		return nil, err
	}
	report.FileName = fmt.Sprintf("roster_%s.%s", s.now().Format("20060102_1504"), format)

	s.logger.Info("Roster report exported",
		zap.Int("users", len(collected)),
		zap.Int("skipped", len(ids)-len(collected)),
		zap.String("format", string(format)))

	return report, nil
}

// Render writes the requirements and doses tables in the requested format
func Render(format Format, title, subtitle string, summaries []compliance.Summary, stats compliance.SummaryStats) (*Report, error) {
	tables := []export.Table{RequirementsTable(summaries), DosesTable(summaries)}

	var data []byte
	var err error
	switch format {
	case FormatXLSX:
		data, err = renderExcel(tables)
	case FormatPDF:
		data, err = renderPDF(title, subtitle, stats, tables)
	case FormatCSV:
		data, err = renderCSV(tables)
	default:
		return nil, fmt.Errorf("%q: %w", format, compliance.ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s report: %w", format, err)
	}

	return &Report{ContentType: format.ContentType(), Data: data}, nil
}

func renderExcel(tables []export.Table) ([]byte, error) {
	e := export.NewExcelExporter(export.DefaultExcelOptions())
	defer e.Close()
	for _, t := range tables {
		if err := e.AddTable(t); err != nil {
			return nil, err
		}
	}
	return e.Bytes()
}

func renderPDF(title, subtitle string, stats compliance.SummaryStats, tables []export.Table) ([]byte, error) {
	options := export.DefaultPDFOptions()
	options.Title = title
	options.Subtitle = subtitle

	g := export.NewPDFGenerator(options)
	g.AddSummary("Summary", StatsItems(stats))
	for _, t := range tables {
		if err := g.AddTable(t); err != nil {
			return nil, err
		}
	}
	return g.Bytes()
}

func renderCSV(tables []export.Table) ([]byte, error) {
	e := export.NewCSVExporter(export.DefaultCSVOptions())
	for _, t := range tables {
		if err := e.AddTable(t); err != nil {
			return nil, err
		}
	}
	return e.Bytes()
}

func mergeStats(a, b compliance.SummaryStats) compliance.SummaryStats {
	out := compliance.SummaryStats{
		Requirements: a.Requirements + b.Requirements,
		Approved:     a.Approved + b.Approved,
		Pending:      a.Pending + b.Pending,
		Rejected:     a.Rejected + b.Rejected,
		Expired:      a.Expired + b.Expired,
		NotUploaded:  a.NotUploaded + b.NotUploaded,
	}
	out.CompliancePercent = compliance.CompliancePercent(out.Approved, out.Requirements)
	return out
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
