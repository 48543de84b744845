package reports

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"practicum-portal/portal-backend/internal/compliance"
)

type MockComplianceService struct {
	mock.Mock
}

func (m *MockComplianceService) GetSummary(ctx context.Context, userID string) (*compliance.Summary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*compliance.Summary), args.Error(1)
}

func (m *MockComplianceService) GetDoseGroup(ctx context.Context, userID, documentTypeID string) (*compliance.ConsolidatedDoseGroupStatus, error) {
	args := m.Called(ctx, userID, documentTypeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*compliance.ConsolidatedDoseGroupStatus), args.Error(1)
}

func (m *MockComplianceService) Resolve(bundle compliance.ProfileBundle) compliance.Summary {
	args := m.Called(bundle)
	return args.Get(0).(compliance.Summary)
}

func (m *MockComplianceService) ReviewDocument(ctx context.Context, req compliance.ReviewRequest) (*compliance.UploadedDoseRecord, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*compliance.UploadedDoseRecord), args.Error(1)
}

func (m *MockComplianceService) ListUserIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func sampleSummary(userID, name string) *compliance.Summary {
	bundle := compliance.ProfileBundle{
		User: compliance.UserProfile{ID: userID, Name: name},
		DocumentTypes: []compliance.DocumentTypeDefinition{
			{DocumentTypeID: "cv", Name: "Curriculum"},
			{DocumentTypeID: "hep-b", Name: "Hepatitis B", DoseCount: "3"},
		},
		Documents: []compliance.UploadedDoseRecord{
			{DocumentTypeID: "hep-b", DoseNumber: "1", State: "approved", FileReference: "h1.pdf", UploadedAt: "2024-01-10"},
			{DocumentTypeID: "hep-b", DoseNumber: "2", State: "pending", FileReference: "h2.pdf", UploadedAt: "2024-03-05"},
			{DocumentTypeID: "cv", State: "approved", FileReference: "cv.pdf"},
		},
	}
	summary := compliance.BuildSummary(bundle, nil)
	return &summary
}

func newTestService(cs compliance.Service) *Service {
	s := NewService(cs, zap.NewNop(), 2)
	s.now = func() time.Time { return time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC) }
	return s
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatXLSX, "XLSX": FormatXLSX, " pdf ": FormatPDF, "csv": FormatCSV} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("docx")
	assert.ErrorIs(t, err, compliance.ErrUnsupportedFormat)
}

func TestRequirementsAndDosesTables(t *testing.T) {
	summaries := []compliance.Summary{*sampleSummary("u-1", "Ana")}

	reqs := RequirementsTable(summaries)
	require.Len(t, reqs.Rows, 2)
	assert.Equal(t, "hep-b", reqs.Rows[0]["document_type_id"])
	assert.Equal(t, "pending", reqs.Rows[0]["status"])
	assert.Equal(t, "2/3", reqs.Rows[0]["progress"])
	assert.Equal(t, "cv", reqs.Rows[1]["document_type_id"])
	assert.Equal(t, "1/1", reqs.Rows[1]["progress"])

	doses := DosesTable(summaries)
	require.Len(t, doses.Rows, 3)
	assert.Equal(t, "1", doses.Rows[0]["dose"])
	assert.Equal(t, "h1.pdf", doses.Rows[0]["file"])
	assert.Equal(t, "not-uploaded", doses.Rows[2]["status"])
	assert.Nil(t, doses.Rows[2]["file"])
}

func TestExportUserCSV(t *testing.T) {
	cs := new(MockComplianceService)
	cs.On("GetSummary", mock.Anything, "u/1").Return(sampleSummary("u/1", "Ana"), nil)

	report, err := newTestService(cs).ExportUser(context.Background(), "u/1", FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "compliance_u_1_20240601.csv", report.FileName)
	assert.Equal(t, "text/csv", report.ContentType)
	assert.True(t, strings.HasPrefix(string(report.Data), "User ID,User,Document Type ID,Requirement"))
	assert.Contains(t, string(report.Data), "Hepatitis B,pending,2/3,2024-03-05")
}

func TestExportUserFormats(t *testing.T) {
	cs := new(MockComplianceService)
	cs.On("GetSummary", mock.Anything, "u-1").Return(sampleSummary("u-1", "Ana Pérez"), nil)
	service := newTestService(cs)

	pdf, err := service.ExportUser(context.Background(), "u-1", FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf.Data, []byte("%PDF")))

	xlsx, err := service.ExportUser(context.Background(), "u-1", FormatXLSX)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(xlsx.Data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Requirements", "Doses"}, f.GetSheetList())

	_, err = service.ExportUser(context.Background(), "u-1", Format("docx"))
	assert.ErrorIs(t, err, compliance.ErrUnsupportedFormat)
}

func TestExportUserNotFound(t *testing.T) {
	cs := new(MockComplianceService)
	cs.On("GetSummary", mock.Anything, "ghost").Return(nil, compliance.ErrNotFound)

	_, err := newTestService(cs).ExportUser(context.Background(), "ghost", FormatCSV)
	assert.ErrorIs(t, err, compliance.ErrNotFound)
}

func TestExportRosterSkipsFailures(t *testing.T) {
	cs := new(MockComplianceService)
	cs.On("ListUserIDs", mock.Anything).Return([]string{"u-2", "u-1", "u-3"}, nil)
	cs.On("GetSummary", mock.Anything, "u-1").Return(sampleSummary("u-1", "Ana"), nil)
	cs.On("GetSummary", mock.Anything, "u-2").Return(sampleSummary("u-2", "Luis"), nil)
	cs.On("GetSummary", mock.Anything, "u-3").Return(nil, errors.New("backend timeout"))

	report, err := newTestService(cs).ExportRoster(context.Background(), FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "roster_20240601_0930.csv", report.FileName)
	body := string(report.Data)
	assert.Less(t, strings.Index(body, "u-1,Ana"), strings.Index(body, "u-2,Luis"))
	assert.NotContains(t, body, "u-3")
	cs.AssertExpectations(t)
}

func TestExportRosterListError(t *testing.T) {
	cs := new(MockComplianceService)
	cs.On("ListUserIDs", mock.Anything).Return(nil, errors.New("unreachable"))

	_, err := newTestService(cs).ExportRoster(context.Background(), FormatCSV)
	assert.ErrorContains(t, err, "unreachable")
}

func TestMergeStats(t *testing.T) {
	merged := mergeStats(
		compliance.SummaryStats{Requirements: 2, Approved: 1, Pending: 1},
		compliance.SummaryStats{Requirements: 1, NotUploaded: 1},
	)
	assert.Equal(t, 3, merged.Requirements)
	assert.Equal(t, 33.3, merged.CompliancePercent)

	a := sampleSummary("u-1", "Ana").Stats
	b := sampleSummary("u-2", "Luis").Stats
	combined := mergeStats(mergeStats(compliance.SummaryStats{}, a), b)
	assert.Equal(t, compliance.CompliancePercent(a.Approved+b.Approved, a.Requirements+b.Requirements), combined.CompliancePercent)
	assert.Equal(t, a.CompliancePercent, combined.CompliancePercent)
}

func TestHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cs := new(MockComplianceService)
	cs.On("GetSummary", mock.Anything, "u-1").Return(sampleSummary("u-1", "Ana"), nil)
	cs.On("GetSummary", mock.Anything, "ghost").Return(nil, compliance.ErrNotFound)

	router := gin.New()
	NewHandler(newTestService(cs), zap.NewNop()).RegisterRoutes(router.Group("/api/v1"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/u-1/compliance/export?format=csv", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="compliance_u-1_20240601.csv"`, w.Header().Get("Content-Disposition"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/u-1/compliance/export?format=docx", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/ghost/compliance/export?format=pdf", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
