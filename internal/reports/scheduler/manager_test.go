package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"practicum-portal/portal-backend/internal/reports"
)

type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) ExportRoster(ctx context.Context, format reports.Format) (*reports.Report, error) {
	args := m.Called(ctx, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reports.Report), args.Error(1)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

func newManager(t *testing.T, exporter *MockExporter, store *MockStore) *SnapshotManager {
	t.Helper()
	config := DefaultSnapshotManagerConfig()
	config.Format = reports.FormatCSV
	m, err := NewSnapshotManager(exporter, store, zap.NewNop(), config)
	require.NoError(t, err)
	m.now = func() time.Time { return time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC) }
	return m
}

func TestRunOnceStoresRoster(t *testing.T) {
	exporter := new(MockExporter)
	store := new(MockStore)
	m := newManager(t, exporter, store)

	report := &reports.Report{ContentType: "text/csv", Data: []byte("a,b\n")}
	exporter.On("ExportRoster", mock.Anything, reports.FormatCSV).Return(report, nil)
	store.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "2024/06/01/roster_") && strings.HasSuffix(key, ".csv")
	}), report.Data, "text/csv").Return("snapshots/roster.csv", nil)

	assert.Nil(t, m.LastSnapshot())

	snapshot, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "snapshots/roster.csv", snapshot.Location)
	assert.Equal(t, 4, snapshot.Size)
	assert.Equal(t, reports.FormatCSV, snapshot.Format)

	last := m.LastSnapshot()
	require.NotNil(t, last)
	assert.Equal(t, snapshot.ID, last.ID)

	exporter.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestRunOnceExportError(t *testing.T) {
	exporter := new(MockExporter)
	store := new(MockStore)
	m := newManager(t, exporter, store)

	exporter.On("ExportRoster", mock.Anything, reports.FormatCSV).Return(nil, errors.New("backend down"))

	_, err := m.RunOnce(context.Background())
	assert.ErrorContains(t, err, "backend down")
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Nil(t, m.LastSnapshot())
}

func TestRunOnceStoreError(t *testing.T) {
	exporter := new(MockExporter)
	store := new(MockStore)
	m := newManager(t, exporter, store)

	exporter.On("ExportRoster", mock.Anything, reports.FormatCSV).
		Return(&reports.Report{ContentType: "text/csv", Data: []byte("x")}, nil)
	store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("disk full"))

	_, err := m.RunOnce(context.Background())
	assert.ErrorContains(t, err, "disk full")
	assert.Nil(t, m.LastSnapshot())
}

func TestNewSnapshotManagerValidation(t *testing.T) {
	config := DefaultSnapshotManagerConfig()
	config.CronExpression = "not a cron"
	_, err := NewSnapshotManager(new(MockExporter), new(MockStore), zap.NewNop(), config)
	assert.Error(t, err)

	config = DefaultSnapshotManagerConfig()
	config.Timezone = "Mars/Olympus"
	_, err = NewSnapshotManager(new(MockExporter), new(MockStore), zap.NewNop(), config)
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	m := newManager(t, new(MockExporter), new(MockStore))
	assert.True(t, m.NextRun().IsZero())

	require.NoError(t, m.Start())
	assert.Error(t, m.Start())
	assert.False(t, m.NextRun().IsZero())

	m.Stop()
	m.Stop()
}

func TestValidateCronExpression(t *testing.T) {
	assert.NoError(t, ValidateCronExpression("0 2 * * *"))
	assert.NoError(t, ValidateCronExpression("@daily"))
	assert.Error(t, ValidateCronExpression("* * *"))
	assert.Equal(t, "Every day at 2:00 AM", DescribeCronExpression("0 2 * * *"))
	assert.Equal(t, "*/5 * * * *", DescribeCronExpression("*/5 * * * *"))
}
