package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"practicum-portal/portal-backend/internal/reports"
	"practicum-portal/portal-backend/pkg/storage"
)

// RosterExporter renders the roster-wide compliance report
type RosterExporter interface {
	ExportRoster(ctx context.Context, format reports.Format) (*reports.Report, error)
}

// Snapshot records one stored roster report
type Snapshot struct {
	ID       uuid.UUID      `json:"id"`
	Key      string         `json:"key"`
	Location string         `json:"location"`
	Format   reports.Format `json:"format"`
	Size     int            `json:"size"`
	TakenAt  time.Time      `json:"taken_at"`
}

// SnapshotManagerConfig configuration for the snapshot manager
type SnapshotManagerConfig struct {
	CronExpression string         `json:"cron_expression"`
	Timezone       string         `json:"timezone"`
	Format         reports.Format `json:"format"`
	Timeout        time.Duration  `json:"timeout"`
}

// DefaultSnapshotManagerConfig returns default configuration
func DefaultSnapshotManagerConfig() SnapshotManagerConfig {
	return SnapshotManagerConfig{
		CronExpression: "0 2 * * *",
		Timezone:       "UTC",
		Format:         reports.FormatXLSX,
		Timeout:        30 * time.Minute,
	}
}

// SnapshotManager periodically exports the roster report to an object store
type SnapshotManager struct {
	cron     *cron.Cron
	entryID  cron.EntryID
	exporter RosterExporter
	store    storage.ObjectStore
	logger   *zap.Logger
	config   SnapshotManagerConfig
	now      func() time.Time

	mu      sync.RWMutex
	running bool
	last    *Snapshot
}

// NewSnapshotManager creates a snapshot manager. The cron expression and
// timezone are validated here so a bad configuration fails at startup.
func NewSnapshotManager(
	exporter RosterExporter,
	store storage.ObjectStore,
	logger *zap.Logger,
	config SnapshotManagerConfig,
) (*SnapshotManager, error) {
	if err := ValidateCronExpression(config.CronExpression); err != nil {
		return nil, fmt.Errorf("invalid snapshot schedule %q: %w", config.CronExpression, err)
	}
	loc := time.UTC
	if config.Timezone != "" {
		l, err := time.LoadLocation(config.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid snapshot timezone %q: %w", config.Timezone, err)
		}
		loc = l
	}
	if config.Format == "" {
		config.Format = reports.FormatXLSX
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Minute
	}

	m := &SnapshotManager{
		cron:     cron.New(cron.WithLocation(loc)),
		exporter: exporter,
		store:    store,
		logger:   logger,
		config:   config,
		now:      time.Now,
	}

	entryID, err := m.cron.AddFunc(config.CronExpression, func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.config.Timeout)
		defer cancel()
		if _, err := m.RunOnce(ctx); err != nil {
			m.logger.Error("Scheduled roster snapshot failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add cron job: %w", err)
	}
	m.entryID = entryID

	return m, nil
}

// Start starts the schedule
func (m *SnapshotManager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("snapshot manager already running")
	}
	m.running = true
	m.cron.Start()

	m.logger.Info("Started snapshot manager",
		zap.String("cron", m.config.CronExpression),
		zap.String("description", DescribeCronExpression(m.config.CronExpression)),
		zap.String("timezone", m.cron.Location().String()),
		zap.Time("next_run", m.cron.Entry(m.entryID).Next))
	return nil
}

// Stop stops the schedule and waits for a running snapshot to finish
func (m *SnapshotManager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	m.logger.Info("Stopping snapshot manager")
	<-m.cron.Stop().Done()
}

// RunOnce exports the roster and stores it immediately
func (m *SnapshotManager) RunOnce(ctx context.Context) (*Snapshot, error) {
	started := m.now()
	report, err := m.exporter.ExportRoster(ctx, m.config.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to export roster: %w", err)
	}

	id := uuid.New()
	key := fmt.Sprintf("%s/roster_%s.%s", started.UTC().Format("2006/01/02"), id, m.config.Format)
	location, err := m.store.Put(ctx, key, report.Data, report.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store snapshot %s: %w", key, err)
	}

	snapshot := &Snapshot{
		ID:       id,
		Key:      key,
		Location: location,
		Format:   m.config.Format,
		Size:     len(report.Data),
		TakenAt:  started,
	}

	m.mu.Lock()
	m.last = snapshot
	m.mu.Unlock()

	m.logger.Info("Roster snapshot stored",
		zap.String("snapshot_id", id.String()),
		zap.String("location", location),
		zap.Int("bytes", snapshot.Size),
		zap.Duration("took", m.now().Sub(started)))

	return snapshot, nil
}

// LastSnapshot returns the most recent successful snapshot, if any
func (m *SnapshotManager) LastSnapshot() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return nil
	}
	s := *m.last
	return &s
}

// NextRun returns the next scheduled execution, zero until started
func (m *SnapshotManager) NextRun() time.Time {
	return m.cron.Entry(m.entryID).Next
}

// ValidateCronExpression validates a cron expression
func ValidateCronExpression(expr string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	_, err := parser.Parse(expr)
	return err
}

// DescribeCronExpression returns a human-readable description of a cron expression
func DescribeCronExpression(expr string) string {
	switch expr {
	case "0 * * * *", "@hourly":
		return "Every hour"
	case "0 0 * * *", "@daily", "@midnight":
		return "Every day at midnight"
	case "0 2 * * *":
		return "Every day at 2:00 AM"
	case "0 0 * * 0", "@weekly":
		return "Every Sunday at midnight"
	case "0 0 1 * *", "@monthly":
		return "First day of every month at midnight"
	case "0 9 * * 1-5":
		return "Every weekday at 9:00 AM"
	default:
		return expr
	}
}
