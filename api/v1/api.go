package v1

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"practicum-portal/portal-backend/internal/backend"
	"practicum-portal/portal-backend/internal/compliance"
	"practicum-portal/portal-backend/internal/config"
	"practicum-portal/portal-backend/internal/reports"
	"practicum-portal/portal-backend/internal/reports/scheduler"
	"practicum-portal/portal-backend/pkg/storage"
	"practicum-portal/portal-backend/pkg/workflows"
)

// API holds the portal API dependencies
type API struct {
	Compliance        compliance.Service
	ComplianceHandler *compliance.Handler
	Reports           *reports.Service
	ReportsHandler    *reports.Handler
	Store             storage.ObjectStore
}

// SetupAPI wires the services against the configured backend
func SetupAPI(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*API, error) {
	source := backend.NewClient(cfg.Backend, logger.Named("backend"))
	return SetupAPIWithSource(ctx, cfg, source, logger)
}

// SetupAPIWithSource wires the services against an arbitrary profile source
func SetupAPIWithSource(ctx context.Context, cfg *config.Config, source compliance.ProfileSource, logger *zap.Logger) (*API, error) {
	store, err := NewObjectStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	complianceService := compliance.NewService(source, workflows.NewStateMachine(), logger.Named("compliance"))
	reportsService := reports.NewService(complianceService, logger.Named("reports"), cfg.Reports.MaxConcurrent)

	return &API{
		Compliance:        complianceService,
		ComplianceHandler: compliance.NewHandler(complianceService, logger),
		Reports:           reportsService,
		ReportsHandler:    reports.NewHandler(reportsService, logger),
		Store:             store,
	}, nil
}

// RegisterRoutes registers every v1 route on the router group
func (a *API) RegisterRoutes(rg *gin.RouterGroup) {
	a.ComplianceHandler.RegisterRoutes(rg)
	a.ReportsHandler.RegisterRoutes(rg)
}

// NewSnapshotManager builds the roster snapshot schedule from the reports configuration
func (a *API) NewSnapshotManager(cfg config.ReportsConfig, logger *zap.Logger) (*scheduler.SnapshotManager, error) {
	format, err := reports.ParseFormat(cfg.SnapshotFormat)
	if err != nil {
		return nil, err
	}
	sc := scheduler.DefaultSnapshotManagerConfig()
	if cfg.SnapshotCron != "" {
		sc.CronExpression = cfg.SnapshotCron
	}
	sc.Timezone = cfg.SnapshotTimezone
	sc.Format = format
	return scheduler.NewSnapshotManager(a.Reports, a.Store, logger.Named("snapshots"), sc)
}

// NewObjectStore selects the snapshot destination
func NewObjectStore(ctx context.Context, cfg config.StorageConfig) (storage.ObjectStore, error) {
	switch cfg.Driver {
	case "", "local":
		return storage.NewLocalStore(cfg.LocalDir), nil
	case "s3":
		store, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			Prefix:    cfg.S3Prefix,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
