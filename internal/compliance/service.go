package compliance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"practicum-portal/portal-backend/pkg/workflows"
)

// ProfileSource is the external REST backend as seen by this service.
type ProfileSource interface {
	GetProfile(ctx context.Context, userID string) (*ProfileBundle, error)
	SubmitReview(ctx context.Context, update ReviewUpdate) error
	ListUserIDs(ctx context.Context) ([]string, error)
}

type Service interface {
	GetSummary(ctx context.Context, userID string) (*Summary, error)
	GetDoseGroup(ctx context.Context, userID, documentTypeID string) (*ConsolidatedDoseGroupStatus, error)
	Resolve(bundle ProfileBundle) Summary
	ReviewDocument(ctx context.Context, req ReviewRequest) (*UploadedDoseRecord, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}

// ReviewRequest is a reviewer decision on one uploaded record.
type ReviewRequest struct {
	UserID         string
	DocumentTypeID string
	DoseNumber     FlexNumber
	Action         string
	Comments       string
	ReviewerID     string
}

// ReviewUpdate is what gets forwarded to the backend once a review is validated.
type ReviewUpdate struct {
	DocumentID     string     `json:"documentId,omitempty"`
	UserID         string     `json:"userId"`
	DocumentTypeID string     `json:"documentTypeId"`
	DoseNumber     FlexNumber `json:"doseNumber,omitempty"`
	State          Status     `json:"state"`
	Comments       string     `json:"comments,omitempty"`
	ReviewerID     string     `json:"reviewerId,omitempty"`
	ReviewedAt     time.Time  `json:"reviewedAt"`
}

type complianceService struct {
	source   ProfileSource
	workflow *workflows.StateMachine
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(source ProfileSource, workflow *workflows.StateMachine, logger *zap.Logger) Service {
	return &complianceService{
		source:   source,
		workflow: workflow,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *complianceService) normalizer() StatusNormalizer {
	return NewStatusNormalizer(s.now)
}

func (s *complianceService) GetSummary(ctx context.Context, userID string) (*Summary, error) {
	bundle, err := s.source.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", userID, err)
	}
	if bundle == nil {
		return nil, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}

	summary := BuildSummary(*bundle, s.normalizer())
	if summary.User.ID == "" {
		summary.User.ID = userID
	}

	s.logger.Debug("Compliance summary built",
		zap.String("user_id", userID),
		zap.Int("requirements", summary.Stats.Requirements),
		zap.Float64("compliance_percent", summary.Stats.CompliancePercent))

	return &summary, nil
}

func (s *complianceService) GetDoseGroup(ctx context.Context, userID, documentTypeID string) (*ConsolidatedDoseGroupStatus, error) {
	summary, err := s.GetSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	group, ok := summary.Group(documentTypeID)
	if !ok {
		return nil, fmt.Errorf("dose group %s: %w", documentTypeID, ErrNotFound)
	}
	return &group, nil
}

func (s *complianceService) Resolve(bundle ProfileBundle) Summary {
	return BuildSummary(bundle, s.normalizer())
}

func (s *complianceService) ListUserIDs(ctx context.Context) ([]string, error) {
	ids, err := s.source.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return ids, nil
}

func (s *complianceService) ReviewDocument(ctx context.Context, req ReviewRequest) (*UploadedDoseRecord, error) {
	target, ok := s.workflow.TargetFor(req.Action)
	if !ok {
		return nil, fmt.Errorf("%q: %w", req.Action, ErrInvalidAction)
	}
	if Status(target) == StatusRejected && strings.TrimSpace(req.Comments) == "" {
		return nil, ErrCommentRequired
	}

	bundle, err := s.source.GetProfile(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", req.UserID, err)
	}
	if bundle == nil {
		return nil, fmt.Errorf("profile %s: %w", req.UserID, ErrNotFound)
	}

	def, ok := findDefinition(bundle.Catalog(), req.DocumentTypeID)
	if !ok {
		return nil, fmt.Errorf("document type %s: %w", req.DocumentTypeID, ErrRecordNotFound)
	}
	if def.DeclaredDoseCount() > 1 && strings.TrimSpace(req.DoseNumber.String()) == "" {
		return nil, fmt.Errorf("document type %s has several doses, a dose number is required: %w", req.DocumentTypeID, ErrInvalidAction)
	}
	record, ok := findRecord(bundle.Documents, req.DocumentTypeID, req.DoseNumber)
	if !ok {
		return nil, fmt.Errorf("document type %s dose %q: %w", req.DocumentTypeID, req.DoseNumber, ErrRecordNotFound)
	}

	current := s.normalizer()(&record, def)
	if !s.workflow.CanTransition(string(current), target) {
		return nil, fmt.Errorf("%s -> %s (allowed: %s): %w", current, target, allowedList(s.workflow.GetAllowedTransitions(string(current))), ErrTransitionNotAllowed)
	}

	reviewedAt := s.now().UTC()
	update := ReviewUpdate{
		DocumentID:     record.DocumentID,
		UserID:         req.UserID,
		DocumentTypeID: req.DocumentTypeID,
		DoseNumber:     record.DoseNumber,
		State:          Status(target),
		Comments:       req.Comments,
		ReviewerID:     req.ReviewerID,
		ReviewedAt:     reviewedAt,
	}
	if err := s.source.SubmitReview(ctx, update); err != nil {
		return nil, fmt.Errorf("failed to submit review: %w", err)
	}

	s.logger.Info("Document reviewed",
		zap.String("user_id", req.UserID),
		zap.String("document_type_id", req.DocumentTypeID),
		zap.String("dose", record.DoseNumber.String()),
		zap.String("from", string(current)),
		zap.String("to", target),
		zap.String("reviewer_id", req.ReviewerID))

	record.State = target
	record.Comments = req.Comments
	record.ReviewedAt = reviewedAt.Format(time.RFC3339)
	return &record, nil
}

func allowedList(statuses []string) string {
	if len(statuses) == 0 {
		return "none"
	}
	return strings.Join(statuses, ", ")
}

func findDefinition(defs []DocumentTypeDefinition, documentTypeID string) (DocumentTypeDefinition, bool) {
	for _, def := range defs {
		if def.DocumentTypeID == documentTypeID {
			return def, true
		}
	}
	return DocumentTypeDefinition{}, false
}

// findRecord matches on dose number when one is given: numerically when both sides
// coerce, otherwise by case-insensitive label.
func findRecord(records []UploadedDoseRecord, documentTypeID string, dose FlexNumber) (UploadedDoseRecord, bool) {
	for _, r := range records {
		if r.DocumentTypeID != documentTypeID {
			continue
		}
		if dose == "" || sameDose(r.DoseNumber, dose) {
			return r, true
		}
	}
	return UploadedDoseRecord{}, false
}

func sameDose(a, b FlexNumber) bool {
	av, aok := a.Int()
	bv, bok := b.Int()
	if aok && bok {
		return av == bv
	}
	return strings.EqualFold(strings.TrimSpace(a.String()), strings.TrimSpace(b.String()))
}

var _ Service = (*complianceService)(nil)
