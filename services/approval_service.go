package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"blue-carbon-api/config"
	"blue-carbon-api/models"

	"gorm.io/gorm"
)

// ApprovalService is the only mutator of submissions after creation. Every
// operation verifies the source status, applies the mutation, appends the
// audit entry, and persists the transition as one compare-and-swap write on
// the submission row.
type ApprovalService struct {
	db        *gorm.DB
	anchoring *AnchoringService
	notifier  *NotificationService
}

// NewApprovalService constructs an ApprovalService.
func NewApprovalService(db *gorm.DB, anchoring *AnchoringService, notifier *NotificationService) *ApprovalService {
	if db == nil {
		db = config.DB
	}
	return &ApprovalService{db: db, anchoring: anchoring, notifier: notifier}
}

func (s *ApprovalService) load(ctx context.Context, submissionID string) (*models.Submission, error) {
	var sub models.Submission
	err := s.db.WithContext(ctx).Where("submission_id = ?", submissionID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewNotFoundError("submission")
	}
	if err != nil {
		return nil, NewInternalError(err)
	}
	return &sub, nil
}

// requireTransition rejects illegal or terminal-state moves before any
// mutation happens.
func requireTransition(sub *models.Submission, to string) error {
	if !models.CanTransition(sub.Status, to) {
		return NewInvalidTransitionError(sub.Status, to)
	}
	return nil
}

// persistTransition writes the selected fields guarded by a status CAS: the
// update only lands if the status is still what we read. A lost race
// surfaces as a conflict, never a double-applied transition.
func (s *ApprovalService) persistTransition(ctx context.Context, sub *models.Submission, fromStatus string, fields ...string) error {
	sub.UpdatedAt = time.Now().UTC()
	fields = append(fields, "status", "audit_trail", "updated_at")

	res := s.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("submission_id = ? AND status = ?", sub.SubmissionID, fromStatus).
		Select(fields).
		Updates(sub)
	if res.Error != nil {
		if isDuplicateKeyError(res.Error) {
			return NewConflictError("area claim collides with another active submission")
		}
		return NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return NewConflictError("submission was modified concurrently, reload and retry")
	}
	return nil
}

// CompanyApprove endorses a pending submission. The canonical summary pin
// is best-effort: a failure becomes a warning on the response, never a
// blocked transition.
func (s *ApprovalService) CompanyApprove(ctx context.Context, submissionID string, companyID uint, comments string) (*models.Submission, error) {
	sub, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.CompanyID != companyID {
		return nil, NewUnauthorizedError("submission belongs to a different company")
	}
	if err := requireTransition(sub, models.StatusCompanyApproved); err != nil {
		return nil, err
	}

	prev := sub.Status
	sub.Status = models.StatusCompanyApproved
	sub.CompanyApproval = &models.CompanyApproval{
		ApprovedBy: companyID,
		ApprovedAt: time.Now().UTC(),
		Comments:   comments,
		Approved:   true,
	}
	sub.AppendAudit(models.AuditCompanyApproved, companyID, models.RoleCompany, comments, prev)

	if hash, pinErr := s.anchoring.PinSummary(ctx, sub); pinErr != nil {
		log.Printf("Warning: failed to pin summary for submission %s: %v", sub.SubmissionID, pinErr)
		sub.AddWarning("content pinning failed; summary will be pinned before ledger anchoring")
	} else {
		sub.Anchor = &models.AnchorRecord{ContentHash: hash, Network: s.anchoring.network}
	}

	if err := s.persistTransition(ctx, sub, prev, "company_approval", "anchor_record", "warnings"); err != nil {
		return nil, err
	}

	s.notifier.NotifyStatusChange(sub, sub.WorkerID, models.RoleWorker, "",
		"Your submission was approved by your company and queued for government review.")
	return sub, nil
}

// CompanyReject rejects a pending submission with a mandatory reason. The
// area claim is released.
func (s *ApprovalService) CompanyReject(ctx context.Context, submissionID string, companyID uint, reason string) (*models.Submission, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, NewValidationError("rejection reason is required")
	}
	sub, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.CompanyID != companyID {
		return nil, NewUnauthorizedError("submission belongs to a different company")
	}
	if sub.Status != models.StatusPending {
		return nil, NewInvalidTransitionError(sub.Status, models.StatusRejected)
	}

	prev := sub.Status
	sub.Status = models.StatusRejected
	sub.ExclusionKey = nil
	sub.AppendAudit(models.AuditCompanyRejected, companyID, models.RoleCompany, reason, prev)

	if err := s.persistTransition(ctx, sub, prev, "exclusion_key"); err != nil {
		return nil, err
	}

	s.notifier.NotifyStatusChange(sub, sub.WorkerID, models.RoleWorker, "",
		fmt.Sprintf("Your submission was rejected by your company: %s", reason))
	return sub, nil
}

// StartReview moves an endorsed submission into active government review.
func (s *ApprovalService) StartReview(ctx context.Context, submissionID string, reviewerID uint) (*models.Submission, error) {
	sub, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.StatusCompanyApproved {
		return nil, NewInvalidTransitionError(sub.Status, models.StatusUnderReview)
	}

	prev := sub.Status
	sub.Status = models.StatusUnderReview
	sub.AppendAudit(models.AuditSentForGovReview, reviewerID, models.RoleGovernment, "", prev)

	if err := s.persistTransition(ctx, sub, prev); err != nil {
		return nil, err
	}
	return sub, nil
}

// GovernmentApprove anchors the credits on the ledger and, only once the
// anchor is confirmed, finalizes the submission. Anchoring failures leave
// the status untouched and are safe to retry: the ledger existence check
// prevents double issuance.
func (s *ApprovalService) GovernmentApprove(ctx context.Context, submissionID string, reviewerID uint, comments string) (*models.Submission, error) {
	sub, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.StatusCompanyApproved && sub.Status != models.StatusUnderReview {
		return nil, NewInvalidTransitionError(sub.Status, models.StatusApproved)
	}

	anchor, err := s.anchoring.AnchorCredits(ctx, sub)
	if err != nil {
		return nil, err
	}

	prev := sub.Status
	now := time.Now().UTC()
	sub.Status = models.StatusApproved
	sub.Anchor = anchor
	sub.GovernmentReview = &models.GovernmentReview{
		ReviewedBy: reviewerID,
		ReviewDate: now,
		Comments:   comments,
		Approved:   true,
	}
	sub.AppendAudit(models.AuditGovernmentApproved, reviewerID, models.RoleGovernment, comments, prev)
	sub.AppendAudit(models.AuditStoredOnChain, reviewerID, models.RoleSystem,
		fmt.Sprintf("anchored as tx %s on %s", anchor.TxHash, anchor.Network), models.StatusApproved)

	if err := s.persistTransition(ctx, sub, prev, "government_review", "anchor_record"); err != nil {
		return nil, err
	}

	id := sub.SubmissionID
	s.notifier.Notify(sub.WorkerID, models.RoleWorker, "Carbon credits issued",
		fmt.Sprintf("Submission %s was approved; %.2f credits were anchored on %s.", sub.SubmissionID, sub.CarbonCredits, anchor.Network),
		"success", &id, "")
	s.notifier.Notify(sub.CompanyID, models.RoleCompany, "Carbon credits issued",
		fmt.Sprintf("Submission %s was approved by the government reviewer.", sub.SubmissionID),
		"success", &id, "")
	return sub, nil
}

// GovernmentReject rejects a submission at any pre-terminal review stage.
// The reason is mandatory and the area claim is released.
func (s *ApprovalService) GovernmentReject(ctx context.Context, submissionID string, reviewerID uint, reason string) (*models.Submission, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, NewValidationError("rejection reason is required")
	}
	sub, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	switch sub.Status {
	case models.StatusPending, models.StatusCompanyApproved, models.StatusUnderReview:
	default:
		return nil, NewInvalidTransitionError(sub.Status, models.StatusRejected)
	}

	prev := sub.Status
	sub.Status = models.StatusRejected
	sub.ExclusionKey = nil
	sub.GovernmentReview = &models.GovernmentReview{
		ReviewedBy:      reviewerID,
		ReviewDate:      time.Now().UTC(),
		RejectionReason: reason,
		Approved:        false,
	}
	sub.AppendAudit(models.AuditGovernmentRejected, reviewerID, models.RoleGovernment, reason, prev)

	if err := s.persistTransition(ctx, sub, prev, "government_review", "exclusion_key"); err != nil {
		return nil, err
	}

	s.notifier.NotifyStatusChange(sub, sub.WorkerID, models.RoleWorker, "",
		fmt.Sprintf("Your submission was rejected by the government reviewer: %s", reason))
	return sub, nil
}

// RequestRevision sends a submission under review back to the worker. The
// area claim is parked until the worker resubmits.
func (s *ApprovalService) RequestRevision(ctx context.Context, submissionID string, reviewerID uint, comments string) (*models.Submission, error) {
	sub, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.StatusUnderReview {
		return nil, NewInvalidTransitionError(sub.Status, models.StatusRevisionRequested)
	}

	prev := sub.Status
	sub.Status = models.StatusRevisionRequested
	sub.ExclusionKey = nil
	sub.AppendAudit(models.AuditRevisionRequested, reviewerID, models.RoleGovernment, comments, prev)

	if err := s.persistTransition(ctx, sub, prev, "exclusion_key"); err != nil {
		return nil, err
	}

	s.notifier.NotifyStatusChange(sub, sub.WorkerID, models.RoleWorker, "",
		fmt.Sprintf("The reviewer requested changes: %s", comments))
	return sub, nil
}

// Resubmit loops a revision-requested submission back to pending and
// restores its area claim. If another submission took the cell in the
// meantime, the unique-key backstop reports the conflict.
func (s *ApprovalService) Resubmit(ctx context.Context, submissionID string, workerID uint) (*models.Submission, error) {
	sub, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.WorkerID != workerID {
		return nil, NewUnauthorizedError("submission belongs to a different worker")
	}
	if sub.Status != models.StatusRevisionRequested {
		return nil, NewInvalidTransitionError(sub.Status, models.StatusPending)
	}

	prev := sub.Status
	sub.Status = models.StatusPending
	key := ExclusionKey(sub.Latitude, sub.Longitude, sub.EcosystemType, sub.OccupiedUntil)
	sub.ExclusionKey = &key
	sub.AppendAudit(models.AuditResubmitted, workerID, models.RoleWorker, "", prev)

	if err := s.persistTransition(ctx, sub, prev, "exclusion_key"); err != nil {
		return nil, err
	}
	return sub, nil
}
