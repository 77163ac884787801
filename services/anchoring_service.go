package services

import (
	"context"
	"math"
	"time"

	"blue-carbon-api/models"
)

// AnchoringService drives the two external effects on approval milestones:
// best-effort content pinning and mandatory, idempotent ledger anchoring.
type AnchoringService struct {
	pinner  PinningClient
	ledger  LedgerClient
	network string
}

// NewAnchoringService constructs an AnchoringService.
func NewAnchoringService(pinner PinningClient, ledger LedgerClient, network string) *AnchoringService {
	if network == "" {
		network = defaultLedgerNetwork
	}
	return &AnchoringService{pinner: pinner, ledger: ledger, network: network}
}

// anchorSummary is the lean canonical document pinned on company approval.
// It carries key fields and the file manifest, never raw file bytes.
type anchorSummary struct {
	SubmissionID  string                         `json:"submission_id"`
	EcosystemType string                         `json:"ecosystem_type"`
	CarbonCredits float64                        `json:"carbon_credits"`
	Breakdown     *models.CreditBreakdown        `json:"credit_breakdown,omitempty"`
	Latitude      float64                        `json:"latitude"`
	Longitude     float64                        `json:"longitude"`
	AreaName      string                         `json:"area_name"`
	AreaSizeHa    float64                        `json:"area_size_ha"`
	CompanyID     uint                           `json:"company_id"`
	WorkerID      uint                           `json:"worker_id"`
	Plantation    *models.PlantationMeasurements `json:"plantation,omitempty"`
	Seagrass      *models.SeagrassMeasurements   `json:"seagrass,omitempty"`
	Files         []models.ManifestFile          `json:"files,omitempty"`
	SubmittedAt   time.Time                      `json:"submitted_at"`
}

func buildAnchorSummary(sub *models.Submission) anchorSummary {
	return anchorSummary{
		SubmissionID:  sub.SubmissionID,
		EcosystemType: sub.EcosystemType,
		CarbonCredits: sub.CarbonCredits,
		Breakdown:     sub.CreditBreakdown,
		Latitude:      sub.Latitude,
		Longitude:     sub.Longitude,
		AreaName:      sub.AreaName,
		AreaSizeHa:    sub.AreaSizeHa,
		CompanyID:     sub.CompanyID,
		WorkerID:      sub.WorkerID,
		Plantation:    sub.Plantation,
		Seagrass:      sub.Seagrass,
		Files:         sub.Files,
		SubmittedAt:   sub.SubmittedAt,
	}
}

// PinSummary pins the canonical summary and returns the content hash.
// Callers on the company-approval path treat failure as a warning only.
func (s *AnchoringService) PinSummary(ctx context.Context, sub *models.Submission) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, pinRequestTimeout)
	defer cancel()
	return s.pinner.Pin(ctx, sub.SubmissionID, buildAnchorSummary(sub))
}

// ScaledCreditAmount converts the credit total to the integer unit the
// contract stores (hundredths of a credit).
func ScaledCreditAmount(credits float64) uint64 {
	if credits <= 0 {
		return 0
	}
	return uint64(math.Round(credits * 100))
}

// AnchorCredits issues the ledger record for an approved submission. It is
// idempotent: an already-stored anchor short-circuits, and a pre-existing
// ledger record is adopted rather than re-issued. Every failure surfaces as
// retryable; nothing is swallowed.
func (s *AnchoringService) AnchorCredits(ctx context.Context, sub *models.Submission) (*models.AnchorRecord, error) {
	if sub.Anchor != nil && sub.Anchor.Stored {
		return sub.Anchor, nil
	}

	ctx, cancel := context.WithTimeout(ctx, ledgerRequestTimeout)
	defer cancel()

	contentHash := ""
	if sub.Anchor != nil {
		contentHash = sub.Anchor.ContentHash
	}
	if contentHash == "" {
		// The best-effort pin on company approval did not stick; the
		// ledger write requires a hash, so pin now and fail if it
		// still cannot be produced.
		hash, err := s.PinSummary(ctx, sub)
		if err != nil {
			return nil, NewRetryableExternalError("pinning service", err)
		}
		contentHash = hash
	}

	now := time.Now().UTC()

	exists, err := s.ledger.Exists(ctx, sub.SubmissionID)
	if err != nil {
		return nil, NewRetryableExternalError("ledger gateway", err)
	}
	if exists {
		// A previous call issued the credit but the confirmation was
		// lost. Adopt the existing record instead of double issuing.
		record, err := s.ledger.GetCredit(ctx, sub.SubmissionID)
		if err != nil {
			return nil, NewRetryableExternalError("ledger gateway", err)
		}
		network := record.Network
		if network == "" {
			network = s.network
		}
		return &models.AnchorRecord{
			ContentHash: contentHash,
			TxHash:      record.TxHash,
			BlockNumber: record.BlockNumber,
			Network:     network,
			Stored:      true,
			StoredAt:    &now,
		}, nil
	}

	receipt, err := s.ledger.IssueCredit(ctx, sub.SubmissionID, ScaledCreditAmount(sub.CarbonCredits), contentHash)
	if err != nil {
		return nil, NewRetryableExternalError("ledger gateway", err)
	}

	network := receipt.Network
	if network == "" {
		network = s.network
	}
	return &models.AnchorRecord{
		ContentHash: contentHash,
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber,
		CostWei:     receipt.CostWei,
		Network:     network,
		Stored:      true,
		StoredAt:    &now,
	}, nil
}
