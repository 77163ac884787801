package models

import "time"

// Ecosystem classifications accepted for a submission.
const (
	EcosystemMangrove = "Mangrove"
	EcosystemForest   = "Forest"
	EcosystemCoastal  = "Coastal"
	EcosystemSeagrass = "Seagrass"
	EcosystemOther    = "Other"
)

// Submission statuses.
const (
	StatusPending           = "pending"
	StatusCompanyApproved   = "company_approved"
	StatusUnderReview       = "under_review"
	StatusApproved          = "approved"
	StatusRejected          = "rejected"
	StatusRevisionRequested = "revision_requested"
)

// Audit trail actions.
const (
	AuditCreated            = "created"
	AuditCompanyApproved    = "company_approved"
	AuditCompanyRejected    = "company_rejected"
	AuditSentForGovReview   = "sent_for_government_review"
	AuditGovernmentApproved = "government_approved"
	AuditGovernmentRejected = "government_rejected"
	AuditRevisionRequested  = "revision_requested"
	AuditResubmitted        = "resubmitted"
	AuditStoredOnChain      = "stored_on_blockchain"
	AuditCreditsIssued      = "credits_issued"
)

// Actor roles recorded on audit entries and resolved from JWT claims.
const (
	RoleWorker     = "worker"
	RoleCompany    = "company"
	RoleGovernment = "government"
	RoleSystem     = "system"
)

// PlantationMeasurements holds field data for mangrove and forest surveys.
// Density is the mean of the side-on image measurements, height comes from
// the single top-down measurement in feet.
type PlantationMeasurements struct {
	IndividualDensities []float64 `json:"individual_densities"`
	MeanDensity         float64   `json:"mean_density"`
	HeightFt            float64   `json:"height_ft"`
	DetectedCount       int       `json:"detected_count"`
	RequiresReview      bool      `json:"requires_review"`
}

// SeagrassMeasurements holds research data for seagrass meadow surveys.
type SeagrassMeasurements struct {
	Species          string  `json:"species"`
	HeightCm         float64 `json:"height_cm"`
	OrganicCarbonPct float64 `json:"organic_carbon_pct"`
	MeadowAreaHa     float64 `json:"meadow_area_ha"`
	DensityShootsM2  float64 `json:"density_shoots_m2"`
}

// CreditBreakdown keeps the per-component seagrass totals for audit.
type CreditBreakdown struct {
	FromBiomass         float64 `json:"from_biomass"`
	FromSediment        float64 `json:"from_sediment"`
	AnnualSequestration float64 `json:"annual_sequestration"`
}

// CompanyApproval is the company endorsement sub-record.
type CompanyApproval struct {
	ApprovedBy uint      `json:"approved_by"`
	ApprovedAt time.Time `json:"approved_at"`
	Comments   string    `json:"comments"`
	Approved   bool      `json:"approved"`
}

// GovernmentReview is the government decision sub-record.
type GovernmentReview struct {
	ReviewedBy      uint      `json:"reviewed_by"`
	ReviewDate      time.Time `json:"review_date"`
	Comments        string    `json:"comments"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	Approved        bool      `json:"approved"`
}

// AnchorRecord tracks the external pinning and ledger state. Stored becomes
// true at most once per submission.
type AnchorRecord struct {
	ContentHash string     `json:"content_hash,omitempty"`
	TxHash      string     `json:"tx_hash,omitempty"`
	BlockNumber uint64     `json:"block_number,omitempty"`
	CostWei     string     `json:"cost_wei,omitempty"`
	Network     string     `json:"network,omitempty"`
	Stored      bool       `json:"stored"`
	StoredAt    *time.Time `json:"stored_at,omitempty"`
}

// ManifestFile describes one uploaded survey artifact. Only metadata is
// carried here, never file bytes.
type ManifestFile struct {
	FileID       string    `json:"file_id"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// AuditEntry is one append-only history record on a submission.
type AuditEntry struct {
	Action         string    `json:"action"`
	PerformedBy    uint      `json:"performed_by"`
	PerformerRole  string    `json:"performer_role"`
	Timestamp      time.Time `json:"timestamp"`
	Comments       string    `json:"comments,omitempty"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
}

// AuditTrail is the ordered list of entries embedded on the submission row.
type AuditTrail []AuditEntry

// Submission represents the submissions table. Sub-records and the audit
// trail are serialized onto the same row so every transition persists as a
// single atomic write.
type Submission struct {
	ID           uint   `gorm:"primaryKey;column:id" json:"-"`
	SubmissionID string `gorm:"column:submission_id;uniqueIndex" json:"submission_id"`
	WorkerID     uint   `gorm:"column:worker_id;index" json:"worker_id"`
	CompanyID    uint   `gorm:"column:company_id;index" json:"company_id"`

	EcosystemType string                  `gorm:"column:ecosystem_type;index" json:"ecosystem_type"`
	Plantation    *PlantationMeasurements `gorm:"column:plantation_data;serializer:json" json:"plantation,omitempty"`
	Seagrass      *SeagrassMeasurements   `gorm:"column:seagrass_data;serializer:json" json:"seagrass,omitempty"`

	CarbonCredits   float64          `gorm:"column:carbon_credits" json:"carbon_credits"`
	CreditBreakdown *CreditBreakdown `gorm:"column:credit_breakdown;serializer:json" json:"credit_breakdown,omitempty"`

	Latitude   float64 `gorm:"column:latitude" json:"latitude"`
	Longitude  float64 `gorm:"column:longitude" json:"longitude"`
	AreaName   string  `gorm:"column:area_name" json:"area_name"`
	AreaSizeHa float64 `gorm:"column:area_size_ha" json:"area_size_ha"`

	// ExclusionKey is the storage backstop against two concurrent creations
	// claiming the same grid cell. NULL once the claim no longer blocks.
	ExclusionKey     *string   `gorm:"column:exclusion_key;uniqueIndex" json:"-"`
	ExclusionRadiusM float64   `gorm:"column:exclusion_radius_m" json:"exclusion_radius_m"`
	OccupiedUntil    time.Time `gorm:"column:occupied_until;index" json:"occupied_until"`

	Status string `gorm:"column:status;index" json:"status"`

	CompanyApproval  *CompanyApproval  `gorm:"column:company_approval;serializer:json" json:"company_approval,omitempty"`
	GovernmentReview *GovernmentReview `gorm:"column:government_review;serializer:json" json:"government_review,omitempty"`
	Anchor           *AnchorRecord     `gorm:"column:anchor_record;serializer:json" json:"anchor,omitempty"`

	Files      []ManifestFile `gorm:"column:file_manifest;serializer:json" json:"files,omitempty"`
	Warnings   []string       `gorm:"column:warnings;serializer:json" json:"warnings,omitempty"`
	AuditTrail AuditTrail     `gorm:"column:audit_trail;serializer:json" json:"audit_trail"`

	SubmittedAt time.Time `gorm:"column:submitted_at;index" json:"submitted_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the table name for Submission.
func (Submission) TableName() string {
	return "submissions"
}

// statusTransitions is the directed graph of legal status changes.
// approved and rejected are terminal.
var statusTransitions = map[string][]string{
	StatusPending:           {StatusCompanyApproved, StatusRejected},
	StatusCompanyApproved:   {StatusUnderReview, StatusApproved, StatusRejected},
	StatusUnderReview:       {StatusApproved, StatusRejected, StatusRevisionRequested},
	StatusRevisionRequested: {StatusPending},
	StatusApproved:          {},
	StatusRejected:          {},
}

// CanTransition reports whether from → to is a legal status change.
func CanTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether no further transitions are possible.
func IsTerminalStatus(status string) bool {
	return len(statusTransitions[status]) == 0
}

// ActiveClaimStatuses are the statuses whose exclusion window still blocks
// competing submissions over the same area.
func ActiveClaimStatuses() []string {
	return []string{StatusPending, StatusUnderReview, StatusApproved, StatusCompanyApproved}
}

// IsAreaOccupied reports whether the exclusion window is still running.
func (s *Submission) IsAreaOccupied() bool {
	return time.Now().Before(s.OccupiedUntil)
}

// AppendAudit adds one history entry. Callers persist the updated trail
// together with the status change.
func (s *Submission) AppendAudit(action string, actorID uint, role, comments, previousStatus string) {
	s.AuditTrail = append(s.AuditTrail, AuditEntry{
		Action:         action,
		PerformedBy:    actorID,
		PerformerRole:  role,
		Timestamp:      time.Now().UTC(),
		Comments:       comments,
		PreviousStatus: previousStatus,
		NewStatus:      s.Status,
	})
}

// AddWarning attaches a non-fatal warning (pin failures, oracle anomalies).
func (s *Submission) AddWarning(msg string) {
	s.Warnings = append(s.Warnings, msg)
}
