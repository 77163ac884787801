package services

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"blue-carbon-api/config"
	"blue-carbon-api/models"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const mysqlDuplicateEntry = 1062

// PlantationInput is the worker-provided plantation payload. Densities come
// from the ML oracle; the height is the single top-down field measurement.
type PlantationInput struct {
	HeightFt   float64  `json:"height_ft"`
	ImagePaths []string `json:"image_paths"`
}

// CreateSubmissionInput is everything needed to open a new submission.
type CreateSubmissionInput struct {
	WorkerID      uint
	CompanyID     uint
	EcosystemType string
	Plantation    *PlantationInput
	Seagrass      *models.SeagrassMeasurements
	Latitude      float64
	Longitude     float64
	AreaName      string
	AreaSizeHa    float64
	RadiusM       float64
	Files         []models.ManifestFile
}

// SubmissionService owns submission creation and reads. Status mutations
// after creation belong to ApprovalService.
type SubmissionService struct {
	db        *gorm.DB
	exclusion *ExclusionService
	ml        MLClient
	notifier  *NotificationService
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(db *gorm.DB, exclusion *ExclusionService, ml MLClient, notifier *NotificationService) *SubmissionService {
	if db == nil {
		db = config.DB
	}
	if exclusion == nil {
		exclusion = NewExclusionService(db)
	}
	return &SubmissionService{db: db, exclusion: exclusion, ml: ml, notifier: notifier}
}

// GenerateSubmissionID builds a human-decodable id with an ecosystem prefix,
// e.g. SG12345678042. Randomness comes from the explicit source so the
// function stays deterministic under test.
func GenerateSubmissionID(ecosystemType string, now time.Time, rnd io.Reader) (string, error) {
	var prefix string
	switch ecosystemType {
	case models.EcosystemSeagrass:
		prefix = "SG"
	case models.EcosystemMangrove:
		prefix = "MG"
	default:
		prefix = "SUB"
	}

	millis := fmt.Sprintf("%d", now.UnixMilli())
	if len(millis) > 8 {
		millis = millis[len(millis)-8:]
	}

	var buf [2]byte
	if _, err := io.ReadFull(rnd, buf[:]); err != nil {
		return "", fmt.Errorf("failed to read randomness: %w", err)
	}
	suffix := binary.BigEndian.Uint16(buf[:]) % 1000

	return fmt.Sprintf("%s%s%03d", prefix, millis, suffix), nil
}

// GenerateTempPassword returns an 8-character uppercase hex password from
// the explicit randomness source.
func GenerateTempPassword(rnd io.Reader) (string, error) {
	var buf [4]byte
	if _, err := io.ReadFull(rnd, buf[:]); err != nil {
		return "", fmt.Errorf("failed to read randomness: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf[:])), nil
}

// validateCreateInput is the single validation and defaulting stage that
// precedes computation and persistence. Missing and invalid inputs are
// reported as distinct cases.
func validateCreateInput(input *CreateSubmissionInput) error {
	if input.WorkerID == 0 {
		return NewValidationError("worker_id is missing")
	}
	if input.CompanyID == 0 {
		return NewValidationError("company_id is missing")
	}
	if input.EcosystemType == "" {
		return NewValidationError("ecosystem_type is missing")
	}
	switch input.EcosystemType {
	case models.EcosystemMangrove, models.EcosystemForest, models.EcosystemCoastal,
		models.EcosystemSeagrass, models.EcosystemOther:
	default:
		return NewValidationError("ecosystem_type must be one of Mangrove, Forest, Coastal, Seagrass, Other; got %q", input.EcosystemType)
	}
	if input.Latitude < -90 || input.Latitude > 90 {
		return NewValidationError("latitude must be between -90 and 90, got %g", input.Latitude)
	}
	if input.Longitude < -180 || input.Longitude > 180 {
		return NewValidationError("longitude must be between -180 and 180, got %g", input.Longitude)
	}

	switch input.EcosystemType {
	case models.EcosystemMangrove, models.EcosystemForest:
		if input.Plantation == nil {
			return NewValidationError("plantation payload is missing for %s submission", input.EcosystemType)
		}
		if input.AreaSizeHa <= 0 {
			return NewValidationError("area_size_ha is missing for %s submission", input.EcosystemType)
		}
	case models.EcosystemSeagrass:
		if input.Seagrass == nil {
			return NewValidationError("seagrass payload is missing for Seagrass submission")
		}
	}

	if input.RadiusM == 0 {
		input.RadiusM = DefaultExclusionRadiusM
	}
	if input.RadiusM < 0 {
		return NewValidationError("radius_m must be positive, got %g", input.RadiusM)
	}
	input.AreaName = strings.TrimSpace(input.AreaName)
	return nil
}

// Create runs the full ingestion pipeline: validation, exclusion check,
// oracle analysis for plantation payloads, credit computation, and the
// insert with the unique-key backstop.
func (s *SubmissionService) Create(ctx context.Context, input *CreateSubmissionInput) (*models.Submission, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	availability, err := s.exclusion.CheckAvailability(ctx, input.Latitude, input.Longitude, input.EcosystemType, input.RadiusM)
	if err != nil {
		return nil, err
	}
	if !availability.Available {
		return nil, NewExclusionConflictError(availability.ConflictingSubmissionID, *availability.ConflictExpiresAt)
	}

	var warnings []string
	var plantation *models.PlantationMeasurements
	if input.Plantation != nil {
		plantation, warnings = s.analyzePlantation(ctx, input.Plantation)
	}

	result, err := CalculateCredits(input.EcosystemType, plantation, input.Seagrass, input.AreaSizeHa)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	submissionID, err := GenerateSubmissionID(input.EcosystemType, now, rand.Reader)
	if err != nil {
		return nil, NewInternalError(err)
	}

	occupiedUntil := now.AddDate(0, DefaultExclusionMonths, 0)
	exclusionKey := ExclusionKey(input.Latitude, input.Longitude, input.EcosystemType, occupiedUntil)

	files := input.Files
	for i := range files {
		if files[i].FileID == "" {
			files[i].FileID = uuid.NewString()
		}
		if files[i].UploadedAt.IsZero() {
			files[i].UploadedAt = now
		}
	}

	sub := &models.Submission{
		SubmissionID:     submissionID,
		WorkerID:         input.WorkerID,
		CompanyID:        input.CompanyID,
		EcosystemType:    input.EcosystemType,
		Plantation:       plantation,
		Seagrass:         input.Seagrass,
		CarbonCredits:    result.Credits,
		CreditBreakdown:  result.Breakdown,
		Latitude:         input.Latitude,
		Longitude:        input.Longitude,
		AreaName:         input.AreaName,
		AreaSizeHa:       input.AreaSizeHa,
		ExclusionKey:     &exclusionKey,
		ExclusionRadiusM: input.RadiusM,
		OccupiedUntil:    occupiedUntil,
		Status:           models.StatusPending,
		Files:            files,
		Warnings:         warnings,
		SubmittedAt:      now,
		UpdatedAt:        now,
	}
	sub.AppendAudit(models.AuditCreated, input.WorkerID, models.RoleWorker, "", "")

	for attempt := 0; ; attempt++ {
		err := s.db.WithContext(ctx).Create(sub).Error
		if err == nil {
			return sub, nil
		}
		if !isDuplicateKeyError(err) {
			return nil, NewInternalError(err)
		}
		if isExclusionKeyConflict(err) {
			// Lost the race against a concurrent claim for the same
			// grid cell; report the winner.
			if recheck, checkErr := s.exclusion.CheckAvailability(ctx, input.Latitude, input.Longitude, input.EcosystemType, input.RadiusM); checkErr == nil && !recheck.Available {
				return nil, NewExclusionConflictError(recheck.ConflictingSubmissionID, *recheck.ConflictExpiresAt)
			}
			return nil, NewConflictError("area already claimed by a concurrent submission")
		}
		// Duplicate submission_id: two creations in the same millisecond
		// drew the same random suffix. Redraw once.
		if attempt > 0 {
			return nil, NewInternalError(err)
		}
		redrawn, idErr := GenerateSubmissionID(input.EcosystemType, time.Now().UTC(), rand.Reader)
		if idErr != nil {
			return nil, NewInternalError(idErr)
		}
		sub.SubmissionID = redrawn
	}
}

// analyzePlantation runs the density oracle, falling back to conservative
// constants when it is unavailable. Reported anomalies become warnings; the
// submission proceeds either way.
func (s *SubmissionService) analyzePlantation(ctx context.Context, input *PlantationInput) (*models.PlantationMeasurements, []string) {
	var warnings []string

	analysis, err := s.ml.AnalyzeImages(ctx, input.ImagePaths)
	requiresReview := false
	if err != nil {
		log.Printf("Warning: density oracle unavailable, using manual-estimation fallback: %v", err)
		analysis = FallbackAnalysis()
		requiresReview = true
		warnings = append(warnings, "density analysis unavailable; conservative manual estimate applied")
	} else {
		warnings = append(warnings, analysis.Anomalies()...)
	}

	return &models.PlantationMeasurements{
		IndividualDensities: analysis.IndividualDensities,
		MeanDensity:         analysis.MeanDensity,
		HeightFt:            input.HeightFt,
		DetectedCount:       analysis.DetectedCount,
		RequiresReview:      requiresReview,
	}, warnings
}

// Get loads one submission by its public id.
func (s *SubmissionService) Get(ctx context.Context, submissionID string) (*models.Submission, error) {
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

// SubmissionFilter narrows List results.
type SubmissionFilter struct {
	Status        string
	EcosystemType string
	CompanyID     uint
	WorkerID      uint
	Page          int
	PageSize      int
}

// List returns a page of submissions plus the unpaged total.
func (s *SubmissionService) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	q := s.db.WithContext(ctx).Model(&models.Submission{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.EcosystemType != "" {
		q = q.Where("ecosystem_type = ?", filter.EcosystemType)
	}
	if filter.CompanyID != 0 {
		q = q.Where("company_id = ?", filter.CompanyID)
	}
	if filter.WorkerID != 0 {
		q = q.Where("worker_id = ?", filter.WorkerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, NewInternalError(err)
	}

	var subs []models.Submission
	if err := q.
		Order("submitted_at DESC").
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize).
		Find(&subs).Error; err != nil {
		return nil, 0, NewInternalError(err)
	}
	return subs, total, nil
}

// CheckAreaAvailability exposes the resolver to the HTTP surface.
func (s *SubmissionService) CheckAreaAvailability(ctx context.Context, lat, lon float64, ecosystemType string, radiusM float64) (*AvailabilityResult, error) {
	return s.exclusion.CheckAvailability(ctx, lat, lon, ecosystemType, radiusM)
}

func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

// isExclusionKeyConflict reports whether a duplicate-entry error hit the
// exclusion_key index rather than another unique column.
func isExclusionKeyConflict(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry &&
		strings.Contains(mysqlErr.Message, "exclusion_key")
}
