package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"blue-carbon-api/config"
	"blue-carbon-api/models"

	"gorm.io/gorm"
)

// Exclusion policy defaults.
const (
	DefaultExclusionRadiusM = 2000.0
	metersPerDegree         = 111000.0

	// DefaultExclusionMonths is how long a claim blocks competing
	// submissions over the same area.
	DefaultExclusionMonths = 6
)

// AvailabilityResult is the outcome of an exclusion check.
type AvailabilityResult struct {
	Available               bool       `json:"available"`
	ConflictingSubmissionID string     `json:"conflicting_submission_id,omitempty"`
	ConflictOwnerCompanyID  uint       `json:"conflict_owner_company_id,omitempty"`
	ConflictExpiresAt       *time.Time `json:"conflict_expires_at,omitempty"`
}

// ExclusionService answers read-only geospatial conflict queries. It never
// mutates submissions.
type ExclusionService struct {
	db *gorm.DB
}

// NewExclusionService constructs an ExclusionService.
func NewExclusionService(db *gorm.DB) *ExclusionService {
	if db == nil {
		db = config.DB
	}
	return &ExclusionService{db: db}
}

// CheckAvailability reports whether a new claim at (lat, lon) for the given
// ecosystem type would overlap an active claim. The circular radius is
// approximated by a degree bounding box; false positives near box corners
// are accepted, false negatives are not.
func (s *ExclusionService) CheckAvailability(ctx context.Context, lat, lon float64, ecosystemType string, radiusM float64) (*AvailabilityResult, error) {
	if lat < -90 || lat > 90 {
		return nil, NewValidationError("latitude must be between -90 and 90, got %g", lat)
	}
	if lon < -180 || lon > 180 {
		return nil, NewValidationError("longitude must be between -180 and 180, got %g", lon)
	}
	if radiusM <= 0 {
		radiusM = DefaultExclusionRadiusM
	}

	deg := radiusM / metersPerDegree

	var conflicts []models.Submission
	err := s.db.WithContext(ctx).
		Where("ecosystem_type = ?", ecosystemType).
		Where("status IN ?", models.ActiveClaimStatuses()).
		Where("occupied_until > ?", time.Now()).
		Where("latitude BETWEEN ? AND ?", lat-deg, lat+deg).
		Where("longitude BETWEEN ? AND ?", lon-deg, lon+deg).
		Order("submitted_at ASC").
		Limit(1).
		Find(&conflicts).Error
	if err != nil {
		return nil, NewInternalError(err)
	}

	if len(conflicts) == 0 {
		return &AvailabilityResult{Available: true}, nil
	}

	blocking := conflicts[0]
	expires := blocking.OccupiedUntil
	return &AvailabilityResult{
		Available:               false,
		ConflictingSubmissionID: blocking.SubmissionID,
		ConflictOwnerCompanyID:  blocking.CompanyID,
		ConflictExpiresAt:       &expires,
	}, nil
}

// ExclusionKey derives the storage backstop key for a claim: grid cell of
// roughly the default radius, plus ecosystem type and the expiry month of
// the active window. Two concurrent creations over the same cell collide on
// the submissions.exclusion_key unique index; the later insert surfaces as
// a conflict.
func ExclusionKey(lat, lon float64, ecosystemType string, occupiedUntil time.Time) string {
	cellDeg := DefaultExclusionRadiusM / metersPerDegree
	latCell := int(math.Floor(lat / cellDeg))
	lonCell := int(math.Floor(lon / cellDeg))
	return fmt.Sprintf("%s:%d:%d:%s", ecosystemType, latCell, lonCell, occupiedUntil.UTC().Format("200601"))
}
