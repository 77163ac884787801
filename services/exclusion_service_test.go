package services

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"blue-carbon-api/models"
)

func TestExclusionKeyGridCells(t *testing.T) {
	until := time.Date(2027, 1, 15, 10, 0, 0, 0, time.UTC)

	key := ExclusionKey(12.5, 99.9, models.EcosystemMangrove, until)
	if key != "Mangrove:693:5544:202701" {
		t.Fatalf("unexpected key %q", key)
	}

	// Two points inside the same ~2000 m cell share the key.
	other := ExclusionKey(12.501, 99.901, models.EcosystemMangrove, until)
	if other != key {
		t.Fatalf("nearby points diverged: %q vs %q", other, key)
	}

	// A different ecosystem over the same cell never collides.
	if ExclusionKey(12.5, 99.9, models.EcosystemSeagrass, until) == key {
		t.Fatalf("ecosystem must partition the key space")
	}

	// Negative coordinates floor toward the next cell down.
	neg := ExclusionKey(-0.001, -0.001, models.EcosystemMangrove, until)
	if neg != "Mangrove:-1:-1:202701" {
		t.Fatalf("unexpected key for negative coords: %q", neg)
	}

	// The expiry month scopes the claim window.
	later := ExclusionKey(12.5, 99.9, models.EcosystemMangrove, until.AddDate(0, 1, 0))
	if later == key {
		t.Fatalf("different expiry months must not collide")
	}
}

func TestCheckAvailabilityValidation(t *testing.T) {
	svc := &ExclusionService{}
	if _, err := svc.CheckAvailability(context.Background(), 91, 0, models.EcosystemMangrove, 0); KindOf(err) != ErrValidation {
		t.Fatalf("expected validation error for latitude, got %v", err)
	}
	if _, err := svc.CheckAvailability(context.Background(), 0, -181, models.EcosystemMangrove, 0); KindOf(err) != ErrValidation {
		t.Fatalf("expected validation error for longitude, got %v", err)
	}
}

func TestCheckAvailabilityOpenArea(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .submissions."),
			columns: []string{"submission_id", "company_id", "occupied_until"},
			rows:    [][]driver.Value{},
		},
	}
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewExclusionService(gormDB)
	result, err := svc.CheckAvailability(context.Background(), 12.5, 99.9, models.EcosystemMangrove, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Available {
		t.Fatalf("expected the area to be available")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestCheckAvailabilityReportsBlockingClaim(t *testing.T) {
	expires := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .submissions."),
			columns: []string{"submission_id", "company_id", "occupied_until"},
			rows: [][]driver.Value{
				{"MG12345678042", int64(9), expires},
			},
		},
	}
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewExclusionService(gormDB)
	result, err := svc.CheckAvailability(context.Background(), 12.5, 99.9, models.EcosystemMangrove, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Available {
		t.Fatalf("expected the area to be blocked")
	}
	if result.ConflictingSubmissionID != "MG12345678042" {
		t.Fatalf("unexpected blocking id %q", result.ConflictingSubmissionID)
	}
	if result.ConflictOwnerCompanyID != 9 {
		t.Fatalf("unexpected owner company %d", result.ConflictOwnerCompanyID)
	}
	if result.ConflictExpiresAt == nil || !result.ConflictExpiresAt.Equal(expires) {
		t.Fatalf("unexpected expiry %v", result.ConflictExpiresAt)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
