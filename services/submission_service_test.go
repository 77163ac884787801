package services

import (
	"bytes"
	"context"
	"database/sql/driver"
	"regexp"
	"strings"
	"testing"
	"time"

	"blue-carbon-api/models"

	"github.com/go-sql-driver/mysql"
)

func TestGenerateSubmissionID(t *testing.T) {
	now := time.UnixMilli(1757000012345)

	cases := []struct {
		eco    string
		prefix string
	}{
		{models.EcosystemSeagrass, "SG"},
		{models.EcosystemMangrove, "MG"},
		{models.EcosystemForest, "SUB"},
		{models.EcosystemCoastal, "SUB"},
	}

	for _, tc := range cases {
		id, err := GenerateSubmissionID(tc.eco, now, bytes.NewReader([]byte{0x01, 0x02}))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.eco, err)
		}
		if !strings.HasPrefix(id, tc.prefix) {
			t.Fatalf("%s: expected prefix %s, got %s", tc.eco, tc.prefix, id)
		}
		// prefix + last 8 millis digits + 3-digit random suffix.
		if len(id) != len(tc.prefix)+8+3 {
			t.Fatalf("%s: unexpected id length for %s", tc.eco, id)
		}
	}

	// Same clock and randomness always yield the same id.
	first, _ := GenerateSubmissionID(models.EcosystemSeagrass, now, bytes.NewReader([]byte{0xAA, 0xBB}))
	second, _ := GenerateSubmissionID(models.EcosystemSeagrass, now, bytes.NewReader([]byte{0xAA, 0xBB}))
	if first != second {
		t.Fatalf("ids diverged: %s vs %s", first, second)
	}

	if _, err := GenerateSubmissionID(models.EcosystemSeagrass, now, bytes.NewReader(nil)); err == nil {
		t.Fatalf("expected an error when randomness is exhausted")
	}
}

func TestGenerateTempPassword(t *testing.T) {
	pw, err := GenerateTempPassword(bytes.NewReader([]byte{0xDE, 0xAD, 0xBE, 0xEF}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pw != "DEADBEEF" {
		t.Fatalf("expected DEADBEEF, got %s", pw)
	}

	if _, err := GenerateTempPassword(bytes.NewReader([]byte{0x01})); err == nil {
		t.Fatalf("expected an error when randomness is exhausted")
	}
}

func TestValidateCreateInput(t *testing.T) {
	valid := func() *CreateSubmissionInput {
		return &CreateSubmissionInput{
			WorkerID:      1,
			CompanyID:     2,
			EcosystemType: models.EcosystemMangrove,
			Plantation:    &PlantationInput{HeightFt: 8},
			Latitude:      12.5,
			Longitude:     99.9,
			AreaSizeHa:    1.0,
		}
	}

	if err := validateCreateInput(valid()); err != nil {
		t.Fatalf("unexpected error for valid input: %v", err)
	}

	// Defaulting: the exclusion radius falls back to the policy default.
	input := valid()
	if err := validateCreateInput(input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input.RadiusM != DefaultExclusionRadiusM {
		t.Fatalf("expected default radius %g, got %g", DefaultExclusionRadiusM, input.RadiusM)
	}

	cases := []struct {
		name   string
		mutate func(*CreateSubmissionInput)
	}{
		{"missing worker", func(i *CreateSubmissionInput) { i.WorkerID = 0 }},
		{"missing company", func(i *CreateSubmissionInput) { i.CompanyID = 0 }},
		{"missing ecosystem", func(i *CreateSubmissionInput) { i.EcosystemType = "" }},
		{"unknown ecosystem", func(i *CreateSubmissionInput) { i.EcosystemType = "Tundra" }},
		{"latitude out of range", func(i *CreateSubmissionInput) { i.Latitude = 95 }},
		{"longitude out of range", func(i *CreateSubmissionInput) { i.Longitude = -200 }},
		{"plantation payload missing", func(i *CreateSubmissionInput) { i.Plantation = nil }},
		{"area missing", func(i *CreateSubmissionInput) { i.AreaSizeHa = 0 }},
		{"negative radius", func(i *CreateSubmissionInput) { i.RadiusM = -5 }},
		{"seagrass payload missing", func(i *CreateSubmissionInput) {
			i.EcosystemType = models.EcosystemSeagrass
			i.Plantation = nil
			i.Seagrass = nil
		}},
	}

	for _, tc := range cases {
		input := valid()
		tc.mutate(input)
		err := validateCreateInput(input)
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		if KindOf(err) != ErrValidation {
			t.Fatalf("%s: expected validation kind, got %s", tc.name, KindOf(err))
		}
	}
}

var (
	availabilityQueryPattern = regexp.MustCompile("SELECT .* FROM .submissions.")
	insertSubmissionPattern  = regexp.MustCompile("INSERT INTO .submissions.")
)

func seagrassCreateInput() *CreateSubmissionInput {
	return &CreateSubmissionInput{
		WorkerID:      1,
		CompanyID:     2,
		EcosystemType: models.EcosystemSeagrass,
		Seagrass: &models.SeagrassMeasurements{
			HeightCm:         50,
			OrganicCarbonPct: 2,
			MeadowAreaHa:     5,
			DensityShootsM2:  500,
		},
		Latitude:  12.5,
		Longitude: 99.9,
	}
}

func TestCreateRedrawsIDOnSubmissionIDCollision(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: availabilityQueryPattern,
			columns: []string{"submission_id", "company_id", "occupied_until"},
			rows:    [][]driver.Value{},
		},
		{
			kind:    kindExec,
			pattern: insertSubmissionPattern,
			err: &mysql.MySQLError{
				Number:  mysqlDuplicateEntry,
				Message: "Duplicate entry 'SG00012345042' for key 'submissions.submission_id'",
			},
		},
		{
			kind:    kindExec,
			pattern: insertSubmissionPattern,
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
	}
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewSubmissionService(gormDB, nil, nil, nil)
	sub, err := svc.Create(context.Background(), seagrassCreateInput())
	if err != nil {
		t.Fatalf("expected the redrawn id to succeed, got %v", err)
	}
	if sub == nil || sub.SubmissionID == "" {
		t.Fatalf("expected a persisted submission")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestCreateExclusionBackstopReportsWinner(t *testing.T) {
	expires := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: availabilityQueryPattern,
			columns: []string{"submission_id", "company_id", "occupied_until"},
			rows:    [][]driver.Value{},
		},
		{
			kind:    kindExec,
			pattern: insertSubmissionPattern,
			err: &mysql.MySQLError{
				Number:  mysqlDuplicateEntry,
				Message: "Duplicate entry 'Seagrass:693:5544:202703' for key 'submissions.exclusion_key'",
			},
		},
		{
			kind:    kindQuery,
			pattern: availabilityQueryPattern,
			columns: []string{"submission_id", "company_id", "occupied_until"},
			rows: [][]driver.Value{
				{"SG00012345001", int64(9), expires},
			},
		},
	}
	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewSubmissionService(gormDB, nil, nil, nil)
	_, err := svc.Create(context.Background(), seagrassCreateInput())
	if KindOf(err) != ErrConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	appErr := AsAppError(err)
	if appErr.ConflictingSubmissionID != "SG00012345001" {
		t.Fatalf("expected the winning claim to be reported, got %q", appErr.ConflictingSubmissionID)
	}
	if appErr.ConflictExpiresAt == nil || !appErr.ConflictExpiresAt.Equal(expires) {
		t.Fatalf("unexpected conflict expiry %v", appErr.ConflictExpiresAt)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
