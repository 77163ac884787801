package services

import (
	"testing"

	"blue-carbon-api/models"
)

func TestCalculatePlantationCredits(t *testing.T) {
	// 25 trees/unit at 8 ft over 1 ha: 25 x 2.4384 x 1.0 x 0.18 = 10.9728.
	result, err := CalculateCredits(models.EcosystemMangrove,
		&models.PlantationMeasurements{MeanDensity: 25, HeightFt: 8}, nil, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Credits != 10.97 {
		t.Fatalf("expected 10.97 credits, got %g", result.Credits)
	}
	if result.Breakdown != nil {
		t.Fatalf("plantation result should have no breakdown")
	}
}

func TestCalculatePlantationCreditsClampsSparseAndShort(t *testing.T) {
	// Density 5 clamps to 10 and 2 ft (0.6096 m) clamps to 1.5 m:
	// 10 x 1.5 x 2.0 x 0.18 = 5.4.
	result, err := CalculateCredits(models.EcosystemForest,
		&models.PlantationMeasurements{MeanDensity: 5, HeightFt: 2}, nil, 2.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Credits != 5.4 {
		t.Fatalf("expected 5.4 credits, got %g", result.Credits)
	}
}

func TestCalculateSeagrassCredits(t *testing.T) {
	m := &models.SeagrassMeasurements{
		Species:          "Halophila ovalis",
		HeightCm:         50,
		OrganicCarbonPct: 2,
		MeadowAreaHa:     5,
		DensityShootsM2:  500,
	}

	result, err := CalculateCredits(models.EcosystemSeagrass, nil, m, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Breakdown == nil {
		t.Fatalf("expected a credit breakdown")
	}
	if result.Breakdown.FromBiomass != 14.68 {
		t.Fatalf("expected biomass 14.68, got %g", result.Breakdown.FromBiomass)
	}
	if result.Breakdown.FromSediment != 36.7 {
		t.Fatalf("expected sediment 36.7, got %g", result.Breakdown.FromSediment)
	}
	if result.Breakdown.AnnualSequestration != 11.35 {
		t.Fatalf("expected annual sequestration 11.35, got %g", result.Breakdown.AnnualSequestration)
	}

	// Total = biomass + sediment + 10 years of annual sequestration.
	want := 14.68 + 36.7 + 11.35*10
	if result.Credits != round2(want) {
		t.Fatalf("expected total %g, got %g", round2(want), result.Credits)
	}
}

func TestCalculateCreditsIsDeterministic(t *testing.T) {
	m := &models.SeagrassMeasurements{
		HeightCm:         120,
		OrganicCarbonPct: 3.5,
		MeadowAreaHa:     12,
		DensityShootsM2:  800,
	}
	first, err := CalculateCredits(models.EcosystemSeagrass, nil, m, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		next, err := CalculateCredits(models.EcosystemSeagrass, nil, m, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next.Credits != first.Credits {
			t.Fatalf("run %d diverged: %g vs %g", i, next.Credits, first.Credits)
		}
	}
}

func TestSeagrassSequestrationRateClamped(t *testing.T) {
	max := &models.SeagrassMeasurements{
		HeightCm:         300,
		OrganicCarbonPct: 100,
		MeadowAreaHa:     1000,
		DensityShootsM2:  10000,
	}
	if rate := seagrassSequestrationRate(max); rate != maxSequestrationRate {
		t.Fatalf("expected rate clamped to %g, got %g", maxSequestrationRate, rate)
	}

	min := &models.SeagrassMeasurements{
		HeightCm:         1,
		OrganicCarbonPct: 0,
		MeadowAreaHa:     0.1,
		DensityShootsM2:  1,
	}
	if rate := seagrassSequestrationRate(min); rate < minSequestrationRate || rate > 0.51 {
		t.Fatalf("expected rate near the floor, got %g", rate)
	}
}

func TestCalculateCreditsNoMethodology(t *testing.T) {
	for _, eco := range []string{models.EcosystemCoastal, models.EcosystemOther} {
		result, err := CalculateCredits(eco, nil, nil, 0)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", eco, err)
		}
		if result.Credits != 0 {
			t.Fatalf("%s: expected zero credits, got %g", eco, result.Credits)
		}
	}
}

func TestCalculateCreditsValidation(t *testing.T) {
	cases := []struct {
		name       string
		eco        string
		plantation *models.PlantationMeasurements
		seagrass   *models.SeagrassMeasurements
		areaHa     float64
	}{
		{"unknown ecosystem", "Wetland", nil, nil, 1},
		{"plantation payload missing", models.EcosystemMangrove, nil, nil, 1},
		{"negative density", models.EcosystemMangrove, &models.PlantationMeasurements{MeanDensity: -1, HeightFt: 8}, nil, 1},
		{"zero height", models.EcosystemForest, &models.PlantationMeasurements{MeanDensity: 25, HeightFt: 0}, nil, 1},
		{"area too large", models.EcosystemForest, &models.PlantationMeasurements{MeanDensity: 25, HeightFt: 8}, nil, 20000},
		{"seagrass payload missing", models.EcosystemSeagrass, nil, nil, 0},
		{"meadow too small", models.EcosystemSeagrass, nil, &models.SeagrassMeasurements{HeightCm: 50, MeadowAreaHa: 0.01, DensityShootsM2: 500}, 0},
		{"carbon over 100 pct", models.EcosystemSeagrass, nil, &models.SeagrassMeasurements{HeightCm: 50, OrganicCarbonPct: 120, MeadowAreaHa: 5, DensityShootsM2: 500}, 0},
	}

	for _, tc := range cases {
		_, err := CalculateCredits(tc.eco, tc.plantation, tc.seagrass, tc.areaHa)
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		if KindOf(err) != ErrValidation {
			t.Fatalf("%s: expected validation kind, got %s", tc.name, KindOf(err))
		}
	}
}

func TestScaledCreditAmount(t *testing.T) {
	if got := ScaledCreditAmount(10.97); got != 1097 {
		t.Fatalf("expected 1097, got %d", got)
	}
	if got := ScaledCreditAmount(0); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := ScaledCreditAmount(-3); got != 0 {
		t.Fatalf("expected 0 for negative credits, got %d", got)
	}
	if got := ScaledCreditAmount(0.005); got != 1 {
		t.Fatalf("expected rounding to 1, got %d", got)
	}
}
