package services

import (
	"math"

	"blue-carbon-api/models"
)

// Plantation (mangrove/forest) methodology constants.
const (
	plantationCarbonFactor = 0.18
	feetToMeters           = 0.3048

	// Conservative floors: sparse or short plantations are clamped up
	// rather than rejected.
	minPlantationDensity = 10.0
	minPlantationHeightM = 1.5
)

// Seagrass methodology constants.
const (
	carbonToCO2Ratio   = 3.67
	sequestrationYears = 10

	minSequestrationRate = 0.5 // tC/ha/yr
	maxSequestrationRate = 2.0 // tC/ha/yr
)

// Accepted input ranges, mirrored in validation messages.
const (
	maxSeagrassHeightCm  = 300.0
	maxOrganicCarbonPct  = 100.0
	minMeadowAreaHa      = 0.1
	maxMeadowAreaHa      = 1000.0
	maxSeagrassDensityM2 = 10000.0
	maxPlantationHeightF = 330.0
	maxAreaSizeHa        = 10000.0
)

// CreditResult is the computed carbon credit quantity plus, for seagrass,
// the per-component breakdown retained for audit.
type CreditResult struct {
	Credits   float64
	Breakdown *models.CreditBreakdown
}

// CalculateCredits converts ecosystem-specific measurements into a carbon
// credit quantity. It is pure: identical inputs always yield the identical
// output. Ecosystems without a methodology resolve to zero credits.
func CalculateCredits(ecosystemType string, plantation *models.PlantationMeasurements, seagrass *models.SeagrassMeasurements, areaSizeHa float64) (*CreditResult, error) {
	switch ecosystemType {
	case models.EcosystemMangrove, models.EcosystemForest:
		if plantation == nil {
			return nil, NewValidationError("plantation measurements are required for %s submissions", ecosystemType)
		}
		return calculatePlantationCredits(plantation, areaSizeHa)
	case models.EcosystemSeagrass:
		if seagrass == nil {
			return nil, NewValidationError("seagrass measurements are required for Seagrass submissions")
		}
		return calculateSeagrassCredits(seagrass)
	case models.EcosystemCoastal, models.EcosystemOther:
		// No methodology published yet.
		return &CreditResult{Credits: 0}, nil
	default:
		return nil, NewValidationError("unknown ecosystem type %q", ecosystemType)
	}
}

// calculatePlantationCredits applies the mangrove/forest formula:
// credits = density x height_m x area_ha x carbonFactor.
func calculatePlantationCredits(m *models.PlantationMeasurements, areaSizeHa float64) (*CreditResult, error) {
	if m.MeanDensity < 0 {
		return nil, NewValidationError("mean_density must be between 0 and 100000, got %g", m.MeanDensity)
	}
	if m.HeightFt <= 0 || m.HeightFt > maxPlantationHeightF {
		return nil, NewValidationError("height_ft must be between 0 and %g, got %g", maxPlantationHeightF, m.HeightFt)
	}
	if areaSizeHa <= 0 || areaSizeHa > maxAreaSizeHa {
		return nil, NewValidationError("area_size_ha must be between 0 and %g, got %g", maxAreaSizeHa, areaSizeHa)
	}

	density := m.MeanDensity
	if density < minPlantationDensity {
		density = minPlantationDensity
	}
	heightM := m.HeightFt * feetToMeters
	if heightM < minPlantationHeightM {
		heightM = minPlantationHeightM
	}

	credits := density * heightM * areaSizeHa * plantationCarbonFactor
	return &CreditResult{Credits: round2(math.Max(credits, 0))}, nil
}

// calculateSeagrassCredits sums three CO2-equivalent components: standing
// biomass, sediment carbon stock, and ten years of annual sequestration.
func calculateSeagrassCredits(m *models.SeagrassMeasurements) (*CreditResult, error) {
	if m.HeightCm <= 0 || m.HeightCm > maxSeagrassHeightCm {
		return nil, NewValidationError("height_cm must be between 0 and %g, got %g", maxSeagrassHeightCm, m.HeightCm)
	}
	if m.OrganicCarbonPct < 0 || m.OrganicCarbonPct > maxOrganicCarbonPct {
		return nil, NewValidationError("organic_carbon_pct must be between 0 and %g, got %g", maxOrganicCarbonPct, m.OrganicCarbonPct)
	}
	if m.MeadowAreaHa < minMeadowAreaHa || m.MeadowAreaHa > maxMeadowAreaHa {
		return nil, NewValidationError("meadow_area_ha must be between %g and %g, got %g", minMeadowAreaHa, maxMeadowAreaHa, m.MeadowAreaHa)
	}
	if m.DensityShootsM2 <= 0 || m.DensityShootsM2 > maxSeagrassDensityM2 {
		return nil, NewValidationError("density_shoots_m2 must be between 0 and %g, got %g", maxSeagrassDensityM2, m.DensityShootsM2)
	}

	// tCO2e from standing biomass.
	biomass := (m.HeightCm / 100) * (m.DensityShootsM2 / 1000) * 0.8 * 10000 *
		m.MeadowAreaHa * 0.4 * carbonToCO2Ratio / 1000

	// tCO2e locked in the sediment carbon stock.
	sediment := m.OrganicCarbonPct * 0.01 * m.MeadowAreaHa * 100 * carbonToCO2Ratio

	// Annual sequestration in tCO2e/yr, from an empirical rate clamped to
	// the published range.
	rate := seagrassSequestrationRate(m)
	annual := rate * m.MeadowAreaHa * carbonToCO2Ratio

	breakdown := &models.CreditBreakdown{
		FromBiomass:         round2(biomass),
		FromSediment:        round2(sediment),
		AnnualSequestration: round2(annual),
	}

	total := breakdown.FromBiomass + breakdown.FromSediment +
		breakdown.AnnualSequestration*sequestrationYears
	return &CreditResult{
		Credits:   round2(math.Max(total, 0)),
		Breakdown: breakdown,
	}, nil
}

// seagrassSequestrationRate estimates tC/ha/yr from meadow vigour. Taller,
// denser, carbon-richer meadows sequester faster; the result is clamped to
// [0.5, 2.0].
func seagrassSequestrationRate(m *models.SeagrassMeasurements) float64 {
	rate := minSequestrationRate +
		(m.HeightCm/maxSeagrassHeightCm)*0.5 +
		(m.DensityShootsM2/maxSeagrassDensityM2)*0.5 +
		(m.OrganicCarbonPct/maxOrganicCarbonPct)*0.5
	return math.Min(math.Max(rate, minSequestrationRate), maxSequestrationRate)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
