package domain

// ConfidenceLevel grades a model's validation error.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// Weight is the multiplier confidence contributes to the demand score.
func (c ConfidenceLevel) Weight() float64 {
	switch c {
	case ConfidenceHigh:
		return 1.0
	case ConfidenceMedium:
		return 0.7
	case ConfidenceLow:
		return 0.4
	default:
		return 0.5
	}
}

// TrendDirection classifies forecast demand against recent history.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendStable     TrendDirection = "stable"
	TrendDecreasing TrendDirection = "decreasing"
)

// Multiplier is the factor a trend contributes to the demand score.
func (t TrendDirection) Multiplier() float64 {
	switch t {
	case TrendIncreasing:
		return 1.3
	case TrendDecreasing:
		return 0.7
	default:
		return 1.0
	}
}

// ReorderUrgency says how soon a reorder should happen.
type ReorderUrgency string

const (
	UrgencyUrgent ReorderUrgency = "urgent"
	UrgencySoon   ReorderUrgency = "soon"
	UrgencyNormal ReorderUrgency = "normal"
)

// Risk maps urgency onto the risk scale reported to callers.
func (u ReorderUrgency) Risk() RiskLevel {
	switch u {
	case UrgencyUrgent:
		return RiskHigh
	case UrgencySoon:
		return RiskMedium
	default:
		return RiskLow
	}
}

// RiskLevel is the stockout risk label on a recommendation.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)
