package model

// Confidence is derived from which attributes survived extraction.
// It is never set independently of its inputs.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Analise is the result of classifying and extracting a single listing.
// Missing fields stay empty (brand/model/year) or zero (yearModel) and only
// lower the confidence; extraction never fails outright.
type Analise struct {
	VehicleType VehicleType `json:"vehicle_type"`
	Brand       string      `json:"brand,omitempty"`
	Model       string      `json:"model,omitempty"`
	Year        string      `json:"year,omitempty"`
	YearModel   int         `json:"year_model,omitempty"`
	Confidence  Confidence  `json:"confidence"`
}

// DeriveConfidence computes the confidence level for the given attribute
// completeness: high needs brand+model+year, medium brand+year, else low.
func DeriveConfidence(brand, model string, yearModel int) Confidence {
	switch {
	case brand != "" && model != "" && yearModel > 0:
		return ConfidenceHigh
	case brand != "" && yearModel > 0:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
