package model

import (
	"time"

	"github.com/google/uuid"
)

// VehicleType is the closed vehicle-type taxonomy. Every listing maps to
// exactly one type; TipoCarros is the default when no rule fires.
type VehicleType string

const (
	TipoCarros      VehicleType = "carros"
	TipoMotos       VehicleType = "motos"
	TipoCaminhoes   VehicleType = "caminhoes"
	TipoOnibus      VehicleType = "onibus"
	TipoImplementos VehicleType = "implementos"
	TipoEmbarcacoes VehicleType = "embarcacoes"
	TipoAeronaves   VehicleType = "aeronaves"
	TipoOutros      VehicleType = "outros"
)

// Veiculo is a single free-text vehicle listing to be classified and priced.
type Veiculo struct {
	ID              uuid.UUID         `json:"id"`
	Title           string            `json:"title"`
	NormalizedTitle string            `json:"normalized_title,omitempty"`
	Description     string            `json:"description,omitempty"`
	Metadata        map[string]any    `json:"metadata,omitempty"`
	VehicleType     *string           `json:"vehicle_type,omitempty"`
	MarketPrice     *float64          `json:"market_price,omitempty"`
	IsActive        bool              `json:"is_active"`
	CreatedAt       time.Time         `json:"created_at"`
}

// MarketPriceUpdate carries the priced result written back to a listing.
type MarketPriceUpdate struct {
	MarketPrice float64           `json:"market_price"`
	Source      string            `json:"market_price_source"`
	Confidence  string            `json:"market_price_confidence"`
	VehicleType VehicleType       `json:"vehicle_type"`
	Metadata    map[string]any    `json:"market_price_metadata"`
}

// UpsertStats reports the outcome of a persistence batch.
type UpsertStats struct {
	Inserted int   `json:"inserted"`
	Updated  int   `json:"updated"`
	Errors   int   `json:"errors"`
	TimeMs   int64 `json:"time_ms"`
}

// TabelaStats summarizes pricing coverage of the veiculos table.
type TabelaStats struct {
	Total              int     `json:"total"`
	WithMarketPrice    int     `json:"with_market_price"`
	WithoutMarketPrice int     `json:"without_market_price"`
	PercentageComplete float64 `json:"percentage_complete"`
}
