package model

import (
	"strconv"
	"strings"
)

// PrecoFipe is a priced FIPE record. Valor is parsed from the pt-BR formatted
// ValorTexto ("R$ 45.678,90"); when parsing fails Valor stays nil and the raw
// text is preserved.
type PrecoFipe struct {
	Valor          *float64 `json:"valor,omitempty"`
	ValorTexto     string   `json:"valor_texto"`
	Marca          string   `json:"marca,omitempty"`
	Modelo         string   `json:"modelo,omitempty"`
	Ano            int      `json:"ano,omitempty"`
	Combustivel    string   `json:"combustivel,omitempty"`
	CodigoFipe     string   `json:"codigo_fipe,omitempty"`
	MesReferencia  string   `json:"mes_referencia,omitempty"`
}

// ParsePrecoReal parses a pt-BR currency string ("R$ 45.678,90") into a float.
// Thousands separator is '.', decimal separator is ','.
func ParsePrecoReal(texto string) (float64, bool) {
	s := strings.TrimSpace(texto)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	valor, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return valor, true
}
