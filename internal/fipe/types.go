package fipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fipe-market-price/internal/model"
)

// Vehicle type codes used by the FIPE API. Buses share the truck table.
const (
	CodigoCarros    = 1
	CodigoMotos     = 2
	CodigoCaminhoes = 3
)

// ErrNadaEncontrado is returned when the API answers with its
// "nadaencontrado" payload instead of a priced record.
var ErrNadaEncontrado = errors.New("fipe: nada encontrado")

// CodigoTipo maps an internal vehicle type to its FIPE table code. The
// second return is false for categories FIPE has no table for (implements,
// watercraft, aircraft, others).
func CodigoTipo(tipo model.VehicleType) (int, bool) {
	switch tipo {
	case model.TipoCarros:
		return CodigoCarros, true
	case model.TipoMotos:
		return CodigoMotos, true
	case model.TipoCaminhoes, model.TipoOnibus:
		return CodigoCaminhoes, true
	default:
		return 0, false
	}
}

// Option is one catalog entry (brand, model or model-year). The API encodes
// Value as a string on some endpoints and a number on others.
type Option struct {
	Label string
	Value string
}

// UnmarshalJSON accepts both {"Label":..,"Value":"21"} and
// {"Label":..,"Value":7541}.
func (o *Option) UnmarshalJSON(data []byte) error {
	var raw struct {
		Label string `json:"Label"`
		Value any    `json:"Value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	o.Label = raw.Label
	switch v := raw.Value.(type) {
	case string:
		o.Value = v
	case float64:
		o.Value = strconv.Itoa(int(v))
	case nil:
		o.Value = ""
	default:
		return fmt.Errorf("option value: unexpected type %T", raw.Value)
	}
	return nil
}

// Codigo returns the option value as an integer code.
func (o Option) Codigo() (int, error) {
	return strconv.Atoi(strings.TrimSpace(o.Value))
}

// ReferenciaTabela is one month of the FIPE reference table.
type ReferenciaTabela struct {
	Codigo int    `json:"Codigo"`
	Mes    string `json:"Mes"`
}

// SplitCodigoAno splits a model-year code like "2019-1" into the model year
// and the fuel code.
func SplitCodigoAno(codigo string) (ano, combustivel int, err error) {
	parts := strings.SplitN(codigo, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("codigo ano invalido: %q", codigo)
	}
	ano, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("codigo ano invalido: %q", codigo)
	}
	combustivel, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("codigo ano invalido: %q", codigo)
	}
	return ano, combustivel, nil
}

type modelosResponse struct {
	Modelos []Option `json:"Modelos"`
	Anos    []Option `json:"Anos"`
}

type valorResponse struct {
	Valor            string `json:"Valor"`
	Marca            string `json:"Marca"`
	Modelo           string `json:"Modelo"`
	AnoModelo        int    `json:"AnoModelo"`
	Combustivel      string `json:"Combustivel"`
	CodigoFipe       string `json:"CodigoFipe"`
	MesReferencia    string `json:"MesReferencia"`
	SiglaCombustivel string `json:"SiglaCombustivel"`
}

type apiError struct {
	Codigo string `json:"codigo"`
	Erro   string `json:"erro"`
}

// apiFault inspects a 200-status body for the API's in-band error object.
func apiFault(body []byte) error {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.Erro != "" {
		if strings.Contains(strings.ToLower(e.Erro), "nadaencontrado") {
			return ErrNadaEncontrado
		}
		return fmt.Errorf("fipe api: %s", e.Erro)
	}
	return nil
}
