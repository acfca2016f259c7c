package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScrapeFailure records a failed pricing attempt for later retry.
type ScrapeFailure struct {
	ID               int        `json:"id"`
	VeiculoID        uuid.UUID  `json:"veiculo_id"`
	TipoErro         string     `json:"tipo_erro"`
	MensagemErro     string     `json:"mensagem_erro"`
	Tentativas       int        `json:"tentativas"`
	UltimaTentativa  time.Time  `json:"ultima_tentativa"`
	ProximaTentativa *time.Time `json:"proxima_tentativa,omitempty"`
	Resolvido        bool       `json:"resolvido"`
	ResolvidoEm      *time.Time `json:"resolvido_em,omitempty"`
	CriadoEm         time.Time  `json:"criado_em"`
}

// Error types for categorization
const (
	ErroTipoRateLimit         = "rate_limit"
	ErroTipoNaoEncontrado     = "nao_encontrado"
	ErroTipoAPIFipe           = "api_fipe"
	ErroTipoRede              = "rede"
	ErroTipoParse             = "parse"
	ErroTipoDadosInsuficiente = "dados_insuficientes"
	ErroTipoDesconhecido      = "desconhecido"
)

// ClassifyError categorizes an error string into a type.
func ClassifyError(errMsg string) string {
	msg := strings.ToLower(errMsg)
	anyOf := func(subs ...string) bool {
		for _, sub := range subs {
			if strings.Contains(msg, sub) {
				return true
			}
		}
		return false
	}

	switch {
	case anyOf("rate limit", "429", "too many requests"):
		return ErroTipoRateLimit
	case anyOf("not found", "nao encontrad", "no variant matched"):
		return ErroTipoNaoEncontrado
	case anyOf("fipe api", "status 5"):
		return ErroTipoAPIFipe
	case anyOf("connection", "timeout", "network", "dial"):
		return ErroTipoRede
	case anyOf("parse", "invalid"):
		return ErroTipoParse
	case anyOf("insufficient", "insuficiente"):
		return ErroTipoDadosInsuficiente
	default:
		return ErroTipoDesconhecido
	}
}
