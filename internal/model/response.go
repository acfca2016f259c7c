package model

import "time"

// AnalyzeRequest representa a requisicao de analise de um anuncio
type AnalyzeRequest struct {
	Title           string `json:"title"`
	NormalizedTitle string `json:"normalized_title,omitempty"`
	Description     string `json:"description,omitempty"`
}

// AnalyzeResponse representa a resposta da analise
type AnalyzeResponse struct {
	Analise  Analise  `json:"analise"`
	Variants []string `json:"variants,omitempty"`
}

// PriceResponse representa a resposta da busca de preco ao vivo
type PriceResponse struct {
	Analise Analise    `json:"analise"`
	Preco   *PrecoFipe `json:"preco,omitempty"`
	Found   bool       `json:"found"`
}

// HealthResponse representa a resposta do health check
type HealthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse representa uma resposta de erro
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
