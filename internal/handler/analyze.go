package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"fipe-market-price/internal/fipe"
	"fipe-market-price/internal/model"
	"fipe-market-price/internal/service"
)

type AnalyzeHandler struct {
	svc *service.AnalysisService
}

func NewAnalyzeHandler(svc *service.AnalysisService) *AnalyzeHandler {
	return &AnalyzeHandler{svc: svc}
}

// Analyze classifies a listing without touching the price table.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, h.svc.Analyze(req))
}

// Price classifies a listing and resolves its live market price.
func (h *AnalyzeHandler) Price(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.svc.Price(r.Context(), req)
	if err != nil {
		if errors.Is(err, fipe.ErrDadosInsuficientes) {
			respondJSON(w, http.StatusUnprocessableEntity, model.ErrorResponse{
				Error:   "dados_insuficientes",
				Message: "Nao foi possivel extrair marca e modelo do anuncio",
			})
			return
		}
		respondJSON(w, http.StatusBadGateway, model.ErrorResponse{
			Error:   "fipe_error",
			Message: "Erro ao consultar a tabela de precos",
		})
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func decodeAnalyzeRequest(w http.ResponseWriter, r *http.Request) (model.AnalyzeRequest, bool) {
	var req model.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_request",
			Message: "Corpo da requisicao invalido",
		})
		return req, false
	}
	if strings.TrimSpace(req.Title) == "" {
		respondJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_request",
			Message: "O campo title e obrigatorio",
		})
		return req, false
	}
	return req, true
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
