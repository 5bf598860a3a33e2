package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// TitleService defines the title behavior needed by TitleHandler.
type TitleService interface {
	CreateTitle(ctx context.Context, input usecase.TitleInput) (*domain.Title, error)
	GetTitle(ctx context.Context, id string) (*domain.Title, error)
	UpdateTitle(ctx context.Context, id string, input usecase.TitleInput) (*domain.Title, error)
	DeleteTitle(ctx context.Context, id string) error
}

// SuffixRepairService patches the chain suffix after one title.
type SuffixRepairService interface {
	ReprocessFrom(ctx context.Context, titleID string) error
}

// TitleHandler handles title-related HTTP requests.
type TitleHandler struct {
	titleUC TitleService
	chainUC SuffixRepairService
}

// NewTitleHandler creates a new TitleHandler.
func NewTitleHandler(titleUC TitleService, chainUC SuffixRepairService) *TitleHandler {
	return &TitleHandler{
		titleUC: titleUC,
		chainUC: chainUC,
	}
}

// Create creates a new title.
func (h *TitleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.TitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	title, err := h.titleUC.CreateTitle(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create title", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TitleFromDomain(title))
}

// Get retrieves a title by ID.
func (h *TitleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing title ID", "")
		return
	}

	title, err := h.titleUC.GetTitle(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get title", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TitleFromDomain(title))
}

// Update applies an edit to a title.
func (h *TitleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing title ID", "")
		return
	}

	var req dto.TitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	title, err := h.titleUC.UpdateTitle(r.Context(), id, req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update title", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TitleFromDomain(title))
}

// Delete removes a title.
func (h *TitleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing title ID", "")
		return
	}

	if err := h.titleUC.DeleteTitle(r.Context(), id); err != nil {
		writeError(w, mapDomainError(err), "failed to delete title", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Reprocess patches the chain suffix that follows this title.
func (h *TitleHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing title ID", "")
		return
	}

	if err := h.chainUC.ReprocessFrom(r.Context(), id); err != nil {
		writeError(w, mapDomainError(err), "failed to reprocess from title", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReprocessResponse{Status: "reprocessed"})
}
