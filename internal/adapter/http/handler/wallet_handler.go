package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// WalletService defines the wallet behavior needed by WalletHandler.
type WalletService interface {
	CreateWallet(ctx context.Context, input usecase.CreateWalletInput) (*domain.Wallet, error)
	GetWallet(ctx context.Context, id string) (*domain.Wallet, error)
	ListWallets(ctx context.Context, input usecase.ListWalletsInput) ([]*domain.Wallet, error)
}

// BalanceService answers point-in-time balance queries.
type BalanceService interface {
	GetBalanceAt(ctx context.Context, walletID string, at time.Time) (decimal.Decimal, error)
	GetBalanceNow(ctx context.Context, walletID string) (decimal.Decimal, error)
}

// ChainService drives full-chain repair and verification.
type ChainService interface {
	ReprocessWallet(ctx context.Context, walletID string, startingBalance decimal.Decimal) error
	VerifyChain(ctx context.Context, walletID string) error
}

// TitleLister lists the titles of a wallet.
type TitleLister interface {
	ListTitlesByWallet(ctx context.Context, input usecase.ListTitlesByWalletInput) ([]*domain.Title, error)
}

// WalletHandler handles wallet-related HTTP requests.
type WalletHandler struct {
	walletUC  WalletService
	balanceUC BalanceService
	chainUC   ChainService
	titleUC   TitleLister
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletUC WalletService, balanceUC BalanceService, chainUC ChainService, titleUC TitleLister) *WalletHandler {
	return &WalletHandler{
		walletUC:  walletUC,
		balanceUC: balanceUC,
		chainUC:   chainUC,
		titleUC:   titleUC,
	}
}

// Create creates a new wallet.
func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	wallet, err := h.walletUC.CreateWallet(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create wallet", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.WalletFromDomain(wallet))
}

// Get retrieves a wallet by ID.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing wallet ID", "")
		return
	}

	wallet, err := h.walletUC.GetWallet(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get wallet", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// List lists wallets of a tenant.
func (h *WalletHandler) List(w http.ResponseWriter, r *http.Request) {
	wallets, err := h.walletUC.ListWallets(r.Context(), usecase.ListWalletsInput{
		TenantID: r.URL.Query().Get("tenant_id"),
		Limit:    parseIntQuery(r, "limit", 20),
		Offset:   parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list wallets", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListWalletsResponse{
		Wallets: dto.WalletsFromDomain(wallets),
		Total:   int64(len(wallets)),
	})
}

// GetBalance answers the wallet balance as of the `at` query parameter
// (RFC3339), or as of now when the parameter is omitted.
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing wallet ID", "")
		return
	}

	atParam := r.URL.Query().Get("at")
	if atParam == "" {
		balance, err := h.balanceUC.GetBalanceNow(r.Context(), id)
		if err != nil {
			writeError(w, mapDomainError(err), "failed to get balance", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, dto.BalanceResponse{
			WalletID: id,
			At:       time.Now().UTC(),
			Balance:  balance,
		})

		return
	}

	at, err := time.Parse(time.RFC3339, atParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid at parameter", "expected RFC3339 timestamp")
		return
	}

	balance, err := h.balanceUC.GetBalanceAt(r.Context(), id, at)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		WalletID: id,
		At:       at,
		Balance:  balance,
	})
}

// ListTitles lists the titles of a wallet, newest first.
func (h *WalletHandler) ListTitles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing wallet ID", "")
		return
	}

	titles, err := h.titleUC.ListTitlesByWallet(r.Context(), usecase.ListTitlesByWalletInput{
		WalletID: id,
		Limit:    parseIntQuery(r, "limit", 20),
		Offset:   parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list titles", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTitlesResponse{
		Titles: dto.TitlesFromDomain(titles),
		Total:  int64(len(titles)),
	})
}

// Reprocess rewrites the wallet's whole balance chain from its initial
// balance.
func (h *WalletHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing wallet ID", "")
		return
	}

	wallet, err := h.walletUC.GetWallet(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get wallet", err.Error())
		return
	}

	if err := h.chainUC.ReprocessWallet(r.Context(), wallet.ID, wallet.InitialBalance); err != nil {
		writeError(w, mapDomainError(err), "failed to reprocess wallet", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReprocessResponse{
		WalletID: wallet.ID,
		Status:   "reprocessed",
	})
}

// VerifyChain reports whether the wallet's chain satisfies the balance
// invariant.
func (h *WalletHandler) VerifyChain(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing wallet ID", "")
		return
	}

	err := h.chainUC.VerifyChain(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrChainInconsistent) {
			writeJSON(w, http.StatusOK, dto.ChainResponse{
				WalletID:   id,
				Consistent: false,
				Detail:     err.Error(),
			})

			return
		}

		writeError(w, mapDomainError(err), "failed to verify chain", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.ChainResponse{
		WalletID:   id,
		Consistent: true,
	})
}
