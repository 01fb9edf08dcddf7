package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/riskibarqy/bilardeando/internal/domain/transaction"
	"github.com/riskibarqy/bilardeando/internal/usecase"
	"github.com/shopspring/decimal"
)

type loadBalanceRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type purchaseBudgetRequest struct {
	TierID string `json:"tier_id" validate:"required"`
}

type budgetCheckoutDTO struct {
	checkoutDTO
	Tier budgetTierDTO `json:"tier"`
}

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWallet")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	page, err := parsePage(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	overview, err := h.walletService.Overview(ctx, principal.UserID, page)
	if err != nil {
		h.logger.WarnContext(ctx, "wallet overview failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, walletOverviewDTO{
		Balance:      balanceToDTO(overview.Balance),
		Transactions: transactionPageToDTO(overview.Transactions),
	})
}

func (h *Handler) LoadBalance(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LoadBalance")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req loadBalanceRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	checkout, err := h.walletService.LoadBalance(ctx, usecase.LoadBalanceInput{
		UserID: principal.UserID,
		Amount: req.Amount,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "load balance failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusCreated, checkoutToDTO(checkout))
}

func (h *Handler) ListBudgetTiers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListBudgetTiers")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	offer, err := h.walletService.ListBudgetTiers(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list budget tiers failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, tierOfferToDTO(offer))
}

func (h *Handler) PurchaseBudget(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PurchaseBudget")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req purchaseBudgetRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	checkout, err := h.walletService.PurchaseBudget(ctx, usecase.PurchaseBudgetInput{
		UserID: principal.UserID,
		TierID: req.TierID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "purchase budget failed", "user_id", principal.UserID, "tier_id", req.TierID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusCreated, budgetCheckoutDTO{
		checkoutDTO: checkoutToDTO(checkout.Checkout),
		Tier: budgetTierDTO{
			ID:            checkout.Tier.ID,
			VirtualAmount: money(checkout.Tier.VirtualAmount),
			Price:         money(checkout.Tier.Price),
			Fee:           money(checkout.Fee),
			Total:         money(checkout.Total),
		},
	})
}

func (h *Handler) UnlockAI(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UnlockAI")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	checkout, err := h.walletService.UnlockAI(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "unlock ai failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusCreated, checkoutToDTO(checkout))
}

func parsePage(r *http.Request) (transaction.Page, error) {
	query := r.URL.Query()
	var page transaction.Page
	for key, dst := range map[string]*int{"page": &page.Number, "page_size": &page.Size} {
		raw := strings.TrimSpace(query.Get(key))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return transaction.Page{}, fmt.Errorf("%w: %s must be a positive integer", usecase.ErrInvalidInput, key)
		}
		*dst = n
	}
	return page, nil
}
