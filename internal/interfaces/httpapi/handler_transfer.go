package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/bilardeando/internal/usecase"
)

type transferRequest struct {
	Action   string `json:"action" validate:"required"`
	PlayerID string `json:"player_id" validate:"required"`
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Transfer")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req transferRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	action, ok := usecase.ParseTransferAction(req.Action)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: action must be buy or sell", usecase.ErrInvalidInput))
		return
	}

	switch action {
	case usecase.TransferBuy:
		res, err := h.transferService.Buy(ctx, principal.UserID, req.PlayerID)
		if err != nil {
			h.logger.WarnContext(ctx, "buy player failed", "user_id", principal.UserID, "player_id", req.PlayerID, "error", err)
			writeError(ctx, w, err)
			return
		}
		writeSuccess(ctx, w, http.StatusOK, buyResultDTO{
			Action:          string(action),
			Player:          playerToDTO(res.Player),
			RemainingBudget: money(res.RemainingBudget),
		})
	case usecase.TransferSell:
		res, err := h.transferService.Sell(ctx, principal.UserID, req.PlayerID)
		if err != nil {
			h.logger.WarnContext(ctx, "sell player failed", "user_id", principal.UserID, "player_id", req.PlayerID, "error", err)
			writeError(ctx, w, err)
			return
		}
		writeSuccess(ctx, w, http.StatusOK, sellResultDTO{
			Action:          string(action),
			Player:          playerToDTO(res.Sale.Player),
			OriginalPrice:   money(res.Sale.OriginalPrice),
			Refund:          money(res.Sale.Refund),
			Tax:             money(res.Sale.Tax),
			RemainingBudget: money(res.RemainingBudget),
		})
	}
}

func (h *Handler) TransferSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TransferSummary")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	query := r.URL.Query()
	action, ok := usecase.ParseTransferAction(query.Get("action"))
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: action must be buy or sell", usecase.ErrInvalidInput))
		return
	}

	quote, err := h.transferService.Quote(ctx, principal.UserID, query.Get("player_id"), action)
	if err != nil {
		h.logger.WarnContext(ctx, "transfer summary failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, transferQuoteDTO{
		Action:          string(quote.Action),
		Player:          playerToDTO(quote.Player),
		Cost:            money(quote.Cost),
		Tax:             money(quote.Tax),
		Net:             money(quote.Net),
		RemainingBudget: money(quote.RemainingBudget),
	})
}
