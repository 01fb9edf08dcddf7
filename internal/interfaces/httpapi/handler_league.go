package httpapi

import (
	"net/http"

	"github.com/riskibarqy/bilardeando/internal/usecase"
	"github.com/shopspring/decimal"
)

type createLeagueRequest struct {
	Name            string          `json:"name" validate:"required,min=3,max=50"`
	BuyIn           decimal.Decimal `json:"buy_in"`
	MaxPlayers      int             `json:"max_players" validate:"required,min=2,max=100"`
	StartMatchdayID int64           `json:"start_matchday_id" validate:"required,gt=0"`
	EndMatchdayID   int64           `json:"end_matchday_id" validate:"required,gtefield=StartMatchdayID"`
}

func (h *Handler) ListMyLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyLeagues")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	mine, err := h.privateLeagueService.ListMine(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list leagues failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	leagues := make([]leagueSummaryDTO, 0, len(mine.Leagues))
	for _, l := range mine.Leagues {
		leagues = append(leagues, leagueSummaryToDTO(l))
	}
	writeSuccess(ctx, w, http.StatusOK, myLeaguesDTO{
		Leagues:   leagues,
		Matchdays: matchdaysToDTO(mine.Matchdays),
	})
}

func (h *Handler) CreateLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateLeague")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createLeagueRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.privateLeagueService.Create(ctx, usecase.CreatePrivateLeagueInput{
		UserID:          principal.UserID,
		Name:            req.Name,
		BuyIn:           req.BuyIn,
		MaxPlayers:      req.MaxPlayers,
		StartMatchdayID: req.StartMatchdayID,
		EndMatchdayID:   req.EndMatchdayID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create league failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusCreated, createdLeagueDTO{
		League: leagueToDTO(created.League),
		Pool:   poolToDTO(created.Pool),
	})
}

func (h *Handler) GetLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeague")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	code := r.PathValue("code")
	detail, err := h.privateLeagueService.GetByCode(ctx, principal.UserID, code)
	if err != nil {
		h.logger.WarnContext(ctx, "get league failed", "user_id", principal.UserID, "code", code, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, leagueDetailToDTO(detail))
}

func (h *Handler) JoinLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinLeague")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	code := r.PathValue("code")
	joined, err := h.privateLeagueService.Join(ctx, principal.UserID, code)
	if err != nil {
		h.logger.WarnContext(ctx, "join league failed", "user_id", principal.UserID, "code", code, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusCreated, joinLeagueDTO{
		League:   leagueToDTO(joined.League),
		Checkout: checkoutToDTO(joined.Checkout),
	})
}
