package httpapi

import (
	"net/http"

	"github.com/riskibarqy/bilardeando/internal/usecase"
)

type leagueLockJobRequest struct {
	MatchdayID int64  `json:"matchday_id" validate:"gte=0"`
	LeagueID   string `json:"league_id" validate:"omitempty,max=64"`
}

func (h *Handler) RunLeagueLockJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunLeagueLockJob")
	defer span.End()

	var req leagueLockJobRequest
	if err := h.decodeRequest(ctx, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.leagueLockService.RunLockCheck(ctx, usecase.LockCheckInput{
		MatchdayID: req.MatchdayID,
		LeagueID:   req.LeagueID,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "league lock job failed", "matchday_id", req.MatchdayID, "league_id", req.LeagueID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, result)
}
