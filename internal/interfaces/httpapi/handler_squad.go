package httpapi

import (
	"errors"
	"net/http"

	"github.com/riskibarqy/bilardeando/internal/usecase"
)

type createSquadRequest struct {
	Formation string `json:"formation" validate:"omitempty,max=10"`
}

type setFormationRequest struct {
	Formation string `json:"formation" validate:"required,max=10"`
}

type addSquadPlayerRequest struct {
	PlayerID  string `json:"player_id" validate:"required"`
	AsStarter bool   `json:"as_starter"`
}

type setCaptainRequest struct {
	PlayerID string `json:"player_id" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=captain captainSub"`
}

type swapPlayersRequest struct {
	PlayerA string `json:"player_a" validate:"required"`
	PlayerB string `json:"player_b" validate:"required,nefield=PlayerA"`
}

type createdSquadDTO struct {
	ID        string `json:"id"`
	Formation string `json:"formation"`
	Created   bool   `json:"created"`
}

// GetSquad returns nulls rather than 404 for users without a squad yet.
func (h *Handler) GetSquad(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSquad")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.rosterService.GetSquad(ctx, principal.UserID)
	if errors.Is(err, usecase.ErrNotFound) {
		writeSuccess(ctx, w, http.StatusOK, squadViewDTO{})
		return
	}
	if err != nil {
		h.logger.WarnContext(ctx, "get squad failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, squadViewToDTO(view))
}

func (h *Handler) CreateSquad(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateSquad")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createSquadRequest
	if err := h.decodeRequest(ctx, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	sq, created, err := h.rosterService.CreateOrGet(ctx, usecase.CreateSquadInput{
		UserID:    principal.UserID,
		Formation: req.Formation,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create squad failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeSuccess(ctx, w, status, createdSquadDTO{
		ID:        sq.ID,
		Formation: string(sq.Formation),
		Created:   created,
	})
}

func (h *Handler) SetFormation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetFormation")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req setFormationRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	change, err := h.rosterService.SetFormation(ctx, principal.UserID, req.Formation)
	if err != nil {
		h.logger.WarnContext(ctx, "set formation failed", "user_id", principal.UserID, "formation", req.Formation, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, formationChangeToDTO(change))
}

func (h *Handler) AddSquadPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddSquadPlayer")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req addSquadPlayerRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	roster, err := h.rosterService.AddPlayer(ctx, usecase.AddPlayerInput{
		UserID:    principal.UserID,
		PlayerID:  req.PlayerID,
		AsStarter: req.AsStarter,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "add squad player failed", "user_id", principal.UserID, "player_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusCreated, rosterToDTO(roster))
}

func (h *Handler) RemoveSquadPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveSquadPlayer")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	playerID := r.PathValue("playerID")
	roster, err := h.rosterService.RemovePlayer(ctx, principal.UserID, playerID)
	if err != nil {
		h.logger.WarnContext(ctx, "remove squad player failed", "user_id", principal.UserID, "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, rosterToDTO(roster))
}

func (h *Handler) SetCaptain(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetCaptain")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req setCaptainRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	roster, err := h.rosterService.SetCaptain(ctx, usecase.SetCaptainInput{
		UserID:   principal.UserID,
		PlayerID: req.PlayerID,
		Role:     req.Role,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "set captain failed", "user_id", principal.UserID, "player_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, rosterToDTO(roster))
}

func (h *Handler) ToggleStarter(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ToggleStarter")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	playerID := r.PathValue("playerID")
	isStarter, roster, err := h.rosterService.ToggleStarter(ctx, principal.UserID, playerID)
	if err != nil {
		h.logger.WarnContext(ctx, "toggle starter failed", "user_id", principal.UserID, "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, toggleResultDTO{
		PlayerID:  playerID,
		IsStarter: isStarter,
		Squad:     rosterToDTO(roster),
	})
}

func (h *Handler) SwapPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SwapPlayers")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req swapPlayersRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	roster, err := h.rosterService.Swap(ctx, usecase.SwapPlayersInput{
		UserID:  principal.UserID,
		PlayerA: req.PlayerA,
		PlayerB: req.PlayerB,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "swap players failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, rosterToDTO(roster))
}

func (h *Handler) ValidateSquad(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ValidateSquad")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	validation, err := h.rosterService.Validate(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "validate squad failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, validationToDTO(validation))
}
