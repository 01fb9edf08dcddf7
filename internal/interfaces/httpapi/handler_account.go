package httpapi

import (
	"net/http"

	"github.com/riskibarqy/bilardeando/internal/usecase"
)

type updateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=80"`
	Email *string `json:"email" validate:"omitempty,email"`
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMe")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	acc, err := h.accountService.Get(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "get account failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, accountToDTO(acc))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateMe")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req updateProfileRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	acc, err := h.accountService.UpdateProfile(ctx, usecase.UpdateProfileInput{
		UserID: principal.UserID,
		Name:   req.Name,
		Email:  req.Email,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update profile failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, accountToDTO(acc))
}
