package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/bilardeando/internal/domain/user"
	"github.com/riskibarqy/bilardeando/internal/platform/logging"
	"github.com/riskibarqy/bilardeando/internal/usecase"
)

const maxRequestBodyBytes = 1 << 20

var strictJSON = sonic.Config{DisallowUnknownFields: true, ValidateString: true}.Froze()

type Handler struct {
	accountService       *usecase.AccountService
	playerService        *usecase.PlayerService
	rosterService        *usecase.RosterService
	transferService      *usecase.TransferService
	walletService        *usecase.WalletService
	paymentService       *usecase.PaymentService
	privateLeagueService *usecase.PrivateLeagueService
	leagueLockService    *usecase.LeagueLockService
	mockPaymentsEnabled  bool
	logger               *logging.Logger
	validator            *validator.Validate
}

func NewHandler(
	accountService *usecase.AccountService,
	playerService *usecase.PlayerService,
	rosterService *usecase.RosterService,
	transferService *usecase.TransferService,
	walletService *usecase.WalletService,
	paymentService *usecase.PaymentService,
	privateLeagueService *usecase.PrivateLeagueService,
	leagueLockService *usecase.LeagueLockService,
	mockPaymentsEnabled bool,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		accountService:       accountService,
		playerService:        playerService,
		rosterService:        rosterService,
		transferService:      transferService,
		walletService:        walletService,
		paymentService:       paymentService,
		privateLeagueService: privateLeagueService,
		leagueLockService:    leagueLockService,
		mockPaymentsEnabled:  mockPaymentsEnabled,
		logger:               logger,
		validator:            validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeRequest reads a JSON body into dst and validates it. An empty body
// decodes to the zero value when allowEmpty is set.
func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, dst any, allowEmpty bool) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
	}
	if len(body) == 0 {
		if !allowEmpty {
			return fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
		}
	} else if err := strictJSON.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return h.validateRequest(ctx, dst)
}

func requirePrincipal(ctx context.Context) (user.Principal, error) {
	principal, ok := principalFromContext(ctx)
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized)
	}
	return principal, nil
}
