package treasury

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	metrics  *observability.Metrics
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics, validate: validator.New()}
}

type createAccountRequest struct {
	TypeID          int64    `json:"type_id" validate:"required,gt=0"`
	LinkedAccountID *int64   `json:"linked_account_id,omitempty" validate:"omitempty,gt=0"`
	Name            string   `json:"name" validate:"required,max=150"`
	BankName        *string  `json:"bank_name,omitempty" validate:"omitempty,max=150"`
	Number          *string  `json:"number,omitempty" validate:"omitempty,max=50"`
	OpeningBalance  float64  `json:"opening_balance" validate:"gte=0"`
	IsPettyCash     bool     `json:"is_petty_cash"`
	Ceiling         *float64 `json:"ceiling,omitempty" validate:"omitempty,gt=0"`
}

type updateAccountRequest struct {
	Name     *string  `json:"name,omitempty" validate:"omitempty,max=150"`
	BankName *string  `json:"bank_name,omitempty" validate:"omitempty,max=150"`
	Number   *string  `json:"number,omitempty" validate:"omitempty,max=50"`
	Ceiling  *float64 `json:"ceiling,omitempty" validate:"omitempty,gt=0"`
	Active   *bool    `json:"active,omitempty"`
}

type movementRequest struct {
	Kind        string  `json:"kind" validate:"required,oneof=IN OUT"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description" validate:"required,max=300"`
	Date        string  `json:"date" validate:"required"`
	Reference   *string `json:"reference,omitempty" validate:"omitempty,max=100"`
}

type transferRequest struct {
	FromAccountID int64   `json:"from_account_id" validate:"required,gt=0"`
	ToAccountID   int64   `json:"to_account_id" validate:"required,gt=0"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Description   string  `json:"description" validate:"required,max=300"`
	Date          string  `json:"date" validate:"required"`
	Reference     *string `json:"reference,omitempty" validate:"omitempty,max=100"`
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	account, err := h.service.CreateAccount(r.Context(), CreateAccountInput{
		TypeID:          req.TypeID,
		LinkedAccountID: req.LinkedAccountID,
		Name:            req.Name,
		BankName:        req.BankName,
		Number:          req.Number,
		OpeningBalance:  req.OpeningBalance,
		IsPettyCash:     req.IsPettyCash,
		Ceiling:         req.Ceiling,
	}, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("create bank account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, account)
}

func (h *Handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "account id must be numeric")
		return
	}
	var req updateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	account, err := h.service.UpdateAccount(r.Context(), id, UpdateAccountInput{
		Name:     req.Name,
		BankName: req.BankName,
		Number:   req.Number,
		Ceiling:  req.Ceiling,
		Active:   req.Active,
	}, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("update bank account", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "account id must be numeric")
		return
	}
	account, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	accounts, err := h.service.ListAccounts(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("list bank accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (h *Handler) listTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.ListTypes(r.Context())
	if err != nil {
		h.logger.Error("list bank account types", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"types": types})
}

func (h *Handler) recordMovement(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "account id must be numeric")
		return
	}
	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}
	movement, err := h.service.RecordMovement(r.Context(), MovementInput{
		BankAccountID: id,
		Kind:          MovementKind(req.Kind),
		Amount:        req.Amount,
		Description:   req.Description,
		MovementDate:  date,
		Reference:     req.Reference,
		PostedBy:      shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Error("record movement", slog.Any("error", err), slog.Int64("account_id", id))
		httpx.RespondError(w, err)
		return
	}
	h.metrics.MovementRecorded(1)
	httpx.JSON(w, http.StatusCreated, movement)
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}
	movements, err := h.service.Transfer(r.Context(), TransferInput{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
		Description:   req.Description,
		MovementDate:  date,
		Reference:     req.Reference,
		PostedBy:      shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Error("transfer", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.metrics.MovementRecorded(2)
	httpx.JSON(w, http.StatusCreated, map[string]any{"movements": movements})
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	var filter MovementFilter
	q := r.URL.Query()
	if v := q.Get("account_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.BankAccountID = &id
		}
	}
	if v := q.Get("kind"); v != "" {
		kind := MovementKind(v)
		filter.Kind = &kind
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.From = &t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.To = &t
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	movements, err := h.service.ListMovements(r.Context(), filter)
	if err != nil {
		h.logger.Error("list movements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"movements": movements})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.logger.Error("treasury summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
