package receivables

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

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

type createReceivableRequest struct {
	InvoiceID    string  `json:"invoice_id" validate:"required,uuid4"`
	CustomerName string  `json:"customer_name" validate:"required,max=200"`
	IssueDate    string  `json:"issue_date" validate:"required"`
	DueDate      string  `json:"due_date" validate:"required"`
	Total        float64 `json:"total" validate:"required,gt=0"`
}

type paymentRequest struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Date          string  `json:"date" validate:"required"`
	Method        string  `json:"method" validate:"required,oneof=CASH TRANSFER CHECK CARD OTHER"`
	BankAccountID *int64  `json:"bank_account_id,omitempty" validate:"omitempty,gt=0"`
	Reference     *string `json:"reference,omitempty" validate:"omitempty,max=100"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createReceivableRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invoice_id must be a UUID")
		return
	}
	issueDate, err := time.Parse("2006-01-02", req.IssueDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "issue_date must be YYYY-MM-DD")
		return
	}
	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "due_date must be YYYY-MM-DD")
		return
	}
	rec, err := h.service.Create(r.Context(), CreateInput{
		InvoiceID:    invoiceID,
		CustomerName: req.CustomerName,
		IssueDate:    issueDate,
		DueDate:      dueDate,
		Total:        req.Total,
	}, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("create receivable", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) registerPayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "receivable id must be numeric")
		return
	}
	var req paymentRequest
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
	rec, payment, err := h.service.RegisterPayment(r.Context(), PaymentInput{
		ReceivableID:  id,
		Amount:        req.Amount,
		PaymentDate:   date,
		Method:        req.Method,
		BankAccountID: req.BankAccountID,
		Reference:     req.Reference,
		PostedBy:      shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Error("register receivable payment", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	h.metrics.PaymentRegistered("receivable")
	httpx.JSON(w, http.StatusCreated, map[string]any{"receivable": rec, "payment": payment})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "receivable id must be numeric")
		return
	}
	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "receivable id must be numeric")
		return
	}
	payments, err := h.service.Payments(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var filter ListFilter
	q := r.URL.Query()
	if v := q.Get("state"); v != "" {
		state := ReceivableState(v)
		filter.State = &state
	}
	if v := q.Get("customer"); v != "" {
		filter.Customer = &v
	}
	if v := q.Get("due_from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.DueFrom = &t
		}
	}
	if v := q.Get("due_to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.DueTo = &t
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
	out, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list receivables", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"receivables": out})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.logger.Error("receivables summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/summary", h.summary)
	r.Get("/{id}", h.get)
	r.Get("/{id}/payments", h.listPayments)
	r.Post("/{id}/payments", h.registerPayment)
}
