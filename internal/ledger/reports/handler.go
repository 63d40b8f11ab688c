package reports

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) journal(w http.ResponseWriter, r *http.Request) {
	periodID, err := strconv.ParseInt(chi.URLParam(r, "periodID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "period id must be numeric")
		return
	}
	journal, err := h.service.Journal(r.Context(), periodID)
	if err != nil {
		h.logger.Error("journal report", slog.Any("error", err), slog.Int64("period_id", periodID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, journal)
}

func periodIDParam(r *http.Request) *int64 {
	if v := r.URL.Query().Get("period_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			return &id
		}
	}
	return nil
}

func (h *Handler) generalLedger(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "account id must be numeric")
		return
	}
	ledger, err := h.service.GeneralLedger(r.Context(), accountID, periodIDParam(r))
	if err != nil {
		h.logger.Error("general ledger report", slog.Any("error", err), slog.Int64("account_id", accountID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ledger)
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.service.BalanceSheet(r.Context(), periodIDParam(r))
	if err != nil {
		h.logger.Error("balance sheet report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sheet)
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/journal/{periodID}", h.journal)
	r.Get("/general-ledger/{accountID}", h.generalLedger)
	r.Get("/balance-sheet", h.balanceSheet)
}
