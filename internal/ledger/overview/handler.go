// Package overview aggregates the treasury, receivable and payable
// summaries into one dashboard payload.
package overview

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/meridian-erp/internal/ledger/payables"
	"github.com/meridian-erp/meridian-erp/internal/ledger/receivables"
	"github.com/meridian-erp/meridian-erp/internal/ledger/treasury"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// TreasurySummarizer provides the cash and bank balance summary.
type TreasurySummarizer interface {
	Summary(ctx context.Context) (treasury.Summary, error)
}

// ReceivableSummarizer provides the open receivables summary.
type ReceivableSummarizer interface {
	Summary(ctx context.Context) (receivables.Summary, error)
}

// PayableSummarizer provides the open payables summary.
type PayableSummarizer interface {
	Summary(ctx context.Context) (payables.Summary, error)
}

// Overview is the combined dashboard payload.
type Overview struct {
	Treasury    treasury.Summary    `json:"treasury"`
	Receivables receivables.Summary `json:"receivables"`
	Payables    payables.Summary    `json:"payables"`
	NetPosition float64             `json:"net_position"`
}

type Handler struct {
	logger      *slog.Logger
	treasury    TreasurySummarizer
	receivables ReceivableSummarizer
	payables    PayableSummarizer
}

func NewHandler(logger *slog.Logger, t TreasurySummarizer, r ReceivableSummarizer, p PayableSummarizer) *Handler {
	return &Handler{logger: logger, treasury: t, receivables: r, payables: p}
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	var data Overview
	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() error {
		summary, err := h.treasury.Summary(ctx)
		if err != nil {
			return err
		}
		data.Treasury = summary
		return nil
	})

	g.Go(func() error {
		summary, err := h.receivables.Summary(ctx)
		if err != nil {
			return err
		}
		data.Receivables = summary
		return nil
	})

	g.Go(func() error {
		summary, err := h.payables.Summary(ctx)
		if err != nil {
			return err
		}
		data.Payables = summary
		return nil
	})

	if err := g.Wait(); err != nil {
		h.logger.Error("finance overview", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	data.NetPosition = data.Treasury.GrandTotal + data.Receivables.TotalOutstanding - data.Payables.TotalOutstanding
	httpx.JSON(w, http.StatusOK, data)
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.overview)
}
