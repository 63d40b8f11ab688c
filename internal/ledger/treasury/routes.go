package treasury

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/summary", h.summary)
	r.Get("/types", h.listTypes)
	r.Get("/movements", h.listMovements)
	r.Post("/transfers", h.transfer)
	r.Get("/accounts", h.listAccounts)
	r.Post("/accounts", h.createAccount)
	r.Get("/accounts/{id}", h.getAccount)
	r.Patch("/accounts/{id}", h.updateAccount)
	r.Post("/accounts/{id}/movements", h.recordMovement)
}
