// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	ledger "github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// RespondError maps ledger domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, ledger.ErrUnknownAccount),
		errors.Is(err, ledger.ErrNoPeriodForDate):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ledger.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ledger.ErrPeriodClosed),
		errors.Is(err, ledger.ErrAlreadyClosed),
		errors.Is(err, ledger.ErrPendingEntries),
		errors.Is(err, ledger.ErrAlreadyApproved),
		errors.Is(err, ledger.ErrCannotApproveVoided),
		errors.Is(err, ledger.ErrAlreadyVoided),
		errors.Is(err, ledger.ErrAlreadySettled):
		Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, ledger.ErrUnbalanced),
		errors.Is(err, ledger.ErrTooFewLines),
		errors.Is(err, ledger.ErrInvalidLine),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrSameAccount):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ledger.ErrAccountNotPostable),
		errors.Is(err, ledger.ErrAccountInactive):
		Problem(w, http.StatusUnprocessableEntity, "Reference Invalid", err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrAmountExceedsBalance):
		Problem(w, http.StatusUnprocessableEntity, "Business Rule Violated", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
