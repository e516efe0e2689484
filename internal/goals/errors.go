package goals

import (
	"errors"
	"net/http"

	"github.com/Osama-Null/growmesh-API/internal/ledger"
)

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ledger.ErrConfigurationInvalid),
		errors.Is(err, ledger.ErrInvalidAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrGoalDeleted),
		errors.Is(err, ledger.ErrGoalNotMutable),
		errors.Is(err, ledger.ErrGoalLocked),
		errors.Is(err, ledger.ErrNotReady),
		errors.Is(err, ledger.ErrAlreadyTerminal),
		errors.Is(err, ledger.ErrAlreadyUnlocked):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInsufficientGoalFunds):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ledger.ErrConcurrencyConflict):
		http.Error(w, "conflict, retry", http.StatusConflict)
	default:
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
	}
}
