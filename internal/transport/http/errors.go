package httptransport

import (
	"context"
	"errors"
	"net/http"

	"companion-world/internal/session"
	"companion-world/internal/sim"
	"companion-world/internal/store"
)

// MapCommandError turns engine and session errors into a status, an error
// code and, for validation failures, the message to show the player.
func MapCommandError(err error) (int, string, string) {
	var verr *sim.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, sim.ErrValidation.Error(), verr.Message
	case errors.Is(err, sim.ErrUnknownCommand):
		return http.StatusBadRequest, sim.ErrUnknownCommand.Error(), ""
	case errors.Is(err, sim.ErrInsufficientFunds):
		return http.StatusPaymentRequired, sim.ErrInsufficientFunds.Error(), ""
	case errors.Is(err, sim.ErrAgentNotFound),
		errors.Is(err, sim.ErrItemNotFound),
		errors.Is(err, sim.ErrNodeNotFound),
		errors.Is(err, sim.ErrUnknownQuest):
		return http.StatusNotFound, rootCode(err), ""
	case errors.Is(err, sim.ErrQuestAlreadyActive),
		errors.Is(err, sim.ErrAlreadyCollected),
		errors.Is(err, sim.ErrAlreadyOnboarded),
		errors.Is(err, sim.ErrNoActiveQuest),
		errors.Is(err, sim.ErrNotOnboarded):
		return http.StatusConflict, rootCode(err), ""
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, session.ErrSessionNotFound.Error(), ""
	case errors.Is(err, session.ErrSessionClosed):
		return http.StatusGone, session.ErrSessionClosed.Error(), ""
	case errors.Is(err, session.ErrInvalidUsername):
		return http.StatusBadRequest, session.ErrInvalidUsername.Error(), ""
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout", ""
	default:
		return http.StatusInternalServerError, "internal_error", ""
	}
}

var codedErrors = []error{
	sim.ErrAgentNotFound, sim.ErrItemNotFound, sim.ErrNodeNotFound, sim.ErrUnknownQuest,
	sim.ErrQuestAlreadyActive, sim.ErrAlreadyCollected, sim.ErrAlreadyOnboarded,
	sim.ErrNoActiveQuest, sim.ErrNotOnboarded,
}

func rootCode(err error) string {
	for _, target := range codedErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return "internal_error"
}

func writeMappedError(w http.ResponseWriter, err error) {
	status, code, msg := MapCommandError(err)
	if msg != "" {
		WriteHTTPErrorMessage(w, status, code, msg)
		return
	}
	WriteHTTPError(w, status, code)
}
