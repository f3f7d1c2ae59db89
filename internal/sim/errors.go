package sim

import "errors"

var (
	ErrValidation         = errors.New("validation_error")
	ErrInsufficientFunds  = errors.New("insufficient_funds")
	ErrQuestAlreadyActive = errors.New("quest_already_active")
	ErrNoActiveQuest      = errors.New("no_active_quest")
	ErrUnknownQuest       = errors.New("unknown_quest")
	ErrNodeNotFound       = errors.New("node_not_found")
	ErrAlreadyCollected   = errors.New("already_collected")
	ErrAgentNotFound      = errors.New("agent_not_found")
	ErrItemNotFound       = errors.New("item_not_found")
	ErrAlreadyOnboarded   = errors.New("already_onboarded")
	ErrNotOnboarded       = errors.New("not_onboarded")
	ErrUnknownCommand     = errors.New("unknown_command")
)

// ValidationError carries a message meant for the player.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return ErrValidation.Error() + ": " + e.Message
	}
	return ErrValidation.Error() + ": " + e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
