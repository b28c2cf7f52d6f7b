package messages

import (
	"errors"
	"fmt"

	"github.com/Jacobbrewer1/rabbit/pkg/entities"
)

// ErrUserErrorProcessing is shown when a request failed for a reason the user cannot fix.
const ErrUserErrorProcessing = "An error occurred while processing your request."

// ForError returns the text to show a user for err. The second result is false when err is not a domain error and
// the generic message was used.
func ForError(err error) (string, bool) {
	var (
		notFound   *entities.NotFoundError
		blacklist  *entities.BlacklistedError
		claimed    *entities.ClaimedError
		cooldown   *entities.CooldownError
		limit      *entities.LimitError
		validation *entities.ValidationError
	)

	switch {
	case err == nil:
		return "", true
	case errors.As(err, &blacklist):
		return fmt.Sprintf("You are blacklisted from creating tickets. Reason: %s", reasonOrDefault(blacklist.Reason)), true
	case errors.As(err, &limit):
		return fmt.Sprintf("You can only have %d open ticket(s) at a time.", limit.Limit), true
	case errors.Is(err, entities.ErrLimitExceeded):
		return "You have reached the open ticket limit.", true
	case errors.As(err, &claimed):
		return fmt.Sprintf("This ticket is already claimed by %s.", User(claimed.ClaimedBy)), true
	case errors.As(err, &cooldown):
		return fmt.Sprintf("You must wait %d more hour(s) before applying again.", cooldown.RemainingHours), true
	case errors.As(err, &validation):
		return capitalise(validation.Error()) + ".", true
	case errors.As(err, &notFound):
		if notFound.Entity == "ticket" {
			return "This is not a ticket channel.", true
		}
		return capitalise(notFound.Error()) + ".", true
	case errors.Is(err, entities.ErrNotFound):
		return "That could not be found.", true
	case errors.Is(err, entities.ErrAlreadyClosed):
		return "This ticket is already closed.", true
	case errors.Is(err, entities.ErrAlreadyClaimed):
		return "This ticket is already claimed.", true
	case errors.Is(err, entities.ErrNotClaimed):
		return "This ticket is not claimed.", true
	case errors.Is(err, entities.ErrAlreadyReviewed):
		return "This application has already been reviewed.", true
	case errors.Is(err, entities.ErrBlacklisted):
		return "You are blacklisted from creating tickets.", true
	case errors.Is(err, entities.ErrCooldownActive):
		return "You must wait before applying again.", true
	case errors.Is(err, entities.ErrNoQuestions):
		return "This application has no questions configured.", true
	case errors.Is(err, entities.ErrInactive):
		return "This application is no longer available.", true
	case errors.Is(err, entities.ErrPermissionDenied):
		return "You do not have permission to do that.", true
	case errors.Is(err, entities.ErrValidation):
		return "The request was not valid.", true
	default:
		return ErrUserErrorProcessing, false
	}
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}
