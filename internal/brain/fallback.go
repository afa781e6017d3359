package brain

import "errors"

// SpokenFallback maps an adapter failure to a line the bot can say out
// loud. Generation failures must never interrupt the call itself.
func SpokenFallback(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "I'm receiving too many requests right now. Please try again in a moment."
	case errors.Is(err, ErrInvalidRequest):
		return "I'm having trouble processing your request. Could you please rephrase that?"
	case errors.Is(err, ErrAuthentication):
		return "I'm experiencing technical difficulties. Please try again later."
	default:
		return "I'm sorry, I'm having trouble understanding. Could you please repeat that?"
	}
}
