package counter

import "strings"

// Domain scopes error-code lookups so the same code can resolve to
// different copy depending on which feature raised it.
type Domain string

const (
	DomainAuth  Domain = "auth"
	DomainUser  Domain = "user"
	DomainOrder Domain = "order"
)

// GenericErrorMessage is the last-resort copy for unknown codes.
const GenericErrorMessage = "An error occurred. Please try again."

// fieldMessages maps domain -> error code -> field name -> message.
// Field names are matched case-insensitively.
var fieldMessages = map[Domain]map[string]map[string]string{
	DomainAuth: {
		"E0001": {
			"username": "Username or password is incorrect.",
			"password": "Username or password is incorrect.",
		},
		"E0002": {
			"username": "This account has been locked. Ask a manager to unlock it.",
		},
	},
	DomainUser: {
		"E0010": {
			"username": "This username is already taken.",
		},
		"E0011": {
			"password": "The password does not meet the requirements.",
		},
	},
	DomainOrder: {
		"E0036": {
			"items": "The order has no items to send.",
		},
		"E0037": {
			"table": "This table is no longer available.",
		},
		"E0040": {
			"menu": "This item is no longer on the menu.",
		},
		"E0041": {
			"size": "This size is no longer offered for the item.",
		},
		"E0042": {
			"quantity": "The requested quantity cannot be served.",
		},
	},
}

// codeMessages is the domain-agnostic fallback table.
var codeMessages = map[string]string{
	"E0001": "Sign-in failed.",
	"E0036": "The order has no items to send.",
	"E0037": "The selected table cannot take this order.",
	"E0040": "An item in the order is unavailable.",
	"E0041": "A size in the order is unavailable.",
	"E0042": "A quantity in the order cannot be served.",
}

// Resolve maps an opaque error code and field name to user-facing
// copy. Lookup order: domain+code+field table, then the code fallback
// table, then the generic message. It never fails; unknown codes
// degrade to GenericErrorMessage.
func Resolve(domain Domain, code, field string) string {
	if codes, ok := fieldMessages[domain]; ok {
		if fields, ok := codes[code]; ok {
			if msg, ok := fields[strings.ToLower(field)]; ok {
				return msg
			}
		}
	}
	if msg, ok := codeMessages[code]; ok {
		return msg
	}
	return GenericErrorMessage
}
