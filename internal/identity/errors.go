package identity

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
)

// Kind is the closed set of identity failures callers can act on.
type Kind int

// Failure kinds.
const (
	KindUnknown Kind = iota
	KindInvalidCredential
	KindEmailInUse
	KindWeakSecret
	KindInvalidEmail
	KindRequiresFreshAuth
	KindNetworkBlocked
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindInvalidCredential: "invalid-credential",
	KindEmailInUse:        "email-in-use",
	KindWeakSecret:        "weak-secret",
	KindInvalidEmail:      "invalid-email",
	KindRequiresFreshAuth: "requires-fresh-auth",
	KindNetworkBlocked:    "network-blocked",
}

var kindMessages = map[Kind]string{
	KindUnknown:           "Something went wrong. Please try again.",
	KindInvalidCredential: "Incorrect email or password.",
	KindEmailInUse:        "This email is already registered. Try signing in instead.",
	KindWeakSecret:        "Password should be at least 6 characters.",
	KindInvalidEmail:      "Invalid email address.",
	KindRequiresFreshAuth: "For security, please sign out and sign in again before continuing.",
	KindNetworkBlocked:    "The request was blocked before it reached the server. Check any proxy, firewall or content blocker.",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Message is the user-facing sentence for the kind.
func (k Kind) Message() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return kindMessages[KindUnknown]
}

// Error is a classified identity failure.
type Error struct {
	Err  error
	Op   string
	Kind Kind
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrNotSignedIn is returned when an operation needs a signed-in identity.
var ErrNotSignedIn = errors.New("not signed in")

// KindOf returns the kind of a classified error, or Classify(err) otherwise.
func KindOf(err error) Kind {
	var idErr *Error
	if errors.As(err, &idErr) {
		return idErr.Kind
	}
	return Classify(err)
}

// wrap classifies err and tags it with the operation name.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: Classify(err), Err: err}
}

// providerCodes maps provider error codes to kinds. Both the REST codes and the
// client SDK codes are listed so any adapter can share the table.
var providerCodes = []struct {
	code string
	kind Kind
}{
	{"EMAIL_EXISTS", KindEmailInUse},
	{"auth/email-already-in-use", KindEmailInUse},
	{"WEAK_PASSWORD", KindWeakSecret},
	{"auth/weak-password", KindWeakSecret},
	{"INVALID_EMAIL", KindInvalidEmail},
	{"MISSING_EMAIL", KindInvalidEmail},
	{"auth/invalid-email", KindInvalidEmail},
	{"EMAIL_NOT_FOUND", KindInvalidCredential},
	{"INVALID_PASSWORD", KindInvalidCredential},
	{"INVALID_LOGIN_CREDENTIALS", KindInvalidCredential},
	{"MISSING_PASSWORD", KindInvalidCredential},
	{"USER_DISABLED", KindInvalidCredential},
	{"auth/user-not-found", KindInvalidCredential},
	{"auth/wrong-password", KindInvalidCredential},
	{"auth/invalid-credential", KindInvalidCredential},
	{"CREDENTIAL_TOO_OLD_LOGIN_AGAIN", KindRequiresFreshAuth},
	{"TOKEN_EXPIRED", KindRequiresFreshAuth},
	{"INVALID_ID_TOKEN", KindRequiresFreshAuth},
	{"USER_NOT_FOUND", KindRequiresFreshAuth},
	{"auth/requires-recent-login", KindRequiresFreshAuth},
}

// Classify maps a provider error onto a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if IsClientBlocked(err) {
		return KindNetworkBlocked
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if kind, ok := classifyCode(apiErr.Message); ok {
			return kind
		}
		for _, item := range apiErr.Errors {
			if kind, ok := classifyCode(item.Message); ok {
				return kind
			}
		}
	}

	text := err.Error()
	for _, pc := range providerCodes {
		if strings.Contains(text, pc.code) {
			return pc.kind
		}
	}
	return KindUnknown
}

// classifyCode reads codes such as "WEAK_PASSWORD : Password should be ...".
func classifyCode(message string) (Kind, bool) {
	code, _, _ := strings.Cut(strings.TrimSpace(message), " ")
	for _, pc := range providerCodes {
		if pc.code == code {
			return pc.kind, true
		}
	}
	return KindUnknown, false
}

var blockedSignatures = []string{
	"ERR_BLOCKED_BY_CLIENT",
	"net::ERR_BLOCKED_BY_CLIENT",
	"blocked by client",
}

// IsClientBlocked reports whether err carries a known blocked-request signature.
// It only classifies; storage behavior does not change.
func IsClientBlocked(err error) bool {
	if err == nil {
		return false
	}
	text := err.Error()
	for _, sig := range blockedSignatures {
		if strings.Contains(text, sig) {
			return true
		}
	}
	return false
}
