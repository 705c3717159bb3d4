package auth

import (
	"errors"
	"fmt"
)

// Code identifies an auth failure the client can show a message for.
type Code string

const (
	CodeEmailInUse         Code = "email-already-in-use"
	CodeInvalidEmail       Code = "invalid-email"
	CodeWeakPassword       Code = "weak-password"
	CodeMissingDisplayName Code = "missing-display-name"
	CodeUserNotFound       Code = "user-not-found"
	CodeWrongPassword      Code = "wrong-password"
	CodeInvalidCredential  Code = "invalid-credential"
	CodeSessionExpired     Code = "session-expired"
	CodeTooManyRequests    Code = "too-many-requests"
)

// GenericMessage is shown for anything outside the code table.
const GenericMessage = "Something went wrong. Please try again."

var messages = map[Code]string{
	CodeEmailInUse:         "An account with this email already exists.",
	CodeInvalidEmail:       "Please enter a valid email address.",
	CodeWeakPassword:       "Password must be between 6 and 72 characters.",
	CodeMissingDisplayName: "Please enter your name.",
	CodeUserNotFound:       "No account found with this email.",
	CodeWrongPassword:      "Incorrect password.",
	CodeInvalidCredential:  "Your session is not valid. Please sign in again.",
	CodeSessionExpired:     "Your session has expired. Please sign in again.",
	CodeTooManyRequests:    "Too many failed attempts. Please try again later.",
}

// Error is an auth failure with a known code.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth/%s: %v", e.Code, e.Err)
	}
	return "auth/" + string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// CodeOf returns the code carried by err, or "" when err is not an auth Error.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// Message maps err to a sentence for the user.
func Message(err error) string {
	if msg, ok := messages[CodeOf(err)]; ok {
		return msg
	}
	return GenericMessage
}
