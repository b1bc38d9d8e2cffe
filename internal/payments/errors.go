package payments

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/peterssg513/willowandwater-sub001/internal/constants"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
	"github.com/stripe/stripe-go/v82"
)

type ErrorKind string

const (
	ErrorKindConfig         ErrorKind = "config"
	ErrorKindInvalidRequest ErrorKind = "invalid_request"
	ErrorKindCard           ErrorKind = "card"
	ErrorKindUnknown        ErrorKind = "unknown"
)

// Error is a gateway failure with a message safe to show a customer.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment %s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("payment %s error", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify maps a gateway error onto the payment error taxonomy.
// A nil error classifies to nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	if errors.Is(err, utils.ErrNotConfigured) {
		return &Error{Kind: ErrorKindConfig, Message: constants.MsgPaymentConfig, Err: err}
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.HTTPStatusCode == http.StatusUnauthorized:
			return &Error{Kind: ErrorKindConfig, Message: constants.MsgPaymentConfig, Err: err}
		case stripeErr.Type == stripe.ErrorTypeCard:
			return &Error{Kind: ErrorKindCard, Message: constants.MsgPaymentCard, Err: err}
		case stripeErr.Type == stripe.ErrorTypeInvalidRequest:
			return &Error{Kind: ErrorKindInvalidRequest, Message: constants.MsgPaymentInvalid, Err: err}
		}
	}
	return &Error{Kind: ErrorKindUnknown, Message: constants.MsgPaymentUnknown, Err: err}
}

// AppError converts a classified payment error into an HTTP-facing error.
func (e *Error) AppError() *utils.AppError {
	status := http.StatusBadGateway
	code := utils.ErrCodeExternalServiceFailure
	switch e.Kind {
	case ErrorKindConfig:
		status = http.StatusInternalServerError
		code = utils.ErrCodePaymentConfig
	case ErrorKindInvalidRequest:
		status = http.StatusBadRequest
		code = utils.ErrCodeInvalidPayload
	case ErrorKindCard:
		status = http.StatusPaymentRequired
		code = utils.ErrCodePaymentRejected
	}
	return &utils.AppError{StatusCode: status, Code: code, Message: e.Message, Err: e}
}
