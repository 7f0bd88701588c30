package serviceerrs

import (
	"errors"
	"fmt"
)

var (
	ErrMissingReportURL = errors.New("report file url missing")
	ErrMissingOrderName = errors.New("order name is required")
	ErrMissingCustomerID = errors.New("customer id missing")
	ErrEmptyContent     = errors.New("content can not be blank for email")
	ErrBlankPayload     = errors.New("payload can not be blank")
	ErrShopNotFound     = errors.New("shop is not installed")
	ErrTokenExpired     = errors.New("token expired")
)

// UpstreamError marks failures reported by a remote API: GraphQL
// errors, userErrors and malformed responses. Transport failures stay
// plain wrapped errors.
type UpstreamError struct {
	Op     string
	Reason string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream error: %s", e.Op, e.Reason)
}

func (e *UpstreamError) Is(target error) bool {
	_, ok := target.(*UpstreamError)
	return ok
}
