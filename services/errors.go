package services

import "net/http"

// ErrorKind classifies a ServiceError independently of its HTTP status.
type ErrorKind string

const (
	KindNotFound            ErrorKind = "not_found"
	KindInvalidInput        ErrorKind = "invalid_input"
	KindRuleViolation       ErrorKind = "rule_violation"
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	KindConflict            ErrorKind = "conflict"
	KindUnauthorized        ErrorKind = "unauthorized"
	KindInternal            ErrorKind = "internal"
)

// ServiceError represents a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Kind       ErrorKind
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func notFoundError(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusNotFound, Kind: KindNotFound, Message: msg}
}

func invalidInputError(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusBadRequest, Kind: KindInvalidInput, Message: msg}
}

func ruleViolationError(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusConflict, Kind: KindRuleViolation, Message: msg}
}

func conflictError(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusConflict, Kind: KindConflict, Message: msg}
}

func upstreamError(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusServiceUnavailable, Kind: KindUpstreamUnavailable, Message: msg}
}

func unauthorizedError(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusUnauthorized, Kind: KindUnauthorized, Message: msg}
}

func internalError(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusInternalServerError, Kind: KindInternal, Message: msg}
}
