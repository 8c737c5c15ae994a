package domain

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindNotFound            ErrorKind = "not_found"
	KindValidation          ErrorKind = "validation_error"
	KindAmbiguous           ErrorKind = "ambiguous"
	KindUnactionable        ErrorKind = "unactionable"
	KindServiceUnavailable  ErrorKind = "service_unavailable"
	KindTranslationDegraded ErrorKind = "translation_degraded"
)

// Validation failure reasons.
const (
	ReasonOutOfRange   = "out_of_range"
	ReasonUnknownValue = "unknown_value"
	ReasonMissing      = "missing"
	ReasonInvalidType  = "invalid_type"
	ReasonUnsupported  = "unsupported"
	ReasonDeviceOff    = "device_off"
)

type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("device not found: %s", e.ID)
}

type ValidationError struct {
	Field  string
	Reason string
	Value  any
	// Allowed describes the accepted values, e.g. "16-30" or "cool, heat".
	Allowed string
	// Device is the display name of the device the value was meant for.
	Device string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != nil {
		msg += fmt.Sprintf(" (got %v)", e.Value)
	}
	if e.Allowed != "" {
		msg += fmt.Sprintf(", allowed %s", e.Allowed)
	}
	return msg
}

// IntentError is returned by intent resolution when no action can be derived.
type IntentError struct {
	Kind       ErrorKind
	Message    string
	Candidates []string
	Err        error
}

func (e *IntentError) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if len(e.Candidates) > 0 {
		msg += " [" + strings.Join(e.Candidates, ", ") + "]"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *IntentError) Unwrap() error { return e.Err }

// UnavailableError marks a collaborator or device that cannot serve the
// request right now (LLM timeout, device offline).
type UnavailableError struct {
	Service string
	Err     error
}

func (e *UnavailableError) Error() string {
	if e.Err == nil {
		return e.Service + " is unavailable"
	}
	return fmt.Sprintf("%s is unavailable: %v", e.Service, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// ErrOffline is wrapped by UnavailableError for devices with Online=false.
var ErrOffline = errors.New("offline")

// KindOf classifies an error into the error taxonomy.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var intentErr *IntentError
	if errors.As(err, &intentErr) {
		return intentErr.Kind
	}

	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return KindNotFound
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		return KindValidation
	}

	return KindServiceUnavailable
}
