package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Explain renders an error as a short English sentence for the user.
func Explain(err error) string {
	if err == nil {
		return ""
	}

	var intentErr *IntentError
	if errors.As(err, &intentErr) {
		return explainIntent(intentErr)
	}

	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return fmt.Sprintf("❌ Device '%s' not found", notFound.ID)
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		return explainValidation(validation)
	}

	var unavailable *UnavailableError
	if errors.As(err, &unavailable) {
		if errors.Is(err, ErrOffline) {
			return fmt.Sprintf("❌ %s is offline", unavailable.Service)
		}
		return fmt.Sprintf("😔 Sorry, the %s service is not responding right now. Please try again.", unavailable.Service)
	}

	return fmt.Sprintf("❌ Something went wrong: %v", err)
}

func explainIntent(e *IntentError) string {
	switch e.Kind {
	case KindAmbiguous:
		return fmt.Sprintf("❓ Which one do you mean: %s?", strings.Join(e.Candidates, ", "))
	case KindServiceUnavailable:
		return "😔 Sorry, I can't understand commands right now. Please try again in a moment."
	case KindUnactionable:
		if e.Message != "" {
			return e.Message
		}
		return "🤔 Sorry, I can only help with your lamps, air conditioners and TV."
	}
	return "❌ " + e.Error()
}

func explainValidation(e *ValidationError) string {
	field := strings.ReplaceAll(e.Field, "_", " ")
	switch e.Reason {
	case ReasonDeviceOff:
		return fmt.Sprintf("❌ %s is off. Turn it on first", e.Device)
	case ReasonOutOfRange:
		return fmt.Sprintf("❌ Invalid %s. Please use %s", field, e.Allowed)
	case ReasonUnknownValue:
		return fmt.Sprintf("❌ Invalid %s. Available: %s", field, e.Allowed)
	case ReasonInvalidType:
		return fmt.Sprintf("❌ Invalid value '%v' for %s", e.Value, field)
	case ReasonMissing:
		if e.Field == "parameters" {
			return "❌ Please specify a value"
		}
		return fmt.Sprintf("❌ Please specify %s", field)
	case ReasonUnsupported:
		if e.Field == "action" && e.Allowed == "off" {
			return "❌ Only 'off' is supported for all devices"
		}
		if e.Allowed != "" {
			return fmt.Sprintf("❌ %s is not supported. Available: %s", field, e.Allowed)
		}
		return fmt.Sprintf("❌ %s is not supported", field)
	}
	return "❌ " + e.Error()
}
