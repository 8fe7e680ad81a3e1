package veo

import (
	"errors"
	"strings"

	"google.golang.org/genai"
)

// Cause categorizes a generation failure.
type Cause string

const (
	CauseTimeout     Cause = "timeout"
	CausePermission  Cause = "permission"
	CauseBilling     Cause = "billing"
	CauseQuota       Cause = "quota"
	CauseNotFound    Cause = "not_found"
	CauseEmptyResult Cause = "empty_result"
	CauseUnknown     Cause = "unknown"
)

// GenerationError is returned for every failed generation.
type GenerationError struct {
	Cause Cause
	// Operation is the remote operation name, when one was started.
	Operation string
	Message   string
	Err       error
}

func (e *GenerationError) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg != "" {
			msg += ": "
		}
		msg += e.Err.Error()
	}
	if hint := e.Hint(); hint != "" {
		msg += " | hint: " + hint
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Hint returns a remediation suggestion for the cause, or "" when there is none.
func (e *GenerationError) Hint() string {
	switch e.Cause {
	case CausePermission:
		return "grant the Vertex AI User role (roles/aiplatform.user) to the credentials in use"
	case CauseBilling:
		return "enable billing on the Google Cloud project"
	case CauseQuota:
		return "review the Vertex AI quotas for the project and region"
	case CauseNotFound:
		return "use region us-central1 and check the model name"
	case CauseTimeout:
		return "the remote operation keeps running; raise the timeout or try again later"
	default:
		return ""
	}
}

// IsCause reports whether err is a *GenerationError with the given cause.
func IsCause(err error, cause Cause) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr) && genErr.Cause == cause
}

// classify maps an error to a Cause. Structured API errors are checked first;
// anything else falls back to matching well-known markers in the message.
func classify(err error) Cause {
	if err == nil {
		return CauseUnknown
	}

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		if cause := classifyAPIError(apiErr); cause != CauseUnknown {
			return cause
		}
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Cause
	}

	return classifyMessage(err.Error())
}

// classifyAPIError categorizes a Google API error by status, then by code.
func classifyAPIError(err *genai.APIError) Cause {
	switch err.Status {
	case "PERMISSION_DENIED":
		return CausePermission
	case "FAILED_PRECONDITION":
		return CauseBilling
	case "RESOURCE_EXHAUSTED":
		return CauseQuota
	case "NOT_FOUND":
		return CauseNotFound
	}

	switch err.Code {
	case 403:
		return CausePermission
	case 429:
		return CauseQuota
	case 404:
		return CauseNotFound
	}
	return classifyMessage(err.Message)
}

func classifyMessage(msg string) Cause {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "PERMISSION_DENIED") || strings.Contains(msg, "403"):
		return CausePermission
	case strings.Contains(msg, "FAILED_PRECONDITION") || strings.Contains(lower, "billing"):
		return CauseBilling
	case strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(lower, "quota"):
		return CauseQuota
	case strings.Contains(msg, "NOT_FOUND") || strings.Contains(msg, "404"):
		return CauseNotFound
	default:
		return CauseUnknown
	}
}

// wrapError builds a GenerationError for err, classifying it.
func wrapError(opName, message string, err error) *GenerationError {
	return &GenerationError{
		Cause:     classify(err),
		Operation: opName,
		Message:   message,
		Err:       err,
	}
}

func emptyResult(opName, message string) *GenerationError {
	return &GenerationError{
		Cause:     CauseEmptyResult,
		Operation: opName,
		Message:   message,
	}
}
