package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// ValidationError represents a credential or connectivity failure detected
// at startup.
type ValidationError struct {
	Type    ValidationErrorType
	Message string
	Err     error
}

// ValidationErrorType categorizes validation failures.
type ValidationErrorType int

const (
	// ErrTypeNoKey indicates neither an API key nor a Vertex AI project was found.
	ErrTypeNoKey ValidationErrorType = iota
	// ErrTypeMissingCredentials indicates the service account key file is missing.
	ErrTypeMissingCredentials
	// ErrTypeInvalidKey indicates the credentials are invalid or lack permissions.
	ErrTypeInvalidKey
	// ErrTypeModelNotFound indicates the model is unknown in the selected region.
	ErrTypeModelNotFound
	// ErrTypeNetworkError indicates a network connectivity issue.
	ErrTypeNetworkError
	// ErrTypeQuotaExceeded indicates the API quota has been exceeded.
	ErrTypeQuotaExceeded
	// ErrTypeUnknown indicates an unknown error occurred.
	ErrTypeUnknown
)

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ModelGetter is the part of genai.Models used for validation.
type ModelGetter interface {
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// ValidateModel checks that the credentials work and the video model is
// reachable by fetching the model's metadata. It generates nothing.
func ValidateModel(ctx context.Context, models ModelGetter, model string) error {
	log.Debug().Str("model", model).Msg("Validating video model access")

	start := time.Now()
	m, err := models.Get(ctx, model, nil)
	elapsed := time.Since(start)
	if err != nil {
		return classifyError(err)
	}
	if m == nil {
		return &ValidationError{Type: ErrTypeUnknown, Message: "API returned empty model metadata"}
	}

	log.Info().
		Str("model", model).
		Dur("duration", elapsed).
		Msg("Video model access validated")
	return nil
}

// classifyError analyzes an error and returns a ValidationError with the appropriate type.
func classifyError(err error) *ValidationError {
	if err == nil {
		return nil
	}

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(apiErr)
	}

	errLower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errLower, "api key not valid") ||
		strings.Contains(errLower, "invalid api key") ||
		strings.Contains(errLower, "permission denied") ||
		strings.Contains(errLower, "could not find default credentials"):
		log.Error().Err(err).Msg("Invalid credentials")
		return &ValidationError{
			Type:    ErrTypeInvalidKey,
			Message: "credentials are invalid or lack permissions",
			Err:     err,
		}

	case strings.Contains(errLower, "quota") ||
		strings.Contains(errLower, "resource exhausted") ||
		strings.Contains(errLower, "rate limit"):
		log.Error().Err(err).Msg("API quota exceeded")
		return &ValidationError{
			Type:    ErrTypeQuotaExceeded,
			Message: "API quota exceeded or rate limited",
			Err:     err,
		}

	case strings.Contains(errLower, "connection") ||
		strings.Contains(errLower, "network") ||
		strings.Contains(errLower, "timeout") ||
		strings.Contains(errLower, "dial") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "unreachable"):
		log.Error().Err(err).Msg("Network error during validation")
		return &ValidationError{
			Type:    ErrTypeNetworkError,
			Message: "Network error - check your internet connection",
			Err:     err,
		}

	default:
		log.Error().Err(err).Msg("Unknown error during validation")
		return &ValidationError{
			Type:    ErrTypeUnknown,
			Message: "failed to validate video backend access",
			Err:     err,
		}
	}
}

// classifyAPIError categorizes a Google API error.
func classifyAPIError(err *genai.APIError) *ValidationError {
	switch err.Code {
	case 400:
		log.Error().Int("code", err.Code).Msg("Bad request - possibly malformed credentials")
		return &ValidationError{
			Type:    ErrTypeInvalidKey,
			Message: "Bad request - API key may be malformed",
			Err:     err,
		}

	case 401, 403:
		log.Error().Int("code", err.Code).Msg("Authentication failed")
		return &ValidationError{
			Type:    ErrTypeInvalidKey,
			Message: "credentials are invalid, expired, or lack the Vertex AI User role",
			Err:     err,
		}

	case 404:
		log.Error().Int("code", err.Code).Msg("Model not found")
		return &ValidationError{
			Type:    ErrTypeModelNotFound,
			Message: "video model not found - check the region and model name",
			Err:     err,
		}

	case 429:
		log.Error().Int("code", err.Code).Msg("Rate limit exceeded")
		return &ValidationError{
			Type:    ErrTypeQuotaExceeded,
			Message: "API rate limit exceeded - try again later",
			Err:     err,
		}

	case 500, 502, 503, 504:
		log.Error().Int("code", err.Code).Msg("Server error during validation")
		return &ValidationError{
			Type:    ErrTypeNetworkError,
			Message: "video API server error - try again later",
			Err:     err,
		}

	default:
		log.Error().Int("code", err.Code).Str("message", err.Message).Msg("Google API error")
		return &ValidationError{
			Type:    ErrTypeUnknown,
			Message: err.Message,
			Err:     err,
		}
	}
}
