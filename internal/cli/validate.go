package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/fpang/media-video-agent/internal/auth"
)

// ValidateAndResolveDirectory checks that the path exists and is a directory,
// then returns the absolute path. Exits fatally on failure.
func ValidateAndResolveDirectory(dirPath string) string {
	abs, err := ResolveDirectory(dirPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", dirPath).Msg("Invalid directory")
	}
	return abs
}

// ResolveDirectory is the non-fatal form of ValidateAndResolveDirectory.
func ResolveDirectory(dirPath string) (string, error) {
	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.New("directory not found")
		}
		return "", err
	}
	if !info.IsDir() {
		return "", errors.New("path is not a directory")
	}

	absPath, err := filepath.Abs(dirPath)
	if err == nil {
		dirPath = absPath
	}
	return dirPath, nil
}

// HandleValidationError processes auth.ValidationError and exits with appropriate messaging.
func HandleValidationError(err error) {
	var validationErr *auth.ValidationError
	if errors.As(err, &validationErr) {
		switch validationErr.Type {
		case auth.ErrTypeNoKey:
			log.Fatal().Msg("No video backend configured. Set GCP_PROJECT_ID for Vertex AI or GEMINI_API_KEY for the Gemini API")
		case auth.ErrTypeMissingCredentials:
			log.Fatal().Err(err).Msg("Service account key not found. Set GOOGLE_APPLICATION_CREDENTIALS or place gcp-credentials.json in the project root")
		case auth.ErrTypeInvalidKey:
			log.Fatal().Err(err).Msg("Credentials rejected. Check the key and that the account has the Vertex AI User role")
		case auth.ErrTypeModelNotFound:
			log.Fatal().Err(err).Msg("Video model not available. Check VEO_MODEL and GCP_LOCATION")
		case auth.ErrTypeNetworkError:
			log.Fatal().Err(err).Msg("Network error. Please check your internet connection")
		case auth.ErrTypeQuotaExceeded:
			log.Fatal().Err(err).Msg("API quota exceeded. Please try again later or check your usage limits")
		default:
			log.Fatal().Err(err).Msg("Video backend validation failed")
		}
	} else {
		log.Fatal().Err(err).Msg("unexpected error during client initialization")
	}
	os.Exit(1)
}
