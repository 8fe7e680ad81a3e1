// Package auth resolves credentials for the video backend and creates the
// genai client.
//
// Two backends are supported: Vertex AI (project + location, authenticated
// with a service-account key file through Application Default Credentials)
// and the Gemini API (API key).
package auth

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const (
	credentialDir  = ".media-video-agent"
	credentialFile = "credentials.gpg"

	// envADC is read by Application Default Credentials.
	envADC = "GOOGLE_APPLICATION_CREDENTIALS"
)

// Settings selects and authenticates the backend.
type Settings struct {
	ProjectID       string
	Location        string
	CredentialsFile string
	APIKey          string
}

// UseVertex reports whether the Vertex AI backend is selected.
func (s Settings) UseVertex() bool {
	return s.ProjectID != ""
}

// ClientConfig builds the genai client configuration. For Vertex AI the
// credentials file must exist; it is exported through
// GOOGLE_APPLICATION_CREDENTIALS so Application Default Credentials find it.
// For the Gemini API the key comes from Settings, GEMINI_API_KEY or the
// GPG-encrypted credentials file, in that order.
func ClientConfig(s Settings) (*genai.ClientConfig, error) {
	if s.UseVertex() {
		if s.CredentialsFile != "" {
			if _, err := os.Stat(s.CredentialsFile); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil, &ValidationError{
						Type:    ErrTypeMissingCredentials,
						Message: fmt.Sprintf("credentials file not found: %s", s.CredentialsFile),
					}
				}
				return nil, &ValidationError{Type: ErrTypeMissingCredentials, Message: "cannot read credentials file", Err: err}
			}
			if err := os.Setenv(envADC, s.CredentialsFile); err != nil {
				return nil, fmt.Errorf("failed to export %s: %w", envADC, err)
			}
			log.Debug().Str("file", s.CredentialsFile).Msg("Using service account credentials")
		}
		location := s.Location
		if location == "" {
			location = "us-central1"
		}
		return &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  s.ProjectID,
			Location: location,
		}, nil
	}

	key := s.APIKey
	if key == "" {
		var err error
		key, err = GetAPIKey()
		if err != nil {
			return nil, &ValidationError{Type: ErrTypeNoKey, Message: "no video backend configured", Err: err}
		}
	}
	return &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  key,
	}, nil
}

// NewVideoClient creates a genai client for the configured backend.
func NewVideoClient(ctx context.Context, s Settings) (*genai.Client, error) {
	cc, err := ClientConfig(s)
	if err != nil {
		return nil, err
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	backend := "gemini-api"
	if s.UseVertex() {
		backend = "vertex-ai"
	}
	log.Info().Str("backend", backend).Str("project", s.ProjectID).Msg("Video client initialized")
	return client, nil
}

// GetAPIKey retrieves the Gemini API key.
// Priority order:
//  1. GEMINI_API_KEY environment variable
//  2. GPG-encrypted file at ~/.media-video-agent/credentials.gpg
func GetAPIKey() (string, error) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		log.Debug().Msg("Using API key from environment variable")
		return key, nil
	}

	key, err := getFromGPG()
	if err == nil && key != "" {
		log.Debug().Msg("Using API key from GPG encrypted file")
		return key, nil
	}

	log.Debug().Err(err).Msg("No API key available")
	return "", fmt.Errorf("API key not found. Set GEMINI_API_KEY, or GCP_PROJECT_ID for Vertex AI")
}

// getFromGPG decrypts the API key from the GPG-encrypted credentials file.
func getFromGPG() (string, error) {
	credPath, err := getCredentialPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(credPath); os.IsNotExist(err) {
		return "", fmt.Errorf("GPG credentials file not found at %s", credPath)
	}

	log.Debug().Str("file", credPath).Msg("Decrypting GPG credentials")

	cmd := exec.Command("gpg", "--decrypt", "--quiet", credPath)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("GPG decryption failed: %s", string(exitErr.Stderr))
		}
		return "", fmt.Errorf("GPG decryption failed: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

// getCredentialPath returns the full path to the credentials file.
func getCredentialPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, credentialDir, credentialFile), nil
}
