// Package cloudinary stores and removes user avatar images.
package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Service wraps the Cloudinary client for avatar storage.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Upload stores an avatar and returns its secure URL.
func (s *Service) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	result, err := s.client.Upload.Upload(ctx, reader, uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     fmt.Sprintf("avatar-%s-%d", sanitizeName(name), time.Now().Unix()),
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	s.logger.Info().Str("public_id", result.PublicID).Msg("avatar uploaded")

	return result.SecureURL, nil
}

// Destroy removes the asset behind the given secure URL. Used for
// best-effort avatar cleanup when an account is rejected or deleted.
func (s *Service) Destroy(ctx context.Context, avatarURL string) error {
	publicID := publicIDFromURL(avatarURL)
	if publicID == "" {
		return fmt.Errorf("avatar url carries no public id")
	}

	_, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to destroy avatar: %w", err)
	}

	s.logger.Info().Str("public_id", publicID).Msg("avatar destroyed")

	return nil
}

func sanitizeName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, name)

	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "user"
	}

	return cleaned
}

// publicIDFromURL extracts "<folder>/<name>" from a Cloudinary delivery URL
// of the form .../upload/v123/<folder>/<name>.<ext>.
func publicIDFromURL(avatarURL string) string {
	marker := "/upload/"
	idx := strings.Index(avatarURL, marker)
	if idx < 0 {
		return ""
	}

	rest := strings.TrimPrefix(avatarURL[idx+len(marker):], "")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) == 2 && strings.HasPrefix(parts[0], "v") {
		rest = parts[1]
	}

	ext := path.Ext(rest)
	return strings.TrimSuffix(rest, ext)
}
