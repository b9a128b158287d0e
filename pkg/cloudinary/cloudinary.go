package cloudinary

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// portraitTransformation crops uploads to the card photo frame around the face.
const portraitTransformation = "c_fill,g_face,w_400,h_500,q_auto"

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// PhotoStore keeps one ID card portrait per account.
type PhotoStore struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs a Cloudinary photo store.
func New(cfg Config, logger zerolog.Logger) (*PhotoStore, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &PhotoStore{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// UploadPhoto stores the portrait for accountID, replacing any previous one,
// and returns its secure URL.
func (s *PhotoStore) UploadPhoto(ctx context.Context, accountID uint, reader io.Reader) (string, error) {
	params := uploader.UploadParams{
		Folder:         s.folder,
		PublicID:       PublicID(accountID),
		ResourceType:   "image",
		Overwrite:      api.Bool(true),
		Invalidate:     api.Bool(true),
		Transformation: portraitTransformation,
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected photo: %s", result.Error.Message)
	}

	s.logger.Info().Uint("account_id", accountID).Str("public_id", result.PublicID).Msg("id photo uploaded")

	return result.SecureURL, nil
}

// PublicID is the stable asset name of an account's portrait.
func PublicID(accountID uint) string {
	return fmt.Sprintf("student-%d", accountID)
}
