package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"susu-app-go/internal/config"
	"susu-app-go/pkg/logger"
)

var ErrNotConfigured = errors.New("cloudinary credentials not configured")

type Uploader struct {
	cld *cloudinary.Cloudinary
	log logger.Logger
}

func New(cfg config.CloudinaryConfig, log logger.Logger) (*Uploader, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return &Uploader{log: log}, nil
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	cld.Config.URL.Secure = true
	return &Uploader{cld: cld, log: log}, nil
}

// Upload stores an image under folder and returns its https URL. The
// transformation uses Cloudinary's string syntax, e.g. "c_limit,w_500".
func (u *Uploader) Upload(ctx context.Context, file io.Reader, folder, transformation string) (string, error) {
	if u.cld == nil {
		return "", ErrNotConfigured
	}

	resp, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:         folder,
		Transformation: transformation,
		ResourceType:   "image",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return "", fmt.Errorf("cloudinary upload: empty secure url")
	}

	u.log.Debug("cloudinary: uploaded", "folder", folder, "public_id", resp.PublicID)
	return resp.SecureURL, nil
}
