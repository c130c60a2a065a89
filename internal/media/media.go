// Package media uploads profile and identity images and hands back their URLs.
package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/logging"
	"github.com/saran-1305/job-assigning-app-frontend-main/pkg/utils"
)

// MaxImageBytes bounds what the client will try to upload.
const MaxImageBytes = 10 << 20

// Uploader stores a local file and returns a public URL for it.
type Uploader interface {
	Upload(ctx context.Context, path, folder string) (url string, err error)
}

// IsRemote reports whether ref is already a URL rather than a local path.
func IsRemote(ref string) bool {
	ref = strings.ToLower(strings.TrimSpace(ref))
	return strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://")
}

type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	logger *zap.Logger
}

func NewCloudinary(cloudName, apiKey, apiSecret string, logger *zap.Logger) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("media: initialize cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld, logger: logging.OrNop(logger)}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, path, folder string) (string, error) {
	data, err := readImage(path)
	if err != nil {
		return "", err
	}

	res, err := c.cld.Upload.Upload(ctx, data, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("media: upload %s: %w", filepath.Base(path), err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("media: upload %s: %s", filepath.Base(path), res.Error.Message)
	}

	c.logger.Info("image uploaded",
		zap.String("file", filepath.Base(path)),
		zap.String("folder", folder),
		zap.Int("bytes", len(data)))
	return res.SecureURL, nil
}

func readImage(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("media: %w", err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("media: %s is a directory", path)
	}
	if fi.Size() > MaxImageBytes {
		return nil, fmt.Errorf("media: %s is larger than %d bytes", filepath.Base(path), MaxImageBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("media: read %s: %w", path, err)
	}
	if !utils.IsImage(data) {
		return nil, fmt.Errorf("media: %s is not an image", filepath.Base(path))
	}
	return data, nil
}
