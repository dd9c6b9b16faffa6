package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"konnectia/internal/metrics"
)

// MediaService stores an uploaded file and returns its public URL.
type MediaService interface {
	Upload(ctx context.Context, file io.Reader, folder string) (string, error)
}

type cloudinaryMediaService struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryMediaService(cloudName, apiKey, apiSecret string) (MediaService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &cloudinaryMediaService{cld: cld}, nil
}

func (s *cloudinaryMediaService) Upload(ctx context.Context, file io.Reader, folder string) (string, error) {
	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	result, err := s.cld.Upload.Upload(ctx, fileBytes, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "auto",
	})
	if err != nil {
		metrics.MediaUploadsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}

	metrics.MediaUploadsTotal.WithLabelValues("success").Inc()
	return result.SecureURL, nil
}

var errMediaDisabled = errors.New("media storage is not configured")

type disabledMediaService struct{}

// NewDisabledMediaService is used when no Cloudinary credentials are set.
func NewDisabledMediaService() MediaService {
	return disabledMediaService{}
}

func (disabledMediaService) Upload(context.Context, io.Reader, string) (string, error) {
	return "", errMediaDisabled
}
