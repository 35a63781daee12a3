package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"arkival/internal/config"
	"arkival/internal/domain"
	"arkival/internal/port"
)

// MediaFileDownload is a media file together with a short-lived presigned
// URL for its blob.
type MediaFileDownload struct {
	*domain.MediaFile
	DownloadURL string `json:"download_url"`
}

// MediaService serves committed media files.
type MediaService interface {
	GetMediaFile(ctx context.Context, id uuid.UUID) (*MediaFileDownload, error)
}

type mediaService struct {
	media   port.MediaFileRepository
	storage port.ObjectStorage
	cfg     config.S3Config
}

// NewMediaService creates a new MediaService implementation.
func NewMediaService(media port.MediaFileRepository, storage port.ObjectStorage, cfg config.S3Config) MediaService {
	return &mediaService{media: media, storage: storage, cfg: cfg}
}

func (s *mediaService) GetMediaFile(ctx context.Context, id uuid.UUID) (*MediaFileDownload, error) {
	mf, err := s.media.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	url, err := s.storage.GetPresignedURL(ctx, s.cfg.Bucket, mf.StorageKey(), s.cfg.PresignExpiry)
	if err != nil {
		return nil, fmt.Errorf("mediaService.GetMediaFile: presign: %w", err)
	}
	return &MediaFileDownload{MediaFile: mf, DownloadURL: url}, nil
}
