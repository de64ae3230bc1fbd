package media

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrValidation = errors.New("validation error")

const signedURLTTL = 5 * time.Minute

// ObjectStorage serves stored profile photos.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Service produces short-lived signed URLs for the photos shown on
// candidate cards. Cards without an uploaded photo get an empty URL,
// never an error.
type Service struct {
	storage ObjectStorage
}

func NewService(storage ObjectStorage) *Service {
	return &Service{storage: storage}
}

func (s *Service) PhotoURL(ctx context.Context, objectKey string) (string, error) {
	if objectKey == "" {
		return "", nil
	}
	if s.storage == nil {
		return "", fmt.Errorf("media storage is not configured")
	}

	url, err := s.storage.PresignGet(ctx, objectKey, signedURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign photo url: %w", err)
	}
	return url, nil
}
