package media

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStorage struct {
	presignErr error
	lastTTL    time.Duration
}

func (f *fakeStorage) EnsureBucket(_ context.Context) error {
	return nil
}

func (f *fakeStorage) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	f.lastTTL = ttl
	return "https://signed.local/" + key, nil
}

func TestPhotoURLSignsKey(t *testing.T) {
	storage := &fakeStorage{}
	svc := NewService(storage)

	url, err := svc.PhotoURL(context.Background(), "users/u1/photos/a.jpg")
	if err != nil {
		t.Fatalf("photo url: %v", err)
	}
	if url != "https://signed.local/users/u1/photos/a.jpg" {
		t.Fatalf("unexpected url: %s", url)
	}
	if storage.lastTTL != signedURLTTL {
		t.Fatalf("unexpected ttl: %s", storage.lastTTL)
	}
}

func TestPhotoURLEmptyKeyIsNotAnError(t *testing.T) {
	svc := NewService(&fakeStorage{})

	url, err := svc.PhotoURL(context.Background(), "")
	if err != nil {
		t.Fatalf("empty key: %v", err)
	}
	if url != "" {
		t.Fatalf("expected empty url, got %s", url)
	}
}

func TestPhotoURLPropagatesStorageFailure(t *testing.T) {
	svc := NewService(&fakeStorage{presignErr: errors.New("access denied")})

	if _, err := svc.PhotoURL(context.Background(), "users/u1/photos/a.jpg"); err == nil {
		t.Fatal("expected storage failure to surface")
	}
}
