// Package storage persists call recordings in S3-compatible object
// storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"fusioncaller_backend/platform/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL is the expiration for recording playback URLs.
const PresignedURLTTL = 15 * time.Minute

// maxRecordingBytes caps provider recording downloads.
const maxRecordingBytes = 256 << 20

// MinIOService stores call recordings in a MinIO bucket.
type MinIOService struct {
	client *minio.Client
	bucket string
	http   *http.Client
}

// NewMinIOService creates the recording storage service. Returns an error
// when MinIO is not configured; callers treat storage as optional.
func NewMinIOService(cfg config.StorageConfig) (*MinIOService, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOService{
		client: client,
		bucket: cfg.GetMinioBucketCallRecordings(),
		http:   &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// EnsureBucketExists creates the recordings bucket if needed.
func (s *MinIOService) EnsureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// StoreRecording downloads a provider recording and stores it under
// <orgID>/<attemptID>.mp3, returning the object key.
func (s *MinIOService) StoreRecording(ctx context.Context, orgID, attemptID uuid.UUID, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid recording URL: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch recording: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("recording fetch returned status %d", resp.StatusCode)
	}
	if resp.ContentLength > maxRecordingBytes {
		return "", fmt.Errorf("recording exceeds size limit")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	// Chunked responses carry no Content-Length, so the cap is also
	// enforced while streaming.
	body := &cappedReader{r: resp.Body, remaining: maxRecordingBytes}

	key := path.Join(orgID.String(), attemptID.String()+".mp3")
	_, err = s.client.PutObject(ctx, s.bucket, key, body, resp.ContentLength, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store recording: %w", err)
	}
	return key, nil
}

// cappedReader fails the read once more than the allowed number of
// bytes has been consumed.
type cappedReader struct {
	r         io.Reader
	remaining int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return n, fmt.Errorf("recording exceeds size limit")
	}
	return n, err
}

// PlaybackURL generates a presigned GET URL for a stored recording.
func (s *MinIOService) PlaybackURL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, PresignedURLTTL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate playback URL: %w", err)
	}
	return u.String(), nil
}
