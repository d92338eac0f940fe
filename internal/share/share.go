// Package share renders and publishes the QR code that lets attendees join an event.
package share

import (
	"context"
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/color-vibe/backend/internal/links"
)

// QRSize is the PNG edge length in pixels.
const QRSize = 512

// ErrNoUploader is returned by Publish when no object storage is configured.
var ErrNoUploader = errors.New("share storage not configured")

// Uploader stores a rendered code and returns a URL for it.
type Uploader interface {
	PutQR(ctx context.Context, eventID string, png []byte) (string, error)
	DeleteQR(ctx context.Context, eventID string) error
}

// Deferrer queues a code deletion for a background worker.
type Deferrer interface {
	EnqueueQRDelete(ctx context.Context, eventID string) error
}

// Service renders event codes pointing at baseURL.
type Service struct {
	baseURL  string
	uploader Uploader
	deferrer Deferrer
	logger   *zap.Logger
}

// NewService creates a share service. uploader may be nil.
func NewService(baseURL string, uploader Uploader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{baseURL: baseURL, uploader: uploader, logger: logger}
}

// SetDeferrer routes Forget through d instead of deleting inline.
func (s *Service) SetDeferrer(d Deferrer) {
	s.deferrer = d
}

// BaseURL is the public app URL that join links point at.
func (s *Service) BaseURL() string {
	return s.baseURL
}

// URL returns the join URL for eventID.
func (s *Service) URL(eventID string) string {
	return links.EventURL(s.baseURL, eventID)
}

// PNG renders the join URL of eventID as a QR code.
func (s *Service) PNG(eventID string) ([]byte, error) {
	png, err := qrcode.Encode(s.URL(eventID), qrcode.Medium, QRSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// Publish renders and uploads the code for eventID.
func (s *Service) Publish(ctx context.Context, eventID string) (string, error) {
	if s.uploader == nil {
		return "", ErrNoUploader
	}
	png, err := s.PNG(eventID)
	if err != nil {
		return "", err
	}
	u, err := s.uploader.PutQR(ctx, eventID, png)
	if err != nil {
		return "", fmt.Errorf("put qr: %w", err)
	}
	s.logger.Info("share code published", zap.String("event_id", eventID))
	return u, nil
}

// Delete removes the uploaded code for eventID.
func (s *Service) Delete(ctx context.Context, eventID string) error {
	if s.uploader == nil {
		return ErrNoUploader
	}
	return s.uploader.DeleteQR(ctx, eventID)
}

// Forget removes an uploaded code, through the deferrer when one is set.
// Failures are logged only.
func (s *Service) Forget(ctx context.Context, eventID string) {
	if s.uploader == nil {
		return
	}
	if s.deferrer != nil {
		err := s.deferrer.EnqueueQRDelete(ctx, eventID)
		if err == nil {
			return
		}
		s.logger.Warn("queue share code deletion failed, deleting inline", zap.String("event_id", eventID), zap.Error(err))
	}
	if err := s.Delete(ctx, eventID); err != nil {
		s.logger.Warn("delete share code failed", zap.String("event_id", eventID), zap.Error(err))
	}
}
