// Package palette suggests light-show colors for an event name.
package palette

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/color-vibe/backend/internal/models"
)

// MaxColors is the most colors kept from one suggestion.
const MaxColors = 5

var (
	// Initial is shown before any suggestion has been requested.
	Initial = []string{"#EF4444", "#3B82F6", "#10B981", "#F59E0B", "#8B5CF6"}
	// Fallback replaces any failed or empty suggestion.
	Fallback = []string{"#FF0055", "#0055FF", "#55FF00", "#FFFF00", "#FF00FF"}
	// Unconfigured is returned when no suggestion service is configured.
	Unconfigured = []string{"#FF0000", "#00FF00", "#0000FF"}
	// Manual is the fixed picker offered next to suggestions.
	Manual = []string{"#FF0000", "#00FF00", "#0000FF", "#FFFF00", "#00FFFF", "#FF00FF", "#FFFFFF", "#000000", "#FF6B6B", "#4ECDC4"}
	// Disco is cycled locally by screens while random mode is on.
	Disco = []string{"#FF00FF", "#00FFFF", "#00FF00", "#FFFF00", "#FF0000", "#7B00FF", "#FF1493", "#39FF14", "#00C2BA", "#FF4500"}
)

// Suggester is the external palette capability.
type Suggester interface {
	Suggest(ctx context.Context, eventName string) ([]string, error)
}

// Service applies the fallback policy around a Suggester: it never returns an error.
type Service struct {
	suggester Suggester
	logger    *zap.Logger
}

// NewService creates a palette service. suggester may be nil (unconfigured).
func NewService(suggester Suggester, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{suggester: suggester, logger: logger}
}

// ForEvent returns up to MaxColors valid hex colors for eventName.
func (s *Service) ForEvent(ctx context.Context, eventName string) []string {
	if s == nil || s.suggester == nil {
		return clone(Unconfigured)
	}
	raw, err := s.suggester.Suggest(ctx, eventName)
	if err != nil {
		s.logger.Warn("palette suggestion failed", zap.String("event_name", eventName), zap.Error(err))
		return clone(Fallback)
	}
	colors := Sanitize(raw)
	if len(colors) == 0 {
		return clone(Fallback)
	}
	return colors
}

// Sanitize keeps valid hex colors (upper-cased, '#' added when missing), at most MaxColors.
func Sanitize(raw []string) []string {
	out := make([]string, 0, MaxColors)
	for _, c := range raw {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c != "" && !strings.HasPrefix(c, "#") {
			c = "#" + c
		}
		if !models.ValidColor(c) {
			continue
		}
		out = append(out, c)
		if len(out) == MaxColors {
			break
		}
	}
	return out
}

func clone(list []string) []string {
	return append([]string(nil), list...)
}
