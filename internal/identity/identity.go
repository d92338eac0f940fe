// Package identity turns a provider credential into a normalized user profile.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/color-vibe/backend/internal/models"
)

var (
	ErrInvalidProfile  = errors.New("provider returned no usable identity")
	ErrUnknownProvider = errors.New("unknown identity provider")
	ErrNoCredential    = errors.New("credential required")
)

// Default display names when a provider gives none.
const (
	DefaultAdminName = "Administrador"
	DefaultUserName  = "Festeiro"
)

// Verifier exchanges a provider credential for that provider's raw user attributes.
type Verifier interface {
	Verify(ctx context.Context, credential string) (map[string]interface{}, error)
}

// Demo is the verifier used when a provider has no client configured: it ignores
// the credential and returns a fixed test account.
type Demo map[string]interface{}

func (d Demo) Verify(context.Context, string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out, nil
}

var (
	DemoGoogle   = Demo{"name": "Admin Google Teste", "email": "admin_google@test.com", "id": "admin_google@test.com"}
	DemoFacebook = Demo{"name": "Admin FB Teste", "email": "admin_fb@test.com", "id": "admin_fb@test.com"}
)

// Service logs users in through the configured providers.
type Service struct {
	verifiers map[models.Provider]Verifier
	logger    *zap.Logger
}

// NewService creates an identity service. A nil google or facebook verifier falls
// back to the matching demo account.
func NewService(google, facebook Verifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if google == nil {
		logger.Warn("google login not configured, using demo account")
		google = DemoGoogle
	}
	if facebook == nil {
		logger.Warn("facebook login not configured, using demo account")
		facebook = DemoFacebook
	}
	return &Service{
		verifiers: map[models.Provider]Verifier{
			models.ProviderGoogle:   google,
			models.ProviderFacebook: facebook,
		},
		logger: logger,
	}
}

// Login resolves provider/credential into a profile with the requested role.
// Guests need no credential and get a fresh random id.
func (s *Service) Login(ctx context.Context, provider models.Provider, credential string, role models.Role) (models.UserProfile, error) {
	if provider == models.ProviderGuest {
		return models.UserProfile{
			ID:       "user_" + uuid.NewString(),
			Name:     defaultName(role),
			Role:     role,
			Provider: models.ProviderGuest,
		}, nil
	}
	v, ok := s.verifiers[provider]
	if !ok {
		return models.UserProfile{}, ErrUnknownProvider
	}
	if _, demo := v.(Demo); !demo && strings.TrimSpace(credential) == "" {
		return models.UserProfile{}, ErrNoCredential
	}
	raw, err := v.Verify(ctx, credential)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("verify %s credential: %w", provider, err)
	}
	p, err := Normalize(provider, role, raw)
	if err != nil {
		return models.UserProfile{}, err
	}
	s.logger.Info("user logged in", zap.String("provider", string(provider)), zap.String("user_id", p.ID), zap.String("role", string(role)))
	return p, nil
}

// Normalize maps raw provider attributes onto a profile. The email, when present,
// is the id so the same person keeps their events across providers' id schemes.
// Fails closed when neither an email nor an id is present.
func Normalize(provider models.Provider, role models.Role, raw map[string]interface{}) (models.UserProfile, error) {
	email := str(raw, "email")
	id := email
	if id == "" {
		id = str(raw, "id", "sub")
	}
	if id == "" {
		return models.UserProfile{}, ErrInvalidProfile
	}
	name := str(raw, "name", "given_name")
	if name == "" {
		name = defaultName(role)
	}
	return models.UserProfile{
		ID:       id,
		Name:     name,
		Email:    email,
		Role:     role,
		Provider: provider,
	}, nil
}

func defaultName(role models.Role) string {
	if role == models.RoleAdmin {
		return DefaultAdminName
	}
	return DefaultUserName
}

// str returns the first non-empty string value among keys.
func str(raw map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k].(string); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}
