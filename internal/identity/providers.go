package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const (
	GoogleIssuer    = "https://accounts.google.com"
	DefaultGraphURL = "https://graph.facebook.com"
)

// Google verifies Google ID tokens against the discovered issuer keys.
type Google struct {
	verifier *oidc.IDTokenVerifier
}

// NewGoogle discovers the issuer and returns a verifier bound to clientID.
func NewGoogle(ctx context.Context, issuer, clientID string) (*Google, error) {
	if issuer == "" {
		issuer = GoogleIssuer
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	return &Google{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

// Verify implements Verifier. credential is a signed ID token.
func (g *Google) Verify(ctx context.Context, credential string) (map[string]interface{}, error) {
	tok, err := g.verifier.Verify(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}
	claims := map[string]interface{}{}
	if err := tok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	if _, ok := claims["id"]; !ok {
		claims["id"] = tok.Subject
	}
	return claims, nil
}

// Facebook reads the Graph /me profile with a user access token.
type Facebook struct {
	graphURL string
}

// NewFacebook creates a Graph verifier. Empty graphURL uses the public API.
func NewFacebook(graphURL string) *Facebook {
	if graphURL == "" {
		graphURL = DefaultGraphURL
	}
	return &Facebook{graphURL: graphURL}
}

// Verify implements Verifier. credential is a user access token.
func (f *Facebook) Verify(ctx context.Context, credential string) (map[string]interface{}, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: credential}))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.graphURL+"/me?fields=id,name,email", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graph status: %d", resp.StatusCode)
	}
	out := map[string]interface{}{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return out, nil
}
