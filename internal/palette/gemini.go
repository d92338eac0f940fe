package palette

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultGeminiURL is the generative language API root.
	DefaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultGeminiModel is the model asked for palettes.
	DefaultGeminiModel = "gemini-2.5-flash"
)

// Gemini asks the Gemini generateContent API for a JSON list of colors.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGemini creates a Gemini suggester. Empty model/baseURL use the defaults.
func NewGemini(apiKey, model, baseURL string, timeout time.Duration) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	if baseURL == "" {
		baseURL = DefaultGeminiURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Gemini{apiKey: apiKey, model: model, baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig map[string]interface{} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func prompt(eventName string) string {
	return fmt.Sprintf("Gere uma lista de 5 códigos de cor hexadecimais que combinem com a vibe de uma festa chamada %q. "+
		"As cores devem ser vibrantes e adequadas para um show de luzes (light show).", eventName)
}

// Suggest implements Suggester.
func (g *Gemini) Suggest(ctx context.Context, eventName string) ([]string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt(eventName)}}}},
		GenerationConfig: map[string]interface{}{
			"responseMimeType": "application/json",
			"responseSchema": map[string]interface{}{
				"type": "OBJECT",
				"properties": map[string]interface{}{
					"colors": map[string]interface{}{
						"type":        "ARRAY",
						"items":       map[string]string{"type": "STRING"},
						"description": "Lista de códigos hexadecimais de cores",
					},
				},
				"required": []string{"colors"},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini status: %d", resp.StatusCode)
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini: empty response")
	}
	var result struct {
		Colors []string `json:"colors"`
	}
	if err := json.Unmarshal([]byte(out.Candidates[0].Content.Parts[0].Text), &result); err != nil {
		return nil, fmt.Errorf("decode colors: %w", err)
	}
	return result.Colors, nil
}
