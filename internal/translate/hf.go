package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/lang"
)

// ModelName returns the opus-mt model identifier for a pair.
func ModelName(pair lang.Pair) string {
	return fmt.Sprintf("Helsinki-NLP/opus-mt-%s-%s", pair.Source, pair.Target)
}

// HFLoader loads opus-mt models served over a HuggingFace-style
// inference endpoint. Loading issues a warm-up request that waits for
// the model to spin up, so a returned handle is ready to translate.
type HFLoader struct {
	baseURL   string
	token     string
	maxLength int
	client    *http.Client
	log       zerolog.Logger
}

// NewHFLoader creates a loader for the given endpoint. token may be
// empty for anonymous access; maxLength caps generation per line.
func NewHFLoader(baseURL, token string, maxLength int, logger zerolog.Logger) *HFLoader {
	return &HFLoader{
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
		maxLength: maxLength,
		client:    &http.Client{Timeout: 120 * time.Second},
		log:       logger.With().Str("component", "model_loader").Logger(),
	}
}

// Load warms up the model for pair and returns a handle bound to it.
func (l *HFLoader) Load(ctx context.Context, pair lang.Pair) (Model, error) {
	name := ModelName(pair)
	model := &hfModel{
		url:       l.baseURL + "/models/" + name,
		token:     l.token,
		maxLength: l.maxLength,
		client:    l.client,
	}

	start := time.Now()
	if _, err := model.translate(ctx, "hello", true); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	l.log.Info().Str("model", name).Dur("took", time.Since(start)).Msg("translation model ready")
	return model, nil
}

type hfModel struct {
	url       string
	token     string
	maxLength int
	client    *http.Client
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	MaxLength  int  `json:"max_length"`
	Truncation bool `json:"truncation"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

func (m *hfModel) Translate(ctx context.Context, line string) (string, error) {
	return m.translate(ctx, line, false)
}

func (m *hfModel) translate(ctx context.Context, line string, wait bool) (string, error) {
	body, err := json.Marshal(hfRequest{
		Inputs:     line,
		Parameters: hfParameters{MaxLength: m.maxLength, Truncation: true},
		Options:    hfOptions{WaitForModel: wait},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model endpoint returned %s: %s", resp.Status, snippet(data))
	}

	var out []struct {
		TranslationText string `json:"translation_text"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out) == 0 {
		return "", errors.New("empty model response")
	}
	return out[0].TranslationText, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
