package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/lang"
)

func TestModelName(t *testing.T) {
	assert.Equal(t, "Helsinki-NLP/opus-mt-en-ru", ModelName(enRU))
	assert.Equal(t, "Helsinki-NLP/opus-mt-uk-pl", ModelName(lang.Pair{Source: lang.Ukrainian, Target: lang.Polish}))
}

func TestHFLoaderWarmupAndTranslate(t *testing.T) {
	type seen struct {
		path string
		auth string
		req  hfRequest
	}
	var requests []seen

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req hfRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, seen{path: r.URL.Path, auth: r.Header.Get("Authorization"), req: req})

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `[{"translation_text":"<%s>"}]`, req.Inputs)
	}))
	defer srv.Close()

	loader := NewHFLoader(srv.URL, "hf-token", 512, zerolog.Nop())

	model, err := loader.Load(context.Background(), lang.Pair{Source: lang.English, Target: lang.Polish})
	require.NoError(t, err)

	out, err := model.Translate(context.Background(), "Hello world")
	require.NoError(t, err)
	assert.Equal(t, "<Hello world>", out)

	require.Len(t, requests, 2)
	assert.Equal(t, "/models/Helsinki-NLP/opus-mt-en-pl", requests[0].path)
	assert.Equal(t, "Bearer hf-token", requests[0].auth)
	assert.True(t, requests[0].req.Options.WaitForModel, "warm-up waits for the model")
	assert.False(t, requests[1].req.Options.WaitForModel)
	assert.Equal(t, "Hello world", requests[1].req.Inputs)
	assert.Equal(t, 512, requests[1].req.Parameters.MaxLength)
	assert.True(t, requests[1].req.Parameters.Truncation)
}

func TestHFLoaderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"Model Helsinki-NLP/opus-mt-en-ru is currently loading"}`))
	}))
	defer srv.Close()

	loader := NewHFLoader(srv.URL, "", 512, zerolog.Nop())

	_, err := loader.Load(context.Background(), enRU)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "currently loading")
}

func TestHFModelBadPayload(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"not json", "{not json", "decode response"},
		{"empty array", "[]", "empty model response"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			loader := NewHFLoader(srv.URL, "", 512, zerolog.Nop())

			_, err := loader.Load(context.Background(), enRU)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

// Hits the real inference API; skipped unless HF_TOKEN is set.
func TestHFIntegration(t *testing.T) {
	_ = godotenv.Load("../../.env")
	token := os.Getenv("HF_TOKEN")
	if token == "" {
		t.Skip("Set HF_TOKEN environment variable to run this test")
	}

	loader := NewHFLoader("https://api-inference.huggingface.co", token, 512, zerolog.Nop())

	model, err := loader.Load(context.Background(), enRU)
	require.NoError(t, err)

	out, err := model.Translate(context.Background(), "Hello world")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.NotEqual(t, "Hello world", out)
}
