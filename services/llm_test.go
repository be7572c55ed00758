package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeOllama(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(OllamaResponse{Response: reply, Done: true})
	}))
}

func TestGenerate(t *testing.T) {
	server := fakeOllama(t, "¡Hola! ¿En qué puedo ayudarte?")
	defer server.Close()

	llm := NewLLMService(server.URL, "test-model", time.Second)
	reply, err := llm.Generate(context.Background(), "hola")

	require.NoError(t, err)
	assert.Equal(t, "¡Hola! ¿En qué puedo ayudarte?", reply)
}

func TestGenerateSendsModelAndPrompt(t *testing.T) {
	var got OllamaRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(OllamaResponse{Response: "ok", Done: true})
	}))
	defer server.Close()

	llm := NewLLMService(server.URL, "phi4-mini:latest", time.Second)
	_, err := llm.Generate(context.Background(), "un prompt compuesto")

	require.NoError(t, err)
	assert.Equal(t, "phi4-mini:latest", got.Model)
	assert.Equal(t, "un prompt compuesto", got.Prompt)
	assert.False(t, got.Stream)
}

func TestGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	llm := NewLLMService(server.URL, "test", time.Second)
	_, err := llm.Generate(context.Background(), "hola")

	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestGenerateUnreachableEndpoint(t *testing.T) {
	llm := NewLLMService("http://127.0.0.1:1", "test", time.Second)
	_, err := llm.Generate(context.Background(), "hola")

	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestGenerateTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		json.NewEncoder(w).Encode(OllamaResponse{Response: "tarde", Done: true})
	}))
	defer server.Close()

	llm := NewLLMService(server.URL, "test", 50*time.Millisecond)
	_, err := llm.Generate(context.Background(), "hola")

	assert.ErrorIs(t, err, ErrModelTimeout)
}

func TestGenerateOllamaErrorField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(OllamaResponse{Error: "model not found"})
	}))
	defer server.Close()

	llm := NewLLMService(server.URL, "test", time.Second)
	_, err := llm.Generate(context.Background(), "hola")

	require.ErrorIs(t, err, ErrModelUnavailable)
	assert.Contains(t, err.Error(), "model not found")
}

func TestGenerateStripsLeakedReasoning(t *testing.T) {
	server := fakeOllama(t, "<think>el usuario pregunta por el horario</think>Atendemos de 9 a 18hs.")
	defer server.Close()

	llm := NewLLMService(server.URL, "test", time.Second)
	reply, err := llm.Generate(context.Background(), "¿horario?")

	require.NoError(t, err)
	assert.Equal(t, "Atendemos de 9 a 18hs.", reply)
}

func TestStripReasoning(t *testing.T) {
	cases := map[string]string{
		"respuesta limpia":                          "respuesta limpia",
		"<think>razonando</think>respuesta":         "respuesta",
		"<thinking>pasos\n1. x</thinking> hola":     "hola",
		"antes <think>medio</think> después":        "antes  después",
		"respuesta visible <think>sin cerrar nunca": "respuesta visible",
	}
	for in, want := range cases {
		assert.Equal(t, want, stripReasoning(in))
	}
}

func TestGenerateWithRetryRecovers(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(OllamaResponse{Response: "segundo intento", Done: true})
	}))
	defer server.Close()

	llm := NewLLMService(server.URL, "test", time.Second)
	reply, err := llm.GenerateWithRetry(context.Background(), "hola", 3, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, "segundo intento", reply)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGenerateWithRetryExhaustsAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	llm := NewLLMService(server.URL, "test", time.Second)
	_, err := llm.GenerateWithRetry(context.Background(), "hola", 3, time.Millisecond)

	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestIsAvailableAndListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"models": []map[string]string{{"name": "phi4-mini:latest"}, {"name": "llama3.2"}},
		})
	}))
	defer server.Close()

	llm := NewLLMService(server.URL, "test", time.Second)
	assert.True(t, llm.IsAvailable())

	names, err := llm.ListModels()
	require.NoError(t, err)
	assert.Equal(t, []string{"phi4-mini:latest", "llama3.2"}, names)
}
