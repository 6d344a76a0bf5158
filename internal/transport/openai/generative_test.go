package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchpad/internal/domain"
	"github.com/kailas-cloud/searchpad/internal/domain/search/result"
	"github.com/kailas-cloud/searchpad/internal/domain/search/stream"
)

func chatStreamServer(t *testing.T, chunks []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func collectEvents(t *testing.T, ch <-chan stream.Event) []stream.Event {
	t.Helper()
	var events []stream.Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func TestStreamer_Stream(t *testing.T) {
	server := chatStreamServer(t, []string{
		`{"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"Hel"}}]}`,
		`{"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"lo"}}]}`,
		`{"id":"1","object":"chat.completion.chunk","choices":[],"usage":{"prompt_tokens":12,"completion_tokens":2,"total_tokens":14}}`,
	})
	defer server.Close()

	streamer := NewStreamer(&StreamerConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})

	ctxPoint := result.New("p1", map[string]any{"title": "doc"}, nil, nil)
	ch, err := streamer.Stream(context.Background(), stream.Request{
		Generation: 3,
		Question:   "what is doc?",
		Context:    []result.Result{ctxPoint},
	})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	events := collectEvents(t, ch)
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d: %+v", len(events), events)
	}
	for i, ev := range events {
		if ev.Generation != 3 {
			t.Errorf("event %d generation = %d, expected 3", i, ev.Generation)
		}
	}

	meta := events[0]
	if meta.Type != stream.EventMetadata {
		t.Fatalf("first event type = %s, expected metadata", meta.Type)
	}
	if meta.Metadata == nil || len(meta.Metadata.Context) != 1 {
		t.Fatalf("metadata event missing context: %+v", meta.Metadata)
	}
	if meta.Metadata.Provider != "test" || meta.Metadata.Model != "test-model" {
		t.Errorf("metadata provider/model = %s/%s", meta.Metadata.Provider, meta.Metadata.Model)
	}

	if events[1].Type != stream.EventToken || events[1].Delta != "Hel" {
		t.Errorf("event 1 = %+v, expected token Hel", events[1])
	}
	if events[2].Type != stream.EventToken || events[2].Delta != "lo" {
		t.Errorf("event 2 = %+v, expected token lo", events[2])
	}

	done := events[3]
	if done.Type != stream.EventCompletion {
		t.Fatalf("last event type = %s, expected completion", done.Type)
	}
	if done.Completion == nil || done.Completion.Usage == nil {
		t.Fatalf("completion missing usage: %+v", done.Completion)
	}
	if done.Completion.Usage.TotalTokens != 14 {
		t.Errorf("TotalTokens = %d, expected 14", done.Completion.Usage.TotalTokens)
	}
}

func TestStreamer_MaxTokensCap(t *testing.T) {
	tests := []struct {
		name       string
		configured int
		requested  int
		expected   int
	}{
		{name: "configured default applies", configured: 256, requested: 0, expected: 256},
		{name: "request cap wins", configured: 256, requested: 64, expected: 64},
		{name: "no cap anywhere", configured: 0, requested: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotMaxTokens int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body struct {
					MaxTokens int `json:"max_tokens"`
				}
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Errorf("decode chat request: %v", err)
				}
				gotMaxTokens = body.MaxTokens
				w.Header().Set("Content-Type", "text/event-stream")
				fmt.Fprint(w, "data: [DONE]\n\n")
			}))
			defer server.Close()

			streamer := NewStreamer(&StreamerConfig{
				APIKey:    "test-key",
				BaseURL:   server.URL,
				Model:     "test-model",
				MaxTokens: tt.configured,
				Provider:  "test",
				Logger:    zap.NewNop(),
			})

			ch, err := streamer.Stream(context.Background(), stream.Request{
				Question:  "q",
				MaxTokens: tt.requested,
			})
			if err != nil {
				t.Fatalf("Stream failed: %v", err)
			}
			collectEvents(t, ch)

			if gotMaxTokens != tt.expected {
				t.Errorf("chat request max_tokens = %d, expected %d", gotMaxTokens, tt.expected)
			}
		})
	}
}

func TestStreamer_RequestErrorWrapsProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	streamer := NewStreamer(&StreamerConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})

	_, err := streamer.Stream(context.Background(), stream.Request{Question: "q"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrProvider) {
		t.Errorf("expected ErrProvider, got %v", err)
	}
	if !strings.Contains(err.Error(), "answer API error") {
		t.Errorf("expected answer-prefixed message, got %q", err.Error())
	}
}

func TestStreamer_CancelSuppressesTerminalEvent(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"a"}}]}`+"\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer server.Close()
	defer close(release)

	streamer := NewStreamer(&StreamerConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := streamer.Stream(ctx, stream.Request{Question: "q"})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	var got []stream.Event
	for ev := range ch {
		got = append(got, ev)
		if ev.Type == stream.EventToken {
			cancel()
		}
	}
	cancel()

	for _, ev := range got {
		if ev.Type == stream.EventError || ev.Type == stream.EventCompletion {
			t.Errorf("unexpected terminal event after cancel: %+v", ev)
		}
	}
}
