package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchpad/internal/domain/search/result"
	"github.com/kailas-cloud/searchpad/internal/domain/search/stream"
	"github.com/kailas-cloud/searchpad/internal/metrics"
)

const answerSystemPrompt = "You answer questions about a vector collection. " +
	"Use only the provided context points. If the context does not contain " +
	"the answer, say so."

// Streamer streams generative answers via an OpenAI-compatible chat API.
type Streamer struct {
	client    *openai.Client
	model     string
	provider  string
	maxTokens int
	logger    *zap.Logger
}

// StreamerConfig holds the generative provider settings.
type StreamerConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// MaxTokens caps answers whose request carries no explicit cap.
	// Zero means no cap.
	MaxTokens int
	Provider  string
	Logger    *zap.Logger
}

// NewStreamer creates an OpenAI-compatible generative answer source.
func NewStreamer(cfg *StreamerConfig) *Streamer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Streamer{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		provider:  cfg.Provider,
		maxTokens: cfg.MaxTokens,
		logger:    cfg.Logger,
	}
}

// Stream opens a chat completion stream and translates its chunks into
// the event union on the returned channel. The channel is closed after
// the terminal completion or error event. A metadata event carrying the
// retrieval context is emitted alongside the token events; consumers
// must not rely on it arriving before the first token.
func (s *Streamer) Stream(ctx context.Context, req stream.Request) (<-chan stream.Event, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: answerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req.Question, req.Context)},
		},
		StreamOptions: &openai.StreamOptions{IncludeUsage: true},
	}
	switch {
	case req.MaxTokens > 0:
		chatReq.MaxTokens = req.MaxTokens
	case s.maxTokens > 0:
		chatReq.MaxTokens = s.maxTokens
	}

	chat, err := s.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, parseAPIError("answer", err)
	}

	ch := make(chan stream.Event)
	go s.pump(ctx, chat, req, ch)
	return ch, nil
}

// pump reads chunks until EOF and emits translated events.
func (s *Streamer) pump(
	ctx context.Context,
	chat *openai.ChatCompletionStream,
	req stream.Request,
	ch chan<- stream.Event,
) {
	defer close(ch)
	defer func() { _ = chat.Close() }()

	emit := func(ev stream.Event) {
		ev.Generation = req.Generation
		metrics.StreamEventsTotal.WithLabelValues(string(ev.Type)).Inc()
		select {
		case ch <- ev:
		case <-ctx.Done():
		}
	}

	emit(stream.Event{Type: stream.EventMetadata, Metadata: &stream.Metadata{
		Context:     req.Context,
		Provider:    s.provider,
		Model:       s.model,
		QueryVector: req.QueryVector,
	}})

	var usage *stream.Usage
	for {
		resp, err := chat.Recv()
		if errors.Is(err, io.EOF) {
			emit(stream.Event{Type: stream.EventCompletion, Completion: &stream.Completion{Usage: usage}})
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				// Superseded or cancelled; terminal event would be stale anyway.
				return
			}
			s.logger.Warn("answer stream aborted", zap.Error(err))
			emit(stream.Event{Type: stream.EventError, Message: err.Error()})
			return
		}

		if resp.Usage != nil {
			usage = &stream.Usage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			}
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			emit(stream.Event{Type: stream.EventToken, Delta: delta})
		}
	}
}

// buildPrompt renders the question with its numbered context points.
func buildPrompt(question string, ctxPoints []result.Result) string {
	var b strings.Builder
	b.WriteString("Context points:\n")
	for i, p := range ctxPoints {
		payload, err := json.Marshal(p.Payload())
		if err != nil {
			payload = []byte("{}")
		}
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, p.ID(), payload)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
