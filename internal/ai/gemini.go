package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BatmanBruc/neural-bot/types"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const (
	DefaultModel    = "gemini-2.5-flash"
	maxOutputTokens = 2000
	temperature     = float32(0.7)
)

const SystemPrompt = `You are NeuralBot, a friendly and smart AI assistant in Telegram.
Help users with any question: writing texts and posts, programming, translations, research and creative tasks.
Reply in the language the user writes in. Be polite, accurate and useful. If you do not know the answer, say so honestly.
Use emoji sparingly and format long answers so they are easy to read.`

var ErrEmptyResponse = errors.New("ai: empty response")

// Responder turns a user's message into a reply.
type Responder interface {
	Respond(ctx context.Context, userID int64, text string) (string, error)
}

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiResponder answers with Gemini, keeping each user's recent dialogue
// in a HistoryStore.
type GeminiResponder struct {
	gen     generator
	history types.HistoryStore
	model   string
	system  string
	log     zerolog.Logger
}

type Option func(*GeminiResponder)

func WithModel(model string) Option {
	return func(r *GeminiResponder) {
		if model = strings.TrimSpace(model); model != "" {
			r.model = model
		}
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(r *GeminiResponder) { r.system = prompt }
}

func WithLogger(log zerolog.Logger) Option {
	return func(r *GeminiResponder) { r.log = log }
}

func NewGeminiResponder(ctx context.Context, apiKey string, history types.HistoryStore, opts ...Option) (*GeminiResponder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}
	return newResponder(client.Models, history, opts...), nil
}

func newResponder(gen generator, history types.HistoryStore, opts ...Option) *GeminiResponder {
	r := &GeminiResponder{
		gen:     gen,
		history: history,
		model:   DefaultModel,
		system:  SystemPrompt,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Respond sends the user's recent history plus text to the model. The
// exchange is recorded only when the model answers.
func (r *GeminiResponder) Respond(ctx context.Context, userID int64, text string) (string, error) {
	past, err := r.history.History(ctx, userID)
	if err != nil {
		r.log.Warn().Err(err).Int64("user_id", userID).Msg("history unavailable, answering without context")
		past = nil
	}

	contents := make([]*genai.Content, 0, len(past)+1)
	for _, m := range past {
		contents = append(contents, genai.NewContentFromText(m.Content, roleOf(m.Role)))
	}
	contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))

	temp := temperature
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: maxOutputTokens,
		Temperature:     &temp,
	}
	if r.system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(r.system, genai.RoleUser)
	}

	result, err := r.gen.GenerateContent(ctx, r.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	reply := strings.TrimSpace(result.Text())
	if reply == "" {
		return "", ErrEmptyResponse
	}

	err = r.history.Append(ctx, userID,
		types.ChatMessage{Role: types.RoleUser, Content: text},
		types.ChatMessage{Role: types.RoleAssistant, Content: reply},
	)
	if err != nil {
		r.log.Warn().Err(err).Int64("user_id", userID).Msg("failed to save history")
	}
	return reply, nil
}

// Reset forgets the user's dialogue.
func (r *GeminiResponder) Reset(ctx context.Context, userID int64) error {
	return r.history.Clear(ctx, userID)
}

func roleOf(role string) genai.Role {
	if role == types.RoleAssistant {
		return genai.RoleModel
	}
	return genai.RoleUser
}
