package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/BatmanBruc/neural-bot/store"
	"github.com/BatmanBruc/neural-bot/types"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	reply    string
	err      error
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	model    string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(f.reply, genai.RoleModel)}},
	}, nil
}

func TestRespondSendsHistoryAndRecordsExchange(t *testing.T) {
	ctx := context.Background()
	history := store.NewMemoryHistoryStore(20)
	_ = history.Append(ctx, 1,
		types.ChatMessage{Role: types.RoleUser, Content: "hi"},
		types.ChatMessage{Role: types.RoleAssistant, Content: "hello"},
	)
	gen := &fakeGenerator{reply: "  4  "}
	r := newResponder(gen, history, WithModel("gemini-test"))

	reply, err := r.Respond(ctx, 1, "2+2?")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "4" {
		t.Errorf("reply: got %q", reply)
	}
	if gen.model != "gemini-test" {
		t.Errorf("model: got %q", gen.model)
	}
	if len(gen.contents) != 3 {
		t.Fatalf("contents: got %d, want 3", len(gen.contents))
	}
	if gen.contents[1].Role != string(genai.RoleModel) || gen.contents[2].Role != string(genai.RoleUser) {
		t.Errorf("roles: %s %s", gen.contents[1].Role, gen.contents[2].Role)
	}
	if gen.config.SystemInstruction == nil || gen.config.MaxOutputTokens != maxOutputTokens {
		t.Errorf("config: %+v", gen.config)
	}

	h, _ := history.History(ctx, 1)
	if len(h) != 4 || h[3].Content != "4" || h[2].Content != "2+2?" {
		t.Errorf("history: %+v", h)
	}
}

func TestRespondFailureLeavesHistoryUntouched(t *testing.T) {
	ctx := context.Background()
	history := store.NewMemoryHistoryStore(20)
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	r := newResponder(gen, history)

	if _, err := r.Respond(ctx, 1, "hello"); err == nil {
		t.Fatal("expected error")
	}
	gen.err = nil
	gen.reply = ""
	if _, err := r.Respond(ctx, 1, "hello"); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("got %v, want ErrEmptyResponse", err)
	}
	if h, _ := history.History(ctx, 1); len(h) != 0 {
		t.Errorf("history: %+v", h)
	}
}

func TestHistoryIsCappedAndResettable(t *testing.T) {
	ctx := context.Background()
	history := store.NewMemoryHistoryStore(4)
	r := newResponder(&fakeGenerator{reply: "ok"}, history)
	for i := 0; i < 5; i++ {
		if _, err := r.Respond(ctx, 9, "q"); err != nil {
			t.Fatal(err)
		}
	}
	if h, _ := history.History(ctx, 9); len(h) != 4 {
		t.Errorf("history length: got %d, want 4", len(h))
	}
	if err := r.Reset(ctx, 9); err != nil {
		t.Fatal(err)
	}
	if h, _ := history.History(ctx, 9); len(h) != 0 {
		t.Errorf("history after reset: %d", len(h))
	}
}
