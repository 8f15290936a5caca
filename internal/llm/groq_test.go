package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/conneroisu/groq-go"
)

func newTestGroqClient(t *testing.T, serverURL string) *GroqClient {
	t.Helper()
	client, err := groq.NewClient("test-api-key", groq.WithBaseURL(serverURL+"/"))
	if err != nil {
		t.Fatalf("failed to create groq client: %v", err)
	}
	return &GroqClient{
		client:  client,
		model:   groq.ChatModel("llama-3.3-70b-versatile"),
		prompts: testPrompts(),
	}
}

func TestGroqExtractCharacters(t *testing.T) {
	tests := []struct {
		name         string
		responseBody string
		statusCode   int
		want         []string
		wantErr      error
	}{
		{
			name:         "successfulExtraction",
			responseBody: mustJSON(makeChatResponse(`{"characters": ["Alice", "Narrator"]}`)),
			statusCode:   http.StatusOK,
			want:         []string{"Alice", "Narrator"},
		},
		{
			name:         "unparseableContent",
			responseBody: mustJSON(makeChatResponse("no json here")),
			statusCode:   http.StatusOK,
			wantErr:      ErrSchema,
		},
		{
			name:         "noChoices",
			responseBody: mustJSON(makeEmptyChoicesResponse()),
			statusCode:   http.StatusOK,
			wantErr:      ErrUpstream,
		},
		{
			name:         "providerError",
			responseBody: `{"error": {"message": "invalid api key", "type": "authentication_error"}}`,
			statusCode:   http.StatusUnauthorized,
			wantErr:      ErrUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			client := newTestGroqClient(t, server.URL)
			got, err := client.ExtractCharacters(context.Background(), "Alice arrived alone.")

			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("ExtractCharacters() expected error, got %v", got)
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ExtractCharacters() error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("ExtractCharacters() unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractCharacters() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ExtractCharacters()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestGroqLabelLines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(mustJSON(makeChatResponse(
			`{"lines": [{"speaker": "Narrator", "text": "The rain kept falling."}]}`,
		))))
	}))
	defer server.Close()

	client := newTestGroqClient(t, server.URL)
	got, err := client.LabelLines(context.Background(), "The rain kept falling.", []string{"Narrator"})
	if err != nil {
		t.Fatalf("LabelLines() unexpected error: %v", err)
	}

	want := Line{Speaker: "Narrator", Text: "The rain kept falling."}
	if len(got) != 1 || got[0] != want {
		t.Errorf("LabelLines() = %v, want [%+v]", got, want)
	}
}

func TestGroqDetectSoundEffects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(mustJSON(makeChatResponse(
			`{"actions": ["door slam"], "sound_events": [{"sound": "door slamming", "trigger_phrase": "slammed the door"}], "emotion": "angry", "tone": "abrupt"}`,
		))))
	}))
	defer server.Close()

	client := newTestGroqClient(t, server.URL)
	report, err := client.DetectSoundEffects(context.Background(), "He slammed the door.")
	if err != nil {
		t.Fatalf("DetectSoundEffects() unexpected error: %v", err)
	}

	if len(report.SoundEvents) != 1 || report.SoundEvents[0].TriggerPhrase != "slammed the door" {
		t.Errorf("SoundEvents = %v, want slammed the door trigger", report.SoundEvents)
	}
	if report.Emotion != "angry" {
		t.Errorf("Emotion = %q, want angry", report.Emotion)
	}
}

func TestNewGroqClientRequiresKey(t *testing.T) {
	_, err := NewGroqClient("", "llama-3.3-70b-versatile", testPrompts())
	if err == nil {
		t.Error("expected error for missing API key")
	}
}
