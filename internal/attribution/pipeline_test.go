package attribution

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"aabook/internal/llm"
)

// stubClient counts calls and returns canned responses per attempt.
type stubClient struct {
	extractCalls int
	labelCalls   int
	extract      func(attempt int) ([]string, error)
	label        func(attempt int) ([]llm.Line, error)
}

func (s *stubClient) ExtractCharacters(ctx context.Context, chapter string) ([]string, error) {
	s.extractCalls++
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", llm.ErrUpstream, err)
	}
	return s.extract(s.extractCalls)
}

func (s *stubClient) LabelLines(ctx context.Context, chapter string, characters []string) ([]llm.Line, error) {
	s.labelCalls++
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", llm.ErrUpstream, err)
	}
	return s.label(s.labelCalls)
}

func (s *stubClient) DetectSoundEffects(ctx context.Context, sentence string) (*llm.SoundReport, error) {
	return &llm.SoundReport{}, nil
}

const sampleChapter = "It was late afternoon when Alice arrived.\n" +
	"\"Hello? Is anyone here?\" Alice called.\n" +
	"\"Over here!\" Bob shouted."

func sampleStub() *stubClient {
	return &stubClient{
		extract: func(int) ([]string, error) {
			return []string{"Alice", "Bob"}, nil
		},
		label: func(int) ([]llm.Line, error) {
			return []llm.Line{
				{Speaker: "Narrator", Text: "It was late afternoon when Alice arrived."},
				{Speaker: "Alice", Text: `"Hello? Is anyone here?"`},
				{Speaker: "Narrator", Text: "Alice called."},
				{Speaker: "Bob", Text: `"Over here!"`},
				{Speaker: "Narrator", Text: "Bob shouted."},
			}, nil
		},
	}
}

func TestRunSampleChapter(t *testing.T) {
	stub := sampleStub()
	pipe := New(stub, Options{Timeout: time.Second})

	doc, err := pipe.Run(context.Background(), sampleChapter)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	wantRoster := Roster{"Alice", "Bob", "Narrator"}
	if !reflect.DeepEqual(doc.Characters, wantRoster) {
		t.Errorf("Run() characters = %v, want %v", doc.Characters, wantRoster)
	}

	wantSpeakers := map[string]string{
		`"Hello? Is anyone here?"`: "Alice",
		`"Over here!"`:             "Bob",
		"It was late afternoon when Alice arrived.": "Narrator",
	}
	for _, line := range doc.Lines {
		if want, ok := wantSpeakers[line.Text]; ok && line.Speaker != want {
			t.Errorf("line %q attributed to %q, want %q", line.Text, line.Speaker, want)
		}
	}

	if stub.extractCalls != 1 {
		t.Errorf("ExtractCharacters called %d times, want 1", stub.extractCalls)
	}
	if stub.labelCalls != 1 {
		t.Errorf("LabelLines called %d times, want 1", stub.labelCalls)
	}
}

func TestRunEmptyInputMakesNoUpstreamCalls(t *testing.T) {
	inputs := []string{"", "   ", "\n\t\n"}

	for _, input := range inputs {
		stub := sampleStub()
		pipe := New(stub, Options{Timeout: time.Second})

		_, err := pipe.Run(context.Background(), input)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Run(%q) error = %v, want ErrInvalidInput", input, err)
		}
		if stub.extractCalls != 0 || stub.labelCalls != 0 {
			t.Errorf("Run(%q) made upstream calls: extract=%d label=%d, want none",
				input, stub.extractCalls, stub.labelCalls)
		}
	}
}

func TestDiscoverRetriesOnceOnSchemaError(t *testing.T) {
	stub := sampleStub()
	stub.extract = func(attempt int) ([]string, error) {
		return nil, fmt.Errorf("%w: no valid JSON in response", llm.ErrSchema)
	}
	pipe := New(stub, Options{Timeout: time.Second})

	_, err := pipe.Run(context.Background(), sampleChapter)
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("Run() error = %v, want ErrSchema", err)
	}

	if stub.extractCalls != 2 {
		t.Errorf("ExtractCharacters called %d times, want 2 (initial + one retry)", stub.extractCalls)
	}
	if stub.labelCalls != 0 {
		t.Errorf("LabelLines called %d times after discovery failed, want 0", stub.labelCalls)
	}
}

func TestDiscoverRetrySucceeds(t *testing.T) {
	stub := sampleStub()
	stub.extract = func(attempt int) ([]string, error) {
		if attempt == 1 {
			return nil, fmt.Errorf("%w: truncated", llm.ErrSchema)
		}
		return []string{"Alice", "Bob"}, nil
	}
	pipe := New(stub, Options{Timeout: time.Second})

	doc, err := pipe.Run(context.Background(), sampleChapter)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if stub.extractCalls != 2 {
		t.Errorf("ExtractCharacters called %d times, want 2", stub.extractCalls)
	}
	if len(doc.Lines) == 0 {
		t.Error("Run() returned no lines after successful retry")
	}
}

func TestAttributeRetriesOnceOnSchemaError(t *testing.T) {
	stub := sampleStub()
	stub.label = func(attempt int) ([]llm.Line, error) {
		return nil, fmt.Errorf("%w: not an array", llm.ErrSchema)
	}
	pipe := New(stub, Options{Timeout: time.Second})

	_, err := pipe.Run(context.Background(), sampleChapter)
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("Run() error = %v, want ErrSchema", err)
	}

	if stub.labelCalls != 2 {
		t.Errorf("LabelLines called %d times, want 2 (initial + one retry)", stub.labelCalls)
	}
}

func TestUpstreamErrorsAreNotRetried(t *testing.T) {
	stub := sampleStub()
	stub.extract = func(attempt int) ([]string, error) {
		return nil, fmt.Errorf("%w: connection refused", llm.ErrUpstream)
	}
	pipe := New(stub, Options{Timeout: time.Second})

	_, err := pipe.Run(context.Background(), sampleChapter)
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("Run() error = %v, want ErrUpstream", err)
	}

	if stub.extractCalls != 1 {
		t.Errorf("ExtractCharacters called %d times, want 1 (no retry on upstream errors)", stub.extractCalls)
	}
}

func TestRunRemapsUnknownSpeakers(t *testing.T) {
	stub := sampleStub()
	stub.label = func(int) ([]llm.Line, error) {
		return []llm.Line{
			{Speaker: "Alice", Text: `"Hello?"`},
			{Speaker: "The Crowd", Text: "A murmur spread."},
		}, nil
	}
	pipe := New(stub, Options{Timeout: time.Second})

	doc, err := pipe.Run(context.Background(), sampleChapter)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	for _, line := range doc.Lines {
		if !doc.Characters.Contains(line.Speaker) {
			t.Errorf("line speaker %q not in roster %v", line.Speaker, doc.Characters)
		}
	}
	if doc.Lines[1].Speaker != Narrator {
		t.Errorf("unknown speaker remapped to %q, want %q", doc.Lines[1].Speaker, Narrator)
	}
}

func TestRunCancelledContext(t *testing.T) {
	stub := sampleStub()
	pipe := New(stub, Options{Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipe.Run(ctx, sampleChapter)
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("Run() error = %v, want ErrUpstream after cancellation", err)
	}
}

func TestAttributeRequiresRoster(t *testing.T) {
	pipe := New(sampleStub(), Options{Timeout: time.Second})

	_, err := pipe.Attribute(context.Background(), sampleChapter, Roster{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Attribute() error = %v, want ErrInvalidInput", err)
	}
}
