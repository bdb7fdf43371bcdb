package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"portfolio-api/internal/errorsx"
	"portfolio-api/internal/llm"
	"portfolio-api/internal/transcript"
)

type fakeGenerator struct {
	reply string
	err   error
	calls []llm.Request
}

func (f *fakeGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	f.calls = append(f.calls, req)
	return f.reply, f.err
}

var alexTranscript = []transcript.Utterance{
	{Role: transcript.RoleAssistant, Content: "Hi Alex, how can I help?"},
	{Role: transcript.RoleVisitor, Content: "My name is Alex, email alex@example.com, I need a website."},
}

func TestExtract_NormalFlow(t *testing.T) {
	gen := &fakeGenerator{reply: `{"visitorName":"Alex","email":"alex@example.com","phoneNumber":null,"purpose":"Website Development Inquiry","summary":"Alex requested a website."}`}
	ex := New(gen, nil)

	d, err := ex.Extract(context.Background(), alexTranscript, "Alex D")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if d.VisitorName != "Alex" || d.Email == nil || *d.Email != "alex@example.com" || d.PhoneNumber != nil {
		t.Fatalf("unexpected draft: %+v", d)
	}
	if d.Purpose != "Website Development Inquiry" || d.Summary != "Alex requested a website." {
		t.Fatalf("unexpected draft: %+v", d)
	}

	if len(gen.calls) != 1 {
		t.Fatalf("expected one model call, got %d", len(gen.calls))
	}
	req := gen.calls[0]
	if req.Temperature != 0.1 || req.TopP != 0.8 || req.TopK != 20 || !req.JSON {
		t.Fatalf("unexpected sampling: %+v", req)
	}
	if !strings.Contains(req.Prompt, "alex@example.com") || !strings.Contains(req.Prompt, `"Alex D"`) {
		t.Fatalf("prompt missing transcript or visitor name")
	}
}

func TestExtract_StripsCodeFence(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n{\"visitorName\":\"Sam\",\"email\":null,\"phoneNumber\":\"+1 555 0100\",\"purpose\":\"Hiring\",\"summary\":\"Sam wants to hire.\"}\n```"}
	d, err := New(gen, nil).Extract(context.Background(), alexTranscript, "x")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if d.VisitorName != "Sam" || d.PhoneNumber == nil || *d.PhoneNumber != "+1 555 0100" {
		t.Fatalf("unexpected draft: %+v", d)
	}
}

func TestExtract_FallsBackToDisplayName(t *testing.T) {
	gen := &fakeGenerator{reply: `{"visitorName":"","email":"","phoneNumber":"null","purpose":"Collaboration","summary":"Wants to collaborate."}`}
	d, err := New(gen, nil).Extract(context.Background(), alexTranscript, "Jordan")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if d.VisitorName != "Jordan" {
		t.Fatalf("expected fallback name, got %q", d.VisitorName)
	}
	if d.Email != nil || d.PhoneNumber != nil {
		t.Fatalf("blank optional fields should be nil: %+v", d)
	}
}

func TestExtract_MalformedJSONIsReported(t *testing.T) {
	cases := []string{
		"Sure! Here is the JSON: {\"visitorName\":\"Alex\"}",
		"```json\n{\"visitorName\": \"Alex\",\n```",
		`{"visitorName":"Alex","email":null,"phoneNumber":null,"purpose":"x"}`,
		`{"visitorName":"Alex","email":null,"phoneNumber":null,"purpose":"x","summary":"y"} trailing`,
		`{"visitorName":42,"email":null,"phoneNumber":null,"purpose":"x","summary":"y"}`,
	}
	for _, reply := range cases {
		_, err := New(&fakeGenerator{reply: reply}, nil).Extract(context.Background(), alexTranscript, "Alex")
		if !errors.Is(err, ErrMalformed) {
			t.Fatalf("reply %q: expected ErrMalformed, got %v", reply, err)
		}
		if !errorsx.HasReason(err, errorsx.ReasonExtractionMalformed) {
			t.Fatalf("reply %q: expected malformed reason, got %s", reply, errorsx.Reason(err))
		}
	}
}

func TestExtract_ModelFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota")}
	_, err := New(gen, nil).Extract(context.Background(), alexTranscript, "Alex")
	if !errorsx.HasReason(err, errorsx.ReasonExtractionModel) {
		t.Fatalf("expected model reason, got %v", err)
	}
}

func TestExtract_EmptyTranscriptSkipsModel(t *testing.T) {
	gen := &fakeGenerator{}
	_, err := New(gen, nil).Extract(context.Background(), nil, "Alex")
	if !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("expected ErrEmptyTranscript, got %v", err)
	}
	if len(gen.calls) != 0 {
		t.Fatalf("model must not be called")
	}
}

func TestParse_NoData(t *testing.T) {
	_, err := Parse(`{"visitorName":null,"email":null,"phoneNumber":null,"purpose":"","summary":""}`, "Alex")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":               "{\"a\":1}",
		"```json\n{\"a\":1}\n```": "{\"a\":1}",
		"```\n{\"a\":1}\n```":     "{\"a\":1}",
		"```{\"a\":1}```":         "{\"a\":1}",
		"  \n":                    "",
	}
	for in, want := range cases {
		if got := stripFences(in); got != want {
			t.Fatalf("stripFences(%q)=%q want %q", in, got, want)
		}
	}
}

func TestDraft_Confirmable(t *testing.T) {
	if (Draft{VisitorName: "A", Summary: " "}).Confirmable() {
		t.Fatalf("blank summary must not be confirmable")
	}
	if !(Draft{VisitorName: "A", Summary: "S"}).Confirmable() {
		t.Fatalf("expected confirmable")
	}
}
