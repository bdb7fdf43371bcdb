// Package extraction turns a voice transcript into a structured inquiry draft
// with a single language-model call.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"portfolio-api/internal/errorsx"
	"portfolio-api/internal/llm"
	"portfolio-api/internal/transcript"
)

var (
	ErrEmptyTranscript = errors.New("extraction: empty transcript")
	ErrMalformed       = errors.New("extraction: malformed model reply")
	ErrNoData          = errors.New("extraction: reply carried no inquiry data")
)

var requiredKeys = []string{"visitorName", "email", "phoneNumber", "purpose", "summary"}

// Sampling is biased toward literal extraction.
const (
	temperature     = 0.1
	topP            = 0.8
	topK            = 20
	maxOutputTokens = 1024
)

type Extractor struct {
	gen llm.Generator
	log *slog.Logger
}

func New(gen llm.Generator, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{gen: gen, log: log}
}

// Extract makes exactly one model call. It never retries.
func (e *Extractor) Extract(ctx context.Context, utterances []transcript.Utterance, visitorName string) (Draft, error) {
	if len(utterances) == 0 {
		return Draft{}, errorsx.Wrap(ErrEmptyTranscript, errorsx.ReasonExtractionEmpty)
	}
	if e.gen == nil {
		return Draft{}, errorsx.Wrap(errors.New("extraction: generator not configured"), errorsx.ReasonExtractionModel)
	}

	prompt, err := buildPrompt(utterances, visitorName)
	if err != nil {
		return Draft{}, errorsx.Wrap(err, errorsx.ReasonExtractionModel)
	}

	reply, err := e.gen.Generate(ctx, llm.Request{
		System:          systemPrompt,
		Prompt:          prompt,
		Temperature:     temperature,
		TopP:            topP,
		TopK:            topK,
		MaxOutputTokens: maxOutputTokens,
		JSON:            true,
	})
	if err != nil {
		return Draft{}, errorsx.Wrap(fmt.Errorf("extraction: generate: %w", err), errorsx.ReasonExtractionModel)
	}

	d, err := Parse(reply, visitorName)
	if err != nil {
		e.log.Warn("extraction reply rejected", "err", err, "reply_bytes", len(reply))
		return Draft{}, err
	}
	return d, nil
}

// Parse decodes a model reply into a Draft. The reply must be a single JSON
// object carrying all five keys, optionally wrapped in a code fence.
func Parse(reply, fallbackName string) (Draft, error) {
	body := stripFences(reply)
	if body == "" {
		return Draft{}, errorsx.Wrap(ErrNoData, errorsx.ReasonExtractionEmpty)
	}

	var fields map[string]json.RawMessage
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(&fields); err != nil {
		return Draft{}, malformed("decode: %v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Draft{}, malformed("trailing data after object")
	}
	for _, k := range requiredKeys {
		if _, ok := fields[k]; !ok {
			return Draft{}, malformed("missing key %q", k)
		}
	}

	var d Draft
	var name *string
	if err := decodeField(fields, "visitorName", &name); err != nil {
		return Draft{}, err
	}
	if err := decodeField(fields, "email", &d.Email); err != nil {
		return Draft{}, err
	}
	if err := decodeField(fields, "phoneNumber", &d.PhoneNumber); err != nil {
		return Draft{}, err
	}
	if err := decodeField(fields, "purpose", &d.Purpose); err != nil {
		return Draft{}, err
	}
	if err := decodeField(fields, "summary", &d.Summary); err != nil {
		return Draft{}, err
	}
	if name != nil {
		d.VisitorName = *name
	}

	d = d.Normalize()
	if d.VisitorName == "" {
		d.VisitorName = strings.TrimSpace(fallbackName)
	}
	if d.Purpose == "" && d.Summary == "" {
		return Draft{}, errorsx.Wrap(ErrNoData, errorsx.ReasonExtractionEmpty)
	}
	return d, nil
}

func decodeField(fields map[string]json.RawMessage, key string, dst any) error {
	raw := fields[key]
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return malformed("field %q: %v", key, err)
	}
	return nil
}

func malformed(format string, args ...any) error {
	return errorsx.Wrap(fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...)), errorsx.ReasonExtractionMalformed)
}
