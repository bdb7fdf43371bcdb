package llm

import (
	"context"
	"errors"
)

// Role of a prior conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type Turn struct {
	Role Role
	Text string
}

// Request is a single text generation call. Zero sampling values leave the
// model defaults in place.
type Request struct {
	System          string
	History         []Turn
	Prompt          string
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
	// JSON asks the model for an application/json response body.
	JSON bool
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

var ErrEmptyResponse = errors.New("llm: empty response")
