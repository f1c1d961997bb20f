// Package llm abstracts generative-model calls so extraction and
// categorization can be tested without network access.
package llm

import "context"

// Part is an inline binary attachment to a prompt, typically an image or a
// PDF passed to a vision-capable model.
type Part struct {
	MIMEType string
	Data     []byte
}

// Request is a single generation call. Parts may be empty for text-only
// prompts.
type Request struct {
	Prompt          string
	Parts           []Part
	MaxOutputTokens int32
}

// Generator produces model text for a request. Implementations must be safe
// for concurrent use.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
