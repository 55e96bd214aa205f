package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// Part is one input to a generative model: text or an inline blob.
type Part struct {
	Text     string
	Data     []byte
	MIMEType string
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func BlobPart(data []byte, mimeType string) Part {
	return Part{Data: data, MIMEType: mimeType}
}

// Response holds the text of each candidate, in order.
type Response struct {
	Candidates []string
}

// Generator sends parts to a model and returns its candidates.
type Generator interface {
	Generate(ctx context.Context, model string, parts []Part) (*Response, error)
}

// APIError is a non-2xx reply from the model endpoint.
type APIError struct {
	Code    int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("model API error %d: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Overloaded reports whether the endpoint asked the caller to back off.
func (e *APIError) Overloaded() bool {
	return e.Code == http.StatusServiceUnavailable
}

// GenAIGenerator calls the Gemini API through google.golang.org/genai.
type GenAIGenerator struct {
	client *genai.Client
}

// NewGenAIGenerator builds a Gemini client for apiKey. httpClient may be nil.
func NewGenAIGenerator(ctx context.Context, apiKey string, httpClient *http.Client) (*GenAIGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GenAIGenerator{client: client}, nil
}

func (g *GenAIGenerator) Generate(ctx context.Context, model string, parts []Part) (*Response, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: toGenAIParts(parts),
		},
	}

	res, err := g.client.Models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fromGenAIError(err)
	}

	out := &Response{Candidates: make([]string, 0, len(res.Candidates))}
	for _, candidate := range res.Candidates {
		if candidate == nil || candidate.Content == nil {
			out.Candidates = append(out.Candidates, "")
			continue
		}
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			if part != nil {
				text.WriteString(part.Text)
			}
		}
		out.Candidates = append(out.Candidates, text.String())
	}
	return out, nil
}

func toGenAIParts(parts []Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if len(p.Data) > 0 {
			out = append(out, &genai.Part{
				InlineData: &genai.Blob{MIMEType: p.MIMEType, Data: p.Data},
			})
			continue
		}
		out = append(out, &genai.Part{Text: p.Text})
	}
	return out
}

// fromGenAIError lifts API failures into *APIError and leaves transport
// failures untouched so the invoker can tell them apart.
func fromGenAIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Code: apiErr.Code, Message: apiErr.Message, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &APIError{Code: apiErrPtr.Code, Message: apiErrPtr.Message, Err: err}
	}
	return err
}
