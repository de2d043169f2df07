package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/invoice-ledger/internal/core/domain"
	"github.com/kirillkom/invoice-ledger/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func New(baseURL, model string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// FieldExtractor turns raw document text into structured invoice fields
// through a single JSON-mode generate call.
type FieldExtractor struct {
	client   *Client
	executor *resilience.Executor
}

func NewFieldExtractor(client *Client, executor *resilience.Executor) *FieldExtractor {
	return &FieldExtractor{client: client, executor: executor}
}

func (e *FieldExtractor) ExtractFields(ctx context.Context, content string) (domain.ExtractedFields, error) {
	prompt, images := buildExtractionRequest(content)

	var respText string
	call := func(callCtx context.Context) error {
		text, err := e.client.generateJSON(callCtx, prompt, images)
		if err != nil {
			return err
		}
		respText = text
		return nil
	}

	var err error
	if e.executor != nil {
		err = e.executor.Execute(ctx, "ollama.extract", call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.ExtractedFields{}, wrapTemporaryIfNeeded("extract invoice fields", err)
	}

	var fields domain.ExtractedFields
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &fields); err != nil {
		return domain.ExtractedFields{}, fmt.Errorf("parse extraction json: %w", err)
	}
	return fields, nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string, images []string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}
	if len(images) > 0 {
		reqBody["images"] = images
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
