package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	derrors "github.com/datagroom/datagroom/internal/errors"
	"github.com/datagroom/datagroom/pkg/types"
)

const semanticSystemPrompt = `You are a data cleaning assistant. Parse the user's natural language instructions
into structured cleaning rules.

The dataset has these columns: %s

Return ONLY a JSON array of rule objects. Each rule must have:
- "action": One of: remove_duplicates, fill_missing, standardize_columns, filter_rows, convert_dtype, drop_columns, rename_columns
- "params": Action-specific parameters

Examples:
- "Remove duplicates" -> [{"action": "remove_duplicates", "params": {"columns": "all"}}]
- "Fill missing age with mean" -> [{"action": "fill_missing", "params": {"columns": ["age"], "method": "mean"}}]
- "Remove rows where age < 18" -> [{"action": "filter_rows", "params": {"condition": "age >= 18"}}]
- "Convert date to datetime" -> [{"action": "convert_dtype", "params": {"column": "date", "dtype": "datetime"}}]
- "Standardize column names" -> [{"action": "standardize_columns", "params": {}}]
- "Drop email column" -> [{"action": "drop_columns", "params": {"columns": ["email"]}}]
- "Fill missing values with 0" -> [{"action": "fill_missing", "params": {"columns": "all", "method": "value", "value": 0}}]
- "Rename fname to first_name" -> [{"action": "rename_columns", "params": {"mapping": {"fname": "first_name"}}}]

For fill_missing methods: "mean", "median", "mode", "drop", "value", "ffill", "bfill"
For filter_rows: use a condition of the form "column op literal" with one of ==, !=, >=, <=, >, <
For convert_dtype: "int", "float", "str", "datetime", "bool"

Return ONLY the JSON array, no explanations.`

// SemanticOptions configures the model-backed strategy.
type SemanticOptions struct {
	// Model is the generative model name, e.g. gemini-2.0-flash.
	Model string

	// APIKey authenticates the request.
	APIKey string

	// Endpoint is the base URL of the generateContent API.
	Endpoint string

	// Temperature controls sampling.
	Temperature float64

	// Timeout bounds one model call. Ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// SemanticStrategy asks a generative model to translate the prompt into the
// rule wire format. Any failure, from transport to malformed JSON, is
// returned as an error so the engine can fall back to pattern matching.
type SemanticStrategy struct {
	model       string
	apiKey      string
	endpoint    string
	temperature float64
	client      *http.Client
}

// NewSemanticStrategy builds the model-backed strategy.
func NewSemanticStrategy(opts SemanticOptions) *SemanticStrategy {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &SemanticStrategy{
		model:       opts.Model,
		apiKey:      opts.APIKey,
		endpoint:    strings.TrimRight(opts.Endpoint, "/"),
		temperature: opts.Temperature,
		client:      client,
	}
}

func (s *SemanticStrategy) Name() string { return "semantic" }

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig generationConfig  `json:"generationConfig"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []generatePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Parse sends one generateContent call and decodes the reply into rules.
func (s *SemanticStrategy) Parse(ctx context.Context, prompt string, catalog types.Catalog) ([]types.Rule, error) {
	columns, err := json.Marshal(catalog.Columns)
	if err != nil {
		return nil, derrors.NewInternalError("encoding catalog columns", err)
	}

	full := fmt.Sprintf(semanticSystemPrompt, columns) + "\n\nUser instruction: " + prompt
	body, err := json.Marshal(generateRequest{
		Contents:         []generateContent{{Parts: []generatePart{{Text: full}}}},
		GenerationConfig: generationConfig{Temperature: s.temperature},
	})
	if err != nil {
		return nil, derrors.NewInternalError("encoding model request", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", s.endpoint, s.model, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, derrors.NewInternalError("building model request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, derrors.NewParseError(derrors.CodeModelUnavailable, "model request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, derrors.NewParseError(derrors.CodeModelUnavailable,
			fmt.Sprintf("model returned status %d", resp.StatusCode), nil)
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, derrors.NewParseError(derrors.CodeBadModelReply, "invalid model response", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, derrors.NewParseError(derrors.CodeBadModelReply, "model returned no candidates", nil)
	}

	text := stripFences(strings.TrimSpace(gr.Candidates[0].Content.Parts[0].Text))
	rules, err := types.UnmarshalRules([]byte(text))
	if err != nil {
		return nil, derrors.NewParseError(derrors.CodeBadModelReply, "model reply is not a rule array", err)
	}
	return rules, nil
}

// stripFences extracts the payload from a markdown code fence, preferring a
// json-tagged fence. Replies without fences pass through unchanged.
func stripFences(text string) string {
	if i := strings.Index(text, "```json"); i >= 0 {
		rest := text[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	return text
}
