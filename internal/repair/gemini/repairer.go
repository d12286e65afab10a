// Package gemini implements repair.Repairer on top of the Gemini API using a
// structured JSON response schema.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/genai"

	"github.com/palantir/lead-repair-pipeline/internal/lead"
	"github.com/palantir/lead-repair-pipeline/internal/repair"
)

const DefaultModel = "gemini-2.5-flash"

// quotaRetries caps retries for 429s; a spent quota rarely clears within a run.
const quotaRetries = 1

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

type Repairer struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, cfg Config) (*Repairer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Repairer{client: client, model: model}, nil
}

// Model reports the model name requests are sent to.
func (r *Repairer) Model() string { return r.model }

type responseSchema struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	CountryCode     *string  `json:"country_code"`
	Industry        *string  `json:"industry"`
	Segment         *string  `json:"segment"`
	ContractValue   *float64 `json:"contract_value"`
	SalesNotes      *string  `json:"sales_notes"`
	ConfidenceScore float64  `json:"confidence_score"`
}

var outputSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"id":           {Type: genai.TypeInteger},
		"name":         {Type: genai.TypeString},
		"email":        {Type: genai.TypeString},
		"country_code": {Type: genai.TypeString, Nullable: ptr(true), Description: "ISO 3166-1 alpha-2, uppercase"},
		"industry": {
			Type:     genai.TypeString,
			Nullable: ptr(true),
			Enum:     enumValues(lead.Industries()),
		},
		"segment": {
			Type:     genai.TypeString,
			Nullable: ptr(true),
			Enum:     enumValues(lead.Segments()),
		},
		"contract_value":   {Type: genai.TypeNumber, Nullable: ptr(true), Description: "USD, greater than 0"},
		"sales_notes":      {Type: genai.TypeString, Nullable: ptr(true)},
		"confidence_score": {Type: genai.TypeNumber, Minimum: ptr(0.0), Maximum: ptr(1.0)},
	},
	Required: []string{
		"id",
		"name",
		"email",
		"country_code",
		"industry",
		"segment",
		"contract_value",
		"sales_notes",
		"confidence_score",
	},
}

// Repair sends one structured-output request and validates the reply.
func (r *Repairer) Repair(ctx context.Context, in lead.Fields, validationErr string) (lead.Lead, error) {
	prompt, err := buildPrompt(in, validationErr)
	if err != nil {
		return lead.Lead{}, err
	}

	resp, err := r.client.Models.GenerateContent(
		ctx,
		r.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
			Temperature:       ptr[float32](0),
			CandidateCount:    1,
			ResponseMIMEType:  "application/json",
			ResponseSchema:    outputSchema,
		},
	)
	if err != nil {
		return lead.Lead{}, classifyErr(err)
	}
	return parseResponse(in, resp.Text())
}

func parseResponse(in lead.Fields, text string) (lead.Lead, error) {
	var parsed responseSchema
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &parsed); err != nil {
		return lead.Lead{}, fmt.Errorf("gemini: parse structured json: %w", err)
	}

	// The record's key is never the model's to change.
	out := lead.Fields{
		ID:              in.ID,
		Name:            parsed.Name,
		Email:           parsed.Email,
		CountryCode:     parsed.CountryCode,
		Industry:        parsed.Industry,
		Segment:         parsed.Segment,
		ContractValue:   parsed.ContractValue,
		SalesNotes:      parsed.SalesNotes,
		ConfidenceScore: &parsed.ConfidenceScore,
	}
	repaired, err := lead.Validate(out)
	if err != nil {
		return lead.Lead{}, fmt.Errorf("gemini: response failed validation: %w", err)
	}
	return repaired, nil
}

func buildPrompt(in lead.Fields, validationErr string) (string, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("gemini: encode record: %w", err)
	}
	return strings.TrimSpace(`
Original data: ` + string(b) + `

Validation error: ` + validationErr + `

Please extract missing structured fields from the sales_notes. If sales_notes are provided, analyze them to infer country_code, industry, segment, and contract_value.
`), nil
}

const systemInstruction = `You are a data extraction specialist for sales lead records.

Your task: fix the record so it passes validation, extracting missing structured fields from the unstructured sales_notes.

GEOGRAPHY:
- Map cities and country names to ISO 3166-1 alpha-2 codes (Paris -> FR, Tokyo -> JP, London -> GB, Berlin -> DE, New York/Silicon Valley/Seattle -> US, Sydney -> AU, Toronto -> CA, Madrid/Barcelona -> ES, Brussels -> BE, Milan -> IT, Warsaw -> PL, Seoul -> KR, Dubai -> AE).
- Use contextual clues such as well-known local institutions (Mizuho Bank suggests JP).

CURRENCY (contract_value is always USD):
- EUR x 1.10, JPY x 0.007, GBP x 1.30, AUD x 0.65, USD as-is.
- Understand "5k", "5 million", "$150k" and "80,000".

INDUSTRY (one of Tech, Finance, Retail, Healthcare, Other):
- Tech: software, AI, cloud, SaaS, startup, platform, DevOps, IoT, fintech app.
- Finance: bank, investment, trading, insurance, fintech, credit union, payment processor.
- Retail: bakery, shop, store, e-commerce, boutique, restaurant, wine shop, coffee shop.
- Healthcare: hospital, clinic, pharma, medical, pharmaceutical, dental.
- Other when unclear.

SEGMENT (one of Enterprise, Mid-Market, SMB):
- From contract value: 100,000+ Enterprise, 25,000 to 99,999 Mid-Market, below 25,000 SMB.
- From context: startup, small team, small practice -> SMB; Fortune 500, enterprise software, multi-site -> Enterprise.

CONFIDENCE (confidence_score between 0 and 1):
- 1.0 when every field was stated explicitly.
- 0.8 to 0.9 for strong contextual evidence.
- 0.6 to 0.7 for reasonable inference with some ambiguity.
- 0.4 to 0.5 for weak signals.

DATA QUALITY:
- Names in Title Case, emails lowercase.
- NEVER invent a name or email. Keep id unchanged.
- If a field cannot be inferred, set it to null and lower the confidence.`

func classifyErr(err error) error {
	// Wrap transient failures so the retry decorator backs off and tries again.
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return &repair.LimitedTransientError{Err: err, MaxRetries: quotaRetries}
		case apiErr.Code/100 == 5:
			return &repair.TransientError{Err: err}
		}
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) && (ne.Timeout() || ne.Temporary()) {
		return &repair.TransientError{Err: err}
	}
	return err
}

func enumValues[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func ptr[T any](v T) *T { return &v }
