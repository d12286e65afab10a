package gemini

import (
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/palantir/lead-repair-pipeline/internal/lead"
	"github.com/palantir/lead-repair-pipeline/internal/repair"
)

type tempNetErr struct{}

func (tempNetErr) Error() string   { return "temp net err" }
func (tempNetErr) Timeout() bool   { return false }
func (tempNetErr) Temporary() bool { return true }

func TestClassifyErr(t *testing.T) {
	tests := []struct {
		name          string
		in            error
		wantTransient bool
		wantLimited   bool
	}{
		{name: "nil", in: nil},
		{name: "api_429", in: genai.APIError{Code: 429}, wantTransient: true, wantLimited: true},
		{name: "api_500", in: genai.APIError{Code: 500}, wantTransient: true},
		{name: "api_503", in: genai.APIError{Code: 503}, wantTransient: true},
		{name: "api_401", in: genai.APIError{Code: 401}},
		{name: "net_temporary", in: tempNetErr{}, wantTransient: true},
		{name: "wrapped_api_429", in: errors.New(genai.APIError{Code: 429}.Error())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyErr(tt.in)
			var te *repair.TransientError
			var lte *repair.LimitedTransientError
			isLimited := errors.As(got, &lte)
			isTransient := errors.As(got, &te) || isLimited
			if isTransient != tt.wantTransient {
				t.Fatalf("transient=%v want=%v (err=%T %v)", isTransient, tt.wantTransient, got, got)
			}
			if isLimited != tt.wantLimited {
				t.Fatalf("limited=%v want=%v (err=%T %v)", isLimited, tt.wantLimited, got, got)
			}
			if isLimited && lte.MaxExtraRetries() != quotaRetries {
				t.Fatalf("MaxExtraRetries=%d want=%d", lte.MaxExtraRetries(), quotaRetries)
			}
		})
	}
}

func TestParseResponse(t *testing.T) {
	in := lead.Fields{
		ID:         7,
		Name:       "pierre dubois",
		Email:      "pierre@example.fr",
		SalesNotes: lead.String("Lunch meeting in Paris... 5000 EUR"),
	}

	t.Run("valid", func(t *testing.T) {
		got, err := parseResponse(in, `{"id": 99, "name": "Pierre Dubois", "email": "pierre@example.fr",
			"country_code": "FR", "industry": "Other", "segment": "SMB", "contract_value": 5500,
			"sales_notes": "Lunch meeting in Paris... 5000 EUR", "confidence_score": 0.6}`)
		if err != nil {
			t.Fatalf("parseResponse: %v", err)
		}
		if got.ID != 7 {
			t.Fatalf("id=%d, want the input id", got.ID)
		}
		if *got.CountryCode != "FR" || *got.ContractValue != 5500 || got.ConfidenceScore != 0.6 {
			t.Fatalf("unexpected lead: %+v", got)
		}
	})

	t.Run("null_fields_fail_cross_field_check", func(t *testing.T) {
		_, err := parseResponse(in, `{"id": 7, "name": "Pierre Dubois", "email": "pierre@example.fr",
			"country_code": null, "industry": null, "segment": null, "contract_value": null,
			"sales_notes": "Lunch meeting in Paris... 5000 EUR", "confidence_score": 0.4}`)
		var verr *lead.ValidationError
		if !errors.As(err, &verr) || !verr.Has("sales_notes") {
			t.Fatalf("expected sales_notes validation error, got %v", err)
		}
	})

	t.Run("not_json", func(t *testing.T) {
		_, err := parseResponse(in, "I could not repair this record.")
		if err == nil || !strings.Contains(err.Error(), "parse structured json") {
			t.Fatalf("expected parse error, got %v", err)
		}
	})
}

func TestBuildPrompt_IncludesRecordAndError(t *testing.T) {
	p, err := buildPrompt(lead.Fields{ID: 3, Name: "ann lee", Email: "ann@example.com"}, "name: must be Title Case")
	if err != nil {
		t.Fatalf("buildPrompt: %v", err)
	}
	for _, want := range []string{`"name":"ann lee"`, "Validation error: name: must be Title Case"} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}
	if strings.Contains(p, "country_code") {
		t.Fatalf("absent optional fields should be omitted from the prompt:\n%s", p)
	}
}
