// Package rules is a deterministic, offline repair collaborator. It applies
// the same normalization and extraction rules the model-backed repairer is
// prompted with, using keyword tables instead of inference.
package rules

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/palantir/lead-repair-pipeline/internal/lead"
)

// ErrIdentityMissing is returned when a lead lacks a usable name or email.
// Those values are never invented.
var ErrIdentityMissing = errors.New("identity field missing")

// Repairer repairs leads with fixed rules. The zero value is ready to use.
type Repairer struct{}

// New returns a rules-based repairer.
func New() *Repairer { return &Repairer{} }

// Repair implements repair.Repairer.
func (r *Repairer) Repair(ctx context.Context, in lead.Fields, validationErr string) (lead.Lead, error) {
	if err := ctx.Err(); err != nil {
		return lead.Lead{}, err
	}

	s := &session{out: in.Clone(), conf: certExplicit}
	if in.ConfidenceScore != nil && *in.ConfidenceScore >= 0 && *in.ConfidenceScore <= 1 {
		s.conf = *in.ConfidenceScore
	}

	steps := []func(lead.Fields) error{
		s.fixName,
		s.fixEmail,
		s.fixCountry,
		s.fixContractValue,
		s.fixIndustry,
		s.fixSegment,
	}
	for _, step := range steps {
		if err := step(in); err != nil {
			return lead.Lead{}, err
		}
	}

	conf := math.Round(s.conf*100) / 100
	s.out.ConfidenceScore = &conf

	repaired, err := lead.Validate(s.out)
	if err != nil {
		return lead.Lead{}, fmt.Errorf("repaired record still invalid: %w", err)
	}
	return repaired, nil
}

type session struct {
	out  lead.Fields
	conf float64
}

func (s *session) infer(cert float64) {
	if cert < s.conf {
		s.conf = cert
	}
}

func (s *session) fixName(in lead.Fields) error {
	name := strings.Join(strings.Fields(in.Name), " ")
	if len([]rune(name)) < 2 {
		return fmt.Errorf("%w: name is empty or too short and cannot be inferred", ErrIdentityMissing)
	}
	if !lead.IsTitle(name) {
		name = titleCase(name)
		if !lead.IsTitle(name) {
			return fmt.Errorf("name %q cannot be expressed in Title Case", in.Name)
		}
	}
	s.out.Name = name
	return nil
}

// titleCase upper-cases every cased rune that follows an uncased one and
// lower-cases the rest, so "mary o'brien" becomes "Mary O'Brien".
func titleCase(s string) string {
	lowered := cases.Lower(language.Und).String(s)
	var b strings.Builder
	b.Grow(len(lowered))
	prevCased := false
	for _, r := range lowered {
		cased := unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
		if cased && !prevCased {
			r = unicode.ToTitle(r)
		}
		b.WriteRune(r)
		prevCased = cased
	}
	return b.String()
}

func (s *session) fixEmail(in lead.Fields) error {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return fmt.Errorf("%w: email is empty and cannot be inferred", ErrIdentityMissing)
	}
	s.out.Email = email
	return nil
}

func (s *session) fixCountry(in lead.Fields) error {
	if in.CountryCode != nil {
		code, cert, ok := lookupCountry(*in.CountryCode)
		if !ok {
			return fmt.Errorf("country %q is not a recognizable country", *in.CountryCode)
		}
		s.out.CountryCode = &code
		s.infer(cert)
		return nil
	}
	notes := in.Notes()
	if notes == "" {
		return nil
	}
	code, cert, ok := countryFromNotes(notes)
	if !ok {
		return errors.New("sales_notes do not mention a recognizable location; country_code cannot be extracted")
	}
	s.out.CountryCode = &code
	s.infer(cert)
	return nil
}

func (s *session) fixContractValue(in lead.Fields) error {
	notes := in.Notes()
	if in.ContractValue != nil {
		v := *in.ContractValue
		if !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0 {
			return nil
		}
		if notes == "" {
			return fmt.Errorf("contract_value %g is not positive and there is no evidence to correct it", v)
		}
	}
	if notes == "" {
		return nil
	}
	amt, ok := amountFromNotes(notes)
	if !ok {
		return errors.New("sales_notes do not state an amount; contract_value cannot be extracted")
	}
	v := amt.USD()
	s.out.ContractValue = &v
	if amt.explicit {
		s.infer(certNamed)
	} else {
		s.infer(certAssumedUSD)
	}
	return nil
}

func (s *session) fixIndustry(in lead.Fields) error {
	if in.Industry != nil {
		ind, cert := lookupIndustry(*in.Industry)
		v := string(ind)
		s.out.Industry = &v
		s.infer(cert)
		return nil
	}
	notes := in.Notes()
	if notes == "" {
		return nil
	}
	ind, cert := industryFromNotes(notes)
	v := string(ind)
	s.out.Industry = &v
	s.infer(cert)
	return nil
}

func (s *session) fixSegment(in lead.Fields) error {
	if in.Segment != nil {
		if seg, ok := lookupSegment(*in.Segment); ok {
			v := string(seg)
			s.out.Segment = &v
			return nil
		}
		if s.out.ContractValue == nil {
			return fmt.Errorf("segment %q is not recognized and no contract value is available to infer it", *in.Segment)
		}
		v := string(segmentForValue(*s.out.ContractValue))
		s.out.Segment = &v
		s.infer(certBand)
		return nil
	}
	notes := in.Notes()
	if notes == "" {
		return nil
	}
	if seg, cert, ok := segmentFromNotes(notes); ok {
		v := string(seg)
		s.out.Segment = &v
		s.infer(cert)
		return nil
	}
	if s.out.ContractValue != nil {
		v := string(segmentForValue(*s.out.ContractValue))
		s.out.Segment = &v
		s.infer(certBand)
	}
	return nil
}
