package pipeline

import (
	"errors"

	"github.com/palantir/lead-repair-pipeline/internal/lead"
)

// Bucket is the terminal classification of one input row.
type Bucket int

const (
	BucketValid Bucket = iota
	BucketRepaired
	BucketLowConfidence
	BucketFailed
)

func (b Bucket) String() string {
	switch b {
	case BucketValid:
		return "valid"
	case BucketRepaired:
		return "repaired"
	case BucketLowConfidence:
		return "low_confidence"
	case BucketFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stage names the step a Failed row stopped at.
type Stage string

const (
	StagePreprocessing Stage = "preprocessing"
	StageRepair        Stage = "repair"
)

// RepairedEntry is a row that needed repair and got a schema-valid result.
type RepairedEntry struct {
	Original   lead.RawRow `json:"original"`
	Repaired   lead.Lead   `json:"repaired"`
	ErrorFixed string      `json:"error_fixed"`
}

// FailedEntry is a row that produced no valid lead. Preprocessing failures set
// Error; repair failures set ValidationError and RepairError.
type FailedEntry struct {
	Row             lead.RawRow `json:"row"`
	Stage           Stage       `json:"stage"`
	Error           string      `json:"error,omitempty"`
	ValidationError string      `json:"validation_error,omitempty"`
	RepairError     string      `json:"repair_error,omitempty"`
}

// Outcome is the classification of one row, delivered as rows complete.
type Outcome struct {
	Index  int
	Bucket Bucket
	Row    lead.RawRow

	// Lead is set for Valid, Repaired and LowConfidence.
	Lead *lead.Lead

	// ValidationError is the rendered schema failure that triggered repair.
	ValidationError string

	// Err is the *lead.PreprocessError or *RepairError of a Failed row.
	Err error
}

// Results holds the four disjoint buckets of a run. Every input row appears in
// exactly one bucket, and each bucket keeps input order.
type Results struct {
	Valid         []lead.Lead     `json:"valid"`
	Repaired      []RepairedEntry `json:"repaired"`
	LowConfidence []RepairedEntry `json:"low_confidence"`
	Failed        []FailedEntry   `json:"failed"`
}

// NewResults returns empty, non-nil buckets so they serialize as [].
func NewResults() *Results {
	return &Results{
		Valid:         []lead.Lead{},
		Repaired:      []RepairedEntry{},
		LowConfidence: []RepairedEntry{},
		Failed:        []FailedEntry{},
	}
}

// Total is the number of rows classified.
func (r *Results) Total() int {
	return len(r.Valid) + len(r.Repaired) + len(r.LowConfidence) + len(r.Failed)
}

// Count returns the size of one bucket.
func (r *Results) Count(b Bucket) int {
	switch b {
	case BucketValid:
		return len(r.Valid)
	case BucketRepaired:
		return len(r.Repaired)
	case BucketLowConfidence:
		return len(r.LowConfidence)
	case BucketFailed:
		return len(r.Failed)
	default:
		return 0
	}
}

func (r *Results) add(o Outcome) {
	switch o.Bucket {
	case BucketValid:
		r.Valid = append(r.Valid, *o.Lead)
	case BucketRepaired, BucketLowConfidence:
		e := RepairedEntry{Original: o.Row, Repaired: *o.Lead, ErrorFixed: o.ValidationError}
		if o.Bucket == BucketRepaired {
			r.Repaired = append(r.Repaired, e)
		} else {
			r.LowConfidence = append(r.LowConfidence, e)
		}
	case BucketFailed:
		r.Failed = append(r.Failed, failedEntry(o))
	}
}

func failedEntry(o Outcome) FailedEntry {
	var rerr *RepairError
	if errors.As(o.Err, &rerr) {
		return FailedEntry{
			Row:             o.Row,
			Stage:           StageRepair,
			ValidationError: o.ValidationError,
			RepairError:     rerr.Message(),
		}
	}
	msg := ""
	if o.Err != nil {
		msg = o.Err.Error()
	}
	return FailedEntry{Row: o.Row, Stage: StagePreprocessing, Error: msg}
}
