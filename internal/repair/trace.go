package repair

import (
	"context"
	"log/slog"
	"time"

	"github.com/palantir/lead-repair-pipeline/internal/lead"
	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/redact"
)

// Traced logs every repair request and its outcome at debug/info level.
func Traced(next Repairer, logger *slog.Logger) Repairer {
	if logger == nil {
		logger = slog.Default()
	}
	return &traced{next: next, logger: logger}
}

type traced struct {
	next   Repairer
	logger *slog.Logger
}

func (t *traced) Repair(ctx context.Context, in lead.Fields, validationErr string) (lead.Lead, error) {
	deadlineIn := "none"
	if d, ok := ctx.Deadline(); ok {
		deadlineIn = time.Until(d).Round(time.Millisecond).String()
	}
	t.logger.Debug("repair request",
		"lead_id", in.ID,
		"has_notes", in.Notes() != "",
		"deadline_in", deadlineIn,
		"validation_error", validationErr,
	)

	start := time.Now()
	out, err := t.next.Repair(ctx, in, validationErr)
	elapsed := time.Since(start).Round(time.Millisecond)

	if err != nil {
		t.logger.Warn("repair failed",
			"lead_id", in.ID,
			"duration", elapsed,
			"retryable", IsTransient(err),
			"error", redact.Secrets(err.Error()),
		)
		return out, err
	}

	attrs := []any{
		"lead_id", in.ID,
		"duration", elapsed,
		"confidence", out.ConfidenceScore,
	}
	if out.CountryCode != nil {
		attrs = append(attrs, "country_code", *out.CountryCode)
	}
	if out.Industry != nil {
		attrs = append(attrs, "industry", string(*out.Industry))
	}
	if out.ContractValue != nil {
		attrs = append(attrs, "contract_value", *out.ContractValue)
	}
	t.logger.Info("repair ok", attrs...)
	return out, nil
}
