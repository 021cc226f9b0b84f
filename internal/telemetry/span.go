package telemetry

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Domenick1991/railbooking/internal/domain"
)

// RecordError attaches err to span. Only internal failures mark the span as
// errored; rejected requests are expected outcomes.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	if domain.KindOf(err) == domain.KindInternal {
		span.SetStatus(codes.Error, err.Error())
	}
}
