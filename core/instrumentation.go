package orchestration

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/roundtable-core/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

// Process-wide counters are the only state shared across sessions.
var (
	sessionsOpenedCounter    metric.Int64Counter
	sessionsClosedCounter    metric.Int64Counter
	captionsCommittedCounter metric.Int64Counter
	adapterErrorsCounter     metric.Int64Counter
)

func init() {
	sessionsOpenedCounter, _ = meter.Int64Counter("roundtable.sessions.opened",
		metric.WithDescription("Number of sessions opened"))
	sessionsClosedCounter, _ = meter.Int64Counter("roundtable.sessions.closed",
		metric.WithDescription("Number of sessions closed"))
	captionsCommittedCounter, _ = meter.Int64Counter("roundtable.captions.committed",
		metric.WithDescription("Number of captions committed across all sessions"))
	adapterErrorsCounter, _ = meter.Int64Counter("roundtable.adapter.errors",
		metric.WithDescription("Number of adapter failures recovered at the orchestrator boundary"))
}
