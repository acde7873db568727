package eventlog

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/koscakluka/roundtable-core/core/eventlog"

var logger = otelslog.NewLogger(scopeName)
