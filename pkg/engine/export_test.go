package engine

import (
	"time"

	"github.com/websecscan/websecscan/pkg/governor"
)

// SetGovernorFactory replaces how the engine builds its per-scan
// governor, so tests can shrink the budget ceilings.
func SetGovernorFactory(e *Engine, f func(time.Duration) *governor.Governor) {
	e.newGovernor = f
}
