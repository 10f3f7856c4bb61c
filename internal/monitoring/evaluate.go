// internal/monitoring/evaluate.go
package monitoring

import (
	"fmt"
	"strings"

	"github.com/chr126/nagios-puppet/internal/nodes"
	"github.com/chr126/nagios-puppet/internal/thresholds"
)

// Evaluation is the outcome of comparing node counts against thresholds.
type Evaluation struct {
	Verdict Verdict
	Detail  string
}

// Evaluate compares every category count against its thresholds. Counts at
// or above a threshold trip it.
//
// Detail lists every category at or above its warning threshold, while the
// verdict stops being updated once a category is critical. The two passes
// are kept separate so the detail always covers all categories.
func Evaluate(counts nodes.Counts, set thresholds.Set) Evaluation {
	var detail strings.Builder
	for _, category := range nodes.Categories {
		count := counts.Get(category)
		if count >= set.Get(category).Warning {
			fmt.Fprintf(&detail, "%s = %d; ", category, count)
		}
	}

	verdict := OK
	for _, category := range nodes.Categories {
		count := counts.Get(category)
		pair := set.Get(category)

		if verdict != Critical && verdict != Warning && count >= pair.Warning {
			verdict = escalate(verdict, Warning)
		}
		if count >= pair.Critical {
			verdict = escalate(verdict, Critical)
		}
		if verdict == Critical {
			break
		}
	}

	return Evaluation{Verdict: verdict, Detail: detail.String()}
}
