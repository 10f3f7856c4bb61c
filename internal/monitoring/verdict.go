// internal/monitoring/verdict.go
package monitoring

// Verdict is the overall health classification of a check run. The values
// double as plugin exit codes (0=OK, 1=Warning, 2=Critical, 3=Unknown).
type Verdict int

const (
	OK Verdict = iota
	Warning
	Critical
	Unknown
)

func (v Verdict) String() string {
	switch v {
	case OK:
		return "OK"
	case Warning:
		return "WARNING"
	case Critical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ExitCode maps the verdict onto the plugin exit code convention.
func (v Verdict) ExitCode() int {
	switch v {
	case OK, Warning, Critical:
		return int(v)
	default:
		return int(Unknown)
	}
}

// escalate returns the more severe of two comparable verdicts.
func escalate(current, next Verdict) Verdict {
	if next > current {
		return next
	}
	return current
}
