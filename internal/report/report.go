// internal/report/report.go
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/atc0005/go-nagios"

	"github.com/chr126/nagios-puppet/internal/monitoring"
	"github.com/chr126/nagios-puppet/internal/nodes"
)

// CheckName prefixes the first line of plugin output.
const CheckName = "PUPPET DASHBOARD"

// ApplyToPlugin copies the verdict, summary and per-category perfdata of a
// check result onto the plugin. Perfdata is omitted when the dashboard was
// never read.
func ApplyToPlugin(p *nagios.Plugin, result *monitoring.CheckResult) error {
	p.ExitStatusCode = ExitCode(result.Verdict)
	p.ServiceOutput = ServiceOutput(result.Verdict, result.Output)

	if result.Counts == nil {
		return nil
	}

	if err := p.AddPerfData(false, PerfData(result)...); err != nil {
		return fmt.Errorf("failed to add perfdata: %w", err)
	}
	return nil
}

// ApplyError reports a failure that stopped the run before any check was
// made, such as invalid arguments.
func ApplyError(p *nagios.Plugin, err error) {
	p.ExitStatusCode = nagios.StateUNKNOWNExitCode
	p.ServiceOutput = err.Error()
}

func ServiceOutput(verdict monitoring.Verdict, detail string) string {
	detail = strings.TrimSpace(detail)
	if detail == "" {
		return fmt.Sprintf("%s %s", CheckName, verdict)
	}
	return fmt.Sprintf("%s %s - %s", CheckName, verdict, detail)
}

func ExitCode(verdict monitoring.Verdict) int {
	switch verdict {
	case monitoring.OK:
		return nagios.StateOKExitCode
	case monitoring.Warning:
		return nagios.StateWARNINGExitCode
	case monitoring.Critical:
		return nagios.StateCRITICALExitCode
	default:
		return nagios.StateUNKNOWNExitCode
	}
}

// PerfData returns one unitless metric per tracked category, absent ones as 0.
func PerfData(result *monitoring.CheckResult) []nagios.PerformanceData {
	perfData := make([]nagios.PerformanceData, 0, len(nodes.Categories))
	for _, category := range nodes.Categories {
		pd := nagios.PerformanceData{
			Label: string(category),
			Value: strconv.Itoa(result.Counts.Get(category)),
			Min:   "0",
		}
		if pair, ok := result.Thresholds[category]; ok {
			pd.Warn = strconv.Itoa(pair.Warning)
			pd.Crit = strconv.Itoa(pair.Critical)
		}
		perfData = append(perfData, pd)
	}
	return perfData
}
