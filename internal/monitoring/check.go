// internal/monitoring/check.go
package monitoring

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chr126/nagios-puppet/internal/nodes"
	"github.com/chr126/nagios-puppet/internal/thresholds"
)

// Fetcher retrieves the dashboard page.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

type CheckResult struct {
	Verdict Verdict
	// Output is the detail string, or the failure message for Unknown.
	Output     string
	Counts     nodes.Counts // nil when the page could not be fetched
	Thresholds thresholds.Set
	Duration   time.Duration
}

// DashboardCheck is a single fetch, extract and evaluate pass over the
// dashboard status page.
type DashboardCheck struct {
	fetcher    Fetcher
	thresholds thresholds.Set
	log        *logrus.Entry
}

func NewDashboardCheck(fetcher Fetcher, set thresholds.Set, log *logrus.Entry) *DashboardCheck {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &DashboardCheck{
		fetcher:    fetcher,
		thresholds: set,
		log:        log,
	}
}

func (c *DashboardCheck) Name() string {
	return "puppet_dashboard"
}

// Execute runs the check. A failed fetch short-circuits to Unknown without
// extracting or evaluating anything.
func (c *DashboardCheck) Execute(ctx context.Context) *CheckResult {
	start := time.Now()

	body, err := c.fetcher.Fetch(ctx)
	if err != nil {
		c.log.WithError(err).Warn("Dashboard fetch failed")
		return &CheckResult{
			Verdict:    Unknown,
			Output:     err.Error(),
			Thresholds: c.thresholds,
			Duration:   time.Since(start),
		}
	}

	counts := nodes.Extract(body)
	for _, category := range counts.Missing() {
		c.log.WithField("category", category).Debug("Category not listed on dashboard, counting as 0")
	}

	evaluation := Evaluate(counts, c.thresholds)

	result := &CheckResult{
		Verdict:    evaluation.Verdict,
		Output:     evaluation.Detail,
		Counts:     counts,
		Thresholds: c.thresholds,
		Duration:   time.Since(start),
	}

	c.log.WithFields(logrus.Fields{
		"verdict":  result.Verdict.String(),
		"detail":   result.Output,
		"duration": result.Duration,
	}).Info("Check completed")

	return result
}
