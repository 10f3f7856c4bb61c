// internal/nodes/nodes.go
package nodes

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Category is one of the node status classifications shown on the dashboard.
type Category string

const (
	Unresponsive Category = "unresponsive"
	Failed       Category = "failed"
	Pending      Category = "pending"
	Changed      Category = "changed"
	Unchanged    Category = "unchanged"
	Unreported   Category = "unreported"
)

// Categories lists every tracked category. The order maps positional
// threshold arguments and fixes evaluation and perfdata order.
var Categories = []Category{
	Unresponsive,
	Failed,
	Pending,
	Changed,
	Unchanged,
	Unreported,
}

// Counts maps a node link name to the count shown for it. Names that are
// not one of Categories may be present; they are never consulted.
type Counts map[string]int

// Get returns the count for a category, 0 when the page did not list it.
func (c Counts) Get(category Category) int {
	return c[string(category)]
}

// Has reports whether the page listed the category at all.
func (c Counts) Has(category Category) bool {
	_, ok := c[string(category)]
	return ok
}

// Missing returns the tracked categories absent from the page, in order.
func (c Counts) Missing() []Category {
	var missing []Category
	for _, category := range Categories {
		if !c.Has(category) {
			missing = append(missing, category)
		}
	}
	return missing
}

var nodeLinkRegex = regexp.MustCompile(`<a href="/nodes/(\w+)">(\d+)</a>`)

// Extract scans the page line by line for node summary links such as
// <a href="/nodes/failed">3</a>. Only the first link on a line is read and
// a later line for the same name overwrites an earlier one.
func Extract(body string) Counts {
	counts := make(Counts)

	for _, line := range strings.Split(body, "\n") {
		matches := nodeLinkRegex.FindStringSubmatch(line)
		if len(matches) < 3 {
			continue
		}

		count, err := strconv.Atoi(matches[2])
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"name":  matches[1],
				"count": matches[2],
			}).Debug("Ignoring node link with unreadable count")
			continue
		}

		counts[matches[1]] = count
	}

	return counts
}
