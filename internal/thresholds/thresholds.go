// internal/thresholds/thresholds.go
package thresholds

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/chr126/nagios-puppet/internal/nodes"
)

var (
	ErrInvalidFormat  = errors.New("invalid format")
	ErrWrongArity     = errors.New("wrong number of thresholds")
	ErrThresholdOrder = errors.New("warning threshold not below critical")
)

var integerRegex = regexp.MustCompile(`^[+-]?\d+$`)

// Pair holds the warning and critical threshold for one category.
// Warning is always strictly less than Critical.
type Pair struct {
	Warning  int
	Critical int
}

// Set is the validated per-category threshold table.
type Set map[nodes.Category]Pair

// Get returns the pair for a category.
func (s Set) Get(category nodes.Category) Pair {
	return s[category]
}

// Arguments is the validated form of the raw threshold and port inputs.
type Arguments struct {
	Thresholds Set
	Port       int
}

// Validate checks the comma separated warning and critical lists and the
// port token. Format is checked across all tokens first, then list length,
// then ordering, so the first reported error is deterministic.
func Validate(warning, critical, port string) (*Arguments, error) {
	warningTokens := strings.Split(warning, ",")
	criticalTokens := strings.Split(critical, ",")

	warningValues, err := parseList("warning", warningTokens)
	if err != nil {
		return nil, err
	}
	criticalValues, err := parseList("critical", criticalTokens)
	if err != nil {
		return nil, err
	}
	portValue, err := parseInteger("port", port)
	if err != nil {
		return nil, err
	}

	set, err := pair(warningValues, criticalValues)
	if err != nil {
		return nil, err
	}

	return &Arguments{Thresholds: set, Port: portValue}, nil
}

// Parse validates only the two threshold lists.
func Parse(warning, critical string) (Set, error) {
	warningValues, err := parseList("warning", strings.Split(warning, ","))
	if err != nil {
		return nil, err
	}
	criticalValues, err := parseList("critical", strings.Split(critical, ","))
	if err != nil {
		return nil, err
	}
	return pair(warningValues, criticalValues)
}

func pair(warning, critical []int) (Set, error) {
	expected := len(nodes.Categories)
	if len(warning) != expected {
		return nil, fmt.Errorf("%w: expected %d warning values (%s), got %d",
			ErrWrongArity, expected, categoryList(), len(warning))
	}
	if len(critical) != expected {
		return nil, fmt.Errorf("%w: expected %d critical values (%s), got %d",
			ErrWrongArity, expected, categoryList(), len(critical))
	}

	set := make(Set, expected)
	for i, category := range nodes.Categories {
		if warning[i] >= critical[i] {
			return nil, fmt.Errorf("%w: %s warning %d must be less than critical %d",
				ErrThresholdOrder, category, warning[i], critical[i])
		}
		set[category] = Pair{Warning: warning[i], Critical: critical[i]}
	}

	return set, nil
}

func parseList(name string, tokens []string) ([]int, error) {
	values := make([]int, 0, len(tokens))
	for _, token := range tokens {
		value, err := parseInteger(name, token)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

func parseInteger(name, token string) (int, error) {
	if !integerRegex.MatchString(token) {
		return 0, fmt.Errorf("%w: %s value %q is not an integer", ErrInvalidFormat, name, token)
	}
	value, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %s value %q is out of range", ErrInvalidFormat, name, token)
	}
	return value, nil
}

func categoryList() string {
	names := make([]string, len(nodes.Categories))
	for i, category := range nodes.Categories {
		names[i] = string(category)
	}
	return strings.Join(names, ",")
}
