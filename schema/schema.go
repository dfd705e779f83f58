package schema

import (
	"fmt"
)

type (
	ColType int

	Column struct {
		Name string
		Type ColType
	}
)

const (
	Timestamp ColType = iota
	Double
	Long
	Symbol
)

var (
	DefaultCycle = []ColType{Double, Long, Symbol}

	typeNames = map[ColType]string{
		Timestamp: "Timestamp",
		Double:    "Double",
		Long:      "Long",
		Symbol:    "Symbol",
	}
)

func (t ColType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ColType(%d)", int(t))
}

func (t ColType) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// ParseColType is case-sensitive, tags are emitted exactly as the ingestion tool expects them.
func ParseColType(name string) (ColType, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown column type: %q", name)
}

func (t ColType) MarshalYAML() (interface{}, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown column type: %d", int(t))
	}
	return t.String(), nil
}

func (t *ColType) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return fmt.Errorf("unmarshal failed: %w", err)
	}

	parsed, err := ParseColType(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Build returns the designated timestamp column followed by count generated columns,
// typed by walking cycle from its first element. An empty cycle means DefaultCycle.
func Build(designatedTS, prefix string, count int, cycle []ColType) []Column {
	if len(cycle) == 0 {
		cycle = DefaultCycle
	}

	cols := make([]Column, 0, count+1)
	cols = append(cols, Column{Name: designatedTS, Type: Timestamp})

	for i := 1; i <= count; i++ {
		cols = append(cols, Column{
			Name: fmt.Sprintf("%s%d", prefix, i),
			Type: cycle[(i-1)%len(cycle)],
		})
	}
	return cols
}
