package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/kaz/blastgen/schema"
)

var (
	builtins = map[string]func() *Variant{
		"big":   big,
		"small": small,
	}
)

// Builtin returns a fresh copy of the named variant.
func Builtin(name string) (*Variant, error) {
	fn, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("no such variant: %v", name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func big() *Variant {
	return &Variant{
		Debug: true,
		Database: Database{
			ILP:   "http::addr=localhost:9000;token=qt1cBkOuvc_8VFCMHRacRaDNp7DkzTtf9Cu1eh6rSuYfMM;",
			PgSQL: "host=localhost port=8812 user=test_user password=pass dbname=qdb",
		},
		Tables:       20,
		TablePrefix:  "metrics",
		Columns:      40,
		ColumnPrefix: "col",
		TypeCycle:    []schema.ColType{schema.Double, schema.Long, schema.Symbol},
		DesignatedTS: "timestamp",
		Send: Send{
			BatchPause:                 [2]time.Duration{10 * time.Millisecond, 100 * time.Millisecond},
			BatchSize:                  [2]int{10000, 50000},
			ParallelSenders:            4,
			TotRows:                    25_000_000,
			BatchesConnectionKeepalive: 10,
		},
	}
}

// small talks ILP over TCP and has no pgsql endpoint.
func small() *Variant {
	return &Variant{
		Debug: true,
		Database: Database{
			ILP: "tcp::addr=localhost:9009;",
		},
		Tables:       10,
		TablePrefix:  "metrics",
		Columns:      40,
		ColumnPrefix: "col",
		TypeCycle:    []schema.ColType{schema.Double, schema.Long, schema.Symbol},
		DesignatedTS: "timestamp",
		Send: Send{
			BatchPause:                 [2]time.Duration{100 * time.Millisecond, time.Second},
			BatchSize:                  [2]int{1000, 10000},
			ParallelSenders:            2,
			TotRows:                    5_000_000,
			BatchesConnectionKeepalive: 5,
		},
	}
}
