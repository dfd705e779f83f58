package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/kaz/blastgen/schema"
	"github.com/lib/pq"
	"gopkg.in/yaml.v2"
)

type (
	Variant struct {
		Debug    bool     `yaml:"debug"`
		Database Database `yaml:"database"`

		Tables       int              `yaml:"tables"`
		TablePrefix  string           `yaml:"table_prefix"`
		Columns      int              `yaml:"columns"`
		ColumnPrefix string           `yaml:"column_prefix"`
		TypeCycle    []schema.ColType `yaml:"type_cycle"`
		DesignatedTS string           `yaml:"designated_ts"`

		Send Send `yaml:"send"`
	}

	Database struct {
		ILP   string `yaml:"ilp"`
		PgSQL string `yaml:"pgsql,omitempty"`
	}

	Send struct {
		BatchPause                 [2]time.Duration `yaml:"batch_pause"`
		BatchSize                  [2]int           `yaml:"batch_size"`
		ParallelSenders            int              `yaml:"parallel_senders"`
		TotRows                    int64            `yaml:"tot_rows"`
		BatchesConnectionKeepalive int              `yaml:"batches_connection_keepalive"`
	}

	profile struct {
		Base    string `yaml:"base"`
		Variant `yaml:",inline"`
	}
)

const (
	DefaultVariant = "big"
)

var (
	identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Load reads a YAML profile. Keys missing from the profile keep the values of
// its base variant, which defaults to DefaultVariant.
func Load(path string) (*Variant, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile failed: %w", err)
	}
	return Parse(raw)
}

// Parse rejects keys that are not fields of a profile.
func Parse(raw []byte) (*Variant, error) {
	head := &struct {
		Base string `yaml:"base"`
	}{}
	if err := yaml.Unmarshal(raw, head); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal failed: %w", err)
	}
	if head.Base == "" {
		head.Base = DefaultVariant
	}

	base, err := Builtin(head.Base)
	if err != nil {
		return nil, fmt.Errorf("Builtin failed: %w", err)
	}

	p := &profile{Base: head.Base, Variant: *base}
	if err := yaml.UnmarshalStrict(raw, p); err != nil {
		return nil, fmt.Errorf("yaml.UnmarshalStrict failed: %w", err)
	}
	v := &p.Variant

	if err := v.Normalize(); err != nil {
		return nil, fmt.Errorf("Normalize failed: %w", err)
	}
	return v, nil
}

// Normalize rewrites a pgsql connection given as a URL into the keyword/value form.
func (v *Variant) Normalize() error {
	dsn := v.Database.PgSQL
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil
	}

	conn, err := pq.ParseURL(dsn)
	if err != nil {
		return fmt.Errorf("pq.ParseURL failed: %w", err)
	}
	v.Database.PgSQL = conn
	return nil
}

func (v Variant) Validate() error {
	return validation.ValidateStruct(&v,
		validation.Field(&v.Database),
		validation.Field(&v.Tables, validation.Required, validation.Min(1)),
		validation.Field(&v.TablePrefix, validation.Required, validation.Match(identifier)),
		validation.Field(&v.Columns, validation.Min(0)),
		validation.Field(&v.ColumnPrefix, validation.Required, validation.Match(identifier)),
		validation.Field(&v.TypeCycle, validation.Required, validation.Each(validation.By(knownType))),
		validation.Field(&v.DesignatedTS, validation.Required, validation.Match(identifier)),
		validation.Field(&v.Send),
	)
}

func (d Database) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.ILP, validation.Required),
	)
}

func (s Send) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.BatchPause, validation.By(orderedDurations)),
		validation.Field(&s.BatchSize, validation.By(orderedInts)),
		validation.Field(&s.ParallelSenders, validation.Required, validation.Min(1)),
		validation.Field(&s.TotRows, validation.Min(0)),
		validation.Field(&s.BatchesConnectionKeepalive, validation.Required, validation.Min(1)),
	)
}

func knownType(value interface{}) error {
	t, _ := value.(schema.ColType)
	if !t.Valid() {
		return fmt.Errorf("unknown column type %d", int(t))
	}
	return nil
}

func orderedDurations(value interface{}) error {
	pair, _ := value.([2]time.Duration)
	if pair[0] < 0 {
		return fmt.Errorf("must not be negative")
	}
	if pair[0] > pair[1] {
		return fmt.Errorf("minimum %v exceeds maximum %v", pair[0], pair[1])
	}
	return nil
}

func orderedInts(value interface{}) error {
	pair, _ := value.([2]int)
	if pair[0] < 1 {
		return fmt.Errorf("must be at least 1")
	}
	if pair[0] > pair[1] {
		return fmt.Errorf("minimum %d exceeds maximum %d", pair[0], pair[1])
	}
	return nil
}

// Marshal renders v as a profile that Parse turns back into an identical variant.
func Marshal(base string, v *Variant) ([]byte, error) {
	out, err := yaml.Marshal(&profile{Base: base, Variant: *v})
	if err != nil {
		return nil, fmt.Errorf("yaml.Marshal failed: %w", err)
	}
	return out, nil
}
