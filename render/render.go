package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kaz/blastgen/config"
	"github.com/kaz/blastgen/schema"
)

type (
	// Hook is called after each table section has been written.
	Hook func(table string)
)

// Render writes the blaster configuration described by v to w.
// The schema and send sections are built once and shared by every table.
func Render(w io.Writer, v *config.Variant, hook Hook) error {
	header := Header(v)
	if _, err := io.WriteString(w, header); err != nil {
		return fmt.Errorf("io.WriteString failed: %w", err)
	}

	cols := schema.Build(v.DesignatedTS, v.ColumnPrefix, v.Columns, v.TypeCycle)
	schemaText := Schema(cols)
	sendText := Send(&v.Send)

	for t := 1; t <= v.Tables; t++ {
		name := TableName(v.TablePrefix, t)

		section := fmt.Sprintf(
			"[tables.%s]\nschema = %s\ndesignated_ts = %s\n\n[tables.%s.send]\n%s\n",
			name, schemaText, quote(v.DesignatedTS), name, sendText,
		)
		if _, err := io.WriteString(w, section); err != nil {
			return fmt.Errorf("io.WriteString failed: %w", err)
		}

		if hook != nil {
			hook(name)
		}
	}
	return nil
}

func TableName(prefix string, index int) string {
	return prefix + strconv.Itoa(index)
}

func Header(v *config.Variant) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "debug = %t\n\n", v.Debug)
	fmt.Fprintf(b, "[database]\n")
	fmt.Fprintf(b, "ilp = %s\n", quote(v.Database.ILP))
	if v.Database.PgSQL != "" {
		fmt.Fprintf(b, "pgsql = %s\n", quote(v.Database.PgSQL))
	}
	b.WriteString("\n")
	return b.String()
}

// Schema renders cols as a TOML array of pairs, one pair per line.
func Schema(cols []schema.Column) string {
	lines := make([]string, len(cols))
	for i, col := range cols {
		lines[i] = fmt.Sprintf("    [%s, %s]", quote(col.Name), quote(col.Type.String()))
	}
	return "[\n" + strings.Join(lines, ",\n") + "\n]"
}

func Send(s *config.Send) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "batch_pause = [%s, %s]\n", quote(Duration(s.BatchPause[0])), quote(Duration(s.BatchPause[1])))
	fmt.Fprintf(b, "batch_size = [%d, %d]\n", s.BatchSize[0], s.BatchSize[1])
	fmt.Fprintf(b, "parallel_senders = %d\n", s.ParallelSenders)
	fmt.Fprintf(b, "tot_rows = %s\n", groupDigits(s.TotRows))
	fmt.Fprintf(b, "batches_connection_keepalive = %d\n", s.BatchesConnectionKeepalive)
	return b.String()
}

var (
	durationUnits = []struct {
		unit   time.Duration
		suffix string
	}{
		{time.Hour, "h"},
		{time.Minute, "m"},
		{time.Second, "s"},
		{time.Millisecond, "ms"},
		{time.Microsecond, "us"},
	}
)

// Duration writes d as a whole number of the largest unit dividing it exactly,
// e.g. 1500us or 90s. The blaster's parser takes no fractions and no µ.
func Duration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	for _, u := range durationUnits {
		if d%u.unit == 0 {
			return strconv.FormatInt(int64(d/u.unit), 10) + u.suffix
		}
	}
	return strconv.FormatInt(int64(d), 10) + "ns"
}

// groupDigits formats n as a TOML integer with underscores between thousands.
func groupDigits(n int64) string {
	digits := strconv.FormatInt(n, 10)

	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}

	head := len(digits) % 3
	if head == 0 {
		head = 3
	}

	b := &strings.Builder{}
	b.WriteString(sign)
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		b.WriteByte('_')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// quote produces a TOML basic string. Only the characters TOML refuses
// unescaped are rewritten.
func quote(s string) string {
	b := &strings.Builder{}
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(b, `\u%04X`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
