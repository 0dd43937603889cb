package battle

import (
	"fmt"
	"sort"
	"strings"
)

// logEntry builds "title|key1:value1|key2:value2|..." in a deterministic
// key order (spec §6.3: "Attributes are position-insensitive", so any
// stable order is a valid implementation; we sort keys for reproducibility
// across runs, which matters for the determinism invariant in spec §8).
func logEntry(title string, fields map[string]string) string {
	var b strings.Builder
	b.WriteString(title)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		if v := fields[k]; v != "" {
			b.WriteByte(':')
			b.WriteString(v)
		}
	}
	return b.String()
}

func (e *Engine) log(title string, fields map[string]string) {
	e.logSplitter.Emit(logEntry(title, fields))
}

// logSplit emits a paired observation: fields differing only in
// side-private numeric values are supplied as privateFields/publicFields
// (spec §6.3, §8 "Split-log consistency").
func (e *Engine) logSplit(side int, title string, privateFields, publicFields map[string]string) {
	e.logSplitter.EmitSplit(side, logEntry(title, privateFields), logEntry(title, publicFields))
}

func itoa(n int) string { return fmt.Sprintf("%d", n) }

// healthFields renders a mon's HP for the private (exact) and public
// (percent, 100-denominator) variants, per the damage-apply step in
// spec §4.1 item 5 and scenario 6 in §8.
func healthFields(m *Mon) (private, public string) {
	if m.Fainted || m.CurrentHP <= 0 {
		return "0", "0/100"
	}
	private = fmt.Sprintf("%d/%d", m.CurrentHP, m.MaxHP)
	pct := (m.CurrentHP*100 + m.MaxHP - 1) / m.MaxHP
	if pct < 1 {
		pct = 1
	}
	public = fmt.Sprintf("%d/100", pct)
	return
}
