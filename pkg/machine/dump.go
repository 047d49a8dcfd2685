package machine

import (
	"iter"
	"strings"
)

// FormatStacks renders the listing printed by 'h': the main stack then the
// auxiliary stack, each top first, one tagged value per line.
func FormatStacks(c *Context) string {
	var sb strings.Builder
	writeStack(&sb, "Main", c.Stack())
	writeStack(&sb, "Aux", c.AuxStack())
	return sb.String()
}

func writeStack(sb *strings.Builder, label string, values iter.Seq[Value]) {
	sb.WriteString(label)
	sb.WriteString(": [\n")
	for v := range values {
		sb.WriteString("    ")
		sb.WriteString(v.Inspect())
		sb.WriteString(",\n")
	}
	sb.WriteString("]\n")
}
