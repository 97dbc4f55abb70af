package fsm

import (
	"fmt"
	"sort"
	"strings"
)

// Visualize renders the machine transitions as a graphviz digraph,
// edges leaving the current state go first
func Visualize(fsm *FSM) string {
	var (
		sb      strings.Builder
		current []string
		other   []string
	)

	states := make(map[string]bool)
	currentState := fsm.State()

	for k, v := range fsm.transitions {
		states[string(k.source)] = true
		states[string(v.dstState)] = true

		style := ""
		if v.isInternal {
			style = ", style = dashed"
		}
		edge := fmt.Sprintf(`    "%s" -> "%s" [ label = "%s"%s ];`, k.source, v.dstState, k.event, style)
		if k.source == currentState {
			current = append(current, edge)
		} else {
			other = append(other, edge)
		}
	}

	sort.Strings(current)
	sort.Strings(other)

	sb.WriteString("digraph fsm {\n")
	for _, edge := range append(current, other...) {
		sb.WriteString(edge)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	names := make([]string, 0, len(states))
	for k := range states {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, k := range names {
		if fsm.IsFinState(State(k)) {
			sb.WriteString(fmt.Sprintf("    \"%s\" [ shape = doublecircle ];\n", k))
			continue
		}
		sb.WriteString(fmt.Sprintf("    \"%s\";\n", k))
	}
	sb.WriteString("}\n")

	return sb.String()
}
