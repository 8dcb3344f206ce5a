package ui

import (
	"fmt"
	"strings"

	"sagiri-relay/network"
)

// FormatOutput renders a completed command the way an operator reads it.
func FormatOutput(cmd network.Command) string {
	if cmd.Output == nil {
		return fmt.Sprintf("Command %s is still %s", cmd.ID, cmd.Status)
	}
	var b strings.Builder
	if out := strings.TrimRight(cmd.Output.Stdout, "\n"); out != "" {
		b.WriteString(out)
		b.WriteString("\n")
	}
	if errOut := strings.TrimRight(cmd.Output.Stderr, "\n"); errOut != "" {
		b.WriteString("Error: ")
		b.WriteString(errOut)
		b.WriteString("\n")
	}
	if cmd.Output.ReturnCode != 0 {
		fmt.Fprintf(&b, "Return code: %d\n", cmd.Output.ReturnCode)
	}
	if b.Len() == 0 {
		return "(no output)\n"
	}
	return b.String()
}
