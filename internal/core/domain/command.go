package domain

import "strings"

// Command is one external process invocation.
type Command struct {
	// Args is the argv, Args[0] being the executable.
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env holds extra "KEY=VALUE" entries layered over the inherited environment.
	Env []string
}

// String joins the argv with spaces for display.
func (c Command) String() string {
	return strings.Join(c.Args, " ")
}
