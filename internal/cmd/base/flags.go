package base

import (
	"bytes"
	"flag"
	"fmt"
	"strings"
)

// FlagSet wraps a standard library flag set and renders help text for it.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet returns a FlagSet wrapping f. Output is silenced; parse errors
// are returned to the caller and help text is rendered with Help.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	f.SetOutput(new(bytes.Buffer))
	f.Usage = func() {}
	return &FlagSet{FlagSet: f}
}

// Help returns the help text for all flags in the set.
func (f *FlagSet) Help() string {
	var out strings.Builder

	first := true
	f.VisitAll(func(fl *flag.Flag) {
		if first {
			out.WriteString("\n\nOptions:\n")
			first = false
		}

		name, usage := flag.UnquoteUsage(fl)
		fmt.Fprintf(&out, "\n  -%s", fl.Name)
		if name != "" {
			fmt.Fprintf(&out, "=<%s>", name)
		}
		if fl.DefValue != "" && fl.DefValue != "false" {
			fmt.Fprintf(&out, "  (default: %s)", fl.DefValue)
		}
		fmt.Fprintf(&out, "\n      %s\n", usage)
	})

	return out.String()
}

// IsSet reports whether the named flag was given on the command line.
func (f *FlagSet) IsSet(name string) bool {
	set := false
	f.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}
