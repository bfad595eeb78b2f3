package cmdutil

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// StringEnumFlag defines a string flag that only accepts one of the
// given values, rejecting anything else at parse time.
func StringEnumFlag(cmd *cobra.Command, p *string, name, shorthand, defaultValue string, options []string, usage string) *pflag.Flag {
	*p = defaultValue
	val := &enumValue{target: p, options: options}
	return cmd.Flags().VarPF(val, name, shorthand,
		fmt.Sprintf("%s: {%s}", usage, strings.Join(options, "|")))
}

type enumValue struct {
	target  *string
	options []string
}

func (e *enumValue) Set(value string) error {
	for _, opt := range e.options {
		if value == opt {
			*e.target = value
			return nil
		}
	}
	return fmt.Errorf("valid values are {%s}", strings.Join(e.options, "|"))
}

func (e *enumValue) String() string { return *e.target }
func (e *enumValue) Type() string   { return "string" }
