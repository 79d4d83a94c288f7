package cmd

import (
	"strings"

	"github.com/spf13/pflag"
)

// HasFlags reports whether any flag was set on the command line.
func HasFlags(flags *pflag.FlagSet) bool {
	set := false
	flags.Visit(func(*pflag.Flag) { set = true })
	return set
}

// JoinList turns a config list into the ';' separated form flags use.
func JoinList(values []string) string {
	return strings.Join(values, ";")
}
