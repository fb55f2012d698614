// Package flagx lets several config layers share os.Args without tripping
// over each other's flags.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns a slice of command-line arguments that only contains
// the allowed flags (and their values) specified in allowedFlags.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      --config=conf.json
//
// Every allowed flag is assumed to take a value; use FilterArgsWithBools when
// some of them are booleans.
func FilterArgs(args []string, allowedFlags []string) []string {
	return FilterArgsWithBools(args, allowedFlags, nil)
}

// FilterArgsWithBools is FilterArgs for flag sets that mix value flags and
// boolean switches. Boolean flags never consume the following argument, so
// "-admin-only -b http://x" keeps "-b" paired with its value.
func FilterArgsWithBools(args []string, valueFlags []string, boolFlags []string) []string {
	values := toSet(valueFlags)
	bools := toSet(boolFlags)

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "--flag=value" or "-f=value"
		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := values[name]; ok {
				filtered = append(filtered, arg)
			} else if _, ok := bools[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := bools[arg]; ok {
			filtered = append(filtered, arg)
			continue
		}

		if _, ok := values[arg]; ok {
			filtered = append(filtered, arg)
			// The next token is the value unless it looks like another flag.
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, f := range items {
		set[f] = struct{}{}
	}
	return set
}

// JsonConfigPath extracts the config file path provided via the -c or -config
// flags from args. Other arguments are ignored. Returns "" when neither flag
// is present; when both are given the last one wins.
func JsonConfigPath(args []string) string {
	var config string

	filtered := FilterArgs(args, []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(filtered)

	return config
}

// JsonConfigFlags is JsonConfigPath applied to the process arguments.
func JsonConfigFlags() string {
	return JsonConfigPath(os.Args[1:])
}
