// Package flagx holds helpers for sharing one command line between several
// independent flag sets: the config loader and the subcommands each pick out
// only the flags they own.
package flagx

import (
	"flag"
	"os"
	"slices"
	"strings"
)

// FilterArgs returns the arguments from args that are flags listed in
// allowedFlags, together with their values.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      --config=conf.json
//
// A separate value is only taken when the next argument does not itself look
// like a flag. The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// FindCommand returns the first argument in args that names one of commands,
// or "" when none does. Flags and their values are skipped implicitly since
// they never match a command name.
func FindCommand(args []string, commands ...string) string {
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			continue
		}
		if slices.Contains(commands, a) {
			return a
		}
	}
	return ""
}

// JsonConfigPath extracts the config file path given via -c or -config in
// args. The last occurrence wins; "" means no file was requested.
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
