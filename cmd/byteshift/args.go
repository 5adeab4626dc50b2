package main

import (
	"strings"

	"github.com/urfave/cli/v2"
)

// route prepares os.Args for app.Run.
//
// Options are moved ahead of the positionals so that "byteshift in out 7 -d"
// parses like "byteshift -d in out 7", since urfave/cli stops parsing flags at
// the first positional. Arguments after "--" and negative numbers stay
// positional.
//
// When the first positional names a subcommand it is dispatched unchanged,
// unless a DESTINATION and SEED follow and the rest is not made of that
// subcommand's flags. Then it is a SOURCE path, and subcommands are detached
// from app so the root action runs.
func route(app *cli.App, args []string) []string {
	if len(args) < 2 {
		return args
	}
	rest := args[1:]
	opts, positional := split(app.Flags, rest)

	if i := firstPositional(app.Flags, rest); i >= 0 {
		if cmd := app.Command(rest[i]); cmd != nil {
			if len(positional) < 3 || onlyFlags(cmd.Flags, rest[i+1:]) {
				return args
			}
			app.Commands = nil
		}
	}

	out := make([]string, 0, len(args)+1)
	out = append(out, args[0])
	out = append(out, opts...)
	if len(positional) > 0 {
		out = append(out, "--")
		out = append(out, positional...)
	}
	return out
}

// valueFlags maps every flag name to whether it consumes the next argument.
func valueFlags(flags []cli.Flag) map[string]bool {
	m := map[string]bool{"h": false, "help": false}
	for _, f := range flags {
		_, isBool := f.(*cli.BoolFlag)
		for _, name := range f.Names() {
			m[name] = !isBool
		}
	}
	return m
}

// firstPositional returns the index in args of the first non-option argument,
// skipping option values, or -1.
func firstPositional(flags []cli.Flag, args []string) int {
	takesValue := valueFlags(flags)
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			if i+1 < len(args) {
				return i + 1
			}
			return -1
		}
		if !isOption(a) {
			return i
		}
		if consumesNext(takesValue, a) {
			i++
		}
	}
	return -1
}

// onlyFlags reports whether args consist solely of known flags and their values.
func onlyFlags(flags []cli.Flag, args []string) bool {
	takesValue := valueFlags(flags)
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !isOption(a) {
			return false
		}
		name, _, _ := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if _, ok := takesValue[name]; !ok {
			return false
		}
		if consumesNext(takesValue, a) {
			i++
		}
	}
	return true
}

// split separates options (with their values) from positionals.
func split(flags []cli.Flag, args []string) (opts, positional []string) {
	takesValue := valueFlags(flags)
	opts = []string{}
	positional = []string{}
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if !isOption(a) {
			positional = append(positional, a)
			continue
		}
		opts = append(opts, a)
		if consumesNext(takesValue, a) && i+1 < len(args) {
			i++
			opts = append(opts, args[i])
		}
	}
	return opts, positional
}

func consumesNext(takesValue map[string]bool, a string) bool {
	name := strings.TrimLeft(a, "-")
	return !strings.Contains(name, "=") && takesValue[name]
}

func isOption(a string) bool {
	if len(a) < 2 || a[0] != '-' {
		return false
	}
	// "-5" is a (bad) seed, not a flag.
	return !(a[1] >= '0' && a[1] <= '9')
}
