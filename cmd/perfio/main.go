// Command perfio writes, reads and ships measurement logs and generates
// tgen configuration graphs.
package main

import (
	"fmt"
	"os"
	"strings"
)

type command struct {
	name  string
	usage string
	run   func(args []string) error
}

var commands = []command{
	{"log", "copy stdin lines into a rotating, optionally compressed log", runLog},
	{"cat", "print plain, compressed or stdin sources", runCat},
	{"tgen", "write the example torperf tgen graphs", runTgen},
	{"find", "list files whose names match patterns", runFind},
	{"netinfo", "print the host address and a free port", runNetinfo},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	name := os.Args[1]
	for _, cmd := range commands {
		if cmd.name == name {
			if err := cmd.run(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "perfio %s: %v\n", name, err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Fprintf(os.Stderr, "perfio: unknown command %q\n", name)
	usage()
	os.Exit(2)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: perfio <command> [flags]")
	fmt.Fprintln(os.Stderr)
	for _, cmd := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", cmd.name, cmd.usage)
	}
}

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
