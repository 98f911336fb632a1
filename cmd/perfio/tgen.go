package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/neehar-mavuduru/perfio/tgen"
)

func runTgen(args []string) error {
	fs := flag.NewFlagSet("tgen", flag.ExitOnError)
	var (
		dir    = fs.String("dir", ".", "Output directory")
		domain = fs.String("domain", "", "Public server host name")
		onion  = fs.String("onion", "", "Onion service host name")
		show   = fs.String("show", "", "Print a graph file instead of writing the examples")
	)
	fs.Parse(args)

	if *show != "" {
		m, err := tgen.LoadFromFile(*show)
		if err != nil {
			return err
		}
		for _, n := range m.Graph().Nodes() {
			fmt.Fprintf(os.Stdout, "%s %v -> %v\n", n.Name, n.Attrs, m.Graph().Successors(n.Name))
		}
		return nil
	}

	if *domain == "" || *onion == "" {
		return errors.New("-domain and -onion are required")
	}
	return tgen.DumpExampleTorperf(*dir, *domain, *onion)
}
