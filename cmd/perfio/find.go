package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/neehar-mavuduru/perfio/pathutil"
)

func runFind(args []string) error {
	fs := flag.NewFlagSet("find", flag.ExitOnError)
	var patterns, pairPatterns stringList
	root := fs.String("root", ".", "Directory to search (ending in /- reads stdin)")
	fs.Var(&patterns, "pattern", "Basename regexp (repeatable)")
	fs.Var(&pairPatterns, "pair-pattern", "Second pattern set; prints pairs when set (repeatable)")
	fs.Parse(args)

	if len(patterns) == 0 {
		return errors.New("at least one -pattern is required")
	}

	if len(pairPatterns) > 0 {
		pairs, err := pathutil.FindFilePairs(*root, patterns, pairPatterns)
		if err != nil {
			return err
		}
		for _, p := range pairs {
			fmt.Fprintf(os.Stdout, "%s\t%s\n", strings.Join(p.A, ","), strings.Join(p.B, ","))
		}
		return nil
	}

	paths, err := pathutil.FindFiles(*root, patterns)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(os.Stdout, p)
	}
	return nil
}
