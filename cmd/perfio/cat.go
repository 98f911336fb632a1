package main

import (
	"bufio"
	"errors"
	"flag"
	"io"
	"os"

	"github.com/neehar-mavuduru/perfio/logio"
)

func runCat(args []string) error {
	fs := flag.NewFlagSet("cat", flag.ExitOnError)
	compress := fs.Bool("compress", false, "Decompress through xz regardless of suffix")
	fs.Parse(args)

	paths := fs.Args()
	if len(paths) == 0 {
		paths = []string{logio.StdioPath}
	}

	out := bufio.NewWriterSize(os.Stdout, 64*1024)
	defer out.Flush()

	for _, path := range paths {
		if err := catOne(out, path, *compress); err != nil {
			return err
		}
	}
	return nil
}

func catOne(w io.Writer, path string, compress bool) error {
	src := logio.NewDataSource(path, logio.SourceOptions{Compress: compress})
	r, err := src.Reader()
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(w, r)
	return errors.Join(copyErr, src.Close())
}
