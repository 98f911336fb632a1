package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/neehar-mavuduru/perfio/netutil"
)

func runNetinfo(args []string) error {
	fs := flag.NewFlagSet("netinfo", flag.ExitOnError)
	checkURL := fs.String("check-url", netutil.DefaultCheckURL, "Page echoing the public address")
	timeout := fs.Duration("timeout", 15*time.Second, "Overall timeout")
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ip, err := netutil.NewResolver(netutil.Options{CheckURL: *checkURL}).IPAddress(ctx)
	if err != nil {
		return err
	}
	port, err := netutil.RandomFreePort()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "address %s\nfree_port %d\n", ip, port)
	return nil
}
