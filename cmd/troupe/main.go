// Command troupe runs the counter network, dumps it and reloads it, and
// reports whether every node kept its concrete kind.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "troupe: %v\n", err)
		os.Exit(1)
	}
}
