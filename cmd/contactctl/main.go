package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tartampluch/go-contacts/internal/cli"
)

func main() {
	os.Exit(runMain())
}

// runMain owns the signal context so it is released before os.Exit.
func runMain() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return cli.Execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}
