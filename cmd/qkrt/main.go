// Package main is the entry point for the qkrt CLI.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/Zaba505/qiskit-runtime-go/cmd/qkrt/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		stop()
		os.Exit(cmd.ExitStatus(os.Stderr, err))
	}
}
