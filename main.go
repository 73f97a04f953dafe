package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"gifopt/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.Cmd.Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %s\n", err.Error())
	}
	os.Exit(cmd.ExitCode(err))
}
