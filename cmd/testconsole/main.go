// Command testconsole drives a test generation and execution
// backend from the command line, a browser or a terminal UI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"digital.vasic.testconsole/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
