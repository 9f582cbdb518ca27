package main

import (
	"context"
	"ctfd-cli/cmd/ctfd-cli/commands"
	"ctfd-cli/lib/osutil"
	"os"
)

func main() {
	ctx, stop := osutil.SignalContext(context.Background())
	code := commands.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
