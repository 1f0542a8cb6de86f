package main

import (
	"context"

	"crawlbase/cmd/crawlbase/commands"
	"crawlbase/lib/osutil"
)

func main() {
	ctx, stop := osutil.SignalContext(context.Background())
	defer stop()
	commands.ExecuteContext(ctx)
}
