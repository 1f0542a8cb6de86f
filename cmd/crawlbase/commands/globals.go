package commands

import (
	"context"

	"crawlbase/lib/telemetry"
)

type globalsKey struct{}

type globals struct {
	Config    Config
	Telemetry telemetry.Telemetry
}

func setGlobals(ctx context.Context, value *globals) context.Context {
	return context.WithValue(ctx, globalsKey{}, value)
}

func getGlobals(ctx context.Context) *globals {
	g, _ := ctx.Value(globalsKey{}).(*globals)
	return g
}
