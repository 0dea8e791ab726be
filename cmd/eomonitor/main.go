package main

import (
	"context"

	"eomonitor/cmd/eomonitor/commands"
	"eomonitor/lib/serviceutil"
	"eomonitor/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()
	telemetry.InitSlog(false)

	t, err := telemetry.SetupFromEnv(ctx, "eomonitor")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	commands.ExecuteContext(ctx)
}
