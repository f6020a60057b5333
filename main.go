/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/matms/mat-engine/engine"
	"github.com/matms/mat-engine/engine/core"
	"github.com/matms/mat-engine/testbed"
)

func main() {
	tb := testbed.NewTestGame()

	eng, err := engine.New(tb.Game)
	if err != nil {
		core.LogFatal("%s", err)
	}

	if err := eng.Initialize(); err != nil {
		_ = eng.Shutdown()
		core.LogFatal("initialize: %s", err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-sigCh
		eng.RequestQuit()
	}()

	runErr := eng.Run()
	if err := eng.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
	}
	if runErr != nil {
		core.LogFatal("run: %s", runErr)
	}
}
