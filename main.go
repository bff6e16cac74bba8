package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/habedi/cwactl/cmd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configureLogLevelFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopChan := setupInterruptListener()
	go handleInterrupt(stopChan, cancel, func(msg string) { log.Warn().Msg(msg) }, os.Exit)

	cmd.Execute(ctx)
}

// configureLogLevelFromEnv enables debug logging to stderr when DEBUG_CWACTL
// is set to anything other than "", "0" or "false".
func configureLogLevelFromEnv() {
	switch os.Getenv("DEBUG_CWACTL") {
	case "", "0", "false":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func setupInterruptListener() chan os.Signal {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt)
	return stopChan
}

// handleInterrupt cancels in-flight work on the first signal and exits on
// the second.
func handleInterrupt(stopChan <-chan os.Signal, cancel context.CancelFunc, logMsg func(string), exit func(int)) {
	<-stopChan
	logMsg("Interrupt signal received. Cancelling...")
	cancel()

	<-stopChan
	logMsg("Second interrupt received. Exiting...")
	exit(130)
}
