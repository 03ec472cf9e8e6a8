package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "timetable-cli",
		Usage: "run timetable generations offline and issue operator tokens",
		Commands: []*cli.Command{
			generateCommand(),
			slotsCommand(),
			tokenCommand(),
		},
	}
}
