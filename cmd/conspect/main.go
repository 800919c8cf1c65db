package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/five82/conspect/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	apiURL := flag.String("api", "", "summarization processor URL (optional, defaults to http://127.0.0.1:8000)")
	poll := flag.Duration("poll", 0, "status poll interval (optional, defaults to 1s)")
	file := flag.String("file", "", "PDF to upload on start (optional)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		APIURL:     *apiURL,
		File:       *file,
	}
	if *poll > 0 {
		opts.PollInterval = max(*poll, 100*time.Millisecond)
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "conspect: %v\n", err)
		return 1
	}
	return 0
}
