package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Deadolus/tschenggins-laempli/internal/app"
	"github.com/Deadolus/tschenggins-laempli/internal/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (default ~/.config/laempli/config.toml)")
	prefsPath := flag.String("prefs", "", "override prefs path (default ~/.config/laempli/prefs.toml)")
	headless := flag.Bool("headless", false, "run without the terminal panel")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("laempli " + version.String())
		return 0
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		Headless:   *headless,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "laempli: %v\n", err)
		return 1
	}
	return 0
}
