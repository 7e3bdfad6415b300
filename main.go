package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/tphakala/soundpool/cmd"
	"github.com/tphakala/soundpool/internal/buildinfo"
	"github.com/tphakala/soundpool/internal/conf"
)

// Injected at build time with -ldflags
var (
	version   string
	buildDate string
)

func main() {
	// Load the configuration
	settings, err := conf.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	build := buildinfo.NewContext(version, buildDate, uuid.NewString())

	rootCmd := cmd.RootCommand(settings, build)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
