package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"historicalmap/internal/cli"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cmd := cli.NewRootCommand(os.Stdout, cli.BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	})
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "histmapctl:", err)
		os.Exit(cli.ExitCode(err))
	}
}
