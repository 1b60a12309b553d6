// Command nestest runs a manifest of test ROMs in parallel and checks each
// finished machine with a Lua predicate.
//
// Manifest format:
//
//	{"tests": [{"name": "...", "rom": "path.nes", "cycles": 1000000, "check": "peek(0x6000) == 0"}]}
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"nescore/internal/suite"
	"nescore/internal/version"
)

func main() {
	var (
		parallel    = flag.Int("j", 0, "Tests to run at once (0 = one per CPU)")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		version.Get().Fprint(os.Stdout, "nestest")
		return
	}
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: nestest [options] <manifest.json>")
		os.Exit(2)
	}

	tests, err := suite.LoadManifest(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := suite.Run(ctx, tests, suite.Options{Parallel: *parallel, Progress: os.Stdout})
	if err != nil {
		log.Printf("suite interrupted: %v", err)
	}
	if suite.Report(os.Stdout, results) != len(results) {
		os.Exit(1)
	}
}
