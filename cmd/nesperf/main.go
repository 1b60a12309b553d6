// Command nesperf measures raw emulation speed: it runs a ROM for ten
// million CPU cycles in small slices with random controller input and
// reports cycles per second.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"nescore/internal/bus"
	"nescore/internal/version"
)

const (
	defaultCycles = 10000000
	defaultSlice  = 4096
)

func main() {
	var (
		count       = flag.Int("cycles", defaultCycles, "Total CPU cycles to run")
		slice       = flag.Int("slice", defaultSlice, "Cycles per run call")
		seed        = flag.Int64("seed", 0, "Input random seed (0 uses the clock)")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		version.Get().Fprint(os.Stdout, "nesperf")
		return
	}
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: nesperf [options] <rom>")
		os.Exit(1)
	}

	rom, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	machine, err := bus.New(rom)
	if err != nil {
		log.Fatalf("failed to load %s: %v", flag.Arg(0), err)
	}
	defer machine.Close()
	machine.SetAudioCallback(func([]int16) {})

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	cycles, elapsed := run(machine, *count, *slice, rng)
	fmt.Printf("%d cycles/s\n", uint64(float64(cycles)/elapsed.Seconds()))
}

// run executes at least count cycles and returns the cycles actually run
func run(machine *bus.Bus, count, slice int, rng *rand.Rand) (int, time.Duration) {
	start := time.Now()
	total := 0
	for total < count {
		machine.SetInput(uint8(rng.Intn(256)))
		total += machine.RunCycles(slice)
	}
	return total, time.Since(start)
}
