// Package suite runs test ROMs in parallel and checks the finished machine
// state with Lua predicates.
package suite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"nescore/internal/bus"
)

// Status is the outcome of one test
type Status int

const (
	Pending Status = iota
	Ok
	Fail
	Error
)

var statusMarks = [...]byte{' ', '.', 'F', 'E'}

// Mark returns the progress character for s
func (s Status) Mark() byte {
	return statusMarks[s]
}

func (s Status) String() string {
	switch s {
	case Ok:
		return "OK"
	case Fail:
		return "FAIL"
	case Error:
		return "ERROR"
	}
	return "PENDING"
}

// Test runs ROM for Cycles CPU cycles and evaluates Check, a Lua
// expression, against the result
type Test struct {
	Name   string `json:"name"`
	ROM    string `json:"rom"`
	Cycles int    `json:"cycles"`
	Check  string `json:"check"`
}

// Result records how a test ended
type Result struct {
	Test   Test
	Status Status
	Err    error
}

// Manifest is the JSON test list
type Manifest struct {
	Tests []Test `json:"tests"`
}

// LoadManifest reads a manifest; relative ROM paths are resolved against
// the manifest's directory
func LoadManifest(path string) ([]Test, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range m.Tests {
		t := &m.Tests[i]
		if t.Name == "" {
			t.Name = filepath.Base(t.ROM)
		}
		if t.ROM != "" && !filepath.IsAbs(t.ROM) {
			t.ROM = filepath.Join(dir, t.ROM)
		}
	}
	return m.Tests, nil
}

// Options controls a suite run
type Options struct {
	// Parallel bounds the number of machines running at once; zero uses
	// one per CPU
	Parallel int

	// Progress receives one status mark per test, in manifest order
	Progress io.Writer
}

// Run executes every test, one machine per goroutine. It returns early
// only when ctx is cancelled; test failures are reported in the results.
func Run(ctx context.Context, tests []Test, opts Options) ([]Result, error) {
	limit := opts.Parallel
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	results := make([]Result, len(tests))
	p := &progress{w: opts.Progress, results: results}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range tests {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.done(i, RunTest(ctx, tests[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// progress prints marks for the completed prefix of the results
type progress struct {
	mu      sync.Mutex
	w       io.Writer
	results []Result
	next    int
}

func (p *progress) done(i int, r Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results[i] = r
	for p.next < len(p.results) && p.results[p.next].Status != Pending {
		if p.w != nil {
			p.w.Write([]byte{p.results[p.next].Status.Mark()})
		}
		p.next++
	}
}

// RunTest loads and runs a single test
func RunTest(ctx context.Context, t Test) Result {
	r := Result{Test: t}

	if t.Check == "" {
		r.Status, r.Err = Error, errors.New("test has no check")
		return r
	}
	rom, err := os.ReadFile(t.ROM)
	if err != nil {
		r.Status, r.Err = Error, err
		return r
	}
	machine, err := bus.New(rom)
	if err != nil {
		r.Status, r.Err = Error, err
		return r
	}
	defer machine.Close()

	machine.RunCycles(t.Cycles)

	ok, err := Eval(ctx, t.Check, machine)
	switch {
	case err != nil:
		r.Status, r.Err = Error, err
	case ok:
		r.Status = Ok
	default:
		r.Status = Fail
	}
	return r
}

// Report prints the summary and the failing tests, returning the number
// that passed
func Report(w io.Writer, results []Result) int {
	passed := 0
	for _, r := range results {
		if r.Status == Ok {
			passed++
		}
	}
	fmt.Fprintf(w, "\n\nPassed: %d/%d\n", passed, len(results))
	if passed == len(results) {
		return passed
	}

	fmt.Fprintln(w)
	for _, r := range results {
		switch r.Status {
		case Fail:
			fmt.Fprintf(w, "FAIL: %s\n", r.Test.Name)
		case Error:
			fmt.Fprintf(w, "ERROR: %s: %v\n", r.Test.Name, r.Err)
		}
	}
	return passed
}
