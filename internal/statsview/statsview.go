//go:build statsview
// +build statsview

package statsview

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// DefaultAddress is where the server listens unless told otherwise
const DefaultAddress = "localhost:12700"

const url = "/debug/statsview"

// refreshMillis is the chart sampling interval
const refreshMillis = 1000

// Launch starts the stats server on its own goroutine and returns a
// function that shuts it down
func Launch(output io.Writer, addr string) func() {
	if addr == "" {
		addr = DefaultAddress
	}
	viewer.SetConfiguration(viewer.WithAddr(addr), viewer.WithInterval(refreshMillis))
	mgr := statsview.New()
	go mgr.Start()

	fmt.Fprintf(output, "stats server available at %s%s\n", addr, url)
	return mgr.Stop
}

// Available returns true if a statsview is available to launch
func Available() bool {
	return true
}
