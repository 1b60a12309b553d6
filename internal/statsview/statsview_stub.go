//go:build !statsview
// +build !statsview

package statsview

import (
	"fmt"
	"io"
)

// DefaultAddress is where the server would listen
const DefaultAddress = "localhost:12700"

// Launch reports that the stats server is not compiled in
func Launch(output io.Writer, addr string) func() {
	fmt.Fprintln(output, "stats server not available: rebuild with -tags statsview")
	return func() {}
}

// Available returns false without the statsview build tag
func Available() bool {
	return false
}
