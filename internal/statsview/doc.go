// Package statsview serves live runtime charts (heap, goroutines, GC) while
// the emulator runs. It is only built with the statsview tag:
//
//	go build -tags statsview ./cmd/nescore
//
// The charts are then at http://localhost:12700/debug/statsview and the
// standard pprof handlers at /debug/pprof/.
package statsview
