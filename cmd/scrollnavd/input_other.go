//go:build !linux

package main

import (
	"context"
	"os"
)

// readInputDevices falls back to one blocking reader per device. Readers stop
// when runInputReader closes the files on return.
func readInputDevices(ctx context.Context, files []*os.File, events chan<- inputEvent, readErr chan<- error) {
	for _, f := range files {
		go readInputEvents(f, events, readErr)
	}
	<-ctx.Done()
}
