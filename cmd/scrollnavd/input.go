package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// readInputEvents reads input events from one device and sends them to a channel.
// This runs in a dedicated goroutine and blocks on read operations.
func readInputEvents(f *os.File, events chan<- inputEvent, readErr chan<- error) {
	evSize := binary.Size(inputEvent{})
	buf := make([]byte, evSize)
	reader := bytes.NewReader(buf)

	for {
		if _, err := io.ReadFull(f, buf); err != nil {
			readErr <- fmt.Errorf("read from %s: %w", f.Name(), err)
			return
		}

		reader.Reset(buf)
		var ev inputEvent
		if err := binary.Read(reader, binary.LittleEndian, &ev); err != nil {
			// Skip malformed events
			continue
		}

		events <- ev
	}
}

// inputTranslator turns kiosk mouse wheels and keyboards into navigation Events.
//
// Wheels that report REL_WHEEL_HI_RES also report the coarse REL_WHEEL for the
// same motion; once a hi-res event has been seen the coarse axis is ignored.
type inputTranslator struct {
	pxPerDetent float64
	hiRes       bool
}

func newInputTranslator(pxPerDetent float64) *inputTranslator {
	if pxPerDetent <= 0 {
		pxPerDetent = defaultWheelPxPerDetent
	}
	return &inputTranslator{pxPerDetent: pxPerDetent}
}

// translate maps one raw event. ok is false for events navigation ignores.
func (t *inputTranslator) translate(ev inputEvent) (Event, bool) {
	switch ev.Type {
	case EV_REL:
		// Positive wheel values mean "away from the user", which pages treat
		// as scrolling up (negative deltaY).
		switch ev.Code {
		case REL_WHEEL_HI_RES:
			t.hiRes = true
			return WheelInput{DeltaY: -float64(ev.Value) / wheelHiResUnitsPerDetent * t.pxPerDetent}, true
		case REL_WHEEL:
			if t.hiRes {
				return nil, false
			}
			return WheelInput{DeltaY: -float64(ev.Value) * t.pxPerDetent}, true
		}

	case EV_KEY:
		// Presses only; repeats and releases are dropped.
		if ev.Value != evValuePress {
			return nil, false
		}
		switch ev.Code {
		case KEY_DOWN, KEY_PAGEDOWN, KEY_SPACE:
			return AdvanceRequest{}, true
		case KEY_UP, KEY_PAGEUP:
			return RetreatRequest{}, true
		}
	}
	return nil, false
}

// runInputReader opens the configured evdev devices and forwards translated
// Events until ctx is canceled or a device fails.
func runInputReader(ctx context.Context, devices []string, pxPerDetent float64, out chan<- Event, logger *slog.Logger) error {
	if len(devices) == 0 {
		return nil
	}

	files := make([]*os.File, 0, len(devices))
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	for _, dev := range devices {
		f, err := os.Open(dev)
		if err != nil {
			return fmt.Errorf("open input device %s: %w (run as root or add user to 'input' group)", dev, err)
		}
		files = append(files, f)
	}

	raw := make(chan inputEvent, 64)
	readErr := make(chan error, 1)
	go readInputDevices(ctx, files, raw, readErr)

	logger.Info("reading input devices", "devices", devices)

	tr := newInputTranslator(pxPerDetent)
	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-readErr:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("input reader stopped: %w", err)

		case ev := <-raw:
			nav, ok := tr.translate(ev)
			if !ok {
				continue
			}
			select {
			case out <- nav:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
