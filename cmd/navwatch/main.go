package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// frame is the daemon's outbound envelope.
type frame struct {
	Type string          `json:"type"`
	Ts   *time.Time      `json:"ts,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

func main() {
	var (
		wsURL = flag.String("ws", "ws://127.0.0.1:8787/nav", "scrollnavd websocket URL")
		raw   = flag.Bool("raw", false, "Print frames verbatim instead of summarizing them")
		send  = flag.String("send", "", "Send one inbound event type after connecting (e.g. 'advance' or 'retreat')")
	)
	flag.Parse()

	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	d := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	log.Printf("connecting to %s...", u.String())
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("connected! (press Ctrl+C to exit)")

	// Mutex to protect concurrent writes to websocket
	var writeMu sync.Mutex

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	// The daemon pings us; answering extends our own deadline too.
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})

	if *send != "" {
		payload, err := json.Marshal(map[string]string{"type": *send})
		if err != nil {
			log.Fatalf("error marshaling event: %v", err)
		}
		writeMu.Lock()
		err = conn.WriteMessage(websocket.TextMessage, payload)
		writeMu.Unlock()
		if err != nil {
			log.Fatalf("error sending event: %v", err)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := readFrames(conn, os.Stdout, *raw); err != nil {
			log.Printf("websocket error: %v", err)
		}
	}()

	select {
	case <-sigc:
		log.Printf("shutting down...")
		writeMu.Lock()
		err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		writeMu.Unlock()
		if err != nil {
			log.Printf("error closing connection: %v", err)
		}
	case <-done:
		log.Printf("connection closed")
	}
}

// readFrames prints every frame until the connection ends. A normal or
// going-away close returns nil.
func readFrames(conn *websocket.Conn, w io.Writer, raw bool) error {
	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				return err
			}
			return nil
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		switch messageType {
		case websocket.TextMessage:
			if raw {
				fmt.Fprintf(w, "%s\n", string(message))
				continue
			}
			handleTextMessage(w, message)
		case websocket.BinaryMessage:
			fmt.Fprintf(w, "[BINARY] %d bytes\n", len(message))
		}
	}
}

// handleTextMessage writes a one-line summary of a navigation frame.
func handleTextMessage(w io.Writer, message []byte) {
	var f frame
	if err := json.Unmarshal(message, &f); err != nil || f.Type == "" {
		fmt.Fprintf(w, "[TEXT] %s\n", string(message))
		return
	}

	var data map[string]any
	_ = json.Unmarshal(f.Data, &data)

	switch f.Type {
	case "state_init":
		fmt.Fprintf(w, "[INIT] view=%v transitioning=%v effects=%v\n", data["view"], data["transitioning"], data["effects"])
	case "view_changed":
		fmt.Fprintf(w, "[VIEW] %v -> %v (%v)\n", data["from"], data["to"], data["cause"])
	case "render_state":
		fmt.Fprintf(w, "[RENDER] %v effects=%v\n", data["view_class"], data["effects"])
	case "scroll_to":
		fmt.Fprintf(w, "[SCROLL_TO] y=%v over %vms\n", data["y"], data["duration_ms"])
	case "set_scroll":
		fmt.Fprintf(w, "[SET_SCROLL] y=%v\n", data["y"])
	case "effect_start", "effect_stop":
		fmt.Fprintf(w, "[%s] %v\n", strings.ToUpper(f.Type), data["effect"])
	case "chrome":
		fmt.Fprintf(w, "[CHROME] %v=%v\n", data["part"], data["on"])
	case "scroll_hint":
		fmt.Fprintf(w, "[HINT] visible=%v\n", data["visible"])
	case "transition_done":
		fmt.Fprintf(w, "[DONE] #%v at %v\n", data["id"], data["view"])
	case "input_outcome":
		// One per swallowed input; too chatty to summarize.
	default:
		fmt.Fprintf(w, "[%s]\n", strings.ToUpper(f.Type))
	}
}
