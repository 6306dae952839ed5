package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// ============================================================================
// navctl - Command-line IPC Client
// ============================================================================
// This tool drives the scrollnavd daemon over its IPC socket.
//
// Usage:
//   navctl advance
//   navctl retreat
//   navctl wheel 120
//   navctl modal on
//   navctl state
//
// Options:
//   -socket PATH    Unix domain socket path (default: /tmp/scrollnavd.sock)
// ============================================================================

// Event payloads (duplicated from the daemon for a standalone binary)
type WheelInput struct {
	DeltaY float64 `json:"delta_y"`
}

type ScrollReported struct {
	ScrollY float64 `json:"scroll_y"`
}

type ModalChanged struct {
	Open bool `json:"open"`
}

type SettingsChanged struct {
	PreventIntroReturn bool `json:"prevent_intro_return"`
}

// EventEnvelope wraps events for JSON
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// IPCResponse represents the daemon's response
type IPCResponse struct {
	Status string          `json:"status"`
	Error  string          `json:"error,omitempty"`
	State  json.RawMessage `json:"state,omitempty"`
}

const ioTimeout = 3 * time.Second

func main() {
	socketPath := "/tmp/scrollnavd.sock"

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	if args[0] == "-socket" || args[0] == "--socket" {
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: -socket requires an argument\n")
			os.Exit(1)
		}
		socketPath = args[1]
		args = args[2:]
	}

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	env, err := parseCommand(args)
	if errors.Is(err, errUsage) {
		printUsage()
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		printUsage()
		os.Exit(1)
	}

	resp, err := send(socketPath, env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if len(resp.State) > 0 {
		var pretty any
		if err := json.Unmarshal(resp.State, &pretty); err == nil {
			out, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Println(string(out))
			return
		}
		fmt.Println(string(resp.State))
		return
	}

	fmt.Println("ok")
}

var errUsage = errors.New("help requested")

func parseCommand(args []string) (EventEnvelope, error) {
	switch args[0] {
	case "advance", "next", "down":
		return EventEnvelope{Type: "advance"}, nil

	case "retreat", "prev", "up":
		return EventEnvelope{Type: "retreat"}, nil

	case "wheel":
		dy, err := numberArg(args, "wheel requires a deltaY in px")
		if err != nil {
			return EventEnvelope{}, err
		}
		return withData("wheel", WheelInput{DeltaY: dy})

	case "scroll":
		y, err := numberArg(args, "scroll requires a scrollY in px")
		if err != nil {
			return EventEnvelope{}, err
		}
		return withData("scroll", ScrollReported{ScrollY: y})

	case "modal":
		on, err := switchArg(args, "modal requires on|off")
		if err != nil {
			return EventEnvelope{}, err
		}
		return withData("modal", ModalChanged{Open: on})

	case "prevent-intro-return":
		on, err := switchArg(args, "prevent-intro-return requires on|off")
		if err != nil {
			return EventEnvelope{}, err
		}
		return withData("settings", SettingsChanged{PreventIntroReturn: on})

	case "state", "status":
		return EventEnvelope{Type: "state"}, nil

	case "help", "-h", "--help":
		return EventEnvelope{}, errUsage

	default:
		return EventEnvelope{}, fmt.Errorf("unknown command: %s", args[0])
	}
}

func withData(typ string, payload any) (EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("marshal %s: %w", typ, err)
	}
	return EventEnvelope{Type: typ, Data: data}, nil
}

func numberArg(args []string, missing string) (float64, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s", missing)
	}
	v, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", args[1], err)
	}
	return v, nil
}

func switchArg(args []string, missing string) (bool, error) {
	if len(args) < 2 {
		return false, fmt.Errorf("%s", missing)
	}
	switch args[1] {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected on|off, got %q", args[1])
	}
}

func send(socketPath string, env EventEnvelope) (IPCResponse, error) {
	conn, err := net.DialTimeout("unix", socketPath, ioTimeout)
	if err != nil {
		return IPCResponse{}, fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(ioTimeout))

	data, err := json.Marshal(env)
	if err != nil {
		return IPCResponse{}, fmt.Errorf("marshal event: %w", err)
	}

	// Line-delimited JSON
	if _, err := fmt.Fprintf(conn, "%s\n", data); err != nil {
		return IPCResponse{}, fmt.Errorf("send event: %w", err)
	}

	var response IPCResponse
	if err := json.NewDecoder(conn).Decode(&response); err != nil {
		return IPCResponse{}, fmt.Errorf("decode response: %w", err)
	}
	if response.Status == "error" {
		return response, fmt.Errorf("daemon error: %s", response.Error)
	}
	return response, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `navctl - Drive the scrollnavd daemon via IPC

Usage:
  navctl [options] <command> [args]

Options:
  -socket PATH    Unix domain socket path (default: /tmp/scrollnavd.sock)

Commands:
  advance, next, down            Go to the next view (same gates as a key press)
  retreat, prev, up              Go to the previous view
  wheel <deltaY>                 Inject a wheel delta in px (positive scrolls down)
  scroll <y>                     Report a native scroll position
  modal on|off                   Open or close the modal overlay
  prevent-intro-return on|off    Toggle the prevent-intro-return setting
  state, status                  Print the current navigation snapshot
  help, -h, --help               Show this help message

Examples:
  navctl advance
  navctl wheel 120
  navctl -socket /run/scrollnavd.sock state
`)
}
