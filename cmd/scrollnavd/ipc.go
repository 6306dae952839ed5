package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"
)

// ============================================================================
// IPC Server - Unix Domain Socket Interface
// ============================================================================
// The IPC server lets local tools (navctl, kiosk scripts) drive navigation
// without a browser connection.
//
// Protocol: Line-delimited JSON
//   - Client sends: {"type": "advance"} / {"type": "settings", "data": {...}} / ...
//   - Client sends: {"type": "state"} to read a snapshot
//   - Server responds: {"status": "ok"[, "state": {...}]} or {"status": "error", "error": "msg"}
// ============================================================================

// ipcStateQuery is the one IPC message that is answered instead of reduced.
const ipcStateQuery = "state"

const ipcSnapshotTimeout = time.Second

// IPCResponse represents the response sent back to IPC clients
type IPCResponse struct {
	Status string         `json:"status"`          // "ok" or "error"
	Error  string         `json:"error,omitempty"` // error message if status == "error"
	State  *StateSnapshot `json:"state,omitempty"`
}

// runIPCServer starts the Unix domain socket server.
// It runs until ctx is canceled, at which point it closes the listener and exits.
func runIPCServer(ctx context.Context, socketPath string, events chan<- Event, logger *slog.Logger) error {
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer listener.Close()
	defer os.Remove(socketPath)

	if err := os.Chmod(socketPath, 0o660); err != nil {
		return fmt.Errorf("chmod socket: %w", err)
	}

	logger.Info("IPC listening", "socket", socketPath)

	// Close the listener on shutdown. This unblocks Accept().
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug("IPC listener closed (shutdown)")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				logger.Debug("IPC listener closed")
				return nil
			}
			logger.Error("IPC accept error", "error", err)
			continue
		}

		go handleIPCConnection(ctx, conn, events, logger)
	}
}

// handleIPCConnection serves one client until it disconnects.
func handleIPCConnection(ctx context.Context, conn net.Conn, events chan<- Event, logger *slog.Logger) {
	defer conn.Close()

	// Unblocks scanner.Scan on shutdown.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	logger.Debug("IPC connection", "remote_addr", conn.RemoteAddr())

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	reply := func(resp IPCResponse) {
		if err := encoder.Encode(resp); err != nil {
			logger.Error("IPC failed to send response", "error", err, "status", resp.Status)
		}
	}
	fail := func(format string, args ...any) {
		reply(IPCResponse{Status: "error", Error: fmt.Sprintf(format, args...)})
	}

	for scanner.Scan() {
		line := scanner.Bytes()
		logger.Debug("IPC received", "line", string(line))

		if isStateQuery(line) {
			snap, err := requestSnapshot(ctx, events, ipcSnapshotTimeout)
			if err != nil {
				fail("state: %v", err)
				continue
			}
			reply(IPCResponse{Status: "ok", State: &snap})
			continue
		}

		// Payload events only; the daemon assigns timestamps via TimedEvent.
		ev, err := UnmarshalEvent(line)
		if err != nil {
			fail("parse event: %v", err)
			continue
		}

		select {
		case events <- ev:
			reply(IPCResponse{Status: "ok"})
		default:
			fail("event queue full")
		}
	}

	logger.Debug("IPC connection closed")
}

func isStateQuery(line []byte) bool {
	var env EventEnvelope
	if err := json.Unmarshal(line, &env); err != nil {
		return false
	}
	return env.Type == ipcStateQuery
}

// requestSnapshot round-trips a RequestStateSnapshot through the daemon loop.
func requestSnapshot(ctx context.Context, events chan<- Event, timeout time.Duration) (StateSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reply := make(chan StateSnapshot, 1)
	select {
	case events <- RequestStateSnapshot{Reply: reply}:
	case <-ctx.Done():
		return StateSnapshot{}, ctx.Err()
	}

	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return StateSnapshot{}, ctx.Err()
	}
}

// ============================================================================
// IPC Client Utility Functions
// ============================================================================

// SendIPCEvent sends an event to the daemon via IPC and returns the response
func SendIPCEvent(socketPath string, ev Event) error {
	data, err := MarshalEvent(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = sendIPCLine(socketPath, data)
	return err
}

// QueryIPCState asks the daemon for a snapshot.
func QueryIPCState(socketPath string) (StateSnapshot, error) {
	data, err := json.Marshal(EventEnvelope{Type: ipcStateQuery})
	if err != nil {
		return StateSnapshot{}, err
	}
	resp, err := sendIPCLine(socketPath, data)
	if err != nil {
		return StateSnapshot{}, err
	}
	if resp.State == nil {
		return StateSnapshot{}, errors.New("ipc: response carried no state")
	}
	return *resp.State, nil
}

func sendIPCLine(socketPath string, data []byte) (IPCResponse, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return IPCResponse{}, fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	if _, err := fmt.Fprintf(conn, "%s\n", strings.TrimSpace(string(data))); err != nil {
		return IPCResponse{}, fmt.Errorf("send event: %w", err)
	}

	var resp IPCResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return IPCResponse{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.Status != "ok" {
		return resp, fmt.Errorf("ipc error: %s", resp.Error)
	}
	return resp, nil
}
