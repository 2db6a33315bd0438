package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mindlog/mindlog/internal/hooks"
)

// Hook commands are invoked by the host at session lifecycle points. They
// must never fail the host: every error path logs to stderr and exits 0.

func init() {
	hookCmd := &cobra.Command{
		Use:   "hook",
		Short: "Host lifecycle entry points (read JSON from stdin)",
	}

	hookCmd.AddCommand(&cobra.Command{
		Use:   "session-start",
		Short: "Print the context injection payload for a new session",
		Run:   runHookSessionStart,
	})
	hookCmd.AddCommand(&cobra.Command{
		Use:   "post-action",
		Short: "Capture an observation from a host action event",
		Run:   runHookPostAction,
	})
	hookCmd.AddCommand(&cobra.Command{
		Use:   "session-end",
		Short: "Flush buffered captures and summarize the session",
		Run:   runHookSessionEnd,
	})

	RootCmd.AddCommand(hookCmd)
}

// newManager builds the hook manager, or nil when memory must degrade to a
// no-op.
func newManager() *hooks.Manager {
	cfg, err := loadConfig()
	if err != nil {
		slog.Warn("memory unavailable", "error", err)
		return nil
	}
	m, err := hooks.NewManager(cfg)
	if err != nil {
		slog.Warn("memory unavailable", "error", err)
		return nil
	}
	return m
}

func readStdinJSON(v any) bool {
	b, err := io.ReadAll(os.Stdin)
	if err != nil || len(b) == 0 {
		return false
	}
	if err := json.Unmarshal(b, v); err != nil {
		slog.Warn("ignoring malformed hook payload", "error", err)
		return false
	}
	return true
}

func runHookSessionStart(cmd *cobra.Command, args []string) {
	m := newManager()
	if m == nil {
		return
	}
	defer m.Close()

	var payload struct {
		Query string `json:"query"`
	}
	readStdinJSON(&payload)

	// Payload goes to stdout; everything else stays on stderr.
	fmt.Print(m.SessionStart(cmd.Context(), payload.Query))
}

func runHookPostAction(cmd *cobra.Command, args []string) {
	m := newManager()
	if m == nil {
		return
	}
	defer m.Close()

	var ev hooks.Event
	if !readStdinJSON(&ev) {
		return
	}
	if ev.Meta == nil {
		ev.Meta = map[string]string{}
	}
	if ev.Meta["session_id"] == "" {
		ev.Meta["session_id"] = uuid.NewString()
	}

	m.PostAction(cmd.Context(), ev)
}

func runHookSessionEnd(cmd *cobra.Command, args []string) {
	m := newManager()
	if m == nil {
		return
	}
	defer m.Close()

	var payload struct {
		SessionID string `json:"session_id"`
	}
	readStdinJSON(&payload)

	m.SessionEnd(cmd.Context(), payload.SessionID)
}
