package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mindlog/mindlog/internal/model"
	"github.com/mindlog/mindlog/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "capture [content]",
		Short: "Record an observation",
		Long:  "Record an observation. Content can be a positional arg or piped via stdin.",
		Run:   runCapture,
	}

	cmd.Flags().StringP("kind", "k", "discovery", "Observation kind (discovery, decision, problem, solution, pattern, warning, success, refactor, bugfix, feature)")
	cmd.Flags().String("summary", "", "Short summary (defaults to truncated content)")
	cmd.Flags().String("tool", "", "Originating tool name")
	cmd.Flags().StringToString("meta", nil, "Metadata key=value pairs")

	RootCmd.AddCommand(cmd)
}

func runCapture(cmd *cobra.Command, args []string) {
	kind, _ := cmd.Flags().GetString("kind")
	summary, _ := cmd.Flags().GetString("summary")
	tool, _ := cmd.Flags().GetString("tool")
	meta, _ := cmd.Flags().GetStringToString("meta")

	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}
	content = strings.TrimSpace(content)
	if content == "" && summary == "" {
		exitErr("capture", fmt.Errorf("content is required (positional arg or stdin)"))
	}
	if summary == "" {
		summary = model.Truncate(content, 80)
	}

	if !model.ValidKinds[model.Kind(kind)] {
		exitErr("capture", fmt.Errorf("invalid kind %q", kind))
	}

	st, guard, _, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	e := store.NewEntry(store.CaptureParams{
		Kind:    model.Kind(kind),
		Summary: model.Truncate(summary, model.MaxSummaryLen),
		Content: model.Truncate(content, model.MaxContentLen),
		Tool:    tool,
		Meta:    meta,
	})

	if err := guard.WithLock(cmd.Context(), func() error {
		return st.Write(e)
	}); err != nil {
		exitErr("capture", err)
	}

	if formatFlag == "json" {
		b, _ := json.Marshal(e)
		fmt.Println(string(b))
		return
	}
	fmt.Printf("recorded %s %s\n", e.Kind, e.ID)
}
