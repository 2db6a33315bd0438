package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mindlog/mindlog/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context [query]",
		Short: "Assemble the session-start context bundle",
		Long:  "Builds the token-budgeted bundle of recent and relevant observations that would be injected at session start.",
		Run:   runContext,
	}

	cmd.Flags().IntP("budget", "b", 0, "Max tokens in output (default from config)")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	budget, _ := cmd.Flags().GetInt("budget")
	query := strings.Join(args, " ")

	st, guard, cfg, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	if budget <= 0 {
		budget = cfg.Context.MaxTokens
	}

	var result *store.ContextResult
	if err := guard.WithLock(cmd.Context(), func() error {
		result, err = st.BuildContext(store.ContextParams{
			Query:         query,
			MaxTokens:     budget,
			RecentCount:   cfg.Context.Recent,
			RelevantCount: cfg.Context.Relevant,
		})
		return err
	}); err != nil {
		exitErr("context", err)
	}

	if formatFlag == "json" {
		b, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(b))
		return
	}
	fmt.Print(store.RenderContext(result))
}
