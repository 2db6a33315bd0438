package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mindlog/mindlog/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Retrieve observations relevant to a question",
		Long:  "Tokenizes the question and retrieves matching observations. Retrieval only; no answer is generated.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAsk,
	}

	cmd.Flags().IntP("limit", "l", 10, "Max results")

	RootCmd.AddCommand(cmd)
}

func runAsk(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	question := strings.Join(args, " ")

	st, guard, _, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	var results []store.Scored
	if err := guard.WithLock(cmd.Context(), func() error {
		results, err = st.Ask(question, limit)
		return err
	}); err != nil {
		exitErr("ask", err)
	}

	printScored(results)
}
