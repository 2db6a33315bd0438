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
		Use:   "search [query]",
		Short: "Search observations by keyword",
		Long:  "Lexical keyword search over summaries and content. No synonym matching.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	st, guard, _, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	var results []store.Scored
	if err := guard.WithLock(cmd.Context(), func() error {
		results, err = st.Search(store.SearchParams{Query: query, Limit: limit})
		return err
	}); err != nil {
		exitErr("search", err)
	}

	printScored(results)
}

func printScored(results []store.Scored) {
	if formatFlag == "json" {
		if len(results) == 0 {
			fmt.Println("[]")
			return
		}
		b, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(b))
		return
	}

	if len(results) == 0 {
		fmt.Println("no matches")
		return
	}
	for _, r := range results {
		fmt.Printf("%.2f  [%s] %s  %s\n", r.Score, r.Kind, r.Created().UTC().Format("2006-01-02"), r.Summary)
	}
}
