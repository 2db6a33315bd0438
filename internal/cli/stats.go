package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mindlog/mindlog/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	st, guard, _, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	var stats *store.Stats
	if err := guard.WithLock(cmd.Context(), func() error {
		stats, err = st.Stats()
		return err
	}); err != nil {
		exitErr("stats", err)
	}

	if formatFlag == "json" {
		b, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(b))
		return
	}

	fmt.Printf("store:         %s\n", stats.Path)
	fmt.Printf("observations:  %d\n", stats.TotalObservations)
	fmt.Printf("size:          %d bytes\n", stats.SizeBytes)
	if stats.TotalObservations > 0 {
		fmt.Printf("oldest:        %s\n", time.UnixMilli(stats.OldestTimestamp).UTC().Format(time.RFC3339))
		fmt.Printf("newest:        %s\n", time.UnixMilli(stats.NewestTimestamp).UTC().Format(time.RFC3339))
	}
	for kind, n := range stats.ByKind {
		fmt.Printf("  %-16s %d\n", kind, n)
	}
}
