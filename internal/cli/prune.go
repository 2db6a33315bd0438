package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mindlog/mindlog/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop old observations",
		Long:  "Rewrites the store keeping only surviving observations. Atomic with respect to concurrent readers.",
		Run:   runPrune,
	}

	cmd.Flags().IntP("keep", "n", 0, "Keep only the newest N observations")
	cmd.Flags().String("kind", "", "Drop all observations of this kind")

	RootCmd.AddCommand(cmd)
}

func runPrune(cmd *cobra.Command, args []string) {
	keep, _ := cmd.Flags().GetInt("keep")
	kind, _ := cmd.Flags().GetString("kind")

	if keep <= 0 && kind == "" {
		exitErr("prune", fmt.Errorf("nothing to do: pass --keep or --kind"))
	}

	st, guard, _, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	removed := 0
	if err := guard.WithLock(cmd.Context(), func() error {
		if kind != "" {
			n, err := st.Prune(func(e model.Entry) bool {
				return e.Kind != model.Kind(kind)
			})
			if err != nil {
				return err
			}
			removed += n
		}
		if keep > 0 {
			n, err := st.KeepNewest(keep)
			if err != nil {
				return err
			}
			removed += n
		}
		return nil
	}); err != nil {
		exitErr("prune", err)
	}

	fmt.Printf("removed %d observations\n", removed)
}
