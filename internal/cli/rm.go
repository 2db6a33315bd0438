package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm [id...]",
		Short: "Delete observations by id",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRm,
	}

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	ids := map[string]bool{}
	for _, id := range args {
		ids[id] = true
	}

	st, guard, _, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	removed := 0
	if err := guard.WithLock(cmd.Context(), func() error {
		removed, err = st.Delete(ids)
		return err
	}); err != nil {
		exitErr("rm", err)
	}

	fmt.Printf("removed %d observations\n", removed)
}
