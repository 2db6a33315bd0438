package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mindlog/mindlog/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show one observation",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	st, guard, _, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	var e model.Entry
	if err := guard.WithLock(cmd.Context(), func() error {
		e, err = st.Get(args[0])
		return err
	}); err != nil {
		exitErr("get", err)
	}

	if formatFlag == "json" {
		b, _ := json.MarshalIndent(e, "", "  ")
		fmt.Println(string(b))
		return
	}
	fmt.Printf("[%s] %s\n%s\n", e.Kind, e.Summary, e.Content)
}
