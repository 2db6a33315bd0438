package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export observations as JSONL",
		Long:  "Writes every observation as one JSON document per line, to a file or stdout.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	st, guard, _, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	out := os.Stdout
	if len(args) == 1 {
		f, err := os.Create(args[0])
		if err != nil {
			exitErr("export", err)
		}
		defer f.Close()
		out = f
	}

	n := 0
	if err := guard.WithLock(cmd.Context(), func() error {
		n, err = st.ExportAll(out)
		return err
	}); err != nil {
		exitErr("export", err)
	}

	if len(args) == 1 {
		fmt.Printf("exported %d observations to %s\n", n, args[0])
	}
}
