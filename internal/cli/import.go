package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import observations from a JSONL export",
		Long:  "Appends observations from an export file (or stdin), keeping ids and timestamps. Existing ids are skipped.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	in := os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			exitErr("import", err)
		}
		defer f.Close()
		in = f
	}

	st, guard, _, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	n := 0
	if err := guard.WithLock(cmd.Context(), func() error {
		n, err = st.Import(in)
		return err
	}); err != nil {
		exitErr("import", err)
	}

	fmt.Printf("imported %d observations\n", n)
}
