package cmd

import (
	"fmt"
	"sort"

	qkrt "github.com/Zaba505/qiskit-runtime-go"
	"github.com/spf13/cobra"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List the backends available to the account",
	Long: `List every backend reachable through the account's service instances,
least busy first. The backend qkrt submit would pick is marked with *.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		onlineOnly, _ := cmd.Flags().GetBool("online")

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		catalog, err := s.Search(cmd.Context())
		if err != nil {
			return err
		}
		if onlineOnly {
			catalog = catalog.Online()
		}

		printBackends(cmd, catalog)
		return nil
	},
}

func printBackends(cmd *cobra.Command, catalog *qkrt.CatalogSnapshot) {
	out := cmd.OutOrStdout()
	if catalog.Len() == 0 {
		fmt.Fprintln(out, "No backends available")
		return
	}

	pick, _ := catalog.Online().LeastBusy()

	rows := catalog.Backends()
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].QueueLength < rows[j].QueueLength
	})

	fmt.Fprintf(out, "%s  %-20s %-8s %-7s %-12s %s\n", " ", "NAME", "QUBITS", "QUEUE", "STATUS", "INSTANCE")
	for _, b := range rows {
		mark := " "
		if b.Name == pick.Name {
			mark = "*"
		}
		fmt.Fprintf(out, "%s  %-20s %-8d %-7d %-12s %s\n", mark, b.Name, b.Qubits, b.QueueLength, b.Status, b.InstanceName)
	}
}

func init() {
	backendsCmd.Flags().Bool("online", false, "only list backends accepting jobs")

	rootCmd.AddCommand(backendsCmd)
}
