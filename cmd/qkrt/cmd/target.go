package cmd

import (
	"fmt"
	"strings"

	qkrt "github.com/Zaba505/qiskit-runtime-go"
	"github.com/spf13/cobra"
)

var targetCmd = &cobra.Command{
	Use:   "target [backend]",
	Short: "Show the topology and calibration of a backend",
	Long: `Show what a transpiler needs to know about a backend: its qubit count,
native gate set, coupling map and the latest calibration estimates.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		b, err := findBackend(cmd, s, args[0])
		if err != nil {
			return err
		}

		target, err := s.FetchTarget(cmd.Context(), b)
		if err != nil {
			return err
		}

		printTarget(cmd, target)
		return nil
	},
}

func printTarget(cmd *cobra.Command, t *qkrt.Target) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%sBackend:%s      %s\n", colorDim, colorReset, t.Backend)
	fmt.Fprintf(out, "%sQubits:%s       %d\n", colorDim, colorReset, t.NumQubits)
	fmt.Fprintf(out, "%sBasis gates:%s  %s\n", colorDim, colorReset, strings.Join(t.BasisGates, ", "))
	fmt.Fprintf(out, "%sEdges:%s        %d\n", colorDim, colorReset, len(t.CouplingMap))
	if t.MaxShots > 0 {
		fmt.Fprintf(out, "%sMax shots:%s    %d\n", colorDim, colorReset, t.MaxShots)
	}
	if t.Simulator {
		fmt.Fprintf(out, "%sSimulator:%s    yes\n", colorDim, colorReset)
	}
	if t.LastUpdate == "" {
		return
	}

	fmt.Fprintf(out, "%sCalibrated:%s   %s\n", colorDim, colorReset, t.LastUpdate)
	fmt.Fprintln(out, "──────────────────────────────")
	fmt.Fprintf(out, "%-6s %-10s %-10s %-10s %s\n", "QUBIT", "T1 (us)", "T2 (us)", "FREQ (GHz)", "READOUT ERR")
	for i, q := range t.Qubits {
		fmt.Fprintf(out, "%-6d %-10.2f %-10.2f %-10.4f %.4f\n", i, q.T1, q.T2, q.Frequency, q.ReadoutError)
	}
}

func init() {
	rootCmd.AddCommand(targetCmd)
}
