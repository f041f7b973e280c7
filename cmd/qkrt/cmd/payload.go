package cmd

import (
	"os"

	qkrt "github.com/Zaba505/qiskit-runtime-go"
	"github.com/spf13/cobra"
)

var payloadCmd = &cobra.Command{
	Use:   "payload [circuit.qpy]",
	Short: "Print the sampler job body for a circuit without submitting it",
	Long: `Print the JSON body qkrt submit would send for a circuit. Nothing is
sent and no credentials are needed, which makes it useful to inspect a job or
to hand it to another tool.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		backend, _ := flags.GetString("backend")
		shots, _ := flags.GetInt("shots")
		program, _ := flags.GetString("program")

		qpy, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		return qkrt.WriteSamplerPayload(cmd.OutOrStdout(), backend, qpy, shots, qkrt.WithProgramId(program))
	},
}

func init() {
	flags := payloadCmd.Flags()
	flags.StringP("backend", "b", "", "backend the job targets (required)")
	flags.IntP("shots", "s", defaultShots, "number of shots")
	flags.String("program", qkrt.DefaultProgramId, "runtime program id")
	payloadCmd.MarkFlagRequired("backend")

	rootCmd.AddCommand(payloadCmd)
}
