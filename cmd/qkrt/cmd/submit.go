package cmd

import (
	"fmt"
	"os"

	qkrt "github.com/Zaba505/qiskit-runtime-go"
	"github.com/spf13/cobra"
)

// defaultShots matches the sampler primitive's own default
const defaultShots = 4096

var submitCmd = &cobra.Command{
	Use:   "submit [circuit.qpy]",
	Short: "Submit a circuit as a sampler job",
	Long: `Submit a QPY serialized circuit as a sampler job.

The circuit must already be transpiled for the backend; use qkrt target to
see its gate set and coupling map. Without --backend the least busy online
backend is used.

Example:
  qkrt submit bell.qpy --backend ibm_kyiv --shots 1000
  qkrt submit bell.qpy --wait --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		backend, _ := flags.GetString("backend")
		shots, _ := flags.GetInt("shots")
		tags, _ := flags.GetStringSlice("tag")
		wait, _ := flags.GetBool("wait")
		interval, _ := flags.GetDuration("interval")
		timeout, _ := flags.GetDuration("timeout")

		qpy, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		b, err := findBackend(cmd, s, backend)
		if err != nil {
			return err
		}

		job, err := s.SubmitSamplerJob(cmd.Context(), b, qpy, shots, qkrt.WithTags(tags...))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Job submitted!\nJob ID:  %s\nBackend: %s (%d queued)\n", job.Id, b.Name, b.QueueLength)

		if !wait {
			return nil
		}
		if err := waitFor(cmd, s, job, interval, timeout); err != nil {
			return err
		}

		ss, err := s.FetchResults(cmd.Context(), job)
		if err != nil {
			return err
		}
		printCounts(cmd, ss)
		return nil
	},
}

func init() {
	flags := submitCmd.Flags()
	flags.StringP("backend", "b", "", "backend to run on (default is the least busy)")
	flags.IntP("shots", "s", defaultShots, "number of shots")
	flags.StringSlice("tag", nil, "tag to attach to the job")
	flags.Bool("wait", false, "wait for the job and print its counts")
	addWaitFlags(submitCmd)

	rootCmd.AddCommand(submitCmd)
}
