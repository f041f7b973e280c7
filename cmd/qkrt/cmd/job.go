package cmd

import (
	"fmt"
	"time"

	qkrt "github.com/Zaba505/qiskit-runtime-go"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [job_id]",
	Short: "Get the status of a job",
	Long:  `Retrieve the platform's record of a job, including its current state (QUEUED, RUNNING, DONE, ERROR, CANCELLED), failure reason and usage.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		job, err := s.RetrieveJob(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		details, err := s.JobDetails(cmd.Context(), job)
		if err != nil {
			return err
		}

		printDetails(cmd, details)
		return nil
	},
}

var waitCmd = &cobra.Command{
	Use:   "wait [job_id]",
	Short: "Wait for a job to finish",
	Long: `Poll a job until it is DONE, ERROR or CANCELLED.

The command fails if the job does not finish DONE, or if --timeout runs out
first. Timing out does not cancel the job.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		job, err := s.RetrieveJob(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		return waitFor(cmd, s, job, interval, timeout)
	},
}

var resultsCmd = &cobra.Command{
	Use:   "results [job_id]",
	Short: "Print the samples of a finished job",
	Long:  `Download the samples of a DONE job and print how often each bitstring was measured, or with --samples every shot in order. Bit 0 is the rightmost character.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		perShot, _ := cmd.Flags().GetBool("samples")

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		job, err := s.RetrieveJob(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		ss, err := s.FetchResults(cmd.Context(), job)
		if err != nil {
			return err
		}

		if perShot {
			for _, bits := range ss.Samples() {
				fmt.Fprintln(cmd.OutOrStdout(), bits)
			}
			return nil
		}
		printCounts(cmd, ss)
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [job_id]",
	Short: "Cancel a queued or running job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		job, err := s.RetrieveJob(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if err := s.CancelJob(cmd.Context(), job); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Cancellation requested for job %s\n", statusIcon(qkrt.StatusCancelled), job.Id)
		return nil
	},
}

// waitFor blocks until job is terminal and reports how it ended
func waitFor(cmd *cobra.Command, s *qkrt.Session, job *qkrt.Job, interval, timeout time.Duration) error {
	start := time.Now()
	st, err := s.WaitUntilTerminal(cmd.Context(), job, interval, timeout)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s job %s finished %s\n", colorizeStatus(st), job.Id, formatDuration(time.Since(start)))
	if st != qkrt.StatusDone {
		msg := "job " + job.Id + " finished with status " + st.String()
		if job.Reason() != "" {
			msg += ": " + job.Reason()
		}
		return &qkrt.Error{Op: "job_wait", Kind: qkrt.KindState, Msg: msg}
	}
	return nil
}

func addWaitFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("interval", qkrt.DefaultPollInterval, "time between status polls")
	cmd.Flags().Duration("timeout", 0, "give up waiting after this long (0 waits forever)")
}

func init() {
	addWaitFlags(waitCmd)
	resultsCmd.Flags().Bool("samples", false, "print every shot in order instead of counts")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(waitCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(cancelCmd)
}
