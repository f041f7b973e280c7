package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	qkrt "github.com/Zaba505/qiskit-runtime-go"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "qkrt",
	Short: "qkrt submits sampler jobs to IBM Quantum Platform",
	Long: `qkrt is a command-line client for the IBM Quantum Platform runtime.

It lists the backends your account can reach, submits QPY circuits that are
already native to a backend as sampler jobs, follows them to completion and
prints their samples.

Common workflows:

  List backends, least busy first:
    qkrt backends

  Inspect the topology and calibration of a backend:
    qkrt target ibm_kyiv

  Submit a circuit on the least busy backend and wait for its counts:
    qkrt submit bell.qpy --shots 4000 --wait

  Follow a job submitted elsewhere:
    qkrt wait <job-id> && qkrt results <job-id>

Configuration:
  Credentials come from the qiskit account file (~/.qiskit/qiskit-ibm.json),
  from environment variables or from flags, flags taking precedence:
    QISKIT_IBM_TOKEN                IBM Cloud API key
    QISKIT_IBM_INSTANCE             service instance CRN
    QISKIT_IBM_URL                  quantum API endpoint
    QISKIT_IBM_RUNTIME_LOG_LEVEL    ERROR, WARNING, INFO or DEBUG

The exit status is 0 on success and 1 on failure. A failure also prints a
status code naming the failing service and the kind of failure.`,
	SilenceUsage: true,
}

// Execute runs the command line against ctx
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// ExitStatus writes the status code of a failed command to w and returns
// the process exit status. Codes do not fit in an exit status, so every
// failure exits 1.
func ExitStatus(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(w, "status code: %d\n", qkrt.Code(err))
	return 1
}

func initConfig() {
	viper.SetEnvPrefix("QISKIT_IBM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.BindEnv("log-level", "QISKIT_IBM_RUNTIME_LOG_LEVEL")
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "account file (default is $HOME/.qiskit/qiskit-ibm.json)")
	flags.String("account", "", "name of the saved account to use (default is default, then default-ibm-cloud)")
	flags.StringP("token", "t", "", "IBM Cloud API key")
	flags.String("instance", "", "service instance CRN to scope the session to")
	flags.String("api-url", "", "quantum API endpoint")
	flags.String("iam-url", "", "IAM endpoint")
	flags.String("search-url", "", "Global Search endpoint")
	flags.String("log-level", "", "ERROR, WARNING, INFO or DEBUG")

	for _, name := range []string{"config", "account", "token", "instance", "api-url", "iam-url", "search-url", "log-level"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}
