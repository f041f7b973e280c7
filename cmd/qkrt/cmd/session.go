package cmd

import (
	"os"

	qkrt "github.com/Zaba505/qiskit-runtime-go"
	"github.com/Zaba505/qiskit-runtime-go/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// openSession resolves the account from flags, environment and the account
// file, in that order of precedence, and authenticates.
func openSession(cmd *cobra.Command) (*qkrt.Session, error) {
	token := viper.GetString("token")

	acct, err := config.Load(viper.GetString("config"), viper.GetString("account"))
	if err != nil {
		if token == "" {
			return nil, err
		}
		acct = &config.Account{Name: "flags"}
	}
	if token != "" {
		acct.Token = token
	}
	if instance := viper.GetString("instance"); instance != "" {
		acct.Instance = instance
	}
	if url := viper.GetString("api-url"); url != "" {
		acct.Url = url
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(qkrt.ParseLogLevel(viper.GetString("log-level")))

	opts := append(acct.Options(), qkrt.WithLogger(log))
	if url := viper.GetString("iam-url"); url != "" {
		opts = append(opts, qkrt.WithIamUrl(url))
	}
	if url := viper.GetString("search-url"); url != "" {
		opts = append(opts, qkrt.WithSearchUrl(url))
	}

	log.WithField("account", acct.Name).Debug("opening session")
	return qkrt.NewSession(cmd.Context(), acct.Credentials(), opts...)
}

// findBackend looks a backend up by name, or picks the least busy online
// backend when name is empty
func findBackend(cmd *cobra.Command, s *qkrt.Session, name string) (qkrt.Backend, error) {
	catalog, err := s.Search(cmd.Context())
	if err != nil {
		return qkrt.Backend{}, err
	}

	if name == "" {
		b, ok := catalog.Online().LeastBusy()
		if !ok {
			return qkrt.Backend{}, errNoBackend
		}
		return b, nil
	}

	b, ok := catalog.Lookup(name)
	if !ok {
		return qkrt.Backend{}, &qkrt.Error{Op: "backend_lookup", Kind: qkrt.KindNotFound, Msg: "backend " + name + " is not available to this account"}
	}
	return b, nil
}

var errNoBackend = &qkrt.Error{Op: "backend_select", Kind: qkrt.KindNotFound, Msg: "no online backend is available to this account"}
