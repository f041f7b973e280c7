// Package config loads saved IBM Quantum accounts from the qiskit account
// file so that tools do not have to pass API keys around on the command line.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	qkrt "github.com/Zaba505/qiskit-runtime-go"
	"github.com/spf13/viper"
)

const (
	// DefaultAccount and DefaultCloudAccount are tried in order when no account name is given
	DefaultAccount      = "default"
	DefaultCloudAccount = "default-ibm-cloud"

	// EnvPrefix prefixes the variables that override a loaded account,
	// e.g. QISKIT_IBM_TOKEN, QISKIT_IBM_INSTANCE and QISKIT_IBM_URL
	EnvPrefix = "QISKIT_IBM"

	// cloudUrl is the console url qiskit writes for ibm_cloud accounts.
	// It is not an API endpoint so it maps to the default API url.
	cloudUrl = "https://cloud.ibm.com"
)

// ErrNoAccount is returned when neither the account file nor the environment
// provide an API key
var ErrNoAccount = errors.New("no saved account and QISKIT_IBM_TOKEN is not set")

// Account is one entry of the account file
type Account struct {
	Name     string `mapstructure:"-"`
	Channel  string `mapstructure:"channel"`
	Token    string `mapstructure:"token"`
	Url      string `mapstructure:"url"`
	Instance string `mapstructure:"instance"`
	Proxies  struct {
		Urls map[string]string `mapstructure:"urls"`
	} `mapstructure:"proxies"`
}

// DefaultPath is ~/.qiskit/qiskit-ibm.json
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".qiskit", "qiskit-ibm.json"), nil
}

// Load reads the account called name from the account file at path. An
// empty path means DefaultPath; an empty name means "default", falling back
// to "default-ibm-cloud". QISKIT_IBM_* environment variables take precedence
// over the file, and are enough on their own when the file does not exist.
func Load(path, name string) (*Account, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("could not locate account file: %w", err)
		}
		path = p
	}

	// account names may contain dots
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(path)
	v.SetConfigType("json")

	acct := &Account{}
	err := v.ReadInConfig()
	switch {
	case err == nil:
		acct, err = pick(v, name)
		if err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist) && name == "":
		acct.Name = "env"
	default:
		return nil, fmt.Errorf("could not read account file %s: %w", path, err)
	}

	overrideFromEnv(acct)

	if acct.Token == "" {
		return nil, ErrNoAccount
	}
	return acct, nil
}

func pick(v *viper.Viper, name string) (*Account, error) {
	candidates := []string{name}
	if name == "" {
		candidates = []string{DefaultAccount, DefaultCloudAccount}
	}

	for _, candidate := range candidates {
		if !v.IsSet(candidate) {
			continue
		}

		var acct Account
		if err := v.UnmarshalKey(candidate, &acct); err != nil {
			return nil, fmt.Errorf("could not unmarshal account %s: %w", candidate, err)
		}
		acct.Name = candidate
		return &acct, nil
	}
	return nil, fmt.Errorf("account %s not found in %s", strings.Join(candidates, " or "), v.ConfigFileUsed())
}

func overrideFromEnv(acct *Account) {
	env := viper.New()
	env.SetEnvPrefix(EnvPrefix)
	env.AutomaticEnv()

	if token := env.GetString("token"); token != "" {
		acct.Token = token
	}
	if instance := env.GetString("instance"); instance != "" {
		acct.Instance = instance
	}
	if url := env.GetString("url"); url != "" {
		acct.Url = url
	}
}

// Credentials returns the API key of the account
func (a *Account) Credentials() qkrt.Credentials {
	return qkrt.Credentials{ApiKey: a.Token}
}

// Options turns the account's endpoint, instance and proxy settings into session options
func (a *Account) Options() []qkrt.SessionOption {
	var opts []qkrt.SessionOption
	if a.Instance != "" {
		opts = append(opts, qkrt.WithInstance(a.Instance))
	}
	if u := strings.TrimRight(a.Url, "/"); u != "" && u != cloudUrl {
		opts = append(opts, qkrt.WithApiUrl(u))
	}
	if len(a.Proxies.Urls) > 0 {
		opts = append(opts, qkrt.WithProxies(a.Proxies.Urls))
	}
	return opts
}
