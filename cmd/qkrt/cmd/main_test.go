package cmd

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func resetViper() {
	viper.Reset()
	viper.SetEnvPrefix("QISKIT_IBM")
	viper.AutomaticEnv()
}

// fakeQuantum answers just enough of IAM, Global Search and the quantum API
// for one instance with two backends and at most one job
type fakeQuantum struct {
	srv *httptest.Server

	mu        sync.Mutex
	status    string
	reason    string
	submitted []byte
	cancelled bool
}

const fakeResults = `{"results":[{"data":{"c":{"samples":["0x0","0x3","0x3","0x1"],"num_bits":2}}}]}`

func newFakeQuantum(t *testing.T) *fakeQuantum {
	f := &fakeQuantum{status: "Completed"}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)

	resetViper()
	viper.Set("config", filepath.Join(t.TempDir(), "no-accounts.json"))
	viper.Set("token", "test-key")
	viper.Set("iam-url", f.srv.URL)
	viper.Set("search-url", f.srv.URL)
	viper.Set("api-url", f.srv.URL+"/api/v1")
	return f
}

func (f *fakeQuantum) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/identity/token":
		json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "tok", "expires_in": 3600})

	case r.URL.Path == "/v3/resources/search":
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]string{{"crn": "crn:a", "name": "open-a"}},
			"limit": 100,
		})

	case r.URL.Path == "/api/v1/backends":
		json.NewEncoder(w).Encode(map[string]interface{}{"devices": []map[string]interface{}{
			{"name": "ibm_busy", "status": map[string]string{"name": "online"}, "queue_length": 9, "qubits": 127},
			{"name": "ibm_idle", "status": map[string]string{"name": "online"}, "queue_length": 1, "qubits": 133},
		}})

	case r.URL.Path == "/api/v1/jobs" && r.Method == http.MethodPost:
		f.submitted = body
		json.NewEncoder(w).Encode(map[string]string{"id": "job-1"})

	case r.URL.Path == "/api/v1/jobs/job-1":
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "job-1",
			"backend": "ibm_idle",
			"state":   map[string]string{"status": f.status, "reason": f.reason},
			"program": map[string]string{"id": "sampler"},
		})

	case r.URL.Path == "/api/v1/jobs/job-1/results":
		io.WriteString(w, fakeResults)

	case r.URL.Path == "/api/v1/jobs/job-1/cancel":
		f.cancelled = true
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"errors":[{"message":"not found"}]}`)
	}
}

func (f *fakeQuantum) setStatus(status, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	f.reason = reason
}

func (f *fakeQuantum) snapshot() (submitted []byte, cancelled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitted, f.cancelled
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), err
}

func writeCircuit(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bell.qpy")
	require.NoError(t, os.WriteFile(path, []byte("QISKIT\x0cbell"), 0o600))
	return path
}

func lineWith(output, s string) string {
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, s) {
			return line
		}
	}
	return ""
}
