package qiskit_runtime_go

import (
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultApiUrl is the default IBM Quantum Platform API endpoint
	DefaultApiUrl = "https://quantum.cloud.ibm.com/api/v1"
	// DefaultIamUrl is the default IBM Cloud IAM endpoint used to exchange API keys for tokens
	DefaultIamUrl = "https://iam.cloud.ibm.com"
	// DefaultSearchUrl is the default IBM Cloud Global Search endpoint used to discover instances
	DefaultSearchUrl = "https://api.global-search-tagging.cloud.ibm.com"
	// DefaultApiVersion is sent as the IBM-API-Version header
	DefaultApiVersion = "2025-06-01"
	// DefaultUserAgent identifies this client to the platform
	DefaultUserAgent = "qiskit-runtime-go/0.1.0"
	// DefaultTimeout is the default timeout for each request
	DefaultTimeout = 30 * time.Second
	// DefaultPollRetries is how many transient failures WaitUntilTerminal absorbs per poll
	DefaultPollRetries = 3
	// DefaultPollInterval mirrors the fixed cadence the platform samples use
	DefaultPollInterval = 20 * time.Second
)

type sessionOptions struct {
	instance string

	// API Endpoint Info
	apiUrl     string
	iamUrl     string
	searchUrl  string
	apiVersion string
	userAgent  string
	proxyUrls  map[string]string

	// API Request Info
	timeout     time.Duration
	httpClient  *http.Client
	pollRetries int

	log     *logrus.Logger
	metrics *Metrics
}

// SessionOption configures how a Session is set up
type SessionOption func(*sessionOptions)

// WithInstance scopes the session to one service instance CRN.
// Without it the session sees every instance visible to the account.
func WithInstance(crn string) SessionOption {
	return func(options *sessionOptions) {
		options.instance = crn
	}
}

// WithApiUrl configures the session to use the provided url for the quantum API endpoints
func WithApiUrl(url string) SessionOption {
	return func(options *sessionOptions) {
		options.apiUrl = url
	}
}

// WithIamUrl
func WithIamUrl(url string) SessionOption {
	return func(options *sessionOptions) {
		options.iamUrl = url
	}
}

// WithSearchUrl
func WithSearchUrl(url string) SessionOption {
	return func(options *sessionOptions) {
		options.searchUrl = url
	}
}

// WithApiVersion overrides the IBM-API-Version header
func WithApiVersion(version string) SessionOption {
	return func(options *sessionOptions) {
		options.apiVersion = version
	}
}

// WithUserAgent
func WithUserAgent(agent string) SessionOption {
	return func(options *sessionOptions) {
		options.userAgent = agent
	}
}

// WithProxies configures the session proxy information
// urls should be a map of:
//		http: URL
//		https: URL
func WithProxies(urls map[string]string) SessionOption {
	return func(options *sessionOptions) {
		options.proxyUrls = urls
	}
}

// WithTimeout configures the timeout for each request
func WithTimeout(timeout time.Duration) SessionOption {
	return func(options *sessionOptions) {
		options.timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client used for every request.
// Proxies and timeout options are ignored when a client is provided.
func WithHTTPClient(c *http.Client) SessionOption {
	return func(options *sessionOptions) {
		options.httpClient = c
	}
}

// WithPollRetries configures how many transient network failures are
// retried for each poll made by WaitUntilTerminal
func WithPollRetries(retries int) SessionOption {
	return func(options *sessionOptions) {
		options.pollRetries = retries
	}
}

// WithLogger
func WithLogger(l *logrus.Logger) SessionOption {
	return func(options *sessionOptions) {
		options.log = l
	}
}

// WithMetrics records request, job and token metrics into m
func WithMetrics(m *Metrics) SessionOption {
	return func(options *sessionOptions) {
		options.metrics = m
	}
}

func (o *sessionOptions) setDefaults() {
	if o.apiUrl == "" {
		o.apiUrl = DefaultApiUrl
	}
	if o.iamUrl == "" {
		o.iamUrl = DefaultIamUrl
	}
	if o.searchUrl == "" {
		o.searchUrl = DefaultSearchUrl
	}
	if o.apiVersion == "" {
		o.apiVersion = DefaultApiVersion
	}
	if o.userAgent == "" {
		o.userAgent = DefaultUserAgent
	}
	if o.timeout == 0 {
		o.timeout = DefaultTimeout
	}
	if o.pollRetries < 0 {
		o.pollRetries = 0
	}
	if o.log == nil {
		o.log = defaultLogger
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{
			Timeout:   o.timeout,
			Transport: o.transport(),
		}
	}
}

func (o *sessionOptions) transport() http.RoundTripper {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if len(o.proxyUrls) == 0 {
		return t
	}

	t.Proxy = func(req *http.Request) (*url.URL, error) {
		raw, ok := o.proxyUrls[req.URL.Scheme]
		if !ok || raw == "" {
			return nil, nil
		}
		return url.Parse(raw)
	}
	return t
}

type jobOptions struct {
	programId string
	runtime   string
	tags      []string
	logLevel  string
	sessionId string
	private   *bool
}

const (
	// DefaultProgramId is the platform's standard sampler primitive
	DefaultProgramId = "sampler"
)

// JobOption configures a single job submission
type JobOption func(*jobOptions)

// WithProgramId overrides the runtime program, defaulting to DefaultProgramId
func WithProgramId(id string) JobOption {
	return func(options *jobOptions) {
		options.programId = id
	}
}

// WithRuntime selects the runtime image the job executes in
func WithRuntime(runtime string) JobOption {
	return func(options *jobOptions) {
		options.runtime = runtime
	}
}

// WithTags
func WithTags(tags ...string) JobOption {
	return func(options *jobOptions) {
		options.tags = append(options.tags, tags...)
	}
}

// WithLogLevel sets the log level of the remote program
func WithLogLevel(level string) JobOption {
	return func(options *jobOptions) {
		options.logLevel = level
	}
}

// WithSessionId runs the job inside an existing runtime session
func WithSessionId(id string) JobOption {
	return func(options *jobOptions) {
		options.sessionId = id
	}
}

// WithPrivate marks the job's inputs and results as private
func WithPrivate(private bool) JobOption {
	return func(options *jobOptions) {
		options.private = &private
	}
}

func newJobOptions(options []JobOption) jobOptions {
	var opts jobOptions
	for _, option := range options {
		option(&opts)
	}
	if opts.programId == "" {
		opts.programId = DefaultProgramId
	}
	return opts
}
