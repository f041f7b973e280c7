package qiskit_runtime_go

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// maxErrorBody bounds how much of a failed response is read for its message
const maxErrorBody = 64 << 10

// request describes one call. Bodies are kept as bytes so the call can be
// replayed after a token refresh.
type request struct {
	service     Service
	method      string
	url         string
	crn         string
	body        []byte
	contentType string
}

// conn is the HTTP plumbing shared by every operation of a Session
type conn struct {
	opts   *sessionOptions
	hc     *http.Client
	log    *logrus.Logger
	tokens *tokenSource
}

func newConn(opts *sessionOptions, creds Credentials) *conn {
	c := &conn{
		opts: opts,
		hc:   opts.httpClient,
		log:  opts.log,
	}
	c.tokens = newTokenSource(c, creds)
	return c
}

// quantumUrl joins path onto the quantum API base url
func (c *conn) quantumUrl(path string) string {
	return strings.TrimRight(c.opts.apiUrl, "/") + "/" + strings.TrimLeft(path, "/")
}

// get is a convenience wrapper around a quantum API GET request
func (c *conn) get(ctx context.Context, op, crn, path string, out interface{}) error {
	return c.do(ctx, op, request{service: ServiceQuantum, method: http.MethodGet, url: c.quantumUrl(path), crn: crn}, out)
}

// post is a convenience wrapper around a quantum API POST request carrying a JSON body
func (c *conn) post(ctx context.Context, op, crn, path string, in, out interface{}) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return &Error{Op: op, Kind: KindValidation, Msg: "could not encode request body", Err: err}
		}
	}
	return c.do(ctx, op, request{service: ServiceQuantum, method: http.MethodPost, url: c.quantumUrl(path), crn: crn, body: body}, out)
}

// do runs a request and decodes a successful JSON response into out.
// Authenticated requests that come back 401 get one token refresh and are
// replayed exactly once; nothing else is retried here.
func (c *conn) do(ctx context.Context, op string, r request, out interface{}) error {
	var token string
	authed := r.service != ServiceIAM
	if authed {
		t, err := c.tokens.token(ctx)
		if err != nil {
			return err
		}
		token = t
	}

	resp, err := c.send(ctx, op, r, token)
	if err != nil {
		return err
	}

	// Check for 401 and get new token
	if resp.StatusCode == http.StatusUnauthorized && authed {
		drain(resp)
		c.log.WithFields(logrus.Fields{"op": op, "service": r.service.String()}).Info("access token rejected, refreshing")

		token, err = c.tokens.refresh(ctx, token)
		if err != nil {
			return err
		}

		resp, err = c.send(ctx, op, r, token)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusErr(op, r.service, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := c.decode(resp.Body, out); err != nil {
		return &Error{Op: op, Kind: KindUnhandled, Service: r.service, StatusCode: resp.StatusCode, Msg: "could not decode response", Err: err}
	}
	return nil
}

func (c *conn) send(ctx context.Context, op string, r request, token string) (*http.Response, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindValidation, Msg: "could not build request", Err: err}
	}

	reqId := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.userAgent)
	req.Header.Set("X-Request-Id", reqId)
	switch {
	case r.contentType != "":
		req.Header.Set("Content-Type", r.contentType)
	case body != nil:
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if r.service == ServiceQuantum {
		req.Header.Set("IBM-API-Version", c.opts.apiVersion)
		if r.crn != "" {
			req.Header.Set("Service-CRN", r.crn)
		}
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	elapsed := time.Since(start)

	entry := c.log.WithFields(logrus.Fields{
		"op":         op,
		"service":    r.service.String(),
		"method":     r.method,
		"path":       req.URL.Path,
		"request_id": reqId,
		"elapsed":    elapsed,
	})
	if err != nil {
		c.opts.metrics.observeRequest(r.service, r.method, 0, elapsed)
		entry.WithError(err).Debug("request failed")
		return nil, &Error{Op: op, Kind: KindNetwork, Service: r.service, Err: err}
	}

	c.opts.metrics.observeRequest(r.service, r.method, resp.StatusCode, elapsed)
	entry.WithField("status", resp.StatusCode).Debug("request done")
	return resp, nil
}

// apiErrResp covers the error bodies of the quantum API, IAM and Global Search
type apiErrResp struct {
	Errors []struct {
		Code    interface{} `json:"code"`
		Message string      `json:"message"`
	} `json:"errors"`
	ErrorMessage string `json:"errorMessage"`
	Message      string `json:"message"`
	Err          string `json:"error"`
}

func (r apiErrResp) message() string {
	var msgs []string
	for _, e := range r.Errors {
		if e.Message != "" {
			msgs = append(msgs, e.Message)
		}
	}
	switch {
	case len(msgs) > 0:
		return strings.Join(msgs, "; ")
	case r.ErrorMessage != "":
		return r.ErrorMessage
	case r.Message != "":
		return r.Message
	}
	return r.Err
}

func (c *conn) statusErr(op string, svc Service, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := http.StatusText(resp.StatusCode)
	var r apiErrResp
	if err := json.Unmarshal(raw, &r); err == nil && r.message() != "" {
		msg = r.message()
	} else if s := strings.TrimSpace(string(raw)); s != "" {
		msg = s
	}

	return &Error{
		Op:         op,
		Kind:       kindForStatus(resp.StatusCode),
		Service:    svc,
		StatusCode: resp.StatusCode,
		Msg:        msg,
	}
}

// decode is simply a helper for decoding json
func (c *conn) decode(r io.Reader, i interface{}) error {
	return json.NewDecoder(r).Decode(i)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}
