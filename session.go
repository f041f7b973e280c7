package qiskit_runtime_go

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Session is an authenticated connection to IBM Quantum Platform bound to one
// account and, optionally, one service instance.
//
// A Session is safe for concurrent use. Apart from internal token refreshes
// it never changes after NewSession returns.
type Session struct {
	opts      sessionOptions
	conn      *conn
	instances []Instance
	closed    atomic.Bool
}

// NewSession authenticates with the given credentials and discovers the
// service instances visible to them. It only returns a Session once the
// credentials have been used successfully, so a bad key fails here rather
// than on the first real call.
func NewSession(ctx context.Context, creds Credentials, options ...SessionOption) (*Session, error) {
	const op = "session_new"

	opts := sessionOptions{pollRetries: DefaultPollRetries}
	for _, option := range options {
		option(&opts)
	}
	opts.setDefaults()

	// Check API Login info; otherwise, error
	if creds.ApiKey == "" && creds.AccessToken == "" {
		return nil, newErr(op, KindAuth, "missing credentials, please provide either an api key or an access token")
	}

	s := &Session{opts: opts}
	s.conn = newConn(&s.opts, creds)

	if err := s.conn.tokens.acquire(ctx); err != nil {
		return nil, err
	}

	instances, err := s.conn.searchInstances(ctx)
	if IsKind(err, KindAuthExpired) {
		// a token that is refused before the session exists is simply bad
		return nil, &Error{Op: op, Kind: KindAuth, Service: ServiceIAM, Err: err}
	}
	if err != nil {
		return nil, err
	}

	if opts.instance != "" {
		var scoped []Instance
		for _, in := range instances {
			if in.CRN == opts.instance {
				scoped = append(scoped, in)
			}
		}
		if len(scoped) == 0 {
			return nil, newErr(op, KindAuth, "instance "+opts.instance+" is not visible to this account")
		}
		instances = scoped
	}
	s.instances = instances

	opts.log.WithFields(logrus.Fields{"instances": len(instances), "scoped": opts.instance != ""}).Info("session created")
	return s, nil
}

// Instances returns the service instances this session is scoped to
func (s *Session) Instances() []Instance {
	out := make([]Instance, len(s.instances))
	copy(out, s.instances)
	return out
}

// Close releases the session. Remote jobs are not affected. Any call made
// after Close fails with KindState wrapping ErrClosed.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.conn.tokens.clear()
	s.conn.hc.CloseIdleConnections()
	return nil
}

func (s *Session) check(op string) error {
	if s == nil || s.closed.Load() {
		return wrapErr(op, KindState, ServiceLocal, ErrClosed)
	}
	return nil
}

// findInstance returns the scoped instance with the given crn
func (s *Session) findInstance(crn string) (Instance, bool) {
	for _, in := range s.instances {
		if in.CRN == crn {
			return in, true
		}
	}
	return Instance{}, false
}
