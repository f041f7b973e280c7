package qiskit_runtime_go

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	iamGrantType = "urn:ibm:params:oauth:grant-type:apikey"
	// tokens are refreshed this long before IAM says they expire
	tokenExpiryMargin = time.Minute
)

// Credentials are what a Session authenticates with. An ApiKey is exchanged
// with IAM for short lived bearer tokens and can be refreshed. A bare
// AccessToken is used as-is and cannot be refreshed once it expires.
type Credentials struct {
	ApiKey      string
	AccessToken string
}

type accessToken struct {
	value  string
	expiry time.Time
}

func (t accessToken) valid(now time.Time) bool {
	return t.value != "" && (t.expiry.IsZero() || now.Before(t.expiry.Add(-tokenExpiryMargin)))
}

type iamTokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Expiration  int64  `json:"expiration"`
}

// tokenSource owns the only mutable state shared by concurrent operations on
// a Session. Readers take the read lock; refreshes are collapsed through a
// singleflight group so that concurrent 401s cause a single IAM exchange.
type tokenSource struct {
	mu  sync.RWMutex
	tok accessToken

	apiKey string
	c      *conn
	group  singleflight.Group
	now    func() time.Time
}

func newTokenSource(c *conn, creds Credentials) *tokenSource {
	return &tokenSource{
		tok:    accessToken{value: creds.AccessToken},
		apiKey: creds.ApiKey,
		c:      c,
		now:    time.Now,
	}
}

// token returns a usable bearer token, refreshing it first if it expired.
func (ts *tokenSource) token(ctx context.Context) (string, error) {
	ts.mu.RLock()
	t := ts.tok
	ts.mu.RUnlock()

	if t.valid(ts.now()) {
		return t.value, nil
	}
	return ts.refresh(ctx, t.value)
}

// refresh replaces stale with a new token. If another caller already replaced
// it the newer token is returned without talking to IAM again. The exchange
// is shared by every caller waiting on it and runs under its own deadline, so
// one caller giving up never fails the others. A rejected key is reported as
// KindAuthExpired; transport failures keep their kind.
func (ts *tokenSource) refresh(ctx context.Context, stale string) (string, error) {
	const op = "token_refresh"

	ch := ts.group.DoChan("refresh", func() (interface{}, error) {
		ts.mu.RLock()
		cur := ts.tok
		ts.mu.RUnlock()
		if cur.value != stale && cur.valid(ts.now()) {
			return cur.value, nil
		}

		if ts.apiKey == "" {
			return nil, &Error{Op: op, Kind: KindAuthExpired, Service: ServiceIAM, Msg: "access token expired and no api key is available to refresh it"}
		}

		exCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ts.c.opts.timeout)
		defer cancel()

		nt, err := ts.exchange(exCtx)
		if err != nil {
			var ae *Error
			if errors.As(err, &ae) && ae.Kind == KindAuth {
				return nil, &Error{Op: op, Kind: KindAuthExpired, Service: ServiceIAM, StatusCode: ae.StatusCode, Err: err}
			}
			return nil, err
		}

		ts.mu.Lock()
		ts.tok = nt
		ts.mu.Unlock()
		return nt.value, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// acquire performs the first exchange for a new Session. Unlike refresh its
// failures keep their original kind, so bad keys surface as KindAuth.
func (ts *tokenSource) acquire(ctx context.Context) error {
	if ts.apiKey == "" {
		if ts.tok.value == "" {
			return newErr("token_acquire", KindAuth, "missing credentials, please provide either an api key or an access token")
		}
		return nil
	}

	nt, err := ts.exchange(ctx)
	if err != nil {
		return err
	}

	ts.mu.Lock()
	ts.tok = nt
	ts.mu.Unlock()
	return nil
}

func (ts *tokenSource) exchange(ctx context.Context) (accessToken, error) {
	const op = "iam_token"

	form := url.Values{}
	form.Set("grant_type", iamGrantType)
	form.Set("apikey", ts.apiKey)

	var r iamTokenResp
	err := ts.c.do(ctx, op, request{
		service:     ServiceIAM,
		method:      http.MethodPost,
		url:         strings.TrimRight(ts.c.opts.iamUrl, "/") + "/identity/token",
		body:        []byte(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}, &r)
	var ae *Error
	if errors.As(err, &ae) && ae.Kind == KindValidation {
		// IAM answers 400 for unknown or revoked keys
		ae.Kind = KindAuth
	}
	if err != nil {
		return accessToken{}, err
	}
	if r.AccessToken == "" {
		return accessToken{}, &Error{Op: op, Kind: KindAuth, Service: ServiceIAM, Msg: "iam returned an empty access token"}
	}

	t := accessToken{value: r.AccessToken}
	switch {
	case r.Expiration > 0:
		t.expiry = time.Unix(r.Expiration, 0)
	case r.ExpiresIn > 0:
		t.expiry = ts.now().Add(time.Duration(r.ExpiresIn) * time.Second)
	}

	ts.c.opts.metrics.countRefresh()
	ts.c.log.WithFields(logrus.Fields{"expiry": t.expiry}).Info("obtained iam access token")
	return t, nil
}

func (ts *tokenSource) clear() {
	ts.mu.Lock()
	ts.tok = accessToken{}
	ts.apiKey = ""
	ts.mu.Unlock()
}
