package qiskit_runtime_go

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// PollOnce asks the platform for the job's status once and records it on the
// handle. It never sleeps. A job already in a terminal state is answered from
// the handle without a request.
func (s *Session) PollOnce(ctx context.Context, job *Job) (Status, error) {
	const op = "job_poll"
	if err := s.check(op); err != nil {
		return job.status, err
	}
	if job.status.Terminal() {
		return job.status, nil
	}

	var r jobResp
	if err := s.conn.get(ctx, op, job.InstanceCRN, jobPath(job.Id), &r); err != nil {
		return job.status, err
	}

	st, err := r.status(op)
	if err != nil {
		return job.status, err
	}

	prev := job.status
	job.advance(st, r.State.Reason)
	s.opts.metrics.countPoll(job.status)

	if job.status != prev {
		s.opts.log.WithFields(logrus.Fields{"job": job.Id, "from": prev.String(), "to": job.status.String(), "reason": job.reason}).Info("job status changed")
	}
	return job.status, nil
}

// WaitUntilTerminal polls job every interval until it reaches DONE, ERROR or
// CANCELLED. ERROR and CANCELLED are returned as statuses, not errors.
//
// A transient network failure is retried up to the session's poll retry
// count before it is returned. If timeout is positive and runs out first a
// KindTimeout error is returned; the handle keeps the last status actually
// observed and the remote job keeps running.
func (s *Session) WaitUntilTerminal(ctx context.Context, job *Job, interval, timeout time.Duration) (Status, error) {
	const op = "job_wait"
	if err := s.check(op); err != nil {
		return job.status, err
	}

	waitCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	timedOut := func() error {
		if timeout > 0 && errors.Is(waitCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return &Error{Op: op, Kind: KindTimeout, Msg: fmt.Sprintf("job %s still %s after %s", job.Id, job.status, timeout)}
		}
		return nil
	}

	for {
		st, err := s.pollWithRetry(waitCtx, job, interval)
		if err != nil {
			if terr := timedOut(); terr != nil {
				return job.status, terr
			}
			return job.status, err
		}
		if st.Terminal() {
			return st, nil
		}

		timer := time.NewTimer(interval)
		select {
		case <-waitCtx.Done():
			timer.Stop()
			if terr := timedOut(); terr != nil {
				return job.status, terr
			}
			return job.status, ctx.Err()
		case <-timer.C:
		}
	}
}

// pollWithRetry retries PollOnce on KindNetwork failures at a constant
// interval. Any other failure stops immediately.
func (s *Session) pollWithRetry(ctx context.Context, job *Job, interval time.Duration) (Status, error) {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(s.opts.pollRetries)),
		ctx,
	)

	var st Status
	err := backoff.RetryNotify(func() error {
		var err error
		st, err = s.PollOnce(ctx, job)
		if err != nil && !IsKind(err, KindNetwork) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, next time.Duration) {
		s.opts.log.WithFields(logrus.Fields{"job": job.Id, "retry_in": next}).WithError(err).Warn("job poll failed, retrying")
	})
	return st, err
}
