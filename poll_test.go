package qiskit_runtime_go

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPolledJob(f *fakePlatform, id string, statuses ...string) *Job {
	f.addJob(id, &fakeJob{backend: "ibm_kyiv", statuses: statuses})
	return &Job{Id: id, Backend: "ibm_kyiv", InstanceCRN: f.instances[0].CRN, status: StatusQueued}
}

func TestSession_PollOnce(t *testing.T) {
	f := newFakePlatform(t)
	s := f.session(t)
	job := newPolledJob(f, "job-p", "Running", "Completed")

	st, err := s.PollOnce(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, st)

	st, err = s.PollOnce(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, st)
	assert.Equal(t, 2, f.job("job-p").polls)

	t.Run("terminal answers locally", func(t *testing.T) {
		st, err := s.PollOnce(context.Background(), job)
		require.NoError(t, err)
		assert.Equal(t, StatusDone, st)
		assert.Equal(t, 2, f.job("job-p").polls)
	})
}

func TestSession_PollOnce_Unknown_Job(t *testing.T) {
	f := newFakePlatform(t)
	s := f.session(t)

	job := &Job{Id: "ghost", InstanceCRN: f.instances[0].CRN}
	st, err := s.PollOnce(context.Background(), job)
	assert.True(t, IsKind(err, KindNotFound), "got %v", err)
	assert.Equal(t, StatusQueued, st)
}

func TestSession_WaitUntilTerminal(t *testing.T) {
	f := newFakePlatform(t)
	s := f.session(t)
	job := newPolledJob(f, "job-w", "Running", "Completed")

	st, err := s.WaitUntilTerminal(context.Background(), job, 0, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, st)
	assert.Equal(t, StatusDone, job.Status())
	assert.Equal(t, 2, f.job("job-w").polls)
}

func TestSession_WaitUntilTerminal_Failed_Job(t *testing.T) {
	f := newFakePlatform(t)
	s := f.session(t)
	job := newPolledJob(f, "job-f", "Running", "Failed")

	st, err := s.WaitUntilTerminal(context.Background(), job, time.Millisecond, 0)
	require.NoError(t, err, "a failed job is a status, not an error")
	assert.Equal(t, StatusError, st)
}

func TestSession_WaitUntilTerminal_Timeout(t *testing.T) {
	f := newFakePlatform(t)
	s := f.session(t)
	job := newPolledJob(f, "job-t", "Running")

	st, err := s.WaitUntilTerminal(context.Background(), job, 5*time.Millisecond, 50*time.Millisecond)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTimeout), "got %v", err)
	assert.Equal(t, CodeTimeout, Code(err))
	assert.Equal(t, StatusRunning, st)
	assert.Equal(t, StatusRunning, job.Status())
	assert.False(t, f.job("job-t").cancelled)
}

func TestSession_WaitUntilTerminal_Canceled_Context(t *testing.T) {
	f := newFakePlatform(t)
	s := f.session(t)
	job := newPolledJob(f, "job-c", "Queued")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	st, err := s.WaitUntilTerminal(ctx, job, 5*time.Millisecond, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsKind(err, KindTimeout))
	assert.Equal(t, StatusQueued, st)
}

func TestSession_WaitUntilTerminal_Transient_Failures(t *testing.T) {
	f := newFakePlatform(t)

	t.Run("retried", func(t *testing.T) {
		s := f.session(t, WithPollRetries(2))
		job := newPolledJob(f, "job-r", "Completed")
		f.with(func() { f.jobs["job-r"].failPolls = 2 })

		st, err := s.WaitUntilTerminal(context.Background(), job, time.Millisecond, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, StatusDone, st)
		assert.Equal(t, 3, f.hitCount("GET /api/v1/jobs/job-r"))
	})

	t.Run("retries exhausted", func(t *testing.T) {
		s := f.session(t, WithPollRetries(1))
		job := newPolledJob(f, "job-e", "Completed")
		f.with(func() { f.jobs["job-e"].failPolls = 5 })

		st, err := s.WaitUntilTerminal(context.Background(), job, time.Millisecond, time.Minute)
		assert.True(t, IsKind(err, KindNetwork), "got %v", err)
		assert.Equal(t, StatusQueued, st)
		assert.Equal(t, 2, f.hitCount("GET /api/v1/jobs/job-e"))
	})

	t.Run("iam outage during refresh", func(t *testing.T) {
		s := f.session(t, WithPollRetries(3))
		job := newPolledJob(f, "job-i", "Completed")
		f.expireAll()
		f.with(func() { f.failTokens = 1 })

		st, err := s.WaitUntilTerminal(context.Background(), job, time.Millisecond, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, StatusDone, st)
		// rejected, rejected again after the 503 from IAM, then answered
		assert.Equal(t, 3, f.hitCount("GET /api/v1/jobs/job-i"))
	})

	t.Run("not found is not retried", func(t *testing.T) {
		s := f.session(t, WithPollRetries(3))
		job := &Job{Id: "ghost", InstanceCRN: f.instances[0].CRN}

		_, err := s.WaitUntilTerminal(context.Background(), job, time.Millisecond, time.Minute)
		assert.True(t, IsKind(err, KindNotFound), "got %v", err)
		assert.Equal(t, 1, f.hitCount("GET /api/v1/jobs/ghost"))
	})
}
