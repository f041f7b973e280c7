package qiskit_runtime_go

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Status is the lifecycle state of a Job. The numeric values are stable.
type Status uint32

const (
	StatusQueued Status = iota
	StatusRunning
	StatusDone
	StatusError
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "QUEUED"
	case StatusRunning:
		return "RUNNING"
	case StatusDone:
		return "DONE"
	case StatusError:
		return "ERROR"
	case StatusCancelled:
		return "CANCELLED"
	}
	return "UNKNOWN"
}

// Terminal reports whether no further transition can happen from s
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError || s == StatusCancelled
}

// parseStatus maps the platform's status strings onto Status
func parseStatus(raw string) (Status, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "queued" || s == "initializing" || s == "validating" || s == "pending":
		return StatusQueued, true
	case s == "running":
		return StatusRunning, true
	case s == "completed" || s == "done":
		return StatusDone, true
	case s == "failed" || s == "error":
		return StatusError, true
	case strings.HasPrefix(s, "cancelled") || strings.HasPrefix(s, "canceled"):
		return StatusCancelled, true
	}
	return 0, false
}

// Job is the local handle of one submitted sampler execution. Dropping it
// does not cancel the remote job. A Job is not safe for concurrent use.
type Job struct {
	// Id is the identifier assigned by the platform
	Id          string
	Backend     string
	InstanceCRN string
	ProgramId   string
	// Shots is zero for jobs rebuilt with RetrieveJob
	Shots     int
	Submitted time.Time

	status Status
	reason string
}

// Status is the last status observed for the job. It only changes through
// PollOnce, WaitUntilTerminal, RetrieveJob and JobDetails.
func (j *Job) Status() Status { return j.status }

// Reason is the platform's explanation for the last status, usually set on failures
func (j *Job) Reason() string { return j.reason }

// advance applies an observed status. Jobs only move forward:
// QUEUED -> RUNNING -> terminal, or QUEUED -> terminal. Observations that
// would move backwards or leave a terminal state are ignored.
func (j *Job) advance(next Status, reason string) {
	if j.status.Terminal() {
		return
	}
	if next == StatusQueued && j.status == StatusRunning {
		return
	}
	j.status = next
	j.reason = reason
}

type jobCreateResp struct {
	Id      string `json:"id"`
	Backend string `json:"backend"`
}

// SubmitSamplerJob submits a QPY serialized circuit as a sampler job on
// backend. The circuit must already be native to the backend; the platform
// rejects it otherwise with a KindValidation error. Non-positive shots are
// rejected locally without any request being made.
func (s *Session) SubmitSamplerJob(ctx context.Context, b Backend, qpy []byte, shots int, options ...JobOption) (*Job, error) {
	const op = "sampler_job_submit"
	if err := s.check(op); err != nil {
		return nil, err
	}

	opts := newJobOptions(options)
	req, err := newSamplerJobReq(op, b.Name, qpy, shots, opts)
	if err != nil {
		return nil, err
	}

	crn := b.InstanceCRN
	if crn == "" && len(s.instances) == 1 {
		crn = s.instances[0].CRN
	}
	if _, ok := s.findInstance(crn); !ok {
		return nil, newErr(op, KindValidation, "backend "+b.Name+" is not reachable through any instance of this session")
	}

	var r jobCreateResp
	if err := s.conn.post(ctx, op, crn, "jobs", req, &r); err != nil {
		return nil, err
	}
	if r.Id == "" {
		return nil, &Error{Op: op, Kind: KindUnhandled, Service: ServiceQuantum, Msg: "platform accepted the job without returning an id"}
	}

	job := &Job{
		Id:          r.Id,
		Backend:     b.Name,
		InstanceCRN: crn,
		ProgramId:   opts.programId,
		Shots:       shots,
		Submitted:   time.Now(),
		status:      StatusQueued,
	}
	if r.Backend != "" {
		job.Backend = r.Backend
	}

	s.opts.metrics.countSubmit(job.Backend)
	s.opts.log.WithFields(logrus.Fields{"job": job.Id, "backend": job.Backend, "shots": shots, "program": opts.programId}).Info("sampler job submitted")
	return job, nil
}

type jobResp struct {
	Id      string `json:"id"`
	Backend string `json:"backend"`
	Status  string `json:"status"`
	State   struct {
		Status     string `json:"status"`
		Reason     string `json:"reason"`
		ReasonCode int    `json:"reason_code"`
	} `json:"state"`
	Created string `json:"created"`
	Program struct {
		Id string `json:"id"`
	} `json:"program"`
	Runtime string   `json:"runtime"`
	Tags    []string `json:"tags"`
	Usage   struct {
		QuantumSeconds float64 `json:"quantum_seconds"`
		Seconds        float64 `json:"seconds"`
	} `json:"usage"`
}

func (r *jobResp) status(op string) (Status, error) {
	raw := r.State.Status
	if raw == "" {
		raw = r.Status
	}
	st, ok := parseStatus(raw)
	if !ok {
		return 0, &Error{Op: op, Kind: KindUnhandled, Service: ServiceQuantum, Msg: "unknown job status " + raw}
	}
	return st, nil
}

func (r *jobResp) created() time.Time {
	t, err := time.Parse(time.RFC3339Nano, r.Created)
	if err != nil {
		return time.Time{}
	}
	return t
}

// JobDetails is the platform's full record of a job
type JobDetails struct {
	Id             string
	Backend        string
	ProgramId      string
	Runtime        string
	Tags           []string
	Created        time.Time
	Status         Status
	Reason         string
	ReasonCode     int
	QuantumSeconds float64
}

func jobPath(id string) string {
	return "jobs/" + url.PathEscape(id)
}

// RetrieveJob rebuilds a Job handle for a job submitted elsewhere, looking
// for it in every instance of the session
func (s *Session) RetrieveJob(ctx context.Context, id string) (*Job, error) {
	const op = "job_retrieve"
	if err := s.check(op); err != nil {
		return nil, err
	}

	for _, in := range s.instances {
		var r jobResp
		err := s.conn.get(ctx, op, in.CRN, jobPath(id), &r)
		if IsKind(err, KindNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		st, err := r.status(op)
		if err != nil {
			return nil, err
		}

		job := &Job{
			Id:          id,
			Backend:     r.Backend,
			InstanceCRN: in.CRN,
			ProgramId:   r.Program.Id,
			Submitted:   r.created(),
		}
		job.advance(st, r.State.Reason)
		return job, nil
	}

	return nil, &Error{Op: op, Kind: KindNotFound, Service: ServiceQuantum, Msg: "job " + id + " not found in any instance"}
}

// JobDetails fetches the platform's record of job and records its status on the handle
func (s *Session) JobDetails(ctx context.Context, job *Job) (*JobDetails, error) {
	const op = "job_details"
	if err := s.check(op); err != nil {
		return nil, err
	}

	var r jobResp
	if err := s.conn.get(ctx, op, job.InstanceCRN, jobPath(job.Id), &r); err != nil {
		return nil, err
	}
	st, err := r.status(op)
	if err != nil {
		return nil, err
	}
	job.advance(st, r.State.Reason)

	return &JobDetails{
		Id:             job.Id,
		Backend:        r.Backend,
		ProgramId:      r.Program.Id,
		Runtime:        r.Runtime,
		Tags:           r.Tags,
		Created:        r.created(),
		Status:         st,
		Reason:         r.State.Reason,
		ReasonCode:     r.State.ReasonCode,
		QuantumSeconds: r.Usage.QuantumSeconds,
	}, nil
}

// CancelJob asks the platform to cancel job. The handle's status is left
// alone; poll to observe the cancellation.
func (s *Session) CancelJob(ctx context.Context, job *Job) error {
	const op = "job_cancel"
	if err := s.check(op); err != nil {
		return err
	}
	if job.status.Terminal() {
		return newErr(op, KindState, "job "+job.Id+" already finished with status "+job.status.String())
	}

	if err := s.conn.post(ctx, op, job.InstanceCRN, jobPath(job.Id)+"/cancel", nil, nil); err != nil {
		return err
	}

	s.opts.log.WithFields(logrus.Fields{"job": job.Id}).Info("job cancel requested")
	return nil
}
