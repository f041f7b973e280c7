package qiskit_runtime_go

import (
	"bytes"
	"encoding/base64"
	"io"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zlib"
)

// samplerVersion is the sampler primitive interface version the payload targets
const samplerVersion = 2

type encodedCircuit struct {
	Type  string `json:"__type__"`
	Value string `json:"__value__"`
}

// samplerPub is one primitive unified bloc. Only static circuits are sent,
// so a pub is the one-element tuple (circuit,).
type samplerPub struct {
	Circuit encodedCircuit
}

func (p samplerPub) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{p.Circuit})
}

type samplerParams struct {
	Pubs    []samplerPub `json:"pubs"`
	Shots   int          `json:"shots"`
	Version int          `json:"version"`
}

type samplerJobReq struct {
	ProgramId string        `json:"program_id"`
	Backend   string        `json:"backend"`
	Runtime   string        `json:"runtime,omitempty"`
	Tags      []string      `json:"tags,omitempty"`
	LogLevel  string        `json:"log_level,omitempty"`
	SessionId string        `json:"session_id,omitempty"`
	Private   *bool         `json:"private,omitempty"`
	Params    samplerParams `json:"params"`
	Version   int           `json:"version"`
}

// encodeCircuit zlib-compresses a QPY payload and base64 encodes it the way
// the runtime decoder expects a QuantumCircuit value.
func encodeCircuit(qpy []byte) (encodedCircuit, error) {
	var b bytes.Buffer
	w := zlib.NewWriter(&b)
	if _, err := w.Write(qpy); err != nil {
		return encodedCircuit{}, err
	}
	if err := w.Close(); err != nil {
		return encodedCircuit{}, err
	}

	return encodedCircuit{
		Type:  "QuantumCircuit",
		Value: base64.StdEncoding.EncodeToString(b.Bytes()),
	}, nil
}

// newSamplerJobReq validates shots and builds the job creation body.
// It never touches the network.
func newSamplerJobReq(op, backend string, qpy []byte, shots int, opts jobOptions) (*samplerJobReq, error) {
	if shots <= 0 {
		return nil, newErr(op, KindValidation, "shots must be a positive integer")
	}

	circuit, err := encodeCircuit(qpy)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindValidation, Msg: "could not compress circuit", Err: err}
	}

	return &samplerJobReq{
		ProgramId: opts.programId,
		Backend:   backend,
		Runtime:   opts.runtime,
		Tags:      opts.tags,
		LogLevel:  opts.logLevel,
		SessionId: opts.sessionId,
		Private:   opts.private,
		Params: samplerParams{
			Pubs:    []samplerPub{{Circuit: circuit}},
			Shots:   shots,
			Version: samplerVersion,
		},
		Version: samplerVersion,
	}, nil
}

// WriteSamplerPayload writes the indented JSON job creation body that
// SubmitSamplerJob would send, for inspection or submission by other tools.
func WriteSamplerPayload(w io.Writer, backend string, qpy []byte, shots int, options ...JobOption) error {
	const op = "sampler_payload_write"

	req, err := newSamplerJobReq(op, backend, qpy, shots, newJobOptions(options))
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return &Error{Op: op, Kind: KindValidation, Msg: "could not encode payload", Err: err}
	}
	b = append(b, '\n')

	if _, err := w.Write(b); err != nil {
		return wrapErr(op, KindUnhandled, ServiceLocal, err)
	}
	return nil
}
