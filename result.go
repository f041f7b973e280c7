package qiskit_runtime_go

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// SampleSet is the decoded output of a sampler job: one bitstring per shot,
// in shot order. Character i from the right of a bitstring is classical
// bit i, so "110" means bit 0 read 0 and bits 1 and 2 read 1.
type SampleSet struct {
	samples []string
	numBits int
}

// Len returns the number of shots
func (ss *SampleSet) Len() int { return len(ss.samples) }

// At returns the bitstring measured in shot i. It panics if i is out of range.
func (ss *SampleSet) At(i int) string { return ss.samples[i] }

// NumBits is the width of every bitstring
func (ss *SampleSet) NumBits() int { return ss.numBits }

// Samples returns a copy of every bitstring in shot order
func (ss *SampleSet) Samples() []string {
	out := make([]string, len(ss.samples))
	copy(out, ss.samples)
	return out
}

// Counts returns how many shots produced each bitstring
func (ss *SampleSet) Counts() map[string]int {
	counts := make(map[string]int)
	for _, s := range ss.samples {
		counts[s]++
	}
	return counts
}

type samplerResultResp struct {
	Results []struct {
		Data json.RawMessage `json:"data"`
	} `json:"results"`
}

// register is one classical register of a pub result
type register struct {
	name    string
	Samples []string `json:"samples"`
	NumBits int      `json:"num_bits"`
}

// FetchResults downloads and decodes the samples of a job whose last
// observed status is DONE. Any other status is a KindState error and no
// request is made; it never polls on the caller's behalf.
func (s *Session) FetchResults(ctx context.Context, job *Job) (*SampleSet, error) {
	const op = "job_results"
	if err := s.check(op); err != nil {
		return nil, err
	}
	if job.status != StatusDone {
		return nil, newErr(op, KindState, fmt.Sprintf("job %s is %s, results are only available once it is DONE", job.Id, job.status))
	}

	var r samplerResultResp
	if err := s.conn.get(ctx, op, job.InstanceCRN, jobPath(job.Id)+"/results", &r); err != nil {
		return nil, err
	}

	if len(r.Results) == 0 {
		return nil, &Error{Op: op, Kind: KindUnhandled, Service: ServiceQuantum, Msg: "result payload has no pub results"}
	}
	if len(r.Results) > 1 {
		s.opts.log.WithFields(logrus.Fields{"job": job.Id, "pubs": len(r.Results)}).Warn("result has more than one pub, decoding the first")
	}

	ss, err := decodeSamples(r.Results[0].Data)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindUnhandled, Service: ServiceQuantum, Msg: "could not decode samples", Err: err}
	}

	if job.Shots > 0 && ss.Len() != job.Shots {
		s.opts.log.WithFields(logrus.Fields{"job": job.Id, "shots": job.Shots, "samples": ss.Len()}).Warn("sample count differs from requested shots")
	}
	return ss, nil
}

// decodeSamples turns a pub's data bin into per-shot bitstrings. Registers
// are joined with the first declared register rightmost so that character
// positions follow the circuit's global classical bit indices.
func decodeSamples(data []byte) (*SampleSet, error) {
	regs, err := decodeRegisters(data)
	if err != nil {
		return nil, err
	}
	if len(regs) == 0 {
		return nil, fmt.Errorf("data bin has no classical registers")
	}

	shots := len(regs[0].Samples)
	numBits := 0
	for _, reg := range regs {
		if len(reg.Samples) != shots {
			return nil, fmt.Errorf("register %q has %d samples, register %q has %d", reg.name, len(reg.Samples), regs[0].name, shots)
		}
		if reg.NumBits < 0 {
			return nil, fmt.Errorf("register %q has negative num_bits %d", reg.name, reg.NumBits)
		}
		numBits += reg.NumBits
	}

	samples := make([]string, shots)
	var b strings.Builder
	for i := 0; i < shots; i++ {
		b.Reset()
		for r := len(regs) - 1; r >= 0; r-- {
			bits, err := hexToBits(regs[r].Samples[i], regs[r].NumBits)
			if err != nil {
				return nil, fmt.Errorf("register %q shot %d: %w", regs[r].name, i, err)
			}
			b.WriteString(bits)
		}
		samples[i] = b.String()
	}

	return &SampleSet{samples: samples, numBits: numBits}, nil
}

// decodeRegisters reads the data bin object keeping its key order, which is
// the circuit's register declaration order.
func decodeRegisters(data []byte) ([]register, error) {
	dec := stdjson.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(stdjson.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("data bin is not an object")
	}

	var regs []register
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v in data bin", tok)
		}

		var reg register
		if err := dec.Decode(&reg); err != nil {
			return nil, fmt.Errorf("register %q: %w", name, err)
		}
		reg.name = name
		regs = append(regs, reg)
	}
	return regs, nil
}

// hexToBits renders a 0x-prefixed hex sample as a numBits wide bitstring,
// most significant bit first.
func hexToBits(hex string, numBits int) (string, error) {
	if numBits < 0 {
		return "", fmt.Errorf("negative register width %d", numBits)
	}
	digits := strings.TrimPrefix(strings.TrimPrefix(hex, "0x"), "0X")
	if digits == "" {
		return "", fmt.Errorf("empty sample %q", hex)
	}

	bits := make([]byte, 0, len(digits)*4)
	for _, c := range digits {
		var v byte
		switch {
		case c >= '0' && c <= '9':
			v = byte(c - '0')
		case c >= 'a' && c <= 'f':
			v = byte(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v = byte(c-'A') + 10
		default:
			return "", fmt.Errorf("invalid hex sample %q", hex)
		}
		for shift := 3; shift >= 0; shift-- {
			bits = append(bits, '0'+(v>>uint(shift))&1)
		}
	}

	if len(bits) > numBits {
		extra := bits[:len(bits)-numBits]
		if bytes.IndexByte(extra, '1') >= 0 {
			return "", fmt.Errorf("sample %q does not fit in %d bits", hex, numBits)
		}
		return string(bits[len(bits)-numBits:]), nil
	}
	return strings.Repeat("0", numBits-len(bits)) + string(bits), nil
}
