package qiskit_runtime_go

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexToBits(t *testing.T) {
	testCases := []struct {
		name    string
		hex     string
		numBits int
		want    string
		wantErr bool
	}{
		{"zero", "0x0", 1, "0", false},
		{"one", "0x1", 1, "1", false},
		{"padded", "0x5", 5, "00101", false},
		{"exact", "0x5", 3, "101", false},
		{"upper case", "0XFF", 8, "11111111", false},
		{"wide", "0x8" + strings.Repeat("0", 24), 100, "1" + strings.Repeat("0", 99), false},
		{"overflow", "0x1f", 4, "", true},
		{"overflow by one bit", "0x3", 1, "", true},
		{"empty", "0x", 2, "", true},
		{"not hex", "0xg1", 8, "", true},
		{"negative width", "0x1", -1, "", true},
		{"negative width, long sample", "0x1f", -3, "", true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := hexToBits(testCase.hex, testCase.numBits)
			if testCase.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.want, got)
			assert.Len(t, got, testCase.numBits)
		})
	}
}

func TestDecodeSamples_Registers(t *testing.T) {
	data := `{"alpha":{"samples":["0x1","0x0"],"num_bits":1},"beta":{"samples":["0x2","0x1"],"num_bits":2}}`

	ss, err := decodeSamples([]byte(data))
	require.NoError(t, err)

	// alpha was declared first so it holds bit 0, the rightmost character
	assert.Equal(t, []string{"101", "010"}, ss.Samples())
	assert.Equal(t, 3, ss.NumBits())

	t.Run("mismatched shots", func(t *testing.T) {
		_, err := decodeSamples([]byte(`{"a":{"samples":["0x1"],"num_bits":1},"b":{"samples":[],"num_bits":1}}`))
		assert.Error(t, err)
	})

	t.Run("no registers", func(t *testing.T) {
		_, err := decodeSamples([]byte(`{}`))
		assert.Error(t, err)
	})

	t.Run("negative num_bits", func(t *testing.T) {
		_, err := decodeSamples([]byte(`{"c":{"samples":["0x1"],"num_bits":-1}}`))
		assert.Error(t, err)
	})

	t.Run("not an object", func(t *testing.T) {
		_, err := decodeSamples([]byte(`[1,2]`))
		assert.Error(t, err)
	})
}

const bellResults = `{
	"results": [{
		"data": {"meas": {"samples": ["0x0", "0x3", "0x3", "0x0", "0x1", "0x3", "0x0", "0x0", "0x2", "0x3"], "num_bits": 2}},
		"metadata": {"circuit_metadata": {}}
	}],
	"metadata": {"version": 2}
}`

func TestSession_FetchResults(t *testing.T) {
	f := newFakePlatform(t)
	s := f.session(t)
	f.addJob("job-r", &fakeJob{backend: "ibm_kyiv", statuses: []string{"Completed"}, results: bellResults})

	job := &Job{Id: "job-r", InstanceCRN: f.instances[0].CRN, Shots: 10, status: StatusDone}
	ss, err := s.FetchResults(context.Background(), job)
	require.NoError(t, err)

	require.Equal(t, 10, ss.Len())
	assert.Equal(t, []string{"00", "11", "11", "00", "01", "11", "00", "00", "10", "11"}, ss.Samples())
	assert.Equal(t, "01", ss.At(4))
	assert.Equal(t, map[string]int{"00": 4, "11": 4, "01": 1, "10": 1}, ss.Counts())
}

func TestSession_FetchResults_Not_Done(t *testing.T) {
	f := newFakePlatform(t)
	s := f.session(t)
	f.addJob("job-q", &fakeJob{statuses: []string{"Queued"}, results: bellResults})

	for _, st := range []Status{StatusQueued, StatusRunning, StatusError, StatusCancelled} {
		job := &Job{Id: "job-q", InstanceCRN: f.instances[0].CRN, status: st}
		ss, err := s.FetchResults(context.Background(), job)
		assert.Nil(t, ss)
		assert.True(t, IsKind(err, KindState), "%s: got %v", st, err)
		assert.Equal(t, CodeState, Code(err))
	}
	assert.Equal(t, 0, f.hitCount("GET /api/v1/jobs/job-q/results"))
}

func TestSession_FetchResults_Malformed(t *testing.T) {
	f := newFakePlatform(t)
	s := f.session(t)
	f.addJob("job-empty", &fakeJob{statuses: []string{"Completed"}, results: `{"results":[]}`})
	f.addJob("job-bad", &fakeJob{statuses: []string{"Completed"}, results: `{"results":[{"data":{"c":{"samples":["0x7"],"num_bits":2}}}]}`})

	for _, id := range []string{"job-empty", "job-bad"} {
		job := &Job{Id: id, InstanceCRN: f.instances[0].CRN, status: StatusDone}
		_, err := s.FetchResults(context.Background(), job)
		assert.True(t, IsKind(err, KindUnhandled), "%s: got %v", id, err)
	}
}
