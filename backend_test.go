package qiskit_runtime_go

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `{
	"backend_name": "ibm_kyiv",
	"n_qubits": 3,
	"basis_gates": ["ecr", "id", "rz", "sx", "x"],
	"coupling_map": [[0, 1], [1, 2]],
	"max_shots": 100000,
	"simulator": false
}`

const testProps = `{
	"last_update_date": "2025-06-01T09:00:00Z",
	"qubits": [
		[{"name": "T1", "unit": "us", "value": 250.5}, {"name": "T2", "unit": "us", "value": 120.1}, {"name": "frequency", "unit": "GHz", "value": 4.9}, {"name": "readout_error", "value": 0.012}],
		[{"name": "T1", "unit": "us", "value": 300}],
		[]
	],
	"gates": [
		{"gate": "ecr", "qubits": [0, 1], "parameters": [{"name": "gate_error", "value": 0.007}, {"name": "gate_length", "unit": "ns", "value": 660}]},
		{"gate": "sx", "qubits": [2], "parameters": [{"name": "gate_error", "value": 0.0002}]}
	]
}`

func TestSession_Search(t *testing.T) {
	f := newFakePlatform(t)
	f.with(func() {
		f.instances = append(f.instances, Instance{CRN: "crn:b", Name: "premium-b"})

		offline := device("ibm_offline", 0)
		offline.Status.Name = "maintenance"
		f.devices[f.instances[0].CRN] = []fakeDevice{device("ibm_kyiv", 12), offline}
		// the same device can be reachable through more than one instance
		f.devices["crn:b"] = []fakeDevice{device("ibm_kyiv", 12), device("ibm_brisbane", 3)}
	})
	s := f.session(t)

	catalog, err := s.Search(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, catalog.Len())

	assert.Equal(t, Backend{
		Name:         "ibm_kyiv",
		InstanceName: "open-a",
		InstanceCRN:  f.instances[0].CRN,
		QueueLength:  12,
		Status:       "online",
		Qubits:       127,
	}, catalog.At(0))
	assert.Equal(t, "ibm_offline", catalog.At(1).Name)
	assert.Equal(t, "ibm_brisbane", catalog.At(2).Name)
	assert.Equal(t, "crn:b", catalog.At(2).InstanceCRN)

	t.Run("online", func(t *testing.T) {
		online := catalog.Online()
		assert.Equal(t, 2, online.Len())
		_, ok := online.Lookup("ibm_offline")
		assert.False(t, ok)
	})

	t.Run("lookup", func(t *testing.T) {
		b, ok := catalog.Lookup("ibm_brisbane")
		require.True(t, ok)
		assert.Equal(t, 3, b.QueueLength)

		_, ok = catalog.Lookup("ibm_nowhere")
		assert.False(t, ok)
	})

	t.Run("least busy", func(t *testing.T) {
		b, ok := catalog.LeastBusy()
		require.True(t, ok)
		assert.Equal(t, "ibm_offline", b.Name)

		b, ok = catalog.Online().LeastBusy()
		require.True(t, ok)
		assert.Equal(t, "ibm_brisbane", b.Name)
	})
}

func TestSession_Search_Empty(t *testing.T) {
	f := newFakePlatform(t)
	s := f.session(t)

	catalog, err := s.Search(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, catalog.Len())

	_, ok := catalog.LeastBusy()
	assert.False(t, ok)
}

func TestSession_Search_Instance_Failure(t *testing.T) {
	f := newFakePlatform(t)
	f.with(func() {
		f.instances = append(f.instances, Instance{CRN: "crn:b", Name: "premium-b"})
		f.devices[f.instances[0].CRN] = []fakeDevice{device("ibm_kyiv", 1)}
		f.failCRN = "crn:b"
	})
	s := f.session(t)

	catalog, err := s.Search(context.Background())
	assert.Nil(t, catalog)
	assert.True(t, IsKind(err, KindNetwork), "got %v", err)
}

func TestSelectLeastBusy(t *testing.T) {
	testCases := []struct {
		name     string
		backends []Backend
		want     string
		ok       bool
	}{
		{"empty", nil, "", false},
		{"single", []Backend{{Name: "a", QueueLength: 40}}, "a", true},
		{"minimum", []Backend{{Name: "a", QueueLength: 5}, {Name: "b", QueueLength: 2}, {Name: "c", QueueLength: 9}}, "b", true},
		{"tie goes to first", []Backend{{Name: "a", QueueLength: 7}, {Name: "b", QueueLength: 3}, {Name: "c", QueueLength: 3}}, "b", true},
		{"all zero", []Backend{{Name: "a"}, {Name: "b"}}, "a", true},
		{"duplicate name keeps first row", []Backend{{Name: "a", QueueLength: 9}, {Name: "a", QueueLength: 0}, {Name: "b", QueueLength: 4}}, "b", true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			cs := NewCatalogSnapshot(testCase.backends)

			b, ok := SelectLeastBusy(cs)
			assert.Equal(t, testCase.ok, ok)
			assert.Equal(t, testCase.want, b.Name)

			for i := 0; i < cs.Len(); i++ {
				assert.LessOrEqual(t, b.QueueLength, cs.At(i).QueueLength)
			}

			again, _ := SelectLeastBusy(cs)
			assert.Equal(t, b, again)
		})
	}

	t.Run("nil snapshot", func(t *testing.T) {
		_, ok := SelectLeastBusy(nil)
		assert.False(t, ok)
	})
}

func TestBackend_Online(t *testing.T) {
	assert.True(t, Backend{Status: "online"}.Online())
	assert.True(t, Backend{Status: "Active"}.Online())
	assert.True(t, Backend{}.Online())
	assert.False(t, Backend{Status: "paused"}.Online())
	assert.False(t, Backend{Status: "offline"}.Online())
}

func TestSession_FetchTarget(t *testing.T) {
	f := newFakePlatform(t)
	f.with(func() {
		f.configs["ibm_kyiv"] = testConfig
		f.props["ibm_kyiv"] = testProps
	})
	s := f.session(t)
	b := Backend{Name: "ibm_kyiv", InstanceCRN: f.instances[0].CRN}

	target, err := s.FetchTarget(context.Background(), b)
	require.NoError(t, err)

	assert.Equal(t, "ibm_kyiv", target.Backend)
	assert.Equal(t, 3, target.NumQubits)
	assert.Equal(t, []string{"ecr", "id", "rz", "sx", "x"}, target.BasisGates)
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, target.CouplingMap)
	assert.Equal(t, 100000, target.MaxShots)
	assert.False(t, target.Simulator)
	assert.Equal(t, "2025-06-01T09:00:00Z", target.LastUpdate)

	require.Len(t, target.Qubits, 3)
	assert.Equal(t, QubitProperties{T1: 250.5, T2: 120.1, Frequency: 4.9, ReadoutError: 0.012}, target.Qubits[0])
	assert.Equal(t, 300.0, target.Qubits[1].T1)
	assert.Equal(t, QubitProperties{}, target.Qubits[2])

	require.Len(t, target.Gates, 2)
	assert.Equal(t, GateProperties{Gate: "ecr", Qubits: []int{0, 1}, Error: 0.007, Length: 660}, target.Gates[0])
	assert.Equal(t, 0.0002, target.Gates[1].Error)

	assert.Equal(t, 1, f.hitCount("GET /api/v1/backends/ibm_kyiv/configuration"))
	assert.Equal(t, 1, f.hitCount("GET /api/v1/backends/ibm_kyiv/properties"))
}

func TestSession_FetchTarget_Without_Calibration(t *testing.T) {
	f := newFakePlatform(t)
	f.with(func() {
		f.configs["ibm_new"] = `{"backend_name":"ibm_new","n_qubits":2,"basis_gates":["cz"],"coupling_map":[[0,1]]}`
		f.configs["sim"] = `{"backend_name":"sim","n_qubits":32,"basis_gates":["u","cx"],"simulator":true}`
	})
	s := f.session(t)
	crn := f.instances[0].CRN

	t.Run("properties not published", func(t *testing.T) {
		target, err := s.FetchTarget(context.Background(), Backend{Name: "ibm_new", InstanceCRN: crn})
		require.NoError(t, err)
		assert.Equal(t, 2, target.NumQubits)
		assert.Empty(t, target.Qubits)
	})

	t.Run("simulator", func(t *testing.T) {
		target, err := s.FetchTarget(context.Background(), Backend{Name: "sim", InstanceCRN: crn})
		require.NoError(t, err)
		assert.True(t, target.Simulator)
		assert.Nil(t, target.CouplingMap)
		assert.Equal(t, 0, f.hitCount("GET /api/v1/backends/sim/properties"))
	})
}

func TestSession_FetchTarget_Errors(t *testing.T) {
	f := newFakePlatform(t)
	f.with(func() {
		f.configs["bent"] = `{"backend_name":"bent","n_qubits":3,"coupling_map":[[0,1,2]]}`
	})
	s := f.session(t)
	crn := f.instances[0].CRN

	t.Run("unknown backend", func(t *testing.T) {
		_, err := s.FetchTarget(context.Background(), Backend{Name: "ibm_nowhere", InstanceCRN: crn})
		assert.True(t, IsKind(err, KindNotFound), "got %v", err)
		assert.Equal(t, int32(104), Code(err))
	})

	t.Run("malformed coupling map", func(t *testing.T) {
		_, err := s.FetchTarget(context.Background(), Backend{Name: "bent", InstanceCRN: crn})
		assert.True(t, IsKind(err, KindUnhandled), "got %v", err)
	})
}
