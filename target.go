package qiskit_runtime_go

import (
	"context"
	"fmt"
	"net/url"
)

// Target is the capability descriptor of one backend: topology, native gate
// set and calibration estimates. It is what a transpiler consumes.
type Target struct {
	Backend     string
	NumQubits   int
	BasisGates  []string
	CouplingMap [][2]int
	MaxShots    int
	Simulator   bool
	// LastUpdate is the calibration date as reported by the platform
	LastUpdate string
	Qubits     []QubitProperties
	Gates      []GateProperties
}

// QubitProperties holds per-qubit calibration in the units the platform reports (us, GHz)
type QubitProperties struct {
	T1           float64
	T2           float64
	Frequency    float64
	ReadoutError float64
}

// GateProperties holds the calibration of one gate on specific qubits
type GateProperties struct {
	Gate   string
	Qubits []int
	Error  float64
	Length float64
}

type backendConfig struct {
	BackendName string   `json:"backend_name"`
	NQubits     int      `json:"n_qubits"`
	BasisGates  []string `json:"basis_gates"`
	CouplingMap [][]int  `json:"coupling_map"`
	MaxShots    int      `json:"max_shots"`
	Simulator   bool     `json:"simulator"`
}

type paramsMeasure struct {
	Date  string  `json:"date,omitempty"`
	Name  string  `json:"name,omitempty"`
	Unit  string  `json:"unit,omitempty"`
	Value float64 `json:"value,omitempty"`
}

type backendProps struct {
	LastUpdateDate string            `json:"last_update_date"`
	Qubits         [][]paramsMeasure `json:"qubits"`
	Gates          []struct {
		Gate       string          `json:"gate"`
		Name       string          `json:"name"`
		Qubits     []int           `json:"qubits"`
		Parameters []paramsMeasure `json:"parameters"`
	} `json:"gates"`
}

// FetchTarget retrieves the configuration and calibration of one backend.
// It is kept apart from Search because targets are large and usually only
// one backend's target is needed.
func (s *Session) FetchTarget(ctx context.Context, b Backend) (*Target, error) {
	const op = "backend_target"
	if err := s.check(op); err != nil {
		return nil, err
	}

	path := "backends/" + url.PathEscape(b.Name)

	var cfg backendConfig
	if err := s.conn.get(ctx, op, b.InstanceCRN, path+"/configuration", &cfg); err != nil {
		return nil, err
	}

	t := &Target{
		Backend:    b.Name,
		NumQubits:  cfg.NQubits,
		BasisGates: cfg.BasisGates,
		MaxShots:   cfg.MaxShots,
		Simulator:  cfg.Simulator,
	}
	for _, edge := range cfg.CouplingMap {
		if len(edge) != 2 {
			return nil, &Error{Op: op, Kind: KindUnhandled, Service: ServiceQuantum, Msg: fmt.Sprintf("malformed coupling map edge %v", edge)}
		}
		t.CouplingMap = append(t.CouplingMap, [2]int{edge[0], edge[1]})
	}

	// Simulators have no calibration to fetch
	if cfg.Simulator {
		return t, nil
	}

	var props backendProps
	err := s.conn.get(ctx, op, b.InstanceCRN, path+"/properties", &props)
	switch {
	case IsKind(err, KindNotFound):
		return t, nil
	case err != nil:
		return nil, err
	}

	t.LastUpdate = props.LastUpdateDate
	t.Qubits = make([]QubitProperties, len(props.Qubits))
	for i, measures := range props.Qubits {
		for _, m := range measures {
			switch m.Name {
			case "T1":
				t.Qubits[i].T1 = m.Value
			case "T2":
				t.Qubits[i].T2 = m.Value
			case "frequency":
				t.Qubits[i].Frequency = m.Value
			case "readout_error":
				t.Qubits[i].ReadoutError = m.Value
			}
		}
	}

	for _, g := range props.Gates {
		gp := GateProperties{Gate: g.Gate, Qubits: g.Qubits}
		for _, p := range g.Parameters {
			switch p.Name {
			case "gate_error":
				gp.Error = p.Value
			case "gate_length":
				gp.Length = p.Value
			}
		}
		t.Gates = append(t.Gates, gp)
	}

	return t, nil
}
