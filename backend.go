package qiskit_runtime_go

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// Backend represents a backend available to be used.
// It is one row of a CatalogSnapshot and never changes after the search that produced it.
type Backend struct {
	Name         string
	InstanceName string
	InstanceCRN  string
	// QueueLength is the number of jobs pending on the backend when it was listed
	QueueLength int
	Status      string
	Qubits      int
}

// Online reports whether the platform listed the backend as accepting jobs
func (b Backend) Online() bool {
	switch strings.ToLower(b.Status) {
	case "online", "active", "":
		return true
	}
	return false
}

// CatalogSnapshot is an ordered, point-in-time listing of the backends
// visible to a Session. Names are unique within a snapshot.
type CatalogSnapshot struct {
	backends []Backend
}

// NewCatalogSnapshot builds a snapshot from already known backends, keeping
// the first occurrence of any repeated name
func NewCatalogSnapshot(backends []Backend) *CatalogSnapshot {
	seen := make(map[string]struct{}, len(backends))
	out := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if _, dup := seen[b.Name]; dup {
			continue
		}
		seen[b.Name] = struct{}{}
		out = append(out, b)
	}
	return &CatalogSnapshot{backends: out}
}

// Len returns the number of backends in the snapshot
func (cs *CatalogSnapshot) Len() int {
	if cs == nil {
		return 0
	}
	return len(cs.backends)
}

// At returns the i-th backend in catalog order. It panics if i is out of range.
func (cs *CatalogSnapshot) At(i int) Backend {
	return cs.backends[i]
}

// Backends returns a copy of the snapshot rows
func (cs *CatalogSnapshot) Backends() []Backend {
	out := make([]Backend, cs.Len())
	if cs != nil {
		copy(out, cs.backends)
	}
	return out
}

// Lookup finds a backend by name
func (cs *CatalogSnapshot) Lookup(name string) (Backend, bool) {
	for i := 0; i < cs.Len(); i++ {
		if cs.backends[i].Name == name {
			return cs.backends[i], true
		}
	}
	return Backend{}, false
}

// Online returns the backends currently accepting jobs as a new snapshot
func (cs *CatalogSnapshot) Online() *CatalogSnapshot {
	var out []Backend
	for i := 0; i < cs.Len(); i++ {
		if cs.backends[i].Online() {
			out = append(out, cs.backends[i])
		}
	}
	return &CatalogSnapshot{backends: out}
}

// LeastBusy is shorthand for SelectLeastBusy(cs)
func (cs *CatalogSnapshot) LeastBusy() (Backend, bool) {
	return SelectLeastBusy(cs)
}

// SelectLeastBusy returns the backend with the fewest queued jobs. Ties go to
// the backend listed first. It does no I/O and reports false for an empty
// snapshot.
func SelectLeastBusy(cs *CatalogSnapshot) (Backend, bool) {
	if cs.Len() == 0 {
		return Backend{}, false
	}

	best := 0
	for i := 1; i < len(cs.backends); i++ {
		if cs.backends[i].QueueLength < cs.backends[best].QueueLength {
			best = i
		}
	}
	return cs.backends[best], true
}

type backendsResp struct {
	Devices []struct {
		Name   string `json:"name"`
		Status struct {
			Name   string `json:"name"`
			Reason string `json:"reason,omitempty"`
		} `json:"status"`
		QueueLength int `json:"queue_length"`
		Qubits      int `json:"qubits"`
	} `json:"devices"`
}

// Search lists the backends reachable through every instance of the session.
// If any request fails the whole search fails, so a returned snapshot is
// always complete.
func (s *Session) Search(ctx context.Context) (*CatalogSnapshot, error) {
	const op = "backend_search"
	if err := s.check(op); err != nil {
		return nil, err
	}

	var all []Backend
	for _, in := range s.instances {
		var r backendsResp
		if err := s.conn.get(ctx, op, in.CRN, "backends", &r); err != nil {
			return nil, err
		}

		for _, d := range r.Devices {
			all = append(all, Backend{
				Name:         d.Name,
				InstanceName: in.Name,
				InstanceCRN:  in.CRN,
				QueueLength:  d.QueueLength,
				Status:       d.Status.Name,
				Qubits:       d.Qubits,
			})
		}
	}

	snapshot := NewCatalogSnapshot(all)
	s.opts.log.WithFields(logrus.Fields{"instances": len(s.instances), "backends": snapshot.Len()}).Debug("backend search done")
	return snapshot, nil
}
