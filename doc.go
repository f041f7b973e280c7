// Package qiskit_runtime_go is a client for the IBM Quantum Platform runtime API.
//
// A Session authenticates once and is then used to list backends, submit
// sampler jobs, follow them to completion and download their samples:
//
//	s, err := qiskit_runtime_go.NewSession(ctx, qiskit_runtime_go.Credentials{ApiKey: key})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	catalog, err := s.Search(ctx)
//	backend, ok := catalog.LeastBusy()
//	job, err := s.SubmitSamplerJob(ctx, backend, qpy, 1024)
//	status, err := s.WaitUntilTerminal(ctx, job, qiskit_runtime_go.DefaultPollInterval, 10*time.Minute)
//	samples, err := s.FetchResults(ctx, job)
//
// Circuits are passed as QPY bytes that are already native to the chosen
// backend; building and transpiling them is left to other tools, which can
// use FetchTarget to learn the backend's topology and gate set.
//
// Every error is an *Error carrying a Kind. Code maps any error onto a
// stable integer status.
package qiskit_runtime_go
