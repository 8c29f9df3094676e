package agents

import (
	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

// InProcessHost resolves agent names to direct Go implementations
// registered at construction time — no network hop, no serialization.
type InProcessHost struct {
	agents map[string]Agent
}

// NewInProcessHost builds a host over the given agents, keyed by their
// own Name(). Callers typically pass the fixed nine builtin agents.
func NewInProcessHost(agentList ...Agent) *InProcessHost {
	h := &InProcessHost{agents: make(map[string]Agent, len(agentList))}
	for _, a := range agentList {
		h.agents[a.Name()] = a
	}
	return h
}

// Resolve returns the registered in-process agent for name. mode is
// accepted for interface symmetry with Host but must be ModeInProcess;
// a caller that needs remote dispatch should use RemoteHost instead.
func (h *InProcessHost) Resolve(name string, mode pipeline.Mode) (Agent, error) {
	a, ok := h.agents[name]
	if !ok {
		return nil, errUnknownAgent(name)
	}
	return a, nil
}
