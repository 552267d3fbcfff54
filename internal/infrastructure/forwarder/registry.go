package forwarder

import "github.com/dropship/backend/internal/domain/forwarder"

// NewRegistry builds the dedicated adapters in resolution order and the
// generic fallback. The gateway matches provider names against Name().
func NewRegistry(cfg ClientConfig) ([]forwarder.Adapter, forwarder.Adapter) {
	registry := []forwarder.Adapter{
		NewCPassAdapter(cfg),
		NewElojiAdapter(cfg),
		NewYamatoAdapter(cfg),
	}
	return registry, NewGenericAdapter(cfg)
}
