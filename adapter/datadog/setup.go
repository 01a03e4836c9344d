package datadog

import (
	"github.com/trickstertwo/ddlog"
)

// Use builds a Datadog-backed logger from cfg, tees it with any local
// adapters, wires it as the global ddlog logger and returns both. With
// cfg.ForwardResults the logger itself receives ResultEvent.
func Use(cfg Config, local ...ddlog.Adapter) (*ddlog.Logger, *Adapter, error) {
	ad, err := New(cfg)
	if err != nil {
		return nil, nil, err
	}

	var backend ddlog.Adapter = ad
	if len(local) > 0 {
		backend = ddlog.Tee(append([]ddlog.Adapter{ad}, local...)...)
	}

	logger, err := ddlog.NewBuilder().
		WithAdapter(backend).
		WithMinLevel(cfg.MinLevel).
		Build()
	if err != nil {
		return nil, nil, err
	}

	if cfg.ForwardResults {
		if err := ad.EnableResultForwarding(logger); err != nil {
			return nil, nil, err
		}
	}

	ddlog.SetGlobal(logger)
	return logger, ad, nil
}
