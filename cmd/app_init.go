package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/address-classifier/internal/config"
	"github.com/sells-group/address-classifier/internal/decision"
	"github.com/sells-group/address-classifier/internal/pipeline"
	"github.com/sells-group/address-classifier/internal/placectx"
	"github.com/sells-group/address-classifier/internal/store"
	anthropicpkg "github.com/sells-group/address-classifier/pkg/anthropic"
	"github.com/sells-group/address-classifier/pkg/google"
)

// classifierEnv holds the classifier and the resources behind it for the
// classify, context, batch, and serve commands.
type classifierEnv struct {
	Classifier *pipeline.Classifier
	Store      store.Store // nil when store.driver is none
}

// Close releases resources held by the environment.
func (e *classifierEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initClassifier validates cfg for mode and wires the provider clients,
// policy, store, and classifier. Callers should defer env.Close().
func initClassifier(ctx context.Context, mode config.Mode) (*classifierEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	policy := decision.DefaultPolicy()
	if cfg.Policy.Path != "" {
		p, err := decision.LoadPolicy(cfg.Policy.Path)
		if err != nil {
			return nil, err
		}
		policy = p
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	places := google.NewClient(cfg.Google.Key,
		google.WithBaseURL(cfg.Google.BaseURL),
		google.WithTimeout(cfg.Google.Timeout()),
	)
	builder := placectx.NewBuilder(places,
		placectx.WithRadius(cfg.Google.RadiusM),
		placectx.WithMaxNearby(cfg.Google.MaxNearby),
		placectx.WithAltNameScan(cfg.Google.AltNameScan),
		placectx.WithStepTimeout(cfg.Google.Timeout()),
	)

	var aiOpts []anthropicpkg.ClientOption
	if cfg.Anthropic.BaseURL != "" {
		aiOpts = append(aiOpts, anthropicpkg.WithBaseURL(cfg.Anthropic.BaseURL))
	}
	if cfg.Anthropic.TimeoutSecs > 0 {
		aiOpts = append(aiOpts, anthropicpkg.WithRequestTimeout(cfg.Anthropic.Timeout()))
	}
	engine := decision.NewEngine(anthropicpkg.NewClient(cfg.Anthropic.Key, aiOpts...), policy,
		decision.WithModel(cfg.Anthropic.Model),
		decision.WithMaxTokens(cfg.Anthropic.MaxTokens),
	)

	opts := []pipeline.Option{pipeline.WithPolicyVersion(policy.Version)}
	if st != nil {
		opts = append(opts, pipeline.WithStore(st))
	}

	zap.L().Debug("classifier initialized",
		zap.String("mode", string(mode)),
		zap.String("policy_version", policy.Version),
		zap.String("store_driver", cfg.Store.Driver),
		zap.Int("radius_m", cfg.Google.RadiusM),
	)

	return &classifierEnv{
		Classifier: pipeline.NewClassifier(builder, engine, opts...),
		Store:      st,
	}, nil
}

// initStore opens and migrates the configured history store. It returns a
// nil Store when the driver is none.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "", config.DriverNone:
		return nil, nil
	case config.DriverSQLite:
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case config.DriverPostgres:
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.PoolConfig())
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
