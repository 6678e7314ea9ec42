package platform

import (
	"context"
	"log/slog"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi/sandbox"
)

// sandboxSpec describes one platform whose vendor has no public REST surface
// the layer can call. Its adapter runs entirely on the deterministic sandbox
// service; the credential subset still mirrors what the real venue asks for.
type sandboxSpec struct {
	id       ID
	broker   string
	features []Feature
	// required maps credential field names to their values; empty values
	// fail validation before any work happens.
	required func(domain.Credentials) map[string]string
	// identity picks the value that seeds the sandbox data.
	identity func(domain.Credentials) string
}

func loginPassword(c domain.Credentials) map[string]string {
	return map[string]string{"login": c.Login, "password": c.Password}
}

func usernamePassword(c domain.Credentials) map[string]string {
	return map[string]string{"username": c.Username, "password": c.Password}
}

var sandboxSpecs = map[ID]sandboxSpec{
	TradingView: {
		id: TradingView, broker: "TradingView",
		features: []Feature{FeatureAccounts, FeatureTrades, FeatureSync},
		required: usernamePassword,
		identity: func(c domain.Credentials) string { return c.Username },
	},
	Thinkorswim: {
		id: Thinkorswim, broker: "Charles Schwab",
		features: []Feature{FeatureAccounts, FeatureTrades, FeatureSync},
		required: usernamePassword,
		identity: func(c domain.Credentials) string { return c.Username },
	},
	NinjaTrader: {
		id: NinjaTrader, broker: "NinjaTrader",
		features: []Feature{FeatureAccounts, FeatureTrades, FeatureSync},
		required: loginPassword,
		identity: func(c domain.Credentials) string { return c.Login },
	},
	Rithmic: {
		id: Rithmic, broker: "Rithmic",
		features: []Feature{FeatureAccounts, FeatureTrades, FeatureSync},
		required: func(c domain.Credentials) map[string]string {
			return map[string]string{"login": c.Login, "password": c.Password, "server": c.Server}
		},
		identity: func(c domain.Credentials) string { return c.Login },
	},
	SierraChart: {
		id: SierraChart, broker: "Sierra Chart",
		features: []Feature{FeatureAccounts, FeatureTrades, FeatureSync},
		required: loginPassword,
		identity: func(c domain.Credentials) string { return c.Login },
	},
	DXfeed: {
		id: DXfeed, broker: "dxFeed",
		features: []Feature{FeatureAccounts, FeatureTrades},
		required: func(c domain.Credentials) map[string]string {
			return map[string]string{"apiKey": c.APIKey}
		},
		identity: func(c domain.Credentials) string { return c.APIKey },
	},
	MatchTrader: {
		id: MatchTrader, broker: "Match-Trade",
		features: []Feature{FeatureAccounts, FeatureTrades, FeatureSync},
		required: loginPassword,
		identity: func(c domain.Credentials) string { return c.Login },
	},
	InteractiveBrokers: {
		id: InteractiveBrokers, broker: "Interactive Brokers",
		features: []Feature{FeatureAccounts, FeatureTrades, FeatureSync},
		required: usernamePassword,
		identity: func(c domain.Credentials) string { return c.Username },
	},
}

// sandboxAdapter implements Adapter over the deterministic sandbox service.
type sandboxAdapter struct {
	session
	spec sandboxSpec
	svc  *sandbox.Service
	log  *slog.Logger
}

var (
	_ Adapter         = (*sandboxAdapter)(nil)
	_ StateReporter   = (*sandboxAdapter)(nil)
	_ FeatureReporter = (*sandboxAdapter)(nil)
)

func newSandboxAdapter(spec sandboxSpec) *sandboxAdapter {
	return &sandboxAdapter{
		spec: spec,
		svc:  sandbox.New(string(spec.id), spec.broker),
		log:  slog.Default().With("adapter", string(spec.id)),
	}
}

func (a *sandboxAdapter) Name() string { return string(a.spec.id) }

func (a *sandboxAdapter) Connect(_ context.Context, creds domain.Credentials) error {
	return runConnect(&a.session, a.Name(), creds,
		func() error { return requireFields(a.Name(), a.spec.required(creds)) },
		func() error {
			a.log.Debug("session opened", "identity", a.spec.identity(creds))
			return nil
		})
}

func (a *sandboxAdapter) FetchAccounts(_ context.Context) ([]domain.TradingAccount, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}
	return a.svc.Accounts(a.spec.identity(a.credentials())), nil
}

func (a *sandboxAdapter) FetchTrades(_ context.Context, accountID string) ([]domain.Trade, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}
	return a.svc.Trades(accountID), nil
}

func (a *sandboxAdapter) SyncAccount(ctx context.Context, accountID string) (*AccountSnapshot, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}
	return syncSnapshot(ctx, a, accountID)
}

func (a *sandboxAdapter) Disconnect(_ context.Context, _ string) error {
	a.reset()
	return nil
}

func (a *sandboxAdapter) SupportedFeatures() []Feature {
	out := make([]Feature, len(a.spec.features))
	copy(out, a.spec.features)
	return out
}
