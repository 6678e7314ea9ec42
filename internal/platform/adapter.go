// Package platform defines the trading-platform adapter contract and its
// fifteen vendor implementations. Adapters normalize each vendor's account
// and trade representations into the domain model behind one lifecycle:
// Connect, FetchAccounts/FetchTrades/SyncAccount, Disconnect.
package platform

import (
	"context"
	"sync"
	"time"

	"brokerlink/internal/domain"
)

// ConnectionState is the adapter lifecycle state.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
)

// Feature names an optional adapter capability.
type Feature string

const (
	FeatureAccounts       Feature = "accounts"
	FeatureTrades         Feature = "trades"
	FeatureSync           Feature = "sync"
	FeatureInvestorAccess Feature = "investorAccess"
)

// AccountSnapshot is the result of a SyncAccount refresh.
type AccountSnapshot struct {
	Account  domain.TradingAccount `json:"account"`
	Trades   []domain.Trade        `json:"trades"`
	SyncedAt time.Time             `json:"syncedAt"`
}

// Adapter is the uniform contract every trading platform implements.
//
// Lifecycle: Disconnected → Connecting → Connected → Disconnected. Data
// operations require Connected and fail with domain.ErrNotConnected
// otherwise. Connect signals every failure through a typed error:
// domain.ValidationError for missing credential fields (raised before any
// network attempt) and domain.VendorError for vendor-side rejection.
type Adapter interface {
	// Name returns the platform identifier, e.g. "tradelocker".
	Name() string

	// Connect validates the credential subset the vendor requires,
	// authenticates, and transitions to Connected.
	Connect(ctx context.Context, creds domain.Credentials) error

	// FetchAccounts maps the vendor's accounts into normalized records.
	// Idempotent; requires Connected.
	FetchAccounts(ctx context.Context) ([]domain.TradingAccount, error)

	// FetchTrades merges the vendor's open positions and trade history for
	// one account into a normalized trade list. Requires Connected.
	FetchTrades(ctx context.Context, accountID string) ([]domain.Trade, error)

	// SyncAccount refreshes account and trade state for one account.
	// Requires Connected.
	SyncAccount(ctx context.Context, accountID string) (*AccountSnapshot, error)

	// Disconnect clears all session state. Safe to call when already
	// disconnected.
	Disconnect(ctx context.Context, accountID string) error
}

// StateReporter is implemented by adapters exposing their lifecycle state.
type StateReporter interface {
	ConnectionState() ConnectionState
}

// FeatureReporter is implemented by adapters advertising their capability
// set.
type FeatureReporter interface {
	SupportedFeatures() []Feature
}

// ---------------------------------------------------------------------------
// Shared session state machine
// ---------------------------------------------------------------------------

// session holds the mutex-guarded connection state every adapter embeds.
// Adapter instances may be shared across goroutines; all lifecycle
// transitions and credential reads go through the lock.
type session struct {
	mu    sync.Mutex
	state ConnectionState
	creds domain.Credentials
	ref   string // vendor-side session reference
}

// begin moves Disconnected → Connecting and stores the credentials. It
// returns false if a connection attempt is already in flight or established.
func (s *session) begin(creds domain.Credentials) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateConnecting || s.state == StateConnected {
		return false
	}
	s.state = StateConnecting
	s.creds = creds
	return true
}

// established moves Connecting → Connected.
func (s *session) established() {
	s.mu.Lock()
	s.state = StateConnected
	s.mu.Unlock()
}

// reset returns to Disconnected and zeroes all session fields. Used both for
// failed connects and for Disconnect.
func (s *session) reset() {
	s.mu.Lock()
	s.state = StateDisconnected
	s.creds = domain.Credentials{}
	s.ref = ""
	s.mu.Unlock()
}

// requireConnected returns ErrNotConnected unless the session is Connected.
func (s *session) requireConnected() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected {
		return domain.ErrNotConnected
	}
	return nil
}

// setRef stores a vendor-side session reference (cloud account id, default
// account code) cleared on reset.
func (s *session) setRef(ref string) {
	s.mu.Lock()
	s.ref = ref
	s.mu.Unlock()
}

// vendorRef returns the stored vendor-side session reference.
func (s *session) vendorRef() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ref
}

// credentials returns a copy of the stored credentials.
func (s *session) credentials() domain.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

// ConnectionState reports the current lifecycle state.
func (s *session) ConnectionState() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == "" {
		return StateDisconnected
	}
	return s.state
}

// runConnect drives the shared connect sequence: validate first (no state
// change, no network), claim the Connecting state, dial the vendor, then
// settle in Connected or roll back to Disconnected. Connecting twice on an
// already-connected adapter is a no-op.
func runConnect(s *session, platform string, creds domain.Credentials, validate func() error, dial func() error) error {
	if err := validate(); err != nil {
		return err
	}
	if !s.begin(creds) {
		if s.ConnectionState() == StateConnected {
			return nil
		}
		return &domain.ValidationError{Platform: platform, Reason: "connection attempt already in progress"}
	}
	if err := dial(); err != nil {
		s.reset()
		return err
	}
	s.established()
	return nil
}

// syncSnapshot is the shared SyncAccount refresh strategy: re-fetch accounts
// and trades and bundle the matching account into a snapshot. Callers have
// already verified the Connected state.
func syncSnapshot(ctx context.Context, a Adapter, accountID string) (*AccountSnapshot, error) {
	accounts, err := a.FetchAccounts(ctx)
	if err != nil {
		return nil, err
	}
	var match *domain.TradingAccount
	for i := range accounts {
		if accounts[i].ID == accountID || accounts[i].AccountNumber == accountID {
			match = &accounts[i]
			break
		}
	}
	if match == nil {
		return nil, &domain.ValidationError{Platform: a.Name(), Reason: "unknown account " + accountID}
	}
	trades, err := a.FetchTrades(ctx, match.ID)
	if err != nil {
		return nil, err
	}
	return &AccountSnapshot{Account: *match, Trades: trades, SyncedAt: time.Now().UTC()}, nil
}

// requireFields builds the ValidationError for missing credential fields.
// Returns nil when every named field resolves to a non-empty value.
func requireFields(platform string, fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &domain.ValidationError{Platform: platform, Missing: sortedStrings(missing)}
	}
	return nil
}

func sortedStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
