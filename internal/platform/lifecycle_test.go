package platform

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi/tradelocker"
)

// lifecycleCase pairs a platform with a credential set its vendor accepts and
// one missing a required field.
type lifecycleCase struct {
	id      ID
	valid   domain.Credentials
	missing domain.Credentials
}

func lifecycleCases() []lifecycleCase {
	return []lifecycleCase{
		{MT4, domain.Credentials{Login: "100345", Password: "pw", Server: "Demo-1"}, domain.Credentials{Login: "100345", Server: "Demo-1"}},
		{MT5, domain.Credentials{Login: "200345", InvestorPassword: "inv", Server: "Demo-2"}, domain.Credentials{Password: "pw", Server: "Demo-2"}},
		{TradingView, domain.Credentials{Username: "trader", Password: "pw"}, domain.Credentials{Username: "trader"}},
		{DXtrade, domain.Credentials{Username: "dxuser", Password: "pw"}, domain.Credentials{Password: "pw"}},
		{NinjaTrader, domain.Credentials{Login: "nj-1", Password: "pw"}, domain.Credentials{Login: "nj-1"}},
		{CTrader, domain.Credentials{APIKey: "cid", APISecret: "csec"}, domain.Credentials{APIKey: "cid"}},
		{DXfeed, domain.Credentials{APIKey: "feed-key"}, domain.Credentials{}},
		{TradeStation, domain.Credentials{APIKey: "ts-token"}, domain.Credentials{}},
		{Thinkorswim, domain.Credentials{Username: "tos", Password: "pw"}, domain.Credentials{Password: "pw"}},
		{InteractiveBrokers, domain.Credentials{Username: "ib", Password: "pw"}, domain.Credentials{Username: "ib"}},
		{MatchTrader, domain.Credentials{Login: "mt-9", Password: "pw"}, domain.Credentials{Password: "pw"}},
		{Tradovate, domain.Credentials{Username: "tv-user", Password: "pw"}, domain.Credentials{Username: "tv-user"}},
		{Rithmic, domain.Credentials{Login: "r-1", Password: "pw", Server: "Chicago"}, domain.Credentials{Login: "r-1", Password: "pw"}},
		{SierraChart, domain.Credentials{Login: "sc-1", Password: "pw"}, domain.Credentials{Login: "sc-1"}},
		{TradeLocker, domain.Credentials{APIKey: "tl-key", APISecret: "tl-secret"}, domain.Credentials{APIKey: "tl-key"}},
	}
}

func TestLifecycleAcrossPlatforms(t *testing.T) {
	for _, tc := range lifecycleCases() {
		t.Run(string(tc.id), func(t *testing.T) {
			ctx := context.Background()
			a, err := New(string(tc.id))
			require.NoError(t, err)

			// Data operations before Connect fail with the sentinel.
			_, err = a.FetchAccounts(ctx)
			assert.ErrorIs(t, err, domain.ErrNotConnected)
			_, err = a.FetchTrades(ctx, "any")
			assert.ErrorIs(t, err, domain.ErrNotConnected)
			_, err = a.SyncAccount(ctx, "any")
			assert.ErrorIs(t, err, domain.ErrNotConnected)

			// Missing credential fields fail validation, never a bare false
			// or a vendor call, and leave the adapter disconnected.
			err = a.Connect(ctx, tc.missing)
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
			assert.Equal(t, StateDisconnected, a.(StateReporter).ConnectionState())

			require.NoError(t, a.Connect(ctx, tc.valid))
			assert.Equal(t, StateConnected, a.(StateReporter).ConnectionState())

			// Connecting again while connected is a no-op.
			require.NoError(t, a.Connect(ctx, tc.valid))

			accounts, err := a.FetchAccounts(ctx)
			require.NoError(t, err)
			require.NotEmpty(t, accounts)
			for _, acc := range accounts {
				assert.Equal(t, string(tc.id), acc.Platform)
				assert.True(t, acc.Reconciled(), "account %s: equity=%f balance=%f openPL=%f",
					acc.ID, acc.Equity, acc.Balance, acc.OpenPL)
			}

			trades, err := a.FetchTrades(ctx, accounts[0].ID)
			require.NoError(t, err)
			for _, tr := range trades {
				assert.True(t, tr.Consistent(), "trade %s", tr.ID)
				assert.Equal(t, accounts[0].ID, tr.AccountID)
			}

			snap, err := a.SyncAccount(ctx, accounts[0].ID)
			require.NoError(t, err)
			assert.Equal(t, accounts[0].ID, snap.Account.ID)
			assert.False(t, snap.SyncedAt.IsZero())

			_, err = a.SyncAccount(ctx, "no-such-account")
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))

			require.NoError(t, a.Disconnect(ctx, accounts[0].ID))
			assert.Equal(t, StateDisconnected, a.(StateReporter).ConnectionState())
			_, err = a.FetchAccounts(ctx)
			assert.ErrorIs(t, err, domain.ErrNotConnected)

			// Disconnecting twice is safe.
			require.NoError(t, a.Disconnect(ctx, accounts[0].ID))
		})
	}
}

func TestFetchIsIdempotent(t *testing.T) {
	ctx := context.Background()
	a, err := New("ninjatrader")
	require.NoError(t, err)
	require.NoError(t, a.Connect(ctx, domain.Credentials{Login: "nj-7", Password: "pw"}))

	first, err := a.FetchAccounts(ctx)
	require.NoError(t, err)
	second, err := a.FetchAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// ---------------------------------------------------------------------------
// TradeLocker scenarios
// ---------------------------------------------------------------------------

func TestTradeLockerConnectYieldsAccount(t *testing.T) {
	ctx := context.Background()
	a, err := New("tradelocker")
	require.NoError(t, err)

	creds := domain.Credentials{Platform: "tradelocker", APIKey: "key-1", APISecret: "secret-1"}
	require.NoError(t, a.Connect(ctx, creds))

	accounts, err := a.FetchAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	acc := accounts[0]
	assert.Equal(t, "USD", acc.Currency)
	assert.Equal(t, domain.AccountActive, acc.Status)
	assert.Equal(t, "tradelocker", acc.Platform)
	assert.True(t, acc.Reconciled())
}

// countingTradeLockerService records every vendor call so tests can assert
// validation failures never reach the wire.
type countingTradeLockerService struct {
	calls   int
	authErr error
}

var _ tradelocker.Service = (*countingTradeLockerService)(nil)

func (s *countingTradeLockerService) Authenticate(context.Context, string, string) error {
	s.calls++
	return s.authErr
}

func (s *countingTradeLockerService) Accounts(context.Context) ([]tradelocker.Account, error) {
	s.calls++
	return nil, nil
}

func (s *countingTradeLockerService) Positions(context.Context, string) ([]tradelocker.Position, error) {
	s.calls++
	return nil, nil
}

func (s *countingTradeLockerService) OrdersHistory(context.Context, string) ([]tradelocker.Order, error) {
	s.calls++
	return nil, nil
}

func TestTradeLockerMissingSecretSkipsVendor(t *testing.T) {
	svc := &countingTradeLockerService{}
	a := NewTradeLockerAdapter(svc)

	err := a.Connect(context.Background(), domain.Credentials{APIKey: "key-only"})
	require.Error(t, err)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "tradelocker", ve.Platform)
	assert.Equal(t, []string{"apiSecret"}, ve.Missing)
	assert.Zero(t, svc.calls, "validation failure must not reach the vendor")
	assert.Equal(t, StateDisconnected, a.ConnectionState())
}

func TestConnectVendorRejectionRollsBack(t *testing.T) {
	authErr := &domain.VendorError{Vendor: "tradelocker", Op: "auth/jwt/token", StatusCode: 401, Err: errors.New("bad key pair")}
	svc := &countingTradeLockerService{authErr: authErr}
	a := NewTradeLockerAdapter(svc)

	err := a.Connect(context.Background(), domain.Credentials{APIKey: "k", APISecret: "s"})
	require.Error(t, err)

	var verr *domain.VendorError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 401, verr.StatusCode)
	assert.Equal(t, StateDisconnected, a.ConnectionState())

	// A later attempt is allowed once the failed one rolled back.
	svc.authErr = nil
	require.NoError(t, a.Connect(context.Background(), domain.Credentials{APIKey: "k", APISecret: "s"}))
	assert.Equal(t, StateConnected, a.ConnectionState())
}
