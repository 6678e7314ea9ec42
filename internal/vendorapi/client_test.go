package vendorapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerlink/internal/domain"
)

// fakeDoer records requests and plays back a scripted response.
type fakeDoer struct {
	status int
	body   string
	err    error
	last   *http.Request
	calls  int
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.last = req
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(strings.NewReader(f.body)),
		Header:     make(http.Header),
	}, nil
}

func TestGetJSONDecodesBody(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{"value": 42}`}
	c := New("testvendor", "https://api.example.com/", WithDoer(doer))

	var out struct {
		Value int `json:"value"`
	}
	err := c.GetJSON(context.Background(), "op", "/v1/thing", nil, &out)
	require.NoError(t, err)
	assert.Equal(t, 42, out.Value)
	assert.Equal(t, "https://api.example.com/v1/thing", doer.last.URL.String())
	assert.Equal(t, "application/json", doer.last.Header.Get("Accept"))
}

func TestBearerTokenAttached(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{}`}
	c := New("testvendor", "https://api.example.com", WithDoer(doer))
	c.SetToken("tok123")

	require.NoError(t, c.GetJSON(context.Background(), "op", "/x", nil, nil))
	assert.Equal(t, "Bearer tok123", doer.last.Header.Get("Authorization"))
}

func TestCustomAuthHeader(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{}`}
	c := New("metaapi", "https://api.example.com",
		WithDoer(doer), WithAuthHeader("auth-token", ""))
	c.SetToken("tok456")

	require.NoError(t, c.GetJSON(context.Background(), "op", "/x", nil, nil))
	assert.Equal(t, "tok456", doer.last.Header.Get("auth-token"))
	assert.Empty(t, doer.last.Header.Get("Authorization"))
}

func TestNonSuccessMapsToVendorError(t *testing.T) {
	doer := &fakeDoer{status: 403, body: `{"error":"forbidden"}`}
	c := New("tradovate", "https://api.example.com", WithDoer(doer))

	err := c.GetJSON(context.Background(), "account/list", "/account/list", nil, nil)
	var ve *domain.VendorError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "tradovate", ve.Vendor)
	assert.Equal(t, "account/list", ve.Op)
	assert.Equal(t, 403, ve.StatusCode)
}

func TestTransportErrorMapsToVendorError(t *testing.T) {
	doer := &fakeDoer{err: errors.New("dial tcp: connection refused")}
	c := New("dxtrade", "https://api.example.com", WithDoer(doer))

	err := c.PostJSON(context.Background(), "login", "/dxsca-web/login", map[string]string{}, nil)
	var ve *domain.VendorError
	require.True(t, errors.As(err, &ve))
	assert.Zero(t, ve.StatusCode)
}

// flakyDoer fails a fixed number of times before succeeding.
type flakyDoer struct {
	failures int
	status   int
	calls    int
}

func (f *flakyDoer) Do(req *http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return &http.Response{
			StatusCode: f.status,
			Body:       io.NopCloser(strings.NewReader(`{"error":"unavailable"}`)),
			Header:     make(http.Header),
		}, nil
	}
	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(strings.NewReader(`{"ok":true}`)),
		Header:     make(http.Header),
	}, nil
}

func TestGetRetriesServerErrors(t *testing.T) {
	doer := &flakyDoer{failures: 2, status: 503}
	c := New("oanda", "https://api.example.com",
		WithDoer(doer), WithRetry(3, time.Millisecond))

	var out map[string]any
	require.NoError(t, c.GetJSON(context.Background(), "candles", "/candles", nil, &out))
	assert.Equal(t, 3, doer.calls)
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	doer := &fakeDoer{status: 404, body: `{"error":"no such symbol"}`}
	c := New("oanda", "https://api.example.com",
		WithDoer(doer), WithRetry(3, time.Millisecond))

	err := c.GetJSON(context.Background(), "candles", "/candles", nil, nil)
	var ve *domain.VendorError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, 404, ve.StatusCode)
	assert.Equal(t, 1, doer.calls)
}

func TestPostIsNeverRetried(t *testing.T) {
	doer := &fakeDoer{status: 503, body: `{}`}
	c := New("dxtrade", "https://api.example.com",
		WithDoer(doer), WithRetry(3, time.Millisecond))

	err := c.PostJSON(context.Background(), "login", "/login", map[string]string{}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, doer.calls)
}

func TestMalformedBodyMapsToVendorError(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{"broken`}
	c := New("iex", "https://api.example.com", WithDoer(doer))

	var out map[string]any
	err := c.GetJSON(context.Background(), "chart", "/chart", nil, &out)
	var ve *domain.VendorError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Error(), "decoding response")
}
