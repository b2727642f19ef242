package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/submission-intake/constants"
	"github.com/joseph-ayodele/submission-intake/internal/common"
	"github.com/joseph-ayodele/submission-intake/internal/entity"
)

type fakeQuoteAPI struct {
	tokenCalls  atomic.Int32
	quoteCalls  atomic.Int32
	expiresIn   int64
	accessToken string
	quoteStatus int
	quoteBody   string
	lastPayload map[string]any

	tokenStatus  int
	lastAudience string
}

func (f *fakeQuoteAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "id", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		f.lastAudience = r.PostForm.Get("audience")
		if f.tokenStatus != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.tokenStatus)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		tok := f.accessToken
		if tok == "" {
			tok = fmt.Sprintf("tok-%d", f.tokenCalls.Load())
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": tok, "token_type": "Bearer", "expires_in": f.expiresIn})
	})
	mux.HandleFunc("/api/v1/quotes", func(w http.ResponseWriter, r *http.Request) {
		f.quoteCalls.Add(1)
		assert.Contains(t, r.Header.Get("Authorization"), "Bearer ")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastPayload))
		w.WriteHeader(f.quoteStatus)
		_, _ = w.Write([]byte(f.quoteBody))
	})
	return mux
}

func newTestClient(t *testing.T, api *fakeQuoteAPI) (*Client, *MemoryTokenCache) {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	envCfg := EnvConfig{BaseURL: srv.URL, TokenURL: srv.URL + "/oauth/token", ClientID: "id", ClientSecret: "secret"}
	cache := NewMemoryTokenCache()
	c := NewClient(Config{
		Environment: constants.EnvTest,
		Environments: map[constants.Environment]EnvConfig{
			constants.EnvTest:       envCfg,
			constants.EnvProduction: envCfg,
		},
	}, cache, nil)
	return c, cache
}

func sampleRecord() *entity.QuoteRecord {
	rec := entity.NewQuoteRecord()
	rec.InsuredName = entity.Ptr("Acme")
	rec.BrokerEmail = entity.Ptr("agent@brokerage.com")
	rec.ParsingNotes.Add("a note")
	return rec
}

func TestSubmit_ApprovedReusesToken(t *testing.T) {
	api := &fakeQuoteAPI{expiresIn: 3600, quoteStatus: http.StatusOK,
		quoteBody: `{"quote_id":"Q-1","status":"approved","checkout_link":"https://pay/Q-1","policy_terms":{"premium":1200},"coverage_details":{"limits":{"aggregate":1000000}}}`}
	c, _ := newTestClient(t, api)

	res, err := c.Submit(context.Background(), sampleRecord())
	require.NoError(t, err)
	require.NotNil(t, res.Approved)
	assert.Nil(t, res.Declined)
	assert.NoError(t, res.Err())
	assert.Equal(t, "Q-1", res.Approved.ID)
	assert.Equal(t, constants.QuoteStatusApproved, res.Approved.Status)
	assert.Equal(t, "https://pay/Q-1", res.Approved.CheckoutURL)
	assert.Equal(t, 1200.0, res.Approved.PolicyTerms["premium"])
	assert.Equal(t, 1000000.0, res.Approved.CoverageLimits["aggregate"])
	assert.NotContains(t, api.lastPayload, "parsing_notes")

	_, err = c.Submit(context.Background(), sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, int32(1), api.tokenCalls.Load())
	assert.Equal(t, int32(2), api.quoteCalls.Load())
}

func TestSubmit_Declined(t *testing.T) {
	api := &fakeQuoteAPI{expiresIn: 3600, quoteStatus: http.StatusOK, quoteBody: `{"status":"DECLINED","message":"Revenue outside appetite"}`}
	c, _ := newTestClient(t, api)

	res, err := c.Submit(context.Background(), sampleRecord())
	require.NoError(t, err)
	require.NotNil(t, res.Declined)
	assert.Equal(t, "Revenue outside appetite", res.Declined.Message)

	var de *DeclinedError
	require.ErrorAs(t, res.Err(), &de)
	assert.Contains(t, de.Error(), "Revenue outside appetite")
}

func TestSubmit_UnauthorizedDiscardsToken(t *testing.T) {
	api := &fakeQuoteAPI{expiresIn: 3600, quoteStatus: http.StatusUnauthorized, quoteBody: `{}`}
	c, cache := newTestClient(t, api)

	_, err := c.Submit(context.Background(), sampleRecord())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Retryable)
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, ok := cache.Get(context.Background(), constants.EnvTest)
	assert.False(t, ok)
	assert.Equal(t, int32(1), api.quoteCalls.Load(), "no automatic resubmission")
}

func TestSubmit_ServerError(t *testing.T) {
	api := &fakeQuoteAPI{expiresIn: 3600, quoteStatus: http.StatusBadGateway, quoteBody: `upstream down`}
	c, _ := newTestClient(t, api)

	_, err := c.Submit(context.Background(), sampleRecord())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Retryable)
	assert.Equal(t, int32(1), api.quoteCalls.Load())
}

func TestSubmit_TokenNearExpiryIsRefreshed(t *testing.T) {
	api := &fakeQuoteAPI{expiresIn: 200, quoteStatus: http.StatusOK, quoteBody: `{"status":"APPROVED","quote_id":"Q"}`}
	c, _ := newTestClient(t, api)

	for range 2 {
		_, err := c.Submit(context.Background(), sampleRecord())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), api.tokenCalls.Load())
}

func TestSubmit_JWTExpiryWhenExpiresInMissing(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)

	api := &fakeQuoteAPI{accessToken: signed, quoteStatus: http.StatusOK, quoteBody: `{"status":"APPROVED","quote_id":"Q"}`}
	c, cache := newTestClient(t, api)
	_, err = c.Submit(context.Background(), sampleRecord())
	require.NoError(t, err)

	tok, ok := cache.Get(context.Background(), constants.EnvTest)
	require.True(t, ok)
	assert.True(t, tok.ExpiresAt.Equal(exp))
}

func TestSubmit_RejectedCredentials(t *testing.T) {
	api := &fakeQuoteAPI{tokenStatus: http.StatusUnauthorized}
	c, cache := newTestClient(t, api)

	_, err := c.Submit(context.Background(), sampleRecord())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
	assert.Contains(t, te.Message, "client credentials rejected")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Equal(t, int32(0), api.quoteCalls.Load())

	_, ok := cache.Get(context.Background(), constants.EnvTest)
	assert.False(t, ok)
}

func TestFetchToken_SendsAudienceAndMapsServerErrors(t *testing.T) {
	api := &fakeQuoteAPI{expiresIn: 3600}
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	env := EnvConfig{TokenURL: srv.URL + "/oauth/token", ClientID: "id", ClientSecret: "secret", Audience: "quotes-api"}

	now := time.Now()
	tok, err := fetchToken(context.Background(), srv.Client(), env, now)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.AccessToken)
	assert.Equal(t, "quotes-api", api.lastAudience)
	assert.WithinDuration(t, now.Add(time.Hour), tok.ExpiresAt, time.Minute)

	api.tokenStatus = http.StatusServiceUnavailable
	_, err = fetchToken(context.Background(), srv.Client(), env, now)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
	assert.True(t, te.Retryable)
	assert.NotErrorIs(t, err, common.ErrUnauthorized)
}

func TestSetEnvironment_InvalidatesPreviousToken(t *testing.T) {
	api := &fakeQuoteAPI{expiresIn: 3600, quoteStatus: http.StatusOK, quoteBody: `{"status":"APPROVED","quote_id":"Q"}`}
	c, cache := newTestClient(t, api)
	ctx := context.Background()

	_, err := c.Submit(ctx, sampleRecord())
	require.NoError(t, err)
	_, ok := cache.Get(ctx, constants.EnvTest)
	require.True(t, ok)

	c.SetEnvironment(ctx, constants.EnvProduction)
	assert.Equal(t, constants.EnvProduction, c.Environment())
	_, ok = cache.Get(ctx, constants.EnvTest)
	assert.False(t, ok)

	_, err = c.Submit(ctx, sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, int32(2), api.tokenCalls.Load())
}

func TestSubmit_MissingCredentials(t *testing.T) {
	c := NewClient(Config{Environment: constants.EnvProduction}, nil, nil)
	_, err := c.Submit(context.Background(), sampleRecord())
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestToken_Usable(t *testing.T) {
	now := time.Now()
	assert.True(t, Token{AccessToken: "a", ExpiresAt: now.Add(6 * time.Minute)}.Usable(now))
	assert.False(t, Token{AccessToken: "a", ExpiresAt: now.Add(4 * time.Minute)}.Usable(now))
	assert.False(t, Token{ExpiresAt: now.Add(time.Hour)}.Usable(now))
}
