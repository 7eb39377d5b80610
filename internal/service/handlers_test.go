package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	arcpay "github.com/arcadia-pay/arcpay"
	"github.com/arcadia-pay/arcpay/internal/audit"
	"github.com/arcadia-pay/arcpay/internal/watcher"
	"github.com/arcadia-pay/arcpay/types"
)

const testAPIKey = "test-admin-key"

// stubInspector serves a fixed state for every identifier.
type stubInspector struct {
	exists  bool
	pending bool
	ready   bool
	done    bool
}

func (s *stubInspector) IsOperation(context.Context, common.Hash) (bool, error) {
	return s.exists, nil
}

func (s *stubInspector) IsOperationPending(context.Context, common.Hash) (bool, error) {
	return s.pending, nil
}

func (s *stubInspector) IsOperationReady(context.Context, common.Hash) (bool, error) {
	return s.ready, nil
}

func (s *stubInspector) IsOperationDone(context.Context, common.Hash) (bool, error) {
	return s.done, nil
}

func (s *stubInspector) GetMinDelay(context.Context) (uint64, error) {
	return 86400, nil
}

func newTestServer(t *testing.T, deps Dependencies) *Server {
	t.Helper()

	srv, err := NewServer(zap.NewNop(), Config{Addr: "127.0.0.1:0", APIKey: testAPIKey}, deps,
		prometheus.NewRegistry())
	require.NoError(t, err)

	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, apiKey string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if apiKey != "" {
		req.Header.Set(APIKeyHeader, apiKey)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	return rec
}

func TestHandleEncode(t *testing.T) {
	t.Parallel()

	sink := audit.NewFileSink(filepath.Join(t.TempDir(), "audit.jsonl"))
	srv := newTestServer(t, Dependencies{
		Audit:   audit.NewLog(zap.NewNop(), []audit.Sink{sink}),
		Browser: sink,
	})

	body := `{
		"signature": "setFeeBps(uint256)",
		"args": [250],
		"target": "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"salt": "0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"
	}`
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/timelock/encode", testAPIKey, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp encodeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t,
		"0x72c27b6200000000000000000000000000000000000000000000000000000000000000fa",
		resp.Data.String())
	require.NotNil(t, resp.OpID)
	assert.Equal(t,
		common.HexToHash("0xb5fa1985871dc4dc89615f967f28fa75f570a499075636d33fc38c65d3f66860"), *resp.OpID)

	// The computation was audit-logged.
	keys, err := sink.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	entry, err := sink.Get(context.Background(), keys[0])
	require.NoError(t, err)
	assert.Equal(t, "encode", entry.Action)
	assert.Equal(t, *resp.OpID, entry.OpID)
}

func TestHandleEncode_Signed(t *testing.T) {
	t.Parallel()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := arcpay.NewPrivateKeySigner(key)
	srv := newTestServer(t, Dependencies{Signer: signer})

	body := `{
		"signature": "pause()",
		"target": "0x1111111111111111111111111111111111111111",
		"sign_opid": true
	}`
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/timelock/encode", testAPIKey, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp encodeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Signature)
	assert.Equal(t, signer.ID(), resp.SignerID)
	assert.Contains(t, []uint8{27, 28}, resp.Signature.V)
}

func TestHandleEncode_Failures(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Dependencies{})

	tests := []struct {
		name     string
		body     string
		apiKey   string
		wantCode int
	}{
		{
			name:     "failure: missing api key",
			body:     `{"signature": "pause()"}`,
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "failure: wrong api key",
			body:     `{"signature": "pause()"}`,
			apiKey:   "nope",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "failure: malformed body",
			body:     `{`,
			apiKey:   testAPIKey,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "failure: missing signature",
			body:     `{"args": []}`,
			apiKey:   testAPIKey,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "failure: invalid signature",
			body:     `{"signature": "pause"}`,
			apiKey:   testAPIKey,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "failure: invalid target",
			body:     `{"signature": "pause()", "target": "0x123"}`,
			apiKey:   testAPIKey,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "failure: sign without signer",
			body:     `{"signature": "pause()", "target": "0x1111111111111111111111111111111111111111", "sign_opid": true}`,
			apiKey:   testAPIKey,
			wantCode: http.StatusNotImplemented,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := doJSON(t, srv, http.MethodPost, "/api/v1/timelock/encode", tt.apiKey, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestHandleStatus(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Dependencies{
		Inspector: &stubInspector{exists: true, pending: true, ready: true},
	})

	opID := "0xb5fa1985871dc4dc89615f967f28fa75f570a499075636d33fc38c65d3f66860"
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/timelock/status?opId="+opID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Exists)
	assert.Equal(t, types.OperationStateReady, resp.State)
	assert.True(t, resp.Ready)
	assert.False(t, resp.Done)
}

func TestHandleStatus_Failures(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Dependencies{Inspector: &stubInspector{}})

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/timelock/status", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/timelock/status?opId=0x1234", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	unconfigured := newTestServer(t, Dependencies{})
	rec = doJSON(t, unconfigured, http.MethodGet,
		"/api/v1/timelock/status?opId=0xb5fa1985871dc4dc89615f967f28fa75f570a499075636d33fc38c65d3f66860", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleVerify(t *testing.T) {
	t.Parallel()

	inspector := &stubInspector{exists: true, done: true}
	srv := newTestServer(t, Dependencies{
		Inspector: inspector,
		Verifier:  arcpay.NewVerifier(inspector),
	})

	opID := "0xb5fa1985871dc4dc89615f967f28fa75f570a499075636d33fc38c65d3f66860"
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/timelock/verify?opId="+opID, "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp arcpay.VerifyResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.OperationStateDone, resp.State)
}

func TestHandleVerify_Timeout(t *testing.T) {
	t.Parallel()

	inspector := &stubInspector{exists: true, pending: true}
	srv := newTestServer(t, Dependencies{
		Inspector: inspector,
		Verifier:  arcpay.NewVerifier(inspector),
	})

	opID := "0xb5fa1985871dc4dc89615f967f28fa75f570a499075636d33fc38c65d3f66860"
	rec := doJSON(t, srv, http.MethodGet,
		"/api/v1/timelock/verify?opId="+opID+"&interval=1ms&timeout=2ms", "", "")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), "not ready after")
}

func TestHandleSignerInfo(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Dependencies{})
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/signer/info", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := arcpay.NewPrivateKeySigner(key)
	srv = newTestServer(t, Dependencies{Signer: signer})

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/signer/info", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, signer.ID(), resp["signer_kid"])
	assert.Equal(t, signer.Address().Hex(), resp["ethereum_address"])
}

func TestHandleAudit(t *testing.T) {
	t.Parallel()

	sink := audit.NewFileSink(filepath.Join(t.TempDir(), "audit.jsonl"))
	log := audit.NewLog(zap.NewNop(), []audit.Sink{sink})
	entry := log.Record(context.Background(), audit.Entry{
		Action: "schedule",
		OpID:   common.HexToHash("0x0cec85e02c49998baa7eee80fb505f54a0445c491e5639e1a756366654ae677b"),
	})

	srv := newTestServer(t, Dependencies{Audit: log, Browser: sink})

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/audit/list", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/audit/list", testAPIKey, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items []string `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, []string{entry.ID}, list.Items)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/audit/get?key="+entry.ID, testAPIKey, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got audit.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "schedule", got.Action)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/audit/get?key=missing", testAPIKey, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/audit/list?limit=nope", testAPIKey, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAlertsAndHealth(t *testing.T) {
	t.Parallel()

	alerter := watcher.NewAlerter(zap.NewNop(), watcher.NewMetrics(prometheus.NewRegistry()))
	alerter.OnBlock(context.Background(), 99, watcher.HighActivityLogThreshold+1)

	srv := newTestServer(t, Dependencies{Alerter: alerter})

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/alerts", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var alerts struct {
		Items []watcher.Alert `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alerts))
	require.Len(t, alerts.Items, 1)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Dependencies{})

	// Generate one request so the counters exist.
	doJSON(t, srv, http.MethodGet, "/api/v1/health", "", "")

	rec := doJSON(t, srv, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "arcpay_api_requests_total")
}

func TestDisabledAPIKeyDisablesPrivilegedRoutes(t *testing.T) {
	t.Parallel()

	srv, err := NewServer(zap.NewNop(), Config{Addr: "127.0.0.1:0"}, Dependencies{},
		prometheus.NewRegistry())
	require.NoError(t, err)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/timelock/encode", "anything", `{"signature": "pause()"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServerStartShutdown(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Dependencies{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
