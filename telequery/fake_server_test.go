package telequery_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-telequery/otp"
	"github.com/jrsteele09/go-telequery/telequery"
	"github.com/jrsteele09/go-telequery/token"
	"github.com/stretchr/testify/require"
)

const (
	testClientID      = "client001_5e065a976391b46f"
	testOTPSecret     = "bb60142201dfa04d47901bfbfcd2c2e0"
	testAuthInfoToken = "auth-info-token-1"
	testNowUnix       = int64(1700000000)
)

func testNow() time.Time {
	return time.Unix(testNowUnix, 0)
}

// fakeDataHalt is a DataHalt server double that checks OTPs and request tokens
type fakeDataHalt struct {
	t        *testing.T
	server   *httptest.Server
	otp      *otp.Generator
	verifier *token.Verifier

	authCalls  atomic.Int32
	queryCalls atomic.Int32

	mu           sync.Mutex
	lastForm     map[string]string
	lastHeaders  http.Header
	lastBody     []byte
	expiresAt    any
	authReply    string // overrides the auth reply when set
	queryReply   string // overrides the query reply when set
	validTokens  map[string]bool
	queryLatency time.Duration
	authGate     chan struct{} // auth replies wait for it to close when set
}

func newFakeDataHalt(t *testing.T) *fakeDataHalt {
	t.Helper()

	gen, err := otp.New(testOTPSecret, otp.WithNowTime(testNow))
	require.NoError(t, err)

	f := &fakeDataHalt{
		t:           t,
		otp:         gen,
		verifier:    token.NewVerifier(token.WithVerifierNowTime(testNow)),
		expiresAt:   testNowUnix + 3600,
		validTokens: map[string]bool{testAuthInfoToken: true},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth.php", f.handleAuth)
	mux.HandleFunc("/query.php", f.handleQuery)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeDataHalt) config() telequery.Config {
	return telequery.Config{
		AuthURL:  f.server.URL + "/auth.php",
		QueryURL: f.server.URL + "/query.php",
		Credentials: telequery.Credentials{
			ClientID:  testClientID,
			OTPSecret: testOTPSecret,
		},
		Timeout: 5 * time.Second,
	}
}

func (f *fakeDataHalt) newClient(opts ...telequery.ClientOption) *telequery.Client {
	f.t.Helper()
	opts = append([]telequery.ClientOption{telequery.WithNowTime(testNow)}, opts...)
	c, err := telequery.New(f.config(), opts...)
	require.NoError(f.t, err)
	return c
}

func (f *fakeDataHalt) setAuthReply(reply string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authReply = reply
}

func (f *fakeDataHalt) setQueryReply(reply string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryReply = reply
}

func (f *fakeDataHalt) setExpiresAt(v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expiresAt = v
}

// holdAuth makes auth replies wait until the returned func is called
func (f *fakeDataHalt) holdAuth() func() {
	gate := make(chan struct{})
	f.mu.Lock()
	f.authGate = gate
	f.mu.Unlock()

	var once sync.Once
	release := func() { once.Do(func() { close(gate) }) }
	f.t.Cleanup(release)
	return release
}

func (f *fakeDataHalt) handleAuth(w http.ResponseWriter, r *http.Request) {
	f.authCalls.Add(1)

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.lastHeaders = r.Header.Clone()
	f.lastForm = map[string]string{"clientId": r.PostForm.Get("clientId"), "otp": r.PostForm.Get("otp")}
	reply := f.authReply
	expiresAt := f.expiresAt
	gate := f.authGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	if reply != "" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, reply)
		return
	}

	if r.PostForm.Get("clientId") != testClientID || !f.otp.Validate(r.PostForm.Get("otp"), 1) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"status":"error","message":"bad otp"}`)
		return
	}

	writeJSON(w, map[string]any{
		"status": "ok",
		"data": map[string]any{
			"authInfoToken": testAuthInfoToken,
			"expiresAt":     expiresAt,
			"user":          "keyval_reader",
		},
	})
}

func (f *fakeDataHalt) handleQuery(w http.ResponseWriter, r *http.Request) {
	f.queryCalls.Add(1)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.lastHeaders = r.Header.Clone()
	f.lastBody = body
	reply := f.queryReply
	latency := f.queryLatency
	f.mu.Unlock()

	if latency > 0 {
		time.Sleep(latency)
	}
	if reply != "" {
		_, _ = io.WriteString(w, reply)
		return
	}

	bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	claims, err := f.verifier.Verify(bearer, body)
	if err != nil {
		writeJSON(w, map[string]any{"status": "error", "message": err.Error()})
		return
	}

	f.mu.Lock()
	valid := f.validTokens[claims.AuthInfoToken]
	f.mu.Unlock()
	if !valid {
		writeJSON(w, map[string]any{"status": "error", "message": "session expired"})
		return
	}

	var envelope telequery.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		writeJSON(w, map[string]any{"status": "error", "message": "bad query"})
		return
	}

	writeJSON(w, map[string]any{
		"status": "ok",
		"data": map[string]any{
			envelope.Map.To: []map[string]any{{"text": envelope.Query.Text}},
		},
	})
}

func (f *fakeDataHalt) headers() http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastHeaders
}

func (f *fakeDataHalt) body() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBody
}

func (f *fakeDataHalt) form() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastForm
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(fmt.Sprintf("encode reply: %v", err))
	}
}
