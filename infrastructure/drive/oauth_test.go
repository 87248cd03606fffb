package drive

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func TestTokenCache_RoundTrip(t *testing.T) {
	cache := tokenCache{path: filepath.Join(t.TempDir(), "tokens", "token.json")}
	want := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}

	if err := cache.store(want); err != nil {
		t.Fatalf("store() unexpected error: %v", err)
	}
	info, err := os.Stat(cache.path)
	if err != nil {
		t.Fatalf("token file missing: %v", err)
	}
	if info.Mode().Perm()&0077 != 0 {
		t.Errorf("token file mode = %v, want user-only", info.Mode().Perm())
	}

	got, err := cache.load()
	if err != nil {
		t.Fatalf("load() unexpected error: %v", err)
	}
	if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken {
		t.Errorf("load() = %+v, want %+v", got, want)
	}
}

func TestTokenCache_Corrupt(t *testing.T) {
	cache := tokenCache{path: filepath.Join(t.TempDir(), "token.json")}
	os.WriteFile(cache.path, []byte("{oops"), 0600)

	if _, err := cache.load(); err == nil || !strings.Contains(err.Error(), "corrupt token file") {
		t.Errorf("load() error = %v, want corrupt token error", err)
	}
}

type stubTokenSource struct {
	tokens []*oauth2.Token
	calls  int
}

func (s *stubTokenSource) Token() (*oauth2.Token, error) {
	tok := s.tokens[s.calls]
	if s.calls < len(s.tokens)-1 {
		s.calls++
	}
	return tok, nil
}

func TestSavingTokenSource_StoresRefreshedTokens(t *testing.T) {
	cache := tokenCache{path: filepath.Join(t.TempDir(), "token.json")}
	ts := &savingTokenSource{
		base: &stubTokenSource{tokens: []*oauth2.Token{
			{AccessToken: "first"},
			{AccessToken: "second"},
		}},
		cache:  cache,
		last:   "first",
		notify: &bytes.Buffer{},
	}

	if _, err := ts.Token(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(cache.path); !os.IsNotExist(err) {
		t.Fatalf("unchanged token was written: %v", err)
	}

	if _, err := ts.Token(); err != nil {
		t.Fatal(err)
	}
	got, err := cache.load()
	if err != nil {
		t.Fatalf("refreshed token not stored: %v", err)
	}
	if got.AccessToken != "second" {
		t.Errorf("stored token = %q, want second", got.AccessToken)
	}
}

func TestConsentFlow_Callback(t *testing.T) {
	flow := &consentFlow{state: "nonce"}

	tests := []struct {
		name     string
		query    string
		wantCode string
		wantErr  error
		wantHTTP int
	}{
		{name: "code delivered", query: "?state=nonce&code=abc", wantCode: "abc", wantHTTP: http.StatusOK},
		{name: "foreign state", query: "?state=other&code=abc", wantErr: ErrStateMismatch, wantHTTP: http.StatusBadRequest},
		{name: "user denied", query: "?state=nonce&error=access_denied", wantHTTP: http.StatusBadRequest},
		{name: "missing code", query: "?state=nonce", wantHTTP: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes := make(chan string, 1)
			errs := make(chan error, 1)
			rec := httptest.NewRecorder()
			flow.callbackHandler(codes, errs).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback"+tt.query, nil))

			if rec.Code != tt.wantHTTP {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantHTTP)
			}
			select {
			case code := <-codes:
				if code != tt.wantCode {
					t.Errorf("code = %q, want %q", code, tt.wantCode)
				}
			case err := <-errs:
				if tt.wantCode != "" {
					t.Fatalf("unexpected error: %v", err)
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
			}
		})
	}
}

func TestConsentFlow_RunCancelled(t *testing.T) {
	var opened string
	flow := &consentFlow{
		config: &oauth2.Config{ClientID: "id", Endpoint: oauth2.Endpoint{AuthURL: "https://auth.example.com/o"}},
		notify: &bytes.Buffer{},
		open:   func(url string) { opened = url },
		listen: func() (net.Listener, error) { return net.Listen("tcp", "127.0.0.1:0") },
		state:  "nonce",
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := flow.run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("run() error = %v, want context.Canceled", err)
	}
	if !strings.Contains(opened, "state=nonce") {
		t.Errorf("auth URL %q does not carry the state", opened)
	}
	if !strings.HasPrefix(flow.config.RedirectURL, "http://127.0.0.1:") {
		t.Errorf("RedirectURL = %q, want loopback", flow.config.RedirectURL)
	}
}
