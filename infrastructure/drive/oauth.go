package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// ErrStateMismatch is returned when the consent callback carries a foreign state value
var ErrStateMismatch = errors.New("oauth callback state mismatch")

// tokenCache persists the user's OAuth token between runs
type tokenCache struct {
	path string
}

func (c tokenCache) load() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("corrupt token file %s: %w", c.path, err)
	}
	return &token, nil
}

// store writes the token readable by the current user only
func (c tokenCache) store(token *oauth2.Token) error {
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0600)
}

// savingTokenSource writes refreshed tokens back to the cache
type savingTokenSource struct {
	base   oauth2.TokenSource
	cache  tokenCache
	last   string
	notify io.Writer
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken != s.last {
		s.last = token.AccessToken
		if err := s.cache.store(token); err != nil {
			fmt.Fprintf(s.notify, "Warning: couldn't save refreshed token: %v\n", err)
		}
	}
	return token, nil
}

// consentFlow runs the installed-app authorization against a loopback listener
type consentFlow struct {
	config *oauth2.Config
	notify io.Writer
	open   func(url string)
	listen func() (net.Listener, error)
	state  string
}

func newConsentFlow(config *oauth2.Config, notify io.Writer) *consentFlow {
	return &consentFlow{
		config: config,
		notify: notify,
		open:   openBrowser,
		listen: func() (net.Listener, error) { return net.Listen("tcp", "127.0.0.1:0") },
		state:  uuid.NewString(),
	}
}

// callbackHandler delivers the authorization code, or an error, exactly once
func (f *consentFlow) callbackHandler(codes chan<- string, errs chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var err error
		switch {
		case q.Get("state") != f.state:
			err = ErrStateMismatch
		case q.Get("error") != "":
			err = fmt.Errorf("authorization denied: %s", q.Get("error"))
		case q.Get("code") == "":
			err = fmt.Errorf("no authorization code in callback")
		}

		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			select {
			case errs <- err:
			default:
			}
			return
		}

		fmt.Fprint(w, "<html><body><h1>audiocut is authorized</h1><p>You can close this window.</p></body></html>")
		select {
		case codes <- q.Get("code"):
		default:
		}
	})
}

func (f *consentFlow) run(ctx context.Context) (*oauth2.Token, error) {
	ln, err := f.listen()
	if err != nil {
		return nil, fmt.Errorf("unable to start callback listener: %w", err)
	}
	f.config.RedirectURL = fmt.Sprintf("http://%s/callback", ln.Addr())

	codes := make(chan string, 1)
	errs := make(chan error, 1)
	mux := http.NewServeMux()
	mux.Handle("/callback", f.callbackHandler(codes, errs))

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errs <- err:
			default:
			}
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := f.config.AuthCodeURL(f.state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(f.notify, "\nSign in to Google Drive in your browser. If it does not open, visit:\n\n%s\n\n", authURL)
	f.open(authURL)

	select {
	case code := <-codes:
		token, err := f.config.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("unable to exchange auth code: %w", err)
		}
		return token, nil
	case err := <-errs:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// userTokenSource returns a token source backed by the cache, running the
// consent flow when no usable token is stored
func userTokenSource(ctx context.Context, config *oauth2.Config, cache tokenCache, notify io.Writer) (oauth2.TokenSource, error) {
	token, err := cache.load()
	if err == nil {
		token, err = config.TokenSource(ctx, token).Token()
	}
	if err != nil {
		token, err = newConsentFlow(config, notify).run(ctx)
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(notify, "Authentication successful!")
	}

	if err := cache.store(token); err != nil {
		fmt.Fprintf(notify, "Warning: couldn't save token: %v\n", err)
	}

	return &savingTokenSource{
		base:   config.TokenSource(ctx, token),
		cache:  cache,
		last:   token.AccessToken,
		notify: notify,
	}, nil
}

func newOAuthDriveService(ctx context.Context, credentialsPath, tokenPath string, notify io.Writer) (*GoogleDriveService, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read OAuth credentials file: %w", err)
	}

	// drive.file limits access to files this app created
	config, err := google.ConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse OAuth credentials: %w", err)
	}

	ts, err := userTokenSource(ctx, config, tokenCache{path: tokenPath}, notify)
	if err != nil {
		return nil, fmt.Errorf("unable to get OAuth token: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}
	return &GoogleDriveService{service: srv}, nil
}

func openBrowser(url string) {
	var name string
	var args []string
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		for _, candidate := range []string{"xdg-open", "wslview"} {
			if _, err := exec.LookPath(candidate); err == nil {
				name = candidate
				break
			}
		}
	}
	if name == "" {
		return
	}
	exec.Command(name, append(args, url)...).Start()
}

// NewClientWithOAuth creates a Drive client authenticated as the signed-in user.
// Sign-in instructions go to stderr.
func NewClientWithOAuth(ctx context.Context, credentialsPath, tokenPath string, opts ...ClientOption) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}

	if c.driveService == nil {
		svc, err := newOAuthDriveService(ctx, credentialsPath, tokenPath, os.Stderr)
		if err != nil {
			return nil, err
		}
		c.driveService = svc
	}

	return c, nil
}
