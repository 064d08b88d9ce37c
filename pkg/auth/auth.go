// Package auth manages the two credential sets the relay needs: an
// interactively-authorized user credential for the Meet and Workspace Events
// APIs, cached on disk across runs, and a service-account key consumed by the
// Pub/Sub subscriber.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ScopeSpaceCreated authorizes calls scoped to meeting spaces created by the
// authorizing user, including their conference records and subscriptions.
const ScopeSpaceCreated = "https://www.googleapis.com/auth/meetings.space.created"

// ScopePubsub is requested when validating the service-account key the
// subscriber transport runs with.
const ScopePubsub = "https://www.googleapis.com/auth/pubsub"

// Config locates the credential material on disk.
type Config struct {
	// ClientSecretFile is the OAuth installed-app client secret JSON.
	ClientSecretFile string
	// TokenFile caches the user token across runs, overwritten after any
	// acquisition or refresh.
	TokenFile string
	Logger    *log.Logger
}

// Authorize returns an HTTP client authenticated as the user. A cached token
// is loaded from the token file when present; otherwise an interactive
// browser flow runs. An expired token is refreshed before returning, and the
// token file is rewritten after acquisition or refresh. All failures are
// returned to the caller, which treats them as fatal startup errors.
func Authorize(ctx context.Context, cfg Config) (*http.Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	secret, err := os.ReadFile(cfg.ClientSecretFile)
	if err != nil {
		return nil, fmt.Errorf("read client secret: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(secret, ScopeSpaceCreated)
	if err != nil {
		return nil, fmt.Errorf("parse client secret: %w", err)
	}

	token, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read token cache: %w", err)
		}
		token, err = runInstalledAppFlow(ctx, oauthCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("authorize: %w", err)
		}
		if err := saveToken(cfg.TokenFile, token); err != nil {
			return nil, fmt.Errorf("write token cache: %w", err)
		}
	}

	if !token.Valid() {
		refreshed, err := oauthCfg.TokenSource(ctx, token).Token()
		if err != nil {
			return nil, fmt.Errorf("refresh token: %w", err)
		}
		token = refreshed
		if err := saveToken(cfg.TokenFile, token); err != nil {
			return nil, fmt.Errorf("write token cache: %w", err)
		}
	}

	return oauth2.NewClient(ctx, oauthCfg.TokenSource(ctx, token)), nil
}

// LoadServiceCredential reads and validates the service-account key file.
// A missing or malformed file is a fatal startup error; the subscriber
// transport consumes the same file path directly.
func LoadServiceCredential(ctx context.Context, path string) (*google.Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account key: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, ScopePubsub)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	return creds, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// runInstalledAppFlow performs the interactive authorization: it starts a
// loopback listener, prints the consent URL, and exchanges the code the
// browser redirect delivers.
func runInstalledAppFlow(ctx context.Context, base *oauth2.Config, logger *log.Logger) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	defer listener.Close()

	oauthCfg := *base
	oauthCfg.RedirectURL = fmt.Sprintf("http://%s/", listener.Addr())

	state := randomState()
	if state == "" {
		return nil, errors.New("generate state")
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	server := &http.Server{
		ReadHeaderTimeout: 5 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query := r.URL.Query()
			if query.Get("state") != state {
				http.Error(w, "state mismatch", http.StatusBadRequest)
				errCh <- errors.New("state mismatch in redirect")
				return
			}
			code := query.Get("code")
			if code == "" {
				http.Error(w, "missing code", http.StatusBadRequest)
				errCh <- errors.New("redirect missing code")
				return
			}
			fmt.Fprintln(w, "Authorization complete. You can close this window.")
			codeCh <- code
		}),
	}
	go server.Serve(listener)
	defer server.Close()

	authURL := oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	logger.Printf("open the following URL in your browser to authorize:\n%s", authURL)

	select {
	case code := <-codeCh:
		return oauthCfg.Exchange(ctx, code)
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func randomState() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
