package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spiffcs/firstissue/config"
	"github.com/spiffcs/firstissue/internal/cache"
	"github.com/spiffcs/firstissue/internal/credential"
	"github.com/spiffcs/firstissue/internal/ghclient"
	"github.com/spiffcs/firstissue/internal/log"
	"github.com/spiffcs/firstissue/internal/service"
)

// tokenEnv is consulted when no credential has been stored.
const tokenEnv = "GITHUB_TOKEN"

// app bundles the configured collaborators shared by the commands.
type app struct {
	cfg    *config.Config
	creds  *credential.Cache
	client *ghclient.Client
	svc    *service.Service
}

// newApp loads config and builds the credential cache, API client and
// caching service. The response cache follows opts and the config.
func newApp(opts *Options) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	creds, err := newCredentials()
	if err != nil {
		return nil, err
	}

	client, err := ghclient.NewClient(creds)
	if err != nil {
		return nil, err
	}

	var c cache.Cacher
	if !opts.cacheDisabled(cfg) {
		fc, err := cache.NewCache()
		if err != nil {
			log.Warn("failed to initialize cache", "error", err)
		} else {
			c = fc
		}
	}

	return &app{
		cfg:    cfg,
		creds:  creds,
		client: client,
		svc:    service.New(client, c, creds),
	}, nil
}

// newCredentials opens the stored credential with the environment fallback.
func newCredentials() (*credential.Cache, error) {
	store, err := credential.NewFileStore()
	if err != nil {
		return nil, err
	}
	return credential.NewCache(store, credential.WithFallback(func() string {
		return os.Getenv(tokenEnv)
	})), nil
}

// authenticate verifies the credential. Without one the session is
// anonymous and the returned user is empty; a rejected credential is an error.
func (a *app) authenticate(ctx context.Context) (string, error) {
	if !a.creds.HasToken() {
		log.Info("no credential configured, using anonymous access")
		return "", nil
	}
	user, err := a.svc.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("authentication failed: %w", err)
	}
	log.Info("authenticated", "user", user)
	return user, nil
}
