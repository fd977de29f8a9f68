// Package revision pins a branch or tag to the commit it currently points at,
// so every file in a batch is read from the same commit.
package revision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/spachava753/rawfetch/internal/auth"
)

const (
	// DefaultAPIURL is the public GitHub REST endpoint.
	DefaultAPIURL = "https://api.github.com"

	// DefaultTimeout bounds the single lookup request.
	DefaultTimeout = 30 * time.Second
)

// ErrRefNotFound is returned when the ref does not exist or is not visible.
var ErrRefNotFound = errors.New("revision: ref not found")

// Resolver looks refs up through the GitHub API.
type Resolver struct {
	gh *gh.Client
}

// NewResolver creates a resolver. An empty token uses anonymous access; an
// empty apiURL uses the public API.
func NewResolver(ctx context.Context, token, apiURL string) (*Resolver, error) {
	var hc *http.Client
	if tok := auth.Token(token); tok != nil {
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))
	} else {
		hc = &http.Client{}
	}
	hc.Timeout = DefaultTimeout

	c := gh.NewClient(hc)
	if err := applyBaseURL(c, apiURL); err != nil {
		return nil, err
	}
	return &Resolver{gh: c}, nil
}

// Resolve returns the commit SHA that ref points at in repo ("owner/name").
func (r *Resolver) Resolve(ctx context.Context, repo, ref string) (string, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return "", fmt.Errorf("invalid repo %q: expected owner/name", repo)
	}

	slog.Debug("resolving ref", "repo", repo, "ref", ref)

	sha, resp, err := r.gh.Repositories.GetCommitSHA1(ctx, owner, name, ref, "")
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity) {
			return "", fmt.Errorf("%w: %s@%s", ErrRefNotFound, repo, ref)
		}
		return "", fmt.Errorf("resolving %s@%s: %w", repo, ref, err)
	}

	sha = strings.TrimSpace(sha)
	slog.Debug("resolved ref", "repo", repo, "ref", ref, "commit", sha)
	return sha, nil
}

func applyBaseURL(c *gh.Client, apiURL string) error {
	if apiURL == "" || apiURL == DefaultAPIURL {
		return nil
	}
	u, err := url.Parse(strings.TrimSuffix(apiURL, "/") + "/")
	if err != nil {
		return fmt.Errorf("parsing api url %q: %w", apiURL, err)
	}
	c.BaseURL = u
	return nil
}
