// Package github downloads the movie dataset from a GitHub repository.
package github

import (
	"net/http"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// Client wraps the GitHub API client with rate limiting support
type Client struct {
	*github.Client
}

// NewClient creates a GitHub client that waits out primary and secondary
// rate limits. A non-empty token authenticates requests.
func NewClient(token string) (*Client, error) {
	return newClient(nil, token)
}

func newClient(base *http.Client, token string) (*Client, error) {
	var transport http.RoundTripper
	if base != nil {
		transport = base.Transport
	}

	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(transport)
	if err != nil {
		return nil, err
	}

	ghClient := github.NewClient(rateLimiter)
	if token != "" {
		ghClient = ghClient.WithAuthToken(token)
	}

	return &Client{Client: ghClient}, nil
}
