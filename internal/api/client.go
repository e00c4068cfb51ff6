package api

import (
	"net/http"

	"github.com/cli/go-gh/v2/pkg/api"
)

// GraphQLClient interface allows mocking the GitHub GraphQL client for testing
type GraphQLClient interface {
	Query(name string, query interface{}, variables map[string]interface{}) error
}

// Client wraps the GitHub GraphQL API client used to discover issues
type Client struct {
	gql  GraphQLClient
	opts ClientOptions
}

// ClientOptions configures the API client
type ClientOptions struct {
	// Host is the GitHub hostname (default: github.com)
	Host string

	// AuthToken overrides the token resolved from gh's configuration
	AuthToken string

	// Transport is a custom HTTP transport (for testing)
	Transport http.RoundTripper
}

// NewClient creates a new API client with default options
func NewClient() *Client {
	return NewClientWithOptions(ClientOptions{})
}

// NewClientWithOptions creates a new API client with custom options
func NewClientWithOptions(opts ClientOptions) *Client {
	apiOpts := api.ClientOptions{}
	if opts.Host != "" {
		apiOpts.Host = opts.Host
	}
	if opts.AuthToken != "" {
		apiOpts.AuthToken = opts.AuthToken
	}
	if opts.Transport != nil {
		apiOpts.Transport = opts.Transport
	}

	gql, err := api.NewGraphQLClient(apiOpts)
	if err != nil {
		// If we can't create a client (e.g., not authenticated),
		// return a client with nil gql - methods will return errors
		return &Client{opts: opts}
	}

	return &Client{
		gql:  gql,
		opts: opts,
	}
}

// NewClientWithGraphQL creates a Client with a custom GraphQL client (for testing)
func NewClientWithGraphQL(gql GraphQLClient) *Client {
	return &Client{gql: gql}
}
