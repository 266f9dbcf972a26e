// Package client implements the StandX order gateway: authenticated,
// request-signed REST operations with a uniform fail-soft retry contract.
package client

import (
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/perpbot/gostandx/pkg/retry"
	"github.com/perpbot/gostandx/standx/auth"
	"github.com/perpbot/gostandx/standx/signing"
	"github.com/perpbot/gostandx/standx/types"
)

var log = logrus.WithField("component", "standx_client")

// Credentials identify the wallet behind the trading session. Immutable for
// the process lifetime; never logged.
type Credentials struct {
	WalletAddress string
	PrivateKey    string
	Chain         types.Chain
}

// Config carries the gateway tunables. Zero values select the defaults.
type Config struct {
	APIBaseURL  string
	AuthBaseURL string
	Ticker      string // e.g. "BTC"; the traded symbol becomes "{ticker}-USD"
	Timeout     time.Duration
	Retry       retry.Policy
}

// Client is the public operation surface for the venue. Mutating operations
// return an OrderResult in all cases; read operations degrade to empty or
// zero values. Callers never need to catch transport failures.
type Client struct {
	http   *httpClient
	auth   *auth.Authenticator
	signer *signing.RequestSigner
	symbol string
	retry  retry.Policy

	tickMu   sync.Mutex
	tickSize decimal.Decimal
}

// New validates the credentials, generates the per-process request-signing
// keypair and wires the authenticator. Missing credentials are the only
// fatal construction failure.
func New(creds Credentials, cfg Config) (*Client, error) {
	if creds.WalletAddress == "" || creds.PrivateKey == "" {
		return nil, errors.New("wallet address and private key are required")
	}
	if cfg.Ticker == "" {
		return nil, errors.New("ticker is required")
	}

	address, err := signing.ChecksumAddress(creds.WalletAddress)
	if err != nil {
		return nil, err
	}
	wallet, err := signing.NewWalletKey(creds.PrivateKey)
	if err != nil {
		return nil, err
	}
	signer, err := signing.NewRequestSigner()
	if err != nil {
		return nil, err
	}

	chain := creds.Chain
	if chain == "" {
		chain = types.ChainBSC
	}
	policy := cfg.Retry
	if policy.MaxAttempts == 0 {
		policy = retry.DefaultPolicy()
	}

	return &Client{
		http:   newHTTPClient(cfg.APIBaseURL, cfg.Timeout),
		auth:   auth.NewAuthenticator(cfg.AuthBaseURL, wallet, address, chain, signer.RequestID()),
		signer: signer,
		symbol: strings.ToUpper(cfg.Ticker) + "-USD",
		retry:  policy,
	}, nil
}

// Symbol returns the traded contract id.
func (c *Client) Symbol() string {
	return c.symbol
}

// Auth exposes the token source so a stream session can share the login
// state with the gateway.
func (c *Client) Auth() *auth.Authenticator {
	return c.auth
}
