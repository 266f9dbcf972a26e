package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/perpbot/gostandx/standx/signing"
	"github.com/perpbot/gostandx/standx/types"
)

var log = logrus.WithField("component", "standx_auth")

const (
	// DefaultBaseURL is the offchain auth API host.
	DefaultBaseURL = "https://api.standx.com"

	endpointPrepareSignin = "/v1/offchain/prepare-signin"
	endpointLogin         = "/v1/offchain/login"

	// defaultExpirySeconds is the session lifetime requested at login (7 days).
	defaultExpirySeconds = 604800
)

// AuthError marks a failure in the wallet-signature login handshake. It is
// fatal to the call path that triggered it, not to the process.
type AuthError struct {
	Step string
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed at %s: %v", e.Step, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Authenticator performs the challenge/signature login handshake and caches
// the resulting bearer token. Token acquisition is single-flight: concurrent
// first-time callers share one handshake. The authenticator never retries on
// its own; callers retry at their own cadence.
type Authenticator struct {
	http    *resty.Client
	wallet  *signing.WalletKey
	address string
	chain   types.Chain

	// requestID is the detached-key request identity registered at signin.
	requestID string

	mu    sync.Mutex
	token string
}

// NewAuthenticator builds an authenticator for the given checksummed wallet
// address. baseURL may be empty to use the production host.
func NewAuthenticator(baseURL string, wallet *signing.WalletKey, address string, chain types.Chain, requestID string) *Authenticator {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &Authenticator{
		http:      client,
		wallet:    wallet,
		address:   address,
		chain:     chain,
		requestID: requestID,
	}
}

// Token returns the cached session token, running the login handshake if no
// token is cached. A cached token is returned without any network round trip.
func (a *Authenticator) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" {
		return a.token, nil
	}

	// Holding the lock through the handshake is what makes acquisition
	// single-flight: late callers block here and then see the cached token.
	token, err := a.login(ctx)
	if err != nil {
		return "", err
	}
	a.token = token
	log.Info("session token obtained")
	return token, nil
}

// Invalidate drops the cached token if it is still the one the caller saw.
// A token refreshed by another caller in the meantime is left alone.
func (a *Authenticator) Invalidate(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if token != "" && a.token == token {
		a.token = ""
		log.Warn("session token invalidated")
	}
}

type prepareSigninResponse struct {
	Success    bool   `json:"success"`
	SignedData string `json:"signedData"`
}

type loginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// login runs the four-step handshake: challenge issuance, challenge decode,
// wallet signature, token issuance.
func (a *Authenticator) login(ctx context.Context) (string, error) {
	signedData, err := a.prepareSignin(ctx)
	if err != nil {
		return "", &AuthError{Step: "prepare-signin", Err: err}
	}

	message, err := decodeChallengeMessage(signedData)
	if err != nil {
		return "", &AuthError{Step: "challenge decode", Err: err}
	}

	signature, err := a.wallet.SignPersonal(message)
	if err != nil {
		return "", &AuthError{Step: "wallet signature", Err: err}
	}

	var out loginResponse
	resp, err := a.http.R().
		SetContext(ctx).
		SetQueryParam("chain", string(a.chain)).
		SetBody(map[string]any{
			"signature":      signature,
			"signedData":     signedData,
			"expiresSeconds": defaultExpirySeconds,
		}).
		SetResult(&out).
		Post(endpointLogin)
	if err != nil {
		return "", &AuthError{Step: "login", Err: err}
	}
	if !resp.IsSuccess() {
		return "", &AuthError{Step: "login", Err: errors.Errorf("http %d: %s", resp.StatusCode(), resp.Body())}
	}
	if out.Token == "" {
		// The login response carries the token directly; anything else is a
		// rejection even on HTTP 200.
		return "", &AuthError{Step: "login", Err: errors.Errorf("no token in response: %s", resp.Body())}
	}
	return out.Token, nil
}

func (a *Authenticator) prepareSignin(ctx context.Context) (string, error) {
	var out prepareSigninResponse
	resp, err := a.http.R().
		SetContext(ctx).
		SetQueryParam("chain", string(a.chain)).
		SetBody(map[string]string{
			"address":   a.address,
			"requestId": a.requestID,
		}).
		SetResult(&out).
		Post(endpointPrepareSignin)
	if err != nil {
		return "", err
	}
	if !resp.IsSuccess() || !out.Success || out.SignedData == "" {
		return "", errors.Errorf("prepare signin rejected (http %d): %s", resp.StatusCode(), resp.Body())
	}
	return out.SignedData, nil
}
