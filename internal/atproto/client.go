// internal/atproto/client.go
//
// Minimal XRPC client for the handful of AT Protocol calls the mirroring
// worker needs: createSession, refreshSession, createRecord, getRecord.
// Token expiry is handled by a refresh-and-retry decorator around each
// authed call; the worker never sees session mechanics.

package atproto

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// ErrDuplicateRecord reports that a record with the same rkey already exists
// in the repository. Callers treat this as success when mirroring.
var ErrDuplicateRecord = errors.New("atproto: record already exists")

// Session holds the tokens and identity returned by createSession.
type Session struct {
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
	Handle     string `json:"handle"`
	DID        string `json:"did"`
}

// Client talks XRPC to one PDS with one service account.
type Client struct {
	httpc      *http.Client
	service    string
	identifier string
	password   string

	mu      sync.Mutex
	session *Session
}

// NewClient builds a Client for the given PDS service URL and app-password
// credentials. No network call happens until the first authed operation.
func NewClient(service, identifier, password string) *Client {
	return &Client{
		httpc:      &http.Client{Timeout: 30 * time.Second},
		service:    service,
		identifier: identifier,
		password:   password,
	}
}

// xrpcError is the standard XRPC error body.
type xrpcError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *xrpcError) Error() string {
	return fmt.Sprintf("xrpc error %s: %s", e.Code, e.Message)
}

// CreateRecord writes a record into the service account's repository under
// collection/rkey. An existing rkey yields ErrDuplicateRecord.
func (c *Client) CreateRecord(ctx context.Context, collection, rkey string, record any) error {
	return c.withAuth(ctx, func(sess *Session) error {
		body := map[string]any{
			"repo":       sess.DID,
			"collection": collection,
			"rkey":       rkey,
			"record":     record,
		}
		err := c.call(ctx, http.MethodPost, "com.atproto.repo.createRecord", sess.AccessJwt, body, nil)
		var xe *xrpcError
		if errors.As(err, &xe) && (xe.Code == "RecordAlreadyExists" || xe.Code == "InvalidSwap") {
			return ErrDuplicateRecord
		}
		return err
	})
}

// RecordExists checks whether collection/rkey is present in the service
// account's repository.
func (c *Client) RecordExists(ctx context.Context, collection, rkey string) (bool, error) {
	exists := false
	err := c.withAuth(ctx, func(sess *Session) error {
		q := url.Values{}
		q.Set("repo", sess.DID)
		q.Set("collection", collection)
		q.Set("rkey", rkey)
		err := c.call(ctx, http.MethodGet, "com.atproto.repo.getRecord?"+q.Encode(), sess.AccessJwt, nil, nil)
		var xe *xrpcError
		if errors.As(err, &xe) && xe.Code == "RecordNotFound" {
			return nil
		}
		if err == nil {
			exists = true
		}
		return err
	})
	return exists, err
}

// withAuth runs fn with a live session. An ExpiredToken response triggers
// one refreshSession and retry; any other auth failure triggers one full
// re-login and retry. Retries stop there; persistent failures surface.
func (c *Client) withAuth(ctx context.Context, fn func(*Session) error) error {
	sess, err := c.ensureSession(ctx)
	if err != nil {
		return err
	}
	err = fn(sess)
	if err == nil {
		return nil
	}

	var xe *xrpcError
	switch {
	case errors.As(err, &xe) && xe.Code == "ExpiredToken":
		log.Debug().Msg("atproto token expired, refreshing session")
		sess, err = c.refreshSession(ctx, sess)
	case isAuthFailure(err):
		log.Debug().Msg("atproto auth failure, re-creating session")
		sess, err = c.createSession(ctx)
	default:
		return err
	}
	if err != nil {
		return err
	}
	return fn(sess)
}

func isAuthFailure(err error) bool {
	var xe *xrpcError
	return errors.As(err, &xe) && (xe.Code == "AuthRequired" || xe.Code == "InvalidToken" || xe.Code == "AuthenticationRequired")
}

func (c *Client) ensureSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()
	if sess != nil {
		return sess, nil
	}
	return c.createSession(ctx)
}

func (c *Client) createSession(ctx context.Context) (*Session, error) {
	if c.identifier == "" || c.password == "" {
		return nil, errors.New("atproto: missing service credentials")
	}
	var sess Session
	body := map[string]string{"identifier": c.identifier, "password": c.password}
	if err := c.call(ctx, http.MethodPost, "com.atproto.server.createSession", "", body, &sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.mu.Lock()
	c.session = &sess
	c.mu.Unlock()
	log.Info().Str("handle", sess.Handle).Str("did", sess.DID).Msg("authenticated with atproto")
	return &sess, nil
}

func (c *Client) refreshSession(ctx context.Context, old *Session) (*Session, error) {
	var sess Session
	if err := c.call(ctx, http.MethodPost, "com.atproto.server.refreshSession", old.RefreshJwt, nil, &sess); err != nil {
		// A dead refresh token means a full re-login.
		return c.createSession(ctx)
	}
	c.mu.Lock()
	c.session = &sess
	c.mu.Unlock()
	return &sess, nil
}

// call performs one XRPC request. method is the NSID, optionally with a
// query string already attached.
func (c *Client) call(ctx context.Context, httpMethod, method, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, httpMethod, c.service+"/xrpc/"+method, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		var xe xrpcError
		data, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		if jsonErr := json.Unmarshal(data, &xe); jsonErr == nil && xe.Code != "" {
			return &xe
		}
		return fmt.Errorf("xrpc %s: status %d", method, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
