package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	agenterrors "inventory-agent/core/errors"
	"inventory-agent/core/model"
	"inventory-agent/core/reconcile"

	"go.uber.org/zap"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4096

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the remote inventory API.
// It implements reconcile.Mutator and reconcile.Refetcher; it never
// retries on its own.
type Client struct {
	baseURL string
	token   string
	http    Doer
	cache   *lookupCache
	logger  *zap.Logger
}

// New creates a client using an *http.Client with the configured timeout.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	return NewWithDoer(cfg, &http.Client{Timeout: cfg.Timeout()}, logger)
}

// NewWithDoer creates a client that sends requests through doer.
func NewWithDoer(cfg Config, doer Doer, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid remote url %q", cfg.URL)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   cfg.Token,
		http:    doer,
		cache:   newLookupCache(cfg.CacheTTL()),
		logger:  logger.With(zap.String("remote", u.Host)),
	}, nil
}

// Invalidate drops every cached lookup. The driver calls it at the start
// of each run so a run never sees another run's remote state.
func (c *Client) Invalidate() {
	c.cache.invalidate()
}

// Lookup returns the device with the given identity, or nil if the remote
// system has none.
func (c *Client) Lookup(ctx context.Context, identity string) (*model.RemoteRecord, error) {
	return c.cache.getOrLoad(ctx, identity, func(ctx context.Context) (*model.RemoteRecord, error) {
		var list ListResponse
		path := "/api/v1/devices?identity=" + url.QueryEscape(identity)
		if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
			return nil, err
		}
		for _, res := range list.Results {
			if res.Identity == identity {
				return res.Record(), nil
			}
		}
		return nil, nil
	})
}

// Apply executes a changeset against record (nil when the device is new).
func (c *Client) Apply(ctx context.Context, record *model.RemoteRecord, cs reconcile.Changeset, opts reconcile.Options) reconcile.ApplyResult {
	remoteID := ""
	if record != nil {
		remoteID = record.ID
	}
	return reconcile.ApplyPlan(ctx, c, remoteID, cs, opts)
}

// CreateDevice posts the full device. A conflict means the identity is
// already taken and is reported as reconcile.ErrConflict.
func (c *Client) CreateDevice(ctx context.Context, device model.Device) (string, error) {
	var created DeviceResource
	err := c.do(ctx, http.MethodPost, "/api/v1/devices", NewDeviceResource(device), &created)
	c.Invalidate()
	if err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", agenterrors.New(agenterrors.KindRemoteFatal, "create device: response carries no id")
	}
	return created.ID, nil
}

func (c *Client) UpdateField(ctx context.Context, remoteID, field, value string) error {
	defer c.Invalidate()
	return c.do(ctx, http.MethodPatch, devicePath(remoteID), map[string]string{field: value}, nil)
}

func (c *Client) AddComponent(ctx context.Context, remoteID string, component model.Component) error {
	defer c.Invalidate()
	body := ComponentResource{Kind: component.Kind, Key: component.Key, Fields: component.Fields}
	return c.do(ctx, http.MethodPost, devicePath(remoteID)+"/components", body, nil)
}

func (c *Client) UpdateComponent(ctx context.Context, remoteID, componentID string, fields map[string]string) error {
	defer c.Invalidate()
	return c.do(ctx, http.MethodPatch, componentPath(remoteID, componentID), ComponentPatch{Fields: fields}, nil)
}

func (c *Client) RemoveComponent(ctx context.Context, remoteID, componentID string) error {
	defer c.Invalidate()
	return c.do(ctx, http.MethodDelete, componentPath(remoteID, componentID), nil, nil)
}

func devicePath(remoteID string) string {
	return "/api/v1/devices/" + url.PathEscape(remoteID)
}

func componentPath(remoteID, componentID string) string {
	return devicePath(remoteID) + "/components/" + url.PathEscape(componentID)
}

// do sends one request and decodes a JSON response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return agenterrors.Wrap(agenterrors.KindRemoteFatal, "encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return agenterrors.Wrap(agenterrors.KindRemoteFatal, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("Remote request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return agenterrors.Wrap(agenterrors.KindRemoteTransient, fmt.Sprintf("%s %s", method, path), err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Remote request", zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode))

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return classifyStatus(method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return agenterrors.Wrap(agenterrors.KindRemoteTransient, fmt.Sprintf("decode %s %s response", method, path), err)
	}
	return nil
}

// classifyStatus maps an HTTP error status to the error taxonomy.
// Throttling and server errors are transient; everything else the caller
// cannot fix by retrying.
func classifyStatus(method, path string, status int, body string) error {
	msg := fmt.Sprintf("%s %s: %d %s", method, path, status, http.StatusText(status))
	if body != "" {
		msg += ": " + body
	}
	switch {
	case status == http.StatusConflict:
		return agenterrors.Wrap(agenterrors.KindRemoteFatal, msg, reconcile.ErrConflict)
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout, status >= 500:
		return agenterrors.New(agenterrors.KindRemoteTransient, msg)
	default:
		return agenterrors.New(agenterrors.KindRemoteFatal, msg)
	}
}
