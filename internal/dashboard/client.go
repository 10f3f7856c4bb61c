// internal/dashboard/client.go - Puppet Dashboard status page fetcher
package dashboard

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	DefaultPort  = 80
	DefaultRealm = "Puppet Dashboard"
	UserAgent    = "check_puppet_dashboard/1.0"
)

// Credentials are only offered to the configured host:port, and only when
// the server challenges for the matching basic auth realm.
type Credentials struct {
	User     string
	Password string
	Realm    string
}

type Options struct {
	Host        string
	Port        int
	SSL         bool
	Credentials *Credentials
}

// StatusError is returned when the dashboard answers with a non-2xx status.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return e.Status
	}
	return fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
}

type Client struct {
	httpClient  *http.Client
	address     string
	url         string
	credentials *Credentials
}

// NewClient builds a client for the dashboard root page. A nil httpClient
// means http.DefaultClient.
func NewClient(opts Options, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	scheme := "http"
	if opts.SSL {
		scheme = "https"
	}

	address := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	u := url.URL{Scheme: scheme, Host: address, Path: "/"}

	var creds *Credentials
	if opts.Credentials != nil && opts.Credentials.User != "" {
		c := *opts.Credentials
		if c.Realm == "" {
			c.Realm = DefaultRealm
		}
		creds = &c
	}

	return &Client{
		httpClient:  httpClient,
		address:     address,
		url:         u.String(),
		credentials: creds,
	}
}

// URL returns the page the client fetches.
func (c *Client) URL() string {
	return c.url
}

// Fetch issues a single GET for the dashboard page and returns its body.
// Answering a matching basic auth challenge is the only second request made.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	resp, err := c.get(ctx, false)
	if err != nil {
		return "", err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.shouldAuthenticate(resp) {
		drain(resp)
		logrus.WithFields(logrus.Fields{
			"url":   c.url,
			"realm": c.credentials.Realm,
			"user":  c.credentials.User,
		}).Debug("Answering basic auth challenge")

		resp, err = c.get(ctx, true)
		if err != nil {
			return "", err
		}
	}
	defer resp.Body.Close()

	logrus.WithFields(logrus.Fields{
		"url":    c.url,
		"status": resp.StatusCode,
	}).Debug("Dashboard responded")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read dashboard response: %w", err)
	}

	return string(body), nil
}

func (c *Client) get(ctx context.Context, withAuth bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	if withAuth {
		req.SetBasicAuth(c.credentials.User, c.credentials.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", c.url, err)
	}
	return resp, nil
}

func (c *Client) shouldAuthenticate(resp *http.Response) bool {
	if c.credentials == nil {
		return false
	}
	// Redirects may have left the configured host:port.
	if resp.Request != nil && resp.Request.URL.Host != c.address {
		return false
	}
	for _, challenge := range resp.Header.Values("WWW-Authenticate") {
		if realm, ok := basicRealm(challenge); ok && realm == c.credentials.Realm {
			return true
		}
	}
	return false
}

// basicRealm extracts the realm of a Basic challenge, e.g.
// `Basic realm="Puppet Dashboard"`.
func basicRealm(challenge string) (string, bool) {
	scheme, params, found := strings.Cut(strings.TrimSpace(challenge), " ")
	if !found || !strings.EqualFold(scheme, "basic") {
		return "", false
	}

	for _, param := range strings.Split(params, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "realm") {
			continue
		}
		value = strings.TrimSpace(value)
		if unquoted, err := strconv.Unquote(value); err == nil {
			return unquoted, true
		}
		return strings.Trim(value, `"`), true
	}
	return "", false
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
