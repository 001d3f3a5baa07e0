/*
Copyright © 2024 Alexandre Pires

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package sxmclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Unverifiedd/m3u8XM/pkg/logger"
)

const (
	// UserAgent mirrors the desktop web player; the edge gateway rejects
	// unknown clients.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36"

	DefaultEndpoint = "https://api.edge-gateway.siriusxm.com/"
	ImageCDNBase    = "https://imgsrv-sxm-prod-device.streaming.siriusxm.com/"

	// KeyServicePrefix is the absolute key-service path the backend embeds in
	// media playlists.
	KeyServicePrefix = "https://api.edge-gateway.siriusxm.com/playback/key/v1/"

	sdkVersion     = "7.74.0"
	defaultTimeout = 20 * time.Second

	// Total attempts per call chain, the first try included.
	maxAttempts = 3
)

var ErrMaxRetries = errors.New("max retries hit")

// Client owns the backend credentials and the bearer-token lifecycle. The
// backend conflates device, anonymous and user-authenticated states behind
// the same bearer header, so a single request wrapper escalates through all
// three and refreshes the token whenever a response supplies a new one.
type Client struct {
	username string
	password string
	endpoint string
	http     *http.Client

	mu            sync.Mutex
	bearer        string
	authenticated bool
}

func NewClient(username, password string) *Client {
	return &Client{
		username: username,
		password: password,
		endpoint: DefaultEndpoint,
		http:     &http.Client{Timeout: defaultTimeout},
	}
}

// SetEndpoint overrides the REST base URL, a trailing slash is ensured.
func (c *Client) SetEndpoint(base string) {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	c.endpoint = base
}

func (c *Client) SetTimeout(timeout time.Duration) {
	c.http.Timeout = timeout
}

// IsLoggedIn reports whether a bearer token is held, regardless of whether
// the session was promoted to an authenticated one.
func (c *Client) IsLoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bearer != ""
}

// IsAuthenticated reports whether a bearer token is held for a session of
// type "authenticated".
func (c *Client) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bearer != "" && c.authenticated
}

// updateToken is the single entry point for bearer-token writes.
func (c *Client) updateToken(token string) {
	c.mu.Lock()
	c.bearer = token
	c.mu.Unlock()
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bearer
}

func (c *Client) invalidate() {
	c.mu.Lock()
	c.bearer = ""
	c.authenticated = false
	c.mu.Unlock()
}

// refreshToken inspects a response body for a grant or accessToken field and
// adopts it. Token refresh is a byproduct of any backend call, not just the
// login handshake.
func (c *Client) refreshToken(body []byte) {
	var probe tokenProbe
	if err := json.Unmarshal(body, &probe); err != nil {
		return
	}
	if probe.Grant != "" {
		c.updateToken(probe.Grant)
	} else if probe.AccessToken != "" {
		c.updateToken(probe.AccessToken)
	}
}

type requestOptions struct {
	httpMethod   string
	payload      interface{}
	headers      map[string]string
	requiresAuth bool

	// noRelogin marks handshake calls, a 401 during login must not trigger
	// another login.
	noRelogin bool
}

// do performs one backend call with a bounded retry loop. 401/403 invalidates
// the session and re-runs the login handshake exactly once per call chain.
func (c *Client) do(method string, opts requestOptions) ([]byte, error) {
	reloggedIn := false
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if opts.requiresAuth && !c.IsAuthenticated() {
			if err := c.Authenticate(); err != nil {
				logger.Errorf("Unable to authenticate for method '%s': %v", method, err)
				return nil, fmt.Errorf("authenticate: %w", err)
			}
		}

		var body io.Reader
		if opts.httpMethod == http.MethodPost {
			payload := opts.payload
			if payload == nil {
				payload = struct{}{}
			}
			data, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("encode payload for '%s': %w", method, err)
			}
			body = bytes.NewReader(data)
		}

		req, err := http.NewRequest(opts.httpMethod, c.endpoint+method, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", UserAgent)
		if opts.httpMethod == http.MethodPost {
			req.Header.Set("Content-Type", "application/json")
		}
		for key, value := range opts.headers {
			req.Header.Set(key, value)
		}
		if bearer := c.token(); bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			logger.Errorf("Request failed for method '%s': %v", method, err)
			return nil, err
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			logger.Errorf("Failed to read response for method '%s': %v", method, err)
			return nil, err
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			if opts.noRelogin || reloggedIn {
				logger.Errorf("Received status code %d for method '%s'", resp.StatusCode, method)
				return nil, fmt.Errorf("method '%s': status %d", method, resp.StatusCode)
			}
			logger.Warnf("Received status code %d for method '%s', renewing session", resp.StatusCode, method)
			c.invalidate()
			if err := c.Login(); err != nil {
				return nil, fmt.Errorf("re-login after %d: %w", resp.StatusCode, err)
			}
			reloggedIn = true
			continue
		}

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			logger.Errorf("Received status code %d for method '%s'", resp.StatusCode, method)
			return nil, fmt.Errorf("method '%s': status %d", method, resp.StatusCode)
		}

		c.refreshToken(data)
		return data, nil
	}
	logger.Errorf("Max retries hit on %s", method)
	return nil, fmt.Errorf("%w on %s", ErrMaxRetries, method)
}

// Post performs an authenticated JSON POST against the given backend method.
func (c *Client) Post(method string, payload interface{}, requiresAuth bool) ([]byte, error) {
	return c.do(method, requestOptions{
		httpMethod:   http.MethodPost,
		payload:      payload,
		requiresAuth: requiresAuth,
	})
}

// Get performs an authenticated GET against the given backend method.
func (c *Client) Get(method string, requiresAuth bool) ([]byte, error) {
	return c.do(method, requestOptions{
		httpMethod:   http.MethodGet,
		requiresAuth: requiresAuth,
	})
}

// Login registers a device and grants an anonymous session. On success the
// client holds a bearer token but no user identity yet.
func (c *Client) Login() error {
	payload := deviceRegistration{
		DevicePlatform: "web-desktop",
		GrantVersion:   "v2",
	}
	payload.DeviceAttributes.Browser = browserAttributes{
		BrowserVersion: sdkVersion,
		UserAgent:      UserAgent,
		SDK:            "web",
		App:            "web",
		SDKVersion:     sdkVersion,
		AppVersion:     sdkVersion,
	}
	tenant := map[string]string{"x-sxm-tenant": "sxm"}

	_, err := c.do("device/v1/devices", requestOptions{
		httpMethod: http.MethodPost,
		payload:    payload,
		headers:    tenant,
		noRelogin:  true,
	})
	if err != nil {
		logger.Errorf("Error creating device session: %v", err)
		return fmt.Errorf("device registration: %w", err)
	}

	data, err := c.do("session/v1/sessions/anonymous", requestOptions{
		httpMethod: http.MethodPost,
		headers:    tenant,
		noRelogin:  true,
	})
	if err != nil {
		logger.Errorf("Error validating anonymous session: %v", err)
		return fmt.Errorf("anonymous session: %w", err)
	}

	var probe tokenProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("decode anonymous session: %w", err)
	}
	if probe.AccessToken == "" || !c.IsLoggedIn() {
		return errors.New("anonymous session carries no access token")
	}
	return nil
}

// Authenticate submits the account credentials and promotes the session to
// the authenticated type. Login is performed first when needed.
func (c *Client) Authenticate() error {
	if !c.IsLoggedIn() {
		if err := c.Login(); err != nil {
			logger.Errorf("Unable to authenticate because login failed: %v", err)
			return err
		}
	}

	_, err := c.do("identity/v1/identities/authenticate/password", requestOptions{
		httpMethod: http.MethodPost,
		payload:    passwordGrant{Handle: c.username, Password: c.password},
		noRelogin:  true,
	})
	if err != nil {
		return fmt.Errorf("password authentication: %w", err)
	}

	data, err := c.do("session/v1/sessions/authenticated", requestOptions{
		httpMethod: http.MethodPost,
		noRelogin:  true,
	})
	if err != nil {
		return fmt.Errorf("session promotion: %w", err)
	}

	var session sessionResponse
	if err := json.Unmarshal(data, &session); err != nil {
		logger.Errorf("Error parsing json response for authentication: %v", err)
		return fmt.Errorf("decode session promotion: %w", err)
	}
	if session.SessionType != "authenticated" || !c.IsLoggedIn() {
		return fmt.Errorf("session not promoted, type %q", session.SessionType)
	}

	c.mu.Lock()
	c.authenticated = true
	c.mu.Unlock()
	return nil
}

// DecryptionKey fetches the AES key for the given id and returns it still
// base64 encoded, the way the backend delivers it.
func (c *Client) DecryptionKey(id string) (string, error) {
	data, err := c.Get("playback/key/v1/"+id, true)
	if err != nil {
		logger.Errorf("AES key fetch error: %v", err)
		return "", err
	}
	var key keyResponse
	if err := json.Unmarshal(data, &key); err != nil {
		return "", fmt.Errorf("decode key response: %w", err)
	}
	if key.Key == "" {
		return "", errors.New("key response carries no key")
	}
	return key.Key, nil
}
