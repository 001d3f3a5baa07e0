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
	"errors"
	"fmt"
	"time"

	"github.com/Unverifiedd/m3u8XM/pkg/logger"
	"github.com/elnormous/contenttype"
	"github.com/valyala/fasthttp"
)

var acceptedMediaTypes = []contenttype.MediaType{
	contenttype.NewMediaType("application/vnd.apple.mpegurl"),
	contenttype.NewMediaType("application/x-mpegurl"),
	contenttype.NewMediaType("audio/x-mpegurl"),
	contenttype.NewMediaType("audio/aac"),
	contenttype.NewMediaType("audio/aacp"),
	contenttype.NewMediaType("audio/x-aac"),
	contenttype.NewMediaType("audio/mp4"),
	contenttype.NewMediaType("binary/octet-stream"),
	contenttype.NewMediaType("application/octet-stream"),
	contenttype.NewMediaType("text/plain"),
}

// MediaClient fetches manifests and audio segments from the streaming CDN.
// Requests carry the player User-Agent and the current bearer token.
type MediaClient struct {
	client *fasthttp.Client
	auth   *Client
}

func NewMediaClient(auth *Client, timeout time.Duration) *MediaClient {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &MediaClient{
		client: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		auth: auth,
	}
}

// Fetch returns the raw body of the given media URL. Non-2xx statuses, media
// types outside the accepted set and empty bodies are all failures.
func (m *MediaClient) Fetch(uri string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("User-Agent", UserAgent)
	if bearer := m.auth.token(); bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := m.client.Do(req, resp); err != nil {
		logger.Errorf("Failed to receive stream data: %v", err)
		return nil, err
	}

	statusCode := resp.StatusCode()
	if statusCode/100 != 2 {
		logger.Errorf("Failed to receive stream data. Error code %d", statusCode)
		return nil, fmt.Errorf("media fetch: status %d", statusCode)
	}

	if _, _, err := contenttype.GetAcceptableMediaTypeFromHeader(
		string(resp.Header.ContentType()), acceptedMediaTypes); err != nil {
		logger.Errorf("Unexpected media type %q for %s", resp.Header.ContentType(), uri)
		return nil, fmt.Errorf("media fetch: unexpected media type %q", resp.Header.ContentType())
	}

	if len(resp.Body()) == 0 {
		return nil, errors.New("media fetch: empty body")
	}

	// fasthttp reuses response buffers.
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}
