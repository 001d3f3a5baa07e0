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
package tuner

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/Unverifiedd/m3u8XM/pkg/catalog"
	"github.com/Unverifiedd/m3u8XM/pkg/logger"
	"github.com/Unverifiedd/m3u8XM/pkg/sxmclient"
	"github.com/grafov/m3u8"
)

const (
	tuneSourceMethod = "playback/play/v1/tuneSource"
	peekMethod       = "playback/play/v1/peek"

	// SessionTTL bounds how long an xtra playback context stays addressable
	// through its session token.
	SessionTTL = 600 * time.Second

	// DefaultSweepInterval is how often expired session entries are removed.
	DefaultSweepInterval = 600 * time.Second

	targetBitrate  = "256k"
	manifestSuffix = ".m3u8"
)

var ErrSessionNotFound = errors.New("tuner: session not found")

// Descriptor is the negotiated stream state for one channel. Linear channels
// never carry SessionToken/ExpiresAt, xtra channels always do.
type Descriptor struct {
	BaseURL         string
	ManifestPath    string
	HLSTag          string
	ChannelTag      string
	SourceContextID string
	SessionToken    string
	ExpiresAt       time.Time
}

type tuneRequest struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	HLSVersion      string `json:"hlsVersion"`
	MTCVersion      string `json:"mtcVersion"`
	SourceContextID string `json:"sourceContextId,omitempty"`
	ManifestVariant string `json:"manifestVariant,omitempty"`
}

type tuneResponse struct {
	Streams []struct {
		URLs []struct {
			URL string `json:"url"`
		} `json:"urls"`
		Metadata struct {
			Xtra struct {
				SourceContextID string `json:"sourceContextId"`
			} `json:"xtra"`
		} `json:"metadata"`
	} `json:"streams"`
}

// Cache maps channel ids to their current stream descriptor and tracks
// short-lived xtra contexts by session token. Tuning is serialized per
// channel id so concurrent first-time requests issue a single backend call.
type Cache struct {
	client  *sxmclient.Client
	media   *sxmclient.MediaClient
	catalog *catalog.Cache

	mu        sync.Mutex
	byChannel map[string]*Descriptor
	bySession map[string]*Descriptor
	tuning    map[string]*sync.Mutex

	sweepStop chan struct{}
	sweepDone chan struct{}
}

func New(client *sxmclient.Client, media *sxmclient.MediaClient, cat *catalog.Cache) *Cache {
	return &Cache{
		client:    client,
		media:     media,
		catalog:   cat,
		byChannel: make(map[string]*Descriptor),
		bySession: make(map[string]*Descriptor),
		tuning:    make(map[string]*sync.Mutex),
	}
}

func (c *Cache) channelLock(channelID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.tuning[channelID]
	if !ok {
		lock = &sync.Mutex{}
		c.tuning[channelID] = lock
	}
	return lock
}

// Tune resolves a playable stream descriptor for the channel. Linear channels
// are served from the cache once tuned. Xtra channels renegotiate an existing
// playback context through the cheaper peek call when one is cached, and mint
// a fresh session token otherwise.
func (c *Cache) Tune(channelID string) (*Descriptor, error) {
	kind := catalog.KindLinear
	if channel, err := c.catalog.Lookup(channelID); err == nil {
		kind = channel.Kind
	}
	isXtra := kind == catalog.KindXtra

	lock := c.channelLock(channelID)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	cached := c.byChannel[channelID]
	c.mu.Unlock()

	if cached != nil && !isXtra {
		return cached, nil
	}

	request := tuneRequest{
		ID:         channelID,
		Type:       kind,
		HLSVersion: "V3",
		MTCVersion: "V2",
	}
	method := tuneSourceMethod
	if isXtra && cached != nil && cached.SourceContextID != "" {
		// Renegotiate the existing context instead of opening a new one.
		request.SourceContextID = cached.SourceContextID
		method = peekMethod
	} else if isXtra {
		request.ManifestVariant = "FULL"
	} else {
		request.ManifestVariant = "WEB"
	}

	data, err := c.client.Post(method, request, true)
	if err != nil {
		logger.Errorf("Couldn't tune channel %s: %v", channelID, err)
		return nil, fmt.Errorf("tune %s: %w", channelID, err)
	}

	var response tuneResponse
	if err := json.Unmarshal(data, &response); err != nil {
		logger.Errorf("Error decoding tune response for %s: %v", channelID, err)
		return nil, fmt.Errorf("decode tune response: %w", err)
	}
	if len(response.Streams) == 0 || len(response.Streams[0].URLs) == 0 {
		return nil, fmt.Errorf("tune response for %s carries no streams", channelID)
	}

	primary := response.Streams[0].URLs[0].URL
	slash := strings.LastIndex(primary, "/")
	if slash < 0 {
		return nil, fmt.Errorf("malformed stream url %q", primary)
	}

	descriptor := &Descriptor{
		BaseURL:    primary[:slash],
		ChannelTag: channelTag(primary[:slash]),
	}
	if isXtra {
		descriptor.SourceContextID = response.Streams[0].Metadata.Xtra.SourceContextID
		descriptor.SessionToken = mintSessionToken()
		descriptor.ExpiresAt = time.Now().Add(SessionTTL)
	}

	if err := c.selectQuality(descriptor, primary); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.byChannel[channelID] = descriptor
	if isXtra {
		c.bySession[descriptor.SessionToken] = descriptor
	}
	c.mu.Unlock()

	return descriptor, nil
}

// LookupBySession resolves a descriptor by its opaque session token. Used by
// segment and key requests so they never repeat negotiation.
func (c *Cache) LookupBySession(token string) (*Descriptor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	descriptor, ok := c.bySession[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return descriptor, nil
}

// selectQuality fetches the variant playlist behind the primary stream URL
// and resolves the fixed-bitrate rendition. No matching rendition means the
// tune failed for proxying purposes.
func (c *Cache) selectQuality(descriptor *Descriptor, primary string) error {
	data, err := c.media.Fetch(primary)
	if err != nil {
		logger.Errorf("Failed to fetch m3u8 stream details: %v", err)
		return fmt.Errorf("fetch variant playlist: %w", err)
	}

	playlist, listType, err := m3u8.DecodeFrom(bytes.NewReader(data), true)
	if err != nil {
		logger.Errorf("Failed to decode variant playlist: %v", err)
		return fmt.Errorf("decode variant playlist: %w", err)
	}
	if listType != m3u8.MASTER {
		return errors.New("variant playlist is not a master playlist")
	}

	master := playlist.(*m3u8.MasterPlaylist)
	for _, variant := range master.Variants {
		if variant == nil {
			continue
		}
		uri := variant.URI
		if !strings.Contains(uri, targetBitrate) || !strings.HasSuffix(uri, manifestSuffix) {
			continue
		}
		descriptor.ManifestPath = uri
		if i := strings.Index(uri, "/"); i >= 0 {
			descriptor.HLSTag = uri[:i]
		} else {
			descriptor.HLSTag = uri
		}
		return nil
	}
	return fmt.Errorf("no %s rendition in variant playlist", targetBitrate)
}

// channelTag extracts the backend channel tag, the second-to-last path
// element of the stream base URL.
func channelTag(baseURL string) string {
	parts := strings.Split(baseURL, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

var sessionTokenFloor = new(big.Int).Exp(big.NewInt(10), big.NewInt(37), nil)

// mintSessionToken returns a random integer in [10^37, 10^38) rendered as a
// string. Collisions are treated as negligible.
func mintSessionToken() string {
	n, err := rand.Int(rand.Reader, new(big.Int).Mul(sessionTokenFloor, big.NewInt(9)))
	if err != nil {
		// crypto/rand only fails when the platform source is broken.
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return new(big.Int).Add(sessionTokenFloor, n).String()
}
