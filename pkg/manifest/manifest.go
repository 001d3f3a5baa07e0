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

// Package manifest rewrites backend-issued HLS documents into locally rooted
// equivalents. Players depend on structural fidelity, so sub-manifests are
// processed line by line and returned with line count and order unchanged.
package manifest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Unverifiedd/m3u8XM/pkg/catalog"
	"github.com/Unverifiedd/m3u8XM/pkg/logger"
	"github.com/Unverifiedd/m3u8XM/pkg/sxmclient"
	"github.com/Unverifiedd/m3u8XM/pkg/tuner"
)

const (
	localKeyPrefix = "/key/"
	segmentSuffix  = ".aac"
)

// Rewriter builds the top-level channel playlist and rewrites per-channel
// sub-manifests and segment URLs.
type Rewriter struct {
	media   *sxmclient.MediaClient
	catalog *catalog.Cache

	mu       sync.Mutex
	playlist string
}

func NewRewriter(media *sxmclient.MediaClient, cat *catalog.Cache) *Rewriter {
	return &Rewriter{media: media, catalog: cat}
}

// Playlist enumerates every known channel with display metadata and a
// locally rooted listen path. The catalog is static for the process, so the
// result is memoized after the first build.
func (r *Rewriter) Playlist() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playlist != "" {
		return r.playlist, nil
	}

	channels, err := r.catalog.Channels()
	if err != nil {
		return "", fmt.Errorf("build playlist: %w", err)
	}

	playlist := m3uPlaylist(channels)
	r.playlist = playlist
	return playlist, nil
}

// ChannelManifest fetches the quality-specific sub-manifest for the
// descriptor and rewrites it for local serving: key-service URLs become
// /key/{uuid} paths and every audio segment line is re-rooted under the
// channel id, carrying the session token as its query.
func (r *Rewriter) ChannelManifest(descriptor *tuner.Descriptor, channelID string) ([]byte, error) {
	uri := descriptor.BaseURL + "/" + descriptor.ManifestPath
	data, err := r.media.Fetch(uri)
	if err != nil {
		logger.Errorf("Failed to fetch AAC stream list: %v", err)
		return nil, fmt.Errorf("fetch channel manifest: %w", err)
	}

	text := strings.Replace(string(data), sxmclient.KeyServicePrefix, localKeyPrefix, 1)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		lines[i] = line
		if strings.HasSuffix(strings.TrimRight(line, " \t"), segmentSuffix) {
			lines[i] = fmt.Sprintf("%s/%s?%s", channelID, line, descriptor.SessionToken)
		}
	}
	return []byte(strings.Join(lines, "\n")), nil
}

// Segment returns the raw bytes of one audio segment. Segments are opaque
// and never rewritten.
func (r *Rewriter) Segment(descriptor *tuner.Descriptor, name string) ([]byte, error) {
	uri := fmt.Sprintf("%s/%s/%s", descriptor.BaseURL, descriptor.HLSTag, name)
	data, err := r.media.Fetch(uri)
	if err != nil {
		return nil, fmt.Errorf("fetch segment %s: %w", name, err)
	}
	return data, nil
}
