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
package catalog

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Unverifiedd/m3u8XM/pkg/logger"
	"github.com/Unverifiedd/m3u8XM/pkg/sxmclient"
)

const (
	// Curated-grouping page and container the web player browses for the
	// full channel lineup.
	browsePageMethod      = "browse/v1/pages/curated-grouping/403ab6a5-d3c9-4c2a-a722-a94a6a5fd056/view"
	browseContainerMethod = "browse/v1/pages/curated-grouping/403ab6a5-d3c9-4c2a-a722-a94a6a5fd056/containers/3JoBfOCIwo6FmTpzM1S2H7/view"

	containerID = "3JoBfOCIwo6FmTpzM1S2H7"
	setID       = "5mqCLZ21qAwnufKT8puUiM"
	pageSize    = 50
)

const (
	KindLinear = "channel-linear"
	KindXtra   = "channel-xtra"
)

var ErrChannelNotFound = errors.New("catalog: channel not found")

// Channel is one entry of the backend lineup, immutable after the catalog is
// populated.
type Channel struct {
	ID          string
	Title       string
	Description string
	Genre       string
	Number      string
	Kind        string
	Logo        string
	ListenPath  string
}

// Cache lazily fetches the channel lineup once per process and serves lookups
// from memory afterwards.
type Cache struct {
	client *sxmclient.Client

	mu       sync.Mutex
	channels []Channel
	byID     map[string]int
	loaded   bool
}

func New(client *sxmclient.Client) *Cache {
	return &Cache{client: client}
}

// NewStatic returns a pre-populated cache that never hits the backend.
func NewStatic(channels []Channel) *Cache {
	c := &Cache{loaded: true, channels: channels, byID: make(map[string]int)}
	for i, channel := range channels {
		c.byID[channel.ID] = i
	}
	return c
}

// Channels returns the full lineup, fetching it on first use.
func (c *Cache) Channels() ([]Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadLocked(); err != nil {
		return nil, err
	}
	return c.channels, nil
}

// Lookup resolves a channel by its entity id, fetching the lineup on first
// use.
func (c *Cache) Lookup(id string) (Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadLocked(); err != nil {
		return Channel{}, err
	}
	index, ok := c.byID[id]
	if !ok {
		return Channel{}, fmt.Errorf("%w: %s", ErrChannelNotFound, id)
	}
	return c.channels[index], nil
}

func (c *Cache) loadLocked() error {
	if c.loaded {
		return nil
	}

	init := browseInit{}
	init.ContainerConfiguration = map[string]containerConfig{
		containerID: {
			Filter: filterConfig{One: filterOne{FilterID: "all"}},
			Sets: map[string]setConfig{
				setID: {Sort: sortConfig{SortID: "CHANNEL_NUMBER_ASC"}},
			},
		},
	}
	init.Pagination.Offset.ContainerLimit = 3
	init.Pagination.Offset.SetItemsLimit = pageSize
	init.DeviceCapabilities.SupportsDownloads = false

	data, err := c.client.Post(browsePageMethod, init, true)
	if err != nil {
		logger.Errorf("Unable to get init channel list: %v", err)
		return fmt.Errorf("init channel list: %w", err)
	}

	var page browsePageResponse
	if err := json.Unmarshal(data, &page); err != nil {
		logger.Errorf("Error decoding init channel list: %v", err)
		return fmt.Errorf("decode init channel list: %w", err)
	}
	if len(page.Page.Containers) == 0 || len(page.Page.Containers[0].Sets) == 0 {
		return errors.New("init channel list carries no containers")
	}

	channels := make([]Channel, 0)
	byID := make(map[string]int)
	firstSet := page.Page.Containers[0].Sets[0]
	for _, item := range firstSet.Items {
		channel := channelFromItem(item)
		byID[channel.ID] = len(channels)
		channels = append(channels, channel)
	}

	total := firstSet.Pagination.Offset.Size
	for offset := pageSize; offset < total; offset += pageSize {
		chunk := browseChunk{}
		chunk.Filter.One.FilterID = "all"
		chunk.Sets = map[string]chunkSetConfig{
			setID: {
				Sort: sortConfig{SortID: "CHANNEL_NUMBER_ASC"},
				Pagination: &chunkPagination{
					Offset: chunkOffset{SetItemsOffset: offset, SetItemsLimit: pageSize},
				},
			},
		}
		chunk.Pagination.Offset.SetItemsLimit = pageSize

		data, err := c.client.Post(browseContainerMethod, chunk, true)
		if err != nil {
			logger.Errorf("Unable to fetch channel list chunk at offset %d: %v", offset, err)
			return fmt.Errorf("channel list chunk: %w", err)
		}

		var container browseContainerResponse
		if err := json.Unmarshal(data, &container); err != nil {
			logger.Errorf("Error decoding channel list chunk: %v", err)
			return fmt.Errorf("decode channel list chunk: %w", err)
		}
		if len(container.Container.Sets) == 0 {
			return errors.New("channel list chunk carries no sets")
		}
		for _, item := range container.Container.Sets[0].Items {
			channel := channelFromItem(item)
			byID[channel.ID] = len(channels)
			channels = append(channels, channel)
		}
	}

	logger.Infof("Loaded %d channels from backend catalog", len(channels))
	c.channels = channels
	c.byID = byID
	c.loaded = true
	return nil
}

func channelFromItem(item browseItem) Channel {
	kind := KindLinear
	if len(item.Actions.Play) > 0 && item.Actions.Play[0].Entity.Type != "" {
		kind = item.Actions.Play[0].Entity.Type
	}
	return Channel{
		ID:          item.Entity.ID,
		Title:       item.Entity.Texts.Title.Default,
		Description: item.Entity.Texts.Description.Default,
		Genre:       item.Decorations.Genre,
		Number:      item.Decorations.ChannelNumber.String(),
		Kind:        kind,
		Logo:        logoURL(item),
		ListenPath:  "/listen/" + item.Entity.ID,
	}
}

// logoURL builds the image CDN URL: the CDN takes the base64 encoding of a
// compact JSON edit spec as its path.
func logoURL(item browseItem) string {
	preferred := item.Entity.Images.Tile.Aspect1x1.Preferred
	if preferred.URL == "" {
		return ""
	}
	spec := imageRequest{
		Key: preferred.URL,
		Edits: []imageEdit{
			{Format: &imageFormat{Type: "jpeg"}},
			{Resize: &imageResize{Width: preferred.Width, Height: preferred.Height}},
		},
	}
	data, err := json.Marshal(spec)
	if err != nil {
		return ""
	}
	return sxmclient.ImageCDNBase + base64.StdEncoding.EncodeToString(data)
}
