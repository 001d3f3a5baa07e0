package catalog

import "encoding/json"

// Request payloads for the browse endpoints. Field names reproduce the wire
// schema of the web player.

type filterOne struct {
	FilterID string `json:"filterId"`
}

type filterConfig struct {
	One filterOne `json:"one"`
}

type sortConfig struct {
	SortID string `json:"sortId"`
}

type setConfig struct {
	Sort sortConfig `json:"sort"`
}

type containerConfig struct {
	Filter filterConfig         `json:"filter"`
	Sets   map[string]setConfig `json:"sets"`
}

type browseInit struct {
	ContainerConfiguration map[string]containerConfig `json:"containerConfiguration"`
	Pagination             struct {
		Offset struct {
			ContainerLimit int `json:"containerLimit"`
			SetItemsLimit  int `json:"setItemsLimit"`
		} `json:"offset"`
	} `json:"pagination"`
	DeviceCapabilities struct {
		SupportsDownloads bool `json:"supportsDownloads"`
	} `json:"deviceCapabilities"`
}

type chunkOffset struct {
	SetItemsOffset int `json:"setItemsOffset"`
	SetItemsLimit  int `json:"setItemsLimit"`
}

type chunkPagination struct {
	Offset chunkOffset `json:"offset"`
}

type chunkSetConfig struct {
	Sort       sortConfig       `json:"sort"`
	Pagination *chunkPagination `json:"pagination,omitempty"`
}

type browseChunk struct {
	Filter     filterConfig              `json:"filter"`
	Sets       map[string]chunkSetConfig `json:"sets"`
	Pagination struct {
		Offset struct {
			SetItemsLimit int `json:"setItemsLimit"`
		} `json:"offset"`
	} `json:"pagination"`
}

// Response shapes, trimmed to the consumed fields.

type browseSet struct {
	Items      []browseItem `json:"items"`
	Pagination struct {
		Offset struct {
			Size int `json:"size"`
		} `json:"offset"`
	} `json:"pagination"`
}

type browseContainerData struct {
	Sets []browseSet `json:"sets"`
}

type browsePageResponse struct {
	Page struct {
		Containers []browseContainerData `json:"containers"`
	} `json:"page"`
}

type browseContainerResponse struct {
	Container browseContainerData `json:"container"`
}

type browseItem struct {
	Entity struct {
		ID    string `json:"id"`
		Texts struct {
			Title struct {
				Default string `json:"default"`
			} `json:"title"`
			Description struct {
				Default string `json:"default"`
			} `json:"description"`
		} `json:"texts"`
		Images struct {
			Tile struct {
				Aspect1x1 struct {
					Preferred struct {
						URL    string `json:"url"`
						Width  int    `json:"width"`
						Height int    `json:"height"`
					} `json:"preferred"`
				} `json:"aspect_1x1"`
			} `json:"tile"`
		} `json:"images"`
	} `json:"entity"`
	Decorations struct {
		Genre         string      `json:"genre"`
		ChannelNumber json.Number `json:"channelNumber"`
	} `json:"decorations"`
	Actions struct {
		Play []struct {
			Entity struct {
				Type string `json:"type"`
			} `json:"entity"`
		} `json:"play"`
	} `json:"actions"`
}

// imageRequest is the edit spec the image CDN expects, base64 encoded into
// the URL path. Field order matters, the CDN treats the encoding as a cache
// key.
type imageRequest struct {
	Key   string      `json:"key"`
	Edits []imageEdit `json:"edits"`
}

type imageEdit struct {
	Format *imageFormat `json:"format,omitempty"`
	Resize *imageResize `json:"resize,omitempty"`
}

type imageFormat struct {
	Type string `json:"type"`
}

type imageResize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
