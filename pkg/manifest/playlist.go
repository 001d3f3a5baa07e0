package manifest

import (
	"github.com/Unverifiedd/m3u8XM/pkg/catalog"
	"github.com/Unverifiedd/m3u8XM/pkg/m3uparser"
)

// m3uPlaylist renders the channel lineup as an extended M3U document with
// tvg metadata for each channel.
func m3uPlaylist(channels []catalog.Channel) string {
	playlist := m3uparser.M3UPlaylist{
		Entries: make([]m3uparser.M3UEntry, 0, len(channels)),
	}
	for _, channel := range channels {
		tvg := m3uparser.M3UTvgTags{
			{Tag: "tvg-id", Value: channel.Number},
			{Tag: "tvg-logo", Value: channel.Logo},
			{Tag: "group-title", Value: channel.Genre},
		}
		entry := m3uparser.M3UEntry{
			URI:   channel.ListenPath,
			Title: channel.Title,
			Tags: m3uparser.M3UTags{
				{Tag: "EXTINF", Value: "-1 " + tvg.String() + "," + channel.Title},
			},
		}
		playlist.Entries = append(playlist.Entries, entry)
	}
	return playlist.String()
}
