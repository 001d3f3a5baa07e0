package m3uparser

import (
	"io"
	"strings"
)

type M3UTag struct {
	Tag   string
	Value string
}

type M3UTags []M3UTag

// M3UEntry represents a single entry of an M3U playlist.
type M3UEntry struct {
	URI   string  `json:"uri"`
	Title string  `json:"title"`
	Tags  M3UTags `json:"tags"`
}

func (entry *M3UEntry) String() string {
	var result string
	for _, tag := range entry.Tags {
		result += "#" + tag.Tag + ":" + tag.Value + "\n"
	}
	result += entry.URI + "\n"
	return strings.Trim(result, "\n")
}

func (entry *M3UEntry) WriteTo(w io.Writer) (int64, error) {
	n := 0
	for _, tag := range entry.Tags {
		nBytes, _ := w.Write([]byte("#" + tag.Tag + ":" + tag.Value + "\n"))
		n += nBytes
	}
	nBytes, _ := w.Write([]byte(entry.URI + "\n"))
	n += nBytes
	return int64(n), nil
}

func (entry *M3UEntry) AddTag(tag string, value string) {
	entry.Tags = append(entry.Tags, M3UTag{tag, value})
}

func (tags M3UTags) GetValue(tag string) string {
	for _, t := range tags {
		if t.Tag == tag {
			return t.Value
		}
	}
	return ""
}

func (tags M3UTags) Exist(tag string) bool {
	for _, t := range tags {
		if t.Tag == tag {
			return true
		}
	}
	return false
}
