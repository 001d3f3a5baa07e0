package m3uparser

import "strings"

type M3UTvgTag struct {
	Tag   string
	Value string
}

type M3UTvgTags []M3UTvgTag

func (tag *M3UTvgTag) String() string {
	return tag.Tag + "=\"" + tag.Value + "\""
}

func (tags M3UTvgTags) String() string {
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		parts = append(parts, tag.String())
	}
	return strings.Join(parts, " ")
}

func (tags M3UTvgTags) GetValue(tag string) string {
	for _, t := range tags {
		if t.Tag == tag {
			return t.Value
		}
	}
	return ""
}
