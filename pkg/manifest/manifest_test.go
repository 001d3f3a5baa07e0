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
package manifest_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Unverifiedd/m3u8XM/pkg/catalog"
	"github.com/Unverifiedd/m3u8XM/pkg/manifest"
	"github.com/Unverifiedd/m3u8XM/pkg/sxmclient"
	"github.com/Unverifiedd/m3u8XM/pkg/tuner"
)

const subManifest = "#EXTM3U\n" +
	"#EXT-X-VERSION:3\n" +
	"#EXT-X-TARGETDURATION:10\n" +
	"#EXT-X-KEY:METHOD=AES-128,URI=\"https://api.edge-gateway.siriusxm.com/playback/key/v1/abcd-1234\",IV=0x0000000000000000000000000000DEAD\n" +
	"#EXTINF:10,\n" +
	"channel_256k_v3_1.aac\n" +
	"#EXTINF:10,\n" +
	"channel_256k_v3_2.aac\n" +
	"#EXT-X-ENDLIST\n"

func newCDN(t *testing.T, paths map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := paths[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if strings.HasSuffix(r.URL.Path, ".aac") {
			w.Header().Set("Content-Type", "audio/x-aac")
		} else {
			w.Header().Set("Content-Type", "application/x-mpegurl")
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRewriter(cat *catalog.Cache) *manifest.Rewriter {
	media := sxmclient.NewMediaClient(sxmclient.NewClient("u", "p"), time.Second)
	return manifest.NewRewriter(media, cat)
}

func TestChannelManifestRewrite(t *testing.T) {
	cdn := newCDN(t, map[string]string{"/base/256k/playlist.m3u8": subManifest})
	rewriter := newRewriter(catalog.NewStatic(nil))

	descriptor := &tuner.Descriptor{
		BaseURL:      cdn.URL + "/base",
		ManifestPath: "256k/playlist.m3u8",
		SessionToken: "12345678901234567890123456789012345678",
	}
	out, err := rewriter.ChannelManifest(descriptor, "ch-1")
	if err != nil {
		t.Fatalf("ChannelManifest failed: %v", err)
	}

	want := "#EXTM3U\n" +
		"#EXT-X-VERSION:3\n" +
		"#EXT-X-TARGETDURATION:10\n" +
		"#EXT-X-KEY:METHOD=AES-128,URI=\"/key/abcd-1234\",IV=0x0000000000000000000000000000DEAD\n" +
		"#EXTINF:10,\n" +
		"ch-1/channel_256k_v3_1.aac?12345678901234567890123456789012345678\n" +
		"#EXTINF:10,\n" +
		"ch-1/channel_256k_v3_2.aac?12345678901234567890123456789012345678\n" +
		"#EXT-X-ENDLIST\n"
	if string(out) != want {
		t.Errorf("rewritten manifest mismatch\ngot:\n%s\nwant:\n%s", out, want)
	}
}

func TestChannelManifestKeepsLineCount(t *testing.T) {
	cdn := newCDN(t, map[string]string{"/base/256k/playlist.m3u8": subManifest})
	rewriter := newRewriter(catalog.NewStatic(nil))

	descriptor := &tuner.Descriptor{BaseURL: cdn.URL + "/base", ManifestPath: "256k/playlist.m3u8"}
	out, err := rewriter.ChannelManifest(descriptor, "ch-1")
	if err != nil {
		t.Fatalf("ChannelManifest failed: %v", err)
	}
	if got, want := strings.Count(string(out), "\n"), strings.Count(subManifest, "\n"); got != want {
		t.Errorf("line count changed, got %d newlines want %d", got, want)
	}
}

func TestChannelManifestLinearHasEmptyToken(t *testing.T) {
	cdn := newCDN(t, map[string]string{"/base/256k/playlist.m3u8": subManifest})
	rewriter := newRewriter(catalog.NewStatic(nil))

	descriptor := &tuner.Descriptor{BaseURL: cdn.URL + "/base", ManifestPath: "256k/playlist.m3u8"}
	out, err := rewriter.ChannelManifest(descriptor, "ch-1")
	if err != nil {
		t.Fatalf("ChannelManifest failed: %v", err)
	}
	if !strings.Contains(string(out), "ch-1/channel_256k_v3_1.aac?\n") {
		t.Errorf("linear segments must carry an empty token query:\n%s", out)
	}
}

func TestChannelManifestHandlesCRLF(t *testing.T) {
	crlf := strings.ReplaceAll(subManifest, "\n", "\r\n")
	cdn := newCDN(t, map[string]string{"/base/256k/playlist.m3u8": crlf})
	rewriter := newRewriter(catalog.NewStatic(nil))

	descriptor := &tuner.Descriptor{BaseURL: cdn.URL + "/base", ManifestPath: "256k/playlist.m3u8"}
	out, err := rewriter.ChannelManifest(descriptor, "ch-1")
	if err != nil {
		t.Fatalf("ChannelManifest failed: %v", err)
	}
	if !strings.Contains(string(out), "ch-1/channel_256k_v3_1.aac?\n") {
		t.Errorf("CRLF segment lines must still be rewritten:\n%s", out)
	}
}

func TestSegmentPassThrough(t *testing.T) {
	payload := "raw-aac-bytes"
	cdn := newCDN(t, map[string]string{"/base/AAC_Data/seg1.aac": payload})
	rewriter := newRewriter(catalog.NewStatic(nil))

	descriptor := &tuner.Descriptor{BaseURL: cdn.URL + "/base", HLSTag: "AAC_Data"}
	out, err := rewriter.Segment(descriptor, "seg1.aac")
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if !bytes.Equal(out, []byte(payload)) {
		t.Errorf("segments must pass through untouched, got %q", out)
	}
}

func TestPlaylist(t *testing.T) {
	rewriter := newRewriter(catalog.NewStatic([]catalog.Channel{
		{
			ID:         "ch-1",
			Title:      "Rock Hits",
			Genre:      "Rock",
			Number:     "21",
			Logo:       "https://images.example/logo1",
			ListenPath: "/listen/ch-1",
		},
		{
			ID:         "ch-2",
			Title:      "Jazz Cafe",
			Genre:      "Jazz",
			Number:     "67",
			Logo:       "https://images.example/logo2",
			ListenPath: "/listen/ch-2",
		},
	}))

	playlist, err := rewriter.Playlist()
	if err != nil {
		t.Fatalf("Playlist failed: %v", err)
	}

	want := "#EXTM3U\n" +
		"#EXTINF:-1 tvg-id=\"21\" tvg-logo=\"https://images.example/logo1\" group-title=\"Rock\",Rock Hits\n" +
		"/listen/ch-1\n" +
		"#EXTINF:-1 tvg-id=\"67\" tvg-logo=\"https://images.example/logo2\" group-title=\"Jazz\",Jazz Cafe\n" +
		"/listen/ch-2"
	if playlist != want {
		t.Errorf("playlist mismatch\ngot:\n%s\nwant:\n%s", playlist, want)
	}

	again, err := rewriter.Playlist()
	if err != nil {
		t.Fatalf("Playlist failed: %v", err)
	}
	if again != playlist {
		t.Error("playlist must be stable across calls")
	}
}
