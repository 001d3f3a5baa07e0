package sxmclient_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Unverifiedd/m3u8XM/pkg/sxmclient"
)

func TestMediaFetch(t *testing.T) {
	payload := []byte("#EXTM3U\n#EXT-X-VERSION:3\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-mpegurl")
		w.Write(payload)
	}))
	defer srv.Close()

	media := sxmclient.NewMediaClient(sxmclient.NewClient("u", "p"), time.Second)
	body, err := media.Fetch(srv.URL + "/playlist.m3u8")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !bytes.Equal(body, payload) {
		t.Errorf("unexpected body %q", body)
	}
}

func TestMediaFetchRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	media := sxmclient.NewMediaClient(sxmclient.NewClient("u", "p"), time.Second)
	if _, err := media.Fetch(srv.URL + "/missing.m3u8"); err == nil {
		t.Fatal("expected an error for a 404 response")
	}
}

func TestMediaFetchRejectsUnknownContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	media := sxmclient.NewMediaClient(sxmclient.NewClient("u", "p"), time.Second)
	if _, err := media.Fetch(srv.URL + "/file"); err == nil {
		t.Fatal("expected an error for an unsupported content type")
	}
}

func TestMediaFetchRejectsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/x-aac")
	}))
	defer srv.Close()

	media := sxmclient.NewMediaClient(sxmclient.NewClient("u", "p"), time.Second)
	if _, err := media.Fetch(srv.URL + "/empty.aac"); err == nil {
		t.Fatal("expected an error for an empty body")
	}
}
