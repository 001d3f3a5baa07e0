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
package gateway

import (
	"encoding/base64"
	"net/http"

	"github.com/Unverifiedd/m3u8XM/pkg/logger"
	"github.com/Unverifiedd/m3u8XM/pkg/tuner"
	"github.com/gorilla/mux"
)

const (
	contentTypePlaylist = "application/x-mpegURL"
	contentTypeSegment  = "audio/x-aac"
	contentTypeKey      = "text/plain"
)

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	playlist, err := s.rewriter.Playlist()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypePlaylist)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(playlist))
}

func (s *Server) handleListen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	channelID := mux.Vars(r)["channelId"]
	descriptor, err := s.tuner.Tune(channelID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	data, err := s.rewriter.ChannelManifest(descriptor, channelID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypePlaylist)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleSegment serves one audio segment. Requests rewritten from an xtra
// manifest carry the session token as the raw query string and resolve their
// descriptor without renegotiation.
func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	vars := mux.Vars(r)
	channelID := vars["channelId"]
	segment := vars["segment"]

	var descriptor *tuner.Descriptor
	var err error
	if token := r.URL.RawQuery; token != "" {
		descriptor, err = s.tuner.LookupBySession(token)
	} else {
		descriptor, err = s.tuner.Tune(channelID)
	}
	if err != nil {
		logger.Warnf("No stream state for segment %s/%s: %v", channelID, segment, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	data, err := s.rewriter.Segment(descriptor, segment)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeSegment)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := mux.Vars(r)["uuid"]
	encoded, err := s.client.DecryptionKey(id)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		logger.Errorf("Failed to decode AES key %s: %v", id, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeKey)
	w.WriteHeader(http.StatusOK)
	w.Write(key)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
