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
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Unverifiedd/m3u8XM/pkg/auth"
	"github.com/gorilla/mux"
)

func (s *Server) registerAPIRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/status", bearerAuth(s.statusAPIRequest))
	router.HandleFunc("/api/v1/channels", bearerAuth(s.channelsAPIRequest))
	router.HandleFunc("/api/v1/config", bearerAuth(s.configAPIRequest))
}

func (s *Server) handleAuthRequest(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	authParts := strings.SplitN(authHeader, " ", 2)
	token := authParts[1]

	user, err := auth.GetUserFromToken(token)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	resp := fmt.Sprintf(`{"user": "%s", "token": "%s"}`, user, token)
	w.Write([]byte(resp))
}

func (s *Server) statusAPIRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	status := struct {
		LoggedIn      bool `json:"logged_in"`
		Authenticated bool `json:"authenticated"`
	}{
		LoggedIn:      s.client.IsLoggedIn(),
		Authenticated: s.client.IsAuthenticated(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (s *Server) channelsAPIRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	channels, err := s.catalog.Channels()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(channels)
}

func (s *Server) configAPIRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Never leak credentials through the API.
	redacted := s.cfg
	redacted.Account.Password = ""
	if redacted.Auth != nil {
		authCopy := *redacted.Auth
		authCopy.Password = ""
		authCopy.SecretKey = ""
		redacted.Auth = &authCopy
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(redacted)
}
