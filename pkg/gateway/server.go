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

// Package gateway is the HTTP front end of the proxy: it dispatches player
// requests to the tuning cache and the manifest rewriter and streams back
// raw bytes with the right content type.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Unverifiedd/m3u8XM/pkg/auth"
	"github.com/Unverifiedd/m3u8XM/pkg/catalog"
	"github.com/Unverifiedd/m3u8XM/pkg/logger"
	"github.com/Unverifiedd/m3u8XM/pkg/manifest"
	"github.com/Unverifiedd/m3u8XM/pkg/sxmclient"
	"github.com/Unverifiedd/m3u8XM/pkg/tuner"

	"github.com/gorilla/mux"
)

type Server struct {
	cfg      ConfigData
	client   *sxmclient.Client
	catalog  *catalog.Cache
	tuner    *tuner.Cache
	rewriter *manifest.Rewriter
	geo      *geoIPFilter
}

func New(cfg ConfigData) *Server {
	client := sxmclient.NewClient(cfg.Account.Username, cfg.Account.Password)
	client.SetTimeout(time.Duration(cfg.Timeout) * time.Second)
	media := sxmclient.NewMediaClient(client, time.Duration(cfg.Timeout)*time.Second)
	cat := catalog.New(client)

	return &Server{
		cfg:      cfg,
		client:   client,
		catalog:  cat,
		tuner:    tuner.New(client, media, cat),
		rewriter: manifest.NewRewriter(media, cat),
	}
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/playlist.m3u8", s.handlePlaylist)
	router.HandleFunc("/listen/{channelId}/{segment}", s.handleSegment)
	router.HandleFunc("/listen/{channelId}", s.handleListen)
	router.HandleFunc("/key/{uuid}", s.handleKey)
	router.HandleFunc("/health", s.handleHealth)
	if auth.Enabled() {
		router.HandleFunc("/auth", basicAuth(s.handleAuthRequest))
		s.registerAPIRoutes(router)
	}
	return router
}

// Run loads the configuration and serves until SIGINT/SIGTERM.
func Run(configFile string) {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.LogFile)

	if cfg.Auth != nil {
		if err := auth.Initialize(*cfg.Auth); err != nil {
			logger.Fatalf("Failed to initialize authentication: %v", err)
		}
	}

	server := New(cfg)

	if geo, err := newGeoIPFilter(cfg.Security.GeoIP); err != nil {
		logger.Warnf("GeoIP database not available, geo-location will not be enforced: %v", err)
	} else {
		server.geo = geo
	}

	server.tuner.StartSweeper(time.Duration(cfg.SweepInterval) * time.Second)

	var handler http.Handler = server.routes()
	if server.geo != nil {
		handler = server.geo.middleware(handler)
	}

	httpd := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: handler,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		logger.Infof("Gateway listening on %s", httpd.Addr)
		if err := httpd.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Server failed: %v", err)
		}
	}()

	<-quit

	logger.Info("Shutting down gateway...")
	server.tuner.StopSweeper()
	if server.geo != nil {
		server.geo.close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpd.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
	logger.Info("Gateway stopped.")
}
