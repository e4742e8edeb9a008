// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/go-lichen/internal/log"
	"github.com/probechain/go-lichen/lang/engine"
)

var (
	httpAddrFlag = cli.StringFlag{
		Name:  "http.addr",
		Usage: "HTTP listening address",
		Value: defaultHTTPConfig.Addr,
	}
	httpRateFlag = cli.Float64Flag{
		Name:  "http.rate",
		Usage: "Requests per second served (0 = unlimited)",
		Value: defaultHTTPConfig.Rate,
	}
	httpBurstFlag = cli.IntFlag{
		Name:  "http.burst",
		Usage: "Requests served in a burst above the rate",
		Value: defaultHTTPConfig.Burst,
	}
	httpOriginsFlag = cli.StringSliceFlag{
		Name:  "http.corsdomain",
		Usage: "Origins from which to accept cross origin requests",
	}

	httpFlags = []cli.Flag{httpAddrFlag, httpRateFlag, httpBurstFlag, httpOriginsFlag}

	serveCommand = cli.Command{
		Action:   serve,
		Name:     "serve",
		Usage:    "Serve the compiler over HTTP",
		Flags:    httpFlags,
		Category: "COMPILER COMMANDS",
		Description: `
Routes:

  POST /compile   {"source": "..."}                  -> WAT text and module
  POST /run       {"source": "...", "args": [1, 2]}  -> result value and logs
  GET  /health                                       -> version`,
	}
)

// request is the body of /compile and /run.
type request struct {
	Source string  `json:"source"`
	Args   []int32 `json:"args,omitempty"`
}

type compileResponse struct {
	ID string `json:"id"`
	*engine.CompileResult
}

type runResponse struct {
	ID string `json:"id"`
	*engine.RunResult
}

// server answers the HTTP API.
type server struct {
	api     *engine.API
	limiter *rate.Limiter
	maxBody int64
	log     log.Logger
}

// newHandler builds the routed, rate limited and CORS wrapped handler.
func newHandler(api *engine.API, cfg httpConfig) http.Handler {
	s := &server{
		api:     api,
		maxBody: cfg.MaxSource,
		log:     log.New("module", "http"),
	}
	if cfg.Rate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst)
	}
	router := httprouter.New()
	router.POST("/compile", s.limit(s.compile))
	router.POST("/run", s.limit(s.run))
	router.GET("/health", s.health)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         600,
	})
	return c.Handler(router)
}

func (s *server) limit(h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if s.limiter != nil && !s.limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		h(w, r, ps)
	}
}

func (s *server) decode(w http.ResponseWriter, r *http.Request) (*request, bool) {
	var req request
	if s.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func (s *server) compile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	id := uuid.New().String()
	res := s.api.Compile(r.Context(), req.Source)
	s.log.Debug("Served compile", "id", id, "success", res.Success, "err", res.Error)
	writeJSON(w, &compileResponse{ID: id, CompileResult: res})
}

func (s *server) run(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	id := uuid.New().String()
	res := s.api.Run(r.Context(), req.Source, req.Args)
	s.log.Debug("Served run", "id", id, "success", res.Success, "steps", res.Steps, "err", res.Error)
	writeJSON(w, &runResponse{ID: id, RunResult: res})
}

func (s *server) health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, map[string]string{"status": "ok", "version": s.api.Version(r.Context())})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func serve(ctx *cli.Context) error {
	e, cfg := makeEngine(ctx)
	defer e.Close()

	listener, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:      newHandler(engine.NewAPI(e), cfg.HTTP),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Info("HTTP server started", "endpoint", listener.Addr(), "cors", cfg.HTTP.Origins, "rate", cfg.HTTP.Rate)

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(listener) }()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	select {
	case err := <-errc:
		return err
	case <-sigc:
		log.Info("Got interrupt, shutting down...")
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdown)
}
