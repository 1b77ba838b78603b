// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the chi router for the monitoring surface.
//
// Everything here is read-only except /api/v1/flush, which is an
// operational action rather than a data mutation API — producers talk to
// the aggregator in-process, never over HTTP.
func NewRouter(handler *Handler, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(timeout))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/export", handler.Export)
		r.Get("/summary", handler.Summary)
		r.Get("/stats", handler.Stats)
		r.Get("/health", handler.Health)
		r.Post("/flush", handler.Flush)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
