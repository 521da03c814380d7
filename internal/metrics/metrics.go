// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package metrics exposes the Prometheus counters/gauges/histograms for the
// GDFA stack (sessions, engine steps, builder output), grounded on the
// teacher's internal/metrics package: one registry, one namespace constant,
// subsystem-scoped var blocks per concern (here: engine, builder;
// crypto.go/session.go cover the other two).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// namespace prefixes every metric name registered through this package.
const namespace = "zids"

// Registry is the process-wide Prometheus registry every metric in this
// package is registered against; Handler (server.go) serves it.
var Registry = prometheus.NewRegistry()

var (
	// EngineSteps counts per-byte Engine.Step calls, labeled by outcome
	// (ok, no_candidates, no_valid_candidate).
	EngineSteps = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "steps_total",
			Help:      "Total number of per-byte engine steps",
		},
		[]string{"outcome"},
	)

	// EngineCandidateAttempts counts individual (row,col) candidate
	// decode attempts within a step, labeled by whether the attempt
	// succeeded.
	EngineCandidateAttempts = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "candidate_attempts_total",
			Help:      "Total number of candidate-column decode attempts",
		},
		[]string{"result"}, // decoded, failed
	)

	// EngineHits counts accept ids appended to an engine's hit list.
	EngineHits = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "hits_total",
			Help:      "Total number of accept ids recorded across all scans",
		},
	)

	// BuilderCells counts ciphertext cells produced by the offline
	// builder, labeled by whether the cell is a real transition or
	// outmax dummy padding.
	BuilderCells = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "cells_total",
			Help:      "Total number of encrypted cells produced by a build",
		},
		[]string{"kind"}, // real, dummy
	)

	// BuilderRows counts rows emitted by the offline builder per build.
	BuilderRows = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "rows_total",
			Help:      "Total number of GDFA rows produced across builds",
		},
	)
)
