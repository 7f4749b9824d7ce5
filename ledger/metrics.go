// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type stateMetrics struct {
	transactionsApplied prometheus.Counter
	transactionsSkipped prometheus.Counter
	eventsApplied       *prometheus.CounterVec
	eventsSkipped       *prometheus.CounterVec
	underflows          *prometheus.CounterVec
	cursorBlock         prometheus.Gauge
	applyDuration       prometheus.Histogram
}

func (m *stateMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.transactionsApplied = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "ajnadex_ledger_transactions_applied_total",
		Help: "transactions applied to the ledgers",
	})
	m.transactionsSkipped = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "ajnadex_ledger_transactions_skipped_total",
		Help: "transactions at or before the cursor that were not applied again",
	})
	m.eventsApplied = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ajnadex_ledger_events_applied_total",
			Help: "events applied to the ledgers by name",
		},
		[]string{"event"},
	)
	m.eventsSkipped = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ajnadex_ledger_events_skipped_total",
			Help: "events archived without ledger changes by reason",
		},
		[]string{"reason"},
	)
	m.underflows = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ajnadex_ledger_underflows_total",
			Help: "subtractions clamped at zero by field",
		},
		[]string{"field"},
	)
	m.cursorBlock = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "ajnadex_ledger_cursor_block",
		Help: "block number of the last applied transaction",
	})
	m.applyDuration = promautoFactory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ajnadex_ledger_apply_duration_seconds",
			Help:    "time to apply and commit one transaction",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
	)
}
