// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Kontrol holds the application counters.
type Kontrol struct {
	Transitions  *prometheus.CounterVec
	Denied       *prometheus.CounterVec
	History      *prometheus.CounterVec
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec
}

func NewKontrol() *Kontrol {
	return &Kontrol{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kontrol_defect_transitions_total",
			Help: "Accepted defect status transitions",
		}, []string{"from", "to", "role"}),
		Denied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kontrol_authorization_denied_total",
			Help: "Actions rejected by the access policy or the workflow",
		}, []string{"action"}),
		History: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kontrol_history_entries_total",
			Help: "Audit entries written",
		}, []string{"action"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kontrol_http_requests_total",
			Help: "HTTP requests served",
		}, []string{"method", "status"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kontrol_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

func (k *Kontrol) Collectors() []prometheus.Collector {
	return []prometheus.Collector{k.Transitions, k.Denied, k.History, k.HTTPRequests, k.HTTPLatency}
}

// The helpers below accept a nil receiver so callers in tests can skip metrics.

func (k *Kontrol) ObserveTransition(from, to, role string) {
	if k != nil {
		k.Transitions.WithLabelValues(from, to, role).Inc()
	}
}

func (k *Kontrol) ObserveDenied(action string) {
	if k != nil {
		k.Denied.WithLabelValues(action).Inc()
	}
}

func (k *Kontrol) ObserveHistory(action string) {
	if k != nil {
		k.History.WithLabelValues(action).Inc()
	}
}
