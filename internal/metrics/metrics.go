// Package metrics exposes the Prometheus series this auth provider emits.
// Every collector is registered against a package-local Registry, never the
// global prometheus.DefaultRegisterer, so a process embedding more than one
// provider (or more than one of this package's tests) never collides.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "authprovider"

// Registry is this package's private Prometheus registry. session.go,
// handshake.go and crypto.go in this package register their own collectors
// here too.
var Registry = prometheus.NewRegistry()

var (
	// FramesClassified counts inbound wire frames by classified type.
	FramesClassified = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "wire",
		Name:      "frames_classified_total",
		Help:      "Total inbound frames by classified type.",
	}, []string{"type"}) // auth, encrypted, pass_through, invalid

	// BufferedMessages tracks how many handshake payloads are currently
	// parked in internal/buffer awaiting a session.
	BufferedMessages = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "buffer",
		Name:      "pending_messages",
		Help:      "Handshake payloads currently buffered awaiting a session.",
	})

	// PersistenceOps counts store.Save/store.Load calls by outcome.
	PersistenceOps = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "persist",
		Name:      "operations_total",
		Help:      "Total persistence operations by op and outcome.",
	}, []string{"op", "outcome"}) // save/load, ok/error
)
