// file: internal/metrics/metrics.go
// version: 1.0.0
// guid: 0d1e2f3a-4b5c-6d7e-8f9a-0b1c2d3e4f5a

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the processing pipeline. Registered on the default registry
// and exposed by the server's /metrics endpoint.
var (
	BooksProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audible_tagger_books_processed_total",
		Help: "Number of audiobooks tagged and moved into the library",
	})

	BooksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audible_tagger_books_failed_total",
		Help: "Number of audiobooks that failed processing",
	})

	BooksSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audible_tagger_books_skipped_total",
		Help: "Number of audiobooks explicitly skipped",
	})

	SearchesByLocale = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audible_tagger_catalog_searches_total",
		Help: "Catalog search requests by Audible locale",
	}, []string{"locale"})

	TagKeysSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audible_tagger_tag_keys_skipped_total",
		Help: "Tag keys dropped during writing, by backend",
	}, []string{"backend"})
)
