package server

import (
	"context"
	"sync"
	"time"

	"github.com/woozymasta/mcstatus/internal/config"
	"github.com/woozymasta/mcstatus/internal/geoip"
	"github.com/woozymasta/mcstatus/internal/metrics"
	"github.com/woozymasta/mcstatus/internal/models"
	"github.com/woozymasta/mcstatus/internal/status"
)

// Querier runs one status exchange against host:port.
// *status.Client satisfies it.
type Querier interface {
	Probe(ctx context.Context, host string, port int) (*status.Result, error)
}

// History stores query records. *storage.Repository satisfies it.
type History interface {
	InsertQuery(q models.QueryRecord) (int64, error)
	ListQueries(limit int) ([]models.QueryRecord, error)
	CountQueries() (int64, error)
	PruneQueries(before time.Time) (int64, error)
}

// SourceQueryFunc performs a Source engine A2S_INFO query.
type SourceQueryFunc func(host string, port int, options config.A2S) (*models.SourceInfo, error)

// Server holds the dependencies, configuration, and runtime state required
// to handle HTTP requests and background history recording.
type Server struct {
	// querier performs the status exchange for /status requests.
	querier Querier

	// history persists query records. Nil disables recording and the history API.
	history History

	// geoip resolves the queried server address to a country code.
	// It can be nil if the GeoIP database is not initialized.
	geoip *geoip.Provider

	// metrics collects query outcomes and serves /metrics.
	metrics *metrics.Metrics

	// sourceQuery backs the admin A2S endpoint.
	sourceQuery SourceQueryFunc

	// allowedHosts is a set of hashed lowercase host names (using xxhash) that may be queried.
	// An empty set allows any host.
	allowedHosts map[uint64]struct{}

	// queue passes history jobs from HTTP handlers to background workers.
	queue chan historyJob

	// shutdown broadcasts a stop signal to background routines during a graceful shutdown.
	shutdown chan struct{}

	// authToken is the bearer token required by the admin API.
	// Admin routes are not registered when it is empty.
	authToken string

	// a2sOptions holds the Source query settings.
	a2sOptions config.A2S

	// wg waits for the history workers to drain the queue.
	wg sync.WaitGroup

	// stopOnce guards StopWorkers against a second call.
	stopOnce sync.Once

	// workers is the size of the history worker pool.
	workers int

	// limitCount is the number of /status requests allowed per IP within limitWin.
	limitCount int

	// limitWin is the time window of the per-IP rate limiter.
	limitWin time.Duration

	// trustProxy indicates whether CF-Connecting-IP and X-Forwarded-For
	// are trusted when determining the client's real IP address.
	trustProxy bool
}

// historyJob is one finished query waiting to be stored.
type historyJob struct {
	// Record is complete except for the country code, resolved by the worker.
	Record models.QueryRecord
}
