// Package maintenance provides one-shot tasks run instead of the server.
package maintenance

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcstatus/internal/config"
	"github.com/woozymasta/mcstatus/internal/models"
	"github.com/woozymasta/mcstatus/internal/status"
)

// Store is the part of the history storage used by maintenance tasks.
type Store interface {
	ListQueries(limit int) ([]models.QueryRecord, error)
	CountQueries() (int64, error)
	PruneQueries(before time.Time) (int64, error)
}

// Prober runs one status exchange.
type Prober interface {
	Probe(ctx context.Context, host string, port int) (*status.Result, error)
}

// Run checks if any maintenance flags are set and executes the corresponding task,
// writing its output to w. store may be nil when history is disabled.
// Returns true if a maintenance task was executed (indicating the program should exit).
func Run(cfg *config.Config, store Store, prober Prober, w io.Writer) bool {
	switch {
	case cfg.Maintenance.Check != "":
		if err := check(cfg.Maintenance.Check, prober, w); err != nil {
			log.Error().Err(err).Str("address", cfg.Maintenance.Check).Str("kind", string(status.Kind(err))).Msg("Status check failed")
		}
		return true

	case cfg.Maintenance.List > 0:
		if store == nil {
			log.Error().Msg("Query history is disabled, nothing to list")
			return true
		}
		if err := list(store, cfg.Maintenance.List, w); err != nil {
			log.Error().Err(err).Msg("Failed to list query history")
		}
		return true

	case cfg.Maintenance.PruneOlder > 0:
		if store == nil {
			log.Error().Msg("Query history is disabled, nothing to prune")
			return true
		}

		log.Info().Dur("older_than", cfg.Maintenance.PruneOlder).Msg("Pruning query history...")
		count, err := store.PruneQueries(time.Now().Add(-cfg.Maintenance.PruneOlder))
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune query history")
		} else {
			log.Info().Int64("deleted", count).Msg("Prune finished")
		}
		return true
	}

	return false
}

// check queries address once and prints the status payload.
func check(address string, prober Prober, w io.Writer) error {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("invalid port %q", portStr)
	}

	res, err := prober.Probe(context.Background(), host, port)
	if err != nil {
		return err
	}

	log.Debug().
		Str("host", host).
		Int("port", port).
		Str("remote", res.RemoteAddr).
		Dur("duration", res.Latency).
		Bool("recognized", res.Recognized).
		Msg("Status received")

	_, err = fmt.Fprintln(w, res.Payload)
	return err
}

// list prints the last limit history records as a table followed by the stored total.
func list(store Store, limit int, w io.Writer) error {
	records, err := store.ListQueries(limit)
	if err != nil {
		return err
	}

	total, err := store.CountQueries()
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Time", "Host", "Port", "Outcome", "Latency", "Size", "Country", "Client"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	for _, r := range records {
		table.Append([]string{
			r.QueriedAt.Local().Format(time.DateTime),
			r.Host,
			strconv.Itoa(r.Port),
			r.Outcome,
			(time.Duration(r.LatencyMS) * time.Millisecond).String(),
			strconv.Itoa(r.PayloadSize),
			r.CountryCode,
			r.ClientIP,
		})
	}
	table.Render()

	_, err = fmt.Fprintf(w, "%d of %d records\n", len(records), total)
	return err
}
