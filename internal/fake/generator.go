// Package fake provides utilities for generating random query history for testing and development purposes.
package fake

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcstatus/internal/models"
)

// Inserter stores one query record.
type Inserter interface {
	InsertQuery(q models.QueryRecord) (int64, error)
}

// GenerateData populates the storage with a specified number of randomized query records.
// It simulates popular and rare servers, failure kinds, countries, and latencies.
// It returns the number of records written.
func GenerateData(store Inserter, count int) int {
	hosts := []string{"mc.hypixel.net", "play.cubecraft.net", "mc.mineplex.com", "play.example.org", "localhost"}
	outcomes := []string{
		models.OutcomeOK, models.OutcomeOK, models.OutcomeOK, models.OutcomeOK,
		models.OutcomeNoInformation, "timeout", "connection", "protocol",
	}
	errorsByOutcome := map[string]string{
		"timeout":    "query timed out: read tcp: i/o timeout",
		"connection": "connection failed: dial tcp: connect: connection refused",
		"protocol":   "protocol violation: varint is too big",
	}

	// Countries list
	countriesHigh := []string{"US", "DE", "RU", "CN", "BR", "FR", "GB", "PL", "CZ", "KZ", "UA"}
	countriesLow := []string{"CA", "AU", "IT", "ES", "NL", "SE", "JP", "KR", "TR", "BE", "RO"}

	// Cache for server reuse
	type cachedServer struct {
		Host    string
		IP      string
		Country string
	}
	var servers []cachedServer

	written := 0
	for i := 0; i < count; i++ {
		// Random date-time in 30 days range
		queriedAt := time.Now().
			Add(-time.Duration(rand.Intn(30)) * 24 * time.Hour).
			Add(-time.Duration(rand.Intn(1440)) * time.Minute)

		var srv cachedServer

		// 60% chance to query an already seen server
		if len(servers) > 0 && rand.Float32() < 0.6 {
			srv = servers[rand.Intn(len(servers))]
		} else {
			srv.Host = hosts[rand.Intn(len(hosts))]
			srv.IP = fmt.Sprintf("%d.%d.%d.%d", rand.Intn(220)+1, rand.Intn(255), rand.Intn(255), rand.Intn(255))
			if rand.Float32() < 0.8 {
				srv.Country = countriesHigh[rand.Intn(len(countriesHigh))]
			} else {
				srv.Country = countriesLow[rand.Intn(len(countriesLow))]
			}
			servers = append(servers, srv)
		}

		outcome := outcomes[rand.Intn(len(outcomes))]
		record := models.QueryRecord{
			QueriedAt:   queriedAt,
			RequestID:   uuid.NewString(),
			Host:        srv.Host,
			Port:        25565 + rand.Intn(3),
			ClientIP:    fmt.Sprintf("10.%d.%d.%d", rand.Intn(255), rand.Intn(255), rand.Intn(255)+1),
			CountryCode: srv.Country,
			Outcome:     outcome,
			Error:       errorsByOutcome[outcome],
			LatencyMS:   int64(5 + rand.Intn(300)),
		}

		switch outcome {
		case models.OutcomeOK:
			record.RemoteIP = srv.IP
			record.PayloadSize = 100 + rand.Intn(4000)
		case models.OutcomeNoInformation:
			record.RemoteIP = srv.IP
			record.PayloadSize = len(`{"message":"no_information"}`)
		case "timeout":
			record.LatencyMS = 1000 + int64(rand.Intn(50))
		}

		if _, err := store.InsertQuery(record); err != nil {
			log.Warn().Err(err).Msg("Failed to generate fake query record")
			continue
		}
		written++
	}

	log.Info().Int("count", written).Msg("Fake query history generated")

	return written
}
