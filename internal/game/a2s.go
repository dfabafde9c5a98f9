// Package game queries game servers over the Source Engine Query (A2S) protocol.
package game

import (
	"fmt"
	"time"

	"github.com/woozymasta/a2s/pkg/a2s"
	"github.com/woozymasta/mcstatus/internal/config"
	"github.com/woozymasta/mcstatus/internal/models"
)

// QuerySource sends A2S_INFO to host:port over UDP and returns the server details.
func QuerySource(host string, port int, options config.A2S) (*models.SourceInfo, error) {
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("port %d out of range", port)
	}

	client, err := a2s.New(host, port)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	client.BufferSize = options.BufferSize
	client.Timeout = options.Timeout

	start := time.Now()
	info, err := client.GetInfo()
	if err != nil {
		return nil, err
	}

	return &models.SourceInfo{
		Name:        info.Name,
		Map:         info.Map,
		Game:        info.Game,
		Version:     info.Version,
		Environment: info.Environment.String(),
		Players:     info.Players,
		MaxPlayers:  info.MaxPlayers,
		LatencyMS:   time.Since(start).Milliseconds(),
	}, nil
}
