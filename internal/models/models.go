// Package models defines the data structures used for API responses and database persistence.
package models

import "time"

// Query outcomes stored in history.
const (
	OutcomeOK            = "ok"
	OutcomeNoInformation = "no_information"
)

// QueryRecord is one status query as stored in the history table.
// Outcome is OutcomeOK, OutcomeNoInformation or the error kind of a failed query.
type QueryRecord struct {
	QueriedAt   time.Time `json:"queried_at"`
	RequestID   string    `json:"request_id"`
	Host        string    `json:"host"`
	RemoteIP    string    `json:"remote_ip"`
	CountryCode string    `json:"country_code"`
	ClientIP    string    `json:"client_ip"`
	Outcome     string    `json:"outcome"`
	Error       string    `json:"error,omitempty"`
	ID          int64     `json:"id"`
	LatencyMS   int64     `json:"latency_ms"`
	Port        int       `json:"port"`
	PayloadSize int       `json:"payload_size"`
}

// SourceInfo is the subset of an A2S_INFO reply returned by the admin API.
type SourceInfo struct {
	Name        string `json:"name"`
	Map         string `json:"map"`
	Game        string `json:"game"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	LatencyMS   int64  `json:"latency_ms"`
	Players     byte   `json:"players"`
	MaxPlayers  byte   `json:"max_players"`
}
