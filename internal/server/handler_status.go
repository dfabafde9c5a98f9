package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/woozymasta/mcstatus/internal/geoip"
	"github.com/woozymasta/mcstatus/internal/logger"
	"github.com/woozymasta/mcstatus/internal/models"
	"github.com/woozymasta/mcstatus/internal/status"
)

// handleStatus queries /status/{host}/{port} and relays the status document verbatim.
// Failures are answered with a JSON message named after the error kind.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.Component("server")

	host := r.PathValue("host")
	port, err := strconv.Atoi(r.PathValue("port"))
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid_port")
		return
	}
	if port < 0 || port > 65535 {
		respondMessage(w, http.StatusBadRequest, "port_out_of_range")
		return
	}
	if !s.hostAllowed(host) {
		log.Debug().
			Str("host", host).
			Int("port", port).
			Msg("Host not allowed")

		respondMessage(w, http.StatusForbidden, "host_not_allowed")
		return
	}

	start := time.Now()
	res, err := s.querier.Probe(r.Context(), host, port)
	elapsed := time.Since(start)

	record := models.QueryRecord{
		QueriedAt: start,
		RequestID: RequestID(r.Context()),
		Host:      host,
		Port:      port,
		ClientIP:  GetRealIP(r, s.trustProxy),
		LatencyMS: elapsed.Milliseconds(),
	}

	if err != nil {
		kind := status.Kind(err)
		record.Outcome = string(kind)
		record.Error = err.Error()
		s.metrics.ObserveQuery(record.Outcome, elapsed)
		s.enqueue(record)

		log.Debug().
			Err(err).
			Str("request_id", record.RequestID).
			Str("host", host).
			Int("port", port).
			Str("kind", string(kind)).
			Dur("duration", elapsed).
			Msg("Status query failed")

		code, message := errorResponse(kind)
		respondMessage(w, code, message)
		return
	}

	record.Outcome = models.OutcomeOK
	if !res.Recognized {
		record.Outcome = models.OutcomeNoInformation
	}
	if ip := geoip.ParseIP(res.RemoteAddr); ip != nil {
		record.RemoteIP = ip.String()
	}
	record.PayloadSize = len(res.Payload)
	s.metrics.ObserveQuery(record.Outcome, elapsed)
	s.enqueue(record)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(res.Payload))
}

// errorResponse maps an error kind to the HTTP status and message of the reply.
func errorResponse(kind status.ErrorKind) (int, string) {
	switch kind {
	case status.KindConnection:
		return http.StatusBadGateway, "connection_failed"
	case status.KindTimeout:
		return http.StatusGatewayTimeout, "timeout"
	case status.KindProtocol:
		return http.StatusBadGateway, "protocol_error"
	case status.KindEncoding:
		return http.StatusBadRequest, "encoding_error"
	case status.KindCanceled:
		return http.StatusServiceUnavailable, "canceled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// enqueue hands a record to the history workers without blocking the request.
func (s *Server) enqueue(record models.QueryRecord) {
	if s.history == nil {
		return
	}

	select {
	case <-s.shutdown:
		return
	default:
	}

	select {
	case s.queue <- historyJob{Record: record}:
	default:
		s.metrics.HistoryDropped()
		logger.Component("server").Warn().
			Str("host", record.Host).
			Int("port", record.Port).
			Msg("Queue full, history record dropped")
	}
}

// worker is a background goroutine that processes jobs from the history queue.
// On shutdown it drains what is already queued and exits.
func (s *Server) worker() {
	defer s.wg.Done()

	for {
		select {
		case job := <-s.queue:
			s.processJob(job)
		case <-s.shutdown:
			for {
				select {
				case job := <-s.queue:
					s.processJob(job)
				default:
					return
				}
			}
		}
	}
}

// processJob resolves the country of the queried server and stores the record.
func (s *Server) processJob(job historyJob) {
	record := job.Record

	addr := record.RemoteIP
	if addr == "" {
		addr = record.Host
	}
	record.CountryCode = s.geoip.CountryCode(addr)

	if _, err := s.history.InsertQuery(record); err != nil {
		logger.Component("server").Error().
			Err(err).
			Str("host", record.Host).
			Int("port", record.Port).
			Msg("Failed to save query history")
		return
	}

	logger.Component("server").Trace().
		Str("request_id", record.RequestID).
		Str("host", record.Host).
		Str("outcome", record.Outcome).
		Msg("Query history saved")
}
