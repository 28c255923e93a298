package main

import (
	"errors"
	"fmt"
	"journal-live/domain"
	"journal-live/internal"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
)

// startDebugServer exposes the badger inspector on localhost only.
func startDebugServer(logger *slog.Logger, db *badger.DB, port int, stats func() domain.LiveStats, errChan chan<- error) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/inspect", internal.NewDebugHandler(db, PairingMapper, func() map[string]any {
		s := stats()
		return map[string]any{
			"rooms":        s.Rooms,
			"connections":  s.Connections,
			"online_users": s.OnlineUsers,
			"time":         time.Now().UTC().Format(time.RFC3339),
		}
	}))
	server := &http.Server{Addr: fmt.Sprintf("127.0.0.1:%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d/inspect", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("debug server error: %w", err)
		}
	}()
	return server
}

// PairingMapper decodes the CBOR pairing records for the inspector.
func PairingMapper(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)
	var pairing domain.Pairing
	if err := cbor.Unmarshal(val, &pairing); err != nil {
		return row
	}
	row.Detail = pairing
	return row
}
