package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/diewo77/ca-practice/internal/handlers"
	"go.uber.org/zap"
)

// Self-test exit codes.
const (
	selfTestOK         = 0
	selfTestBadPayload = 2
	selfTestBadDecode  = 3
	selfTestBadRequest = 4
)

// runSelfTest serves h on an ephemeral loopback port and checks that
// GET /api/health reports "ok".
func runSelfTest(ctx context.Context, h http.Handler, log *zap.Logger) int {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Error("selftest listen", zap.Error(err))
		return selfTestBadRequest
	}
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("selftest serve", zap.Error(err))
		}
	}()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(rctx, http.MethodGet, "http://"+ln.Addr().String()+"/api/health", nil)
	if err != nil {
		return selfTestBadRequest
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Error("selftest request", zap.Error(err))
		return selfTestBadRequest
	}
	defer resp.Body.Close()

	var body handlers.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Error("selftest decode", zap.Error(err))
		return selfTestBadDecode
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		log.Error("selftest unexpected payload", zap.Int("status", resp.StatusCode), zap.String("body_status", body.Status))
		return selfTestBadPayload
	}
	return selfTestOK
}
