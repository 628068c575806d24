package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"fleetd/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *FleetHandler {
	return &FleetHandler{
		filePath:  "test.fvt",
		fleetSize: 4,
		batchSize: 2,
		log:       slog.New(slog.DiscardHandler),
	}
}

func TestRecoverAndSellNotImplemented(t *testing.T) {
	h := newTestHandler()

	for _, endpoint := range []http.HandlerFunc{h.Recover, h.Sell} {
		rec := httptest.NewRecorder()
		endpoint(rec, httptest.NewRequest(http.MethodPost, "/", nil))

		assert.Equal(t, http.StatusNotImplemented, rec.Code)
		var body model.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "not implemented", body.Error)
	}
}

func TestRecoverRejectsGet(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.Recover(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRecoverConcurrentWithSetReplacement(t *testing.T) {
	h := newTestHandler()
	h.accounts = []model.Account{{Index: 0, Address: "addr0"}}

	// stubs snapshot the set under the mutex, so they stay safe against
	// wholesale replacement by import/generate
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			h.Recover(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		}()
		go func() {
			defer wg.Done()
			h.mu.Lock()
			h.accounts = []model.Account{{Index: 0, Address: "addr0"}}
			h.mu.Unlock()
		}()
	}
	wg.Wait()
}
