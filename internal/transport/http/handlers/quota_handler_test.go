package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestQuotaGetReportsBalance(t *testing.T) {
	f := newSessionFixture(t, browsableCard("c1"))
	f.quota.remaining = 2
	h := NewQuotaHandler(f.provider())

	rr := httptest.NewRecorder()
	h.Get(rr, authedGet(t, "/v1/quota"))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d body %s", rr.Code, rr.Body.String())
	}

	var payload struct {
		Remaining   int    `json:"remaining"`
		NextResetAt string `json:"next_reset_at"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Remaining != 2 {
		t.Fatalf("unexpected remaining: %d", payload.Remaining)
	}
	if payload.NextResetAt == "" {
		t.Fatal("next_reset_at missing")
	}
}

func TestQuotaGetRequiresAuth(t *testing.T) {
	f := newSessionFixture(t, browsableCard("c1"))
	h := NewQuotaHandler(f.provider())

	rr := httptest.NewRecorder()
	h.Get(rr, httptest.NewRequest(http.MethodGet, "/v1/quota", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestQuotaGetUnavailableSession(t *testing.T) {
	h := NewQuotaHandler(&singleSessionProvider{err: errors.New("postgres down")})

	rr := httptest.NewRecorder()
	h.Get(rr, authedGet(t, "/v1/quota"))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusServiceUnavailable)
	}
}
