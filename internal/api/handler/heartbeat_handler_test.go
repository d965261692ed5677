package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/estatehub/marketplace-access/internal/api/middleware"
	"github.com/estatehub/marketplace-access/internal/core/domain"
)

type stubQueue struct {
	got  []domain.Heartbeat
	full bool
}

func (q *stubQueue) Enqueue(hb domain.Heartbeat) bool {
	if q.full {
		return false
	}
	q.got = append(q.got, hb)
	return true
}

const heartbeatBody = `{"user_id":"mallory","fingerprint":"fp_0123456789abcdef","device":{"platform":"linux","device_type":"desktop"},"sent_at":"2026-10-18T10:00:00Z"}`

func TestHeartbeatHandler_Accepts(t *testing.T) {
	e := newTestEcho()
	q := &stubQueue{}
	h := NewHeartbeatHandler(q)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/session/heartbeat", heartbeatBody), rec)
	c.Set(middleware.UserKey, &domain.User{ID: "alice"})
	serve(e, c, h.Create)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(q.got) != 1 {
		t.Fatalf("expected one enqueued heartbeat, got %d", len(q.got))
	}
	hb := q.got[0]
	if hb.UserID != "alice" {
		t.Fatalf("user must come from the token, got %q", hb.UserID)
	}
	if hb.Fingerprint != "fp_0123456789abcdef" || hb.Device.DeviceType != "desktop" || hb.SentAt.IsZero() {
		t.Fatalf("unexpected heartbeat: %+v", hb)
	}
}

func TestHeartbeatHandler_QueueFull(t *testing.T) {
	e := newTestEcho()
	h := NewHeartbeatHandler(&stubQueue{full: true})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/session/heartbeat", heartbeatBody), rec)
	c.Set(middleware.UserKey, &domain.User{ID: "alice"})
	serve(e, c, h.Create)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestHeartbeatHandler_MissingFingerprint(t *testing.T) {
	e := newTestEcho()
	q := &stubQueue{}
	h := NewHeartbeatHandler(q)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/session/heartbeat", `{"device":{}}`), rec)
	c.Set(middleware.UserKey, &domain.User{ID: "alice"})
	serve(e, c, h.Create)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(q.got) != 0 {
		t.Fatalf("invalid heartbeat must not be enqueued")
	}
}
