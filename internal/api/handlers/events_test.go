package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pratik-mahalle/altseo/internal/access"
)

// readEvent returns the event name and data of the next SSE frame, skipping comments
func readEvent(t *testing.T, rd *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if name != "" || data != "" {
				return name, data
			}
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func openStream(t *testing.T, h *EventsHandler, userID int64) (*bufio.Reader, context.CancelFunc) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Stream(w, asUser(r, userID))
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	return bufio.NewReader(resp.Body), cancel
}

func TestEvents_StreamsAccountChanges(t *testing.T) {
	hub := access.NewHub()
	h := NewEventsHandler(hub, newTestApp(t).log)

	rd, cancel := openStream(t, h, 7)

	if name, _ := readEvent(t, rd); name != "connected" {
		t.Fatalf("first event = %q, want connected", name)
	}

	hub.Publish(access.Change{UserID: 8, Reason: "role"})
	hub.Publish(access.Change{UserID: 7, Reason: "grant-access"})

	name, data := readEvent(t, rd)
	if name != "account_changed" {
		t.Fatalf("event = %q, want account_changed", name)
	}
	var ev AccountEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Reason != "grant-access" {
		t.Errorf("Reason = %q, want grant-access", ev.Reason)
	}

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers(7) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription not released after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEvents_Heartbeat(t *testing.T) {
	h := NewEventsHandler(access.NewHub(), newTestApp(t).log)
	h.heartbeat = 10 * time.Millisecond

	rd, cancel := openStream(t, h, 1)
	defer cancel()

	readEvent(t, rd)
	for i := 0; i < 10; i++ {
		line, err := rd.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		if strings.HasPrefix(line, ": ping") {
			return
		}
	}
	t.Fatal("no heartbeat received")
}

func TestEvents_RequiresUser(t *testing.T) {
	h := NewEventsHandler(access.NewHub(), newTestApp(t).log)
	rr := httptest.NewRecorder()
	h.Stream(rr, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}
