package http

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWebSocketStatsFlow(t *testing.T) {
	server := newTestServer(t)
	created := createSampleForm(t, server)

	u := "ws" + server.URL[len("http"):] + "/ws?formId=" + created.Form.ID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Initial snapshot first.
	_, payload := readNext(conn, t, "stats")
	if payload["totalResponses"] != float64(0) {
		t.Fatalf("expected empty snapshot, got %v", payload)
	}

	resp := doJSON(t, http.MethodPost, server.URL+"/forms/"+created.Form.ID+"/responses", `{"answers":{"q1":4}}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	_, payload = readNext(conn, t, "stats")
	if payload["totalResponses"] != float64(1) {
		t.Fatalf("expected one response, got %v", payload)
	}

	if err := conn.WriteJSON(map[string]any{"type": "refresh"}); err != nil {
		t.Fatalf("write refresh: %v", err)
	}
	_, payload = readNext(conn, t, "stats")
	if payload["totalResponses"] != float64(1) {
		t.Fatalf("expected refreshed snapshot, got %v", payload)
	}

	if err := conn.WriteJSON(map[string]any{"type": "bogus"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, payload = readNext(conn, t, "error")
	if msg, _ := payload["message"].(string); !strings.Contains(msg, "unsupported") {
		t.Fatalf("unexpected error payload %v", payload)
	}
}

func TestWebSocketUnknownForm(t *testing.T) {
	server := newTestServer(t)

	u := "ws" + server.URL[len("http"):] + "/ws?formId=missing"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readNext(conn, t, "error")
}

func TestWebSocketRequiresFormID(t *testing.T) {
	server := newTestServer(t)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+"/ws", nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 response, got %+v", resp)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
