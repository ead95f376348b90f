package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"eternal/internal/service"
)

func receive(t *testing.T, ch <-chan []byte) Message {
	t.Helper()
	select {
	case data := <-ch:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
	return Message{}
}

func TestHub_SendToUserReachesEveryConnection(t *testing.T) {
	hub := NewHub()
	a := &Connection{UserID: "u1", Send: make(chan []byte, 4), Hub: hub}
	b := &Connection{UserID: "u1", Send: make(chan []byte, 4), Hub: hub}
	other := &Connection{UserID: "u2", Send: make(chan []byte, 4), Hub: hub}
	hub.Register(a)
	hub.Register(b)
	hub.Register(other)

	hub.SendToUser("u1", service.EventPhaseChanged, map[string]string{"phase": "awaiting_image"})

	for _, c := range []*Connection{a, b} {
		msg := receive(t, c.Send)
		if msg.Type != MsgPhaseChanged || !strings.Contains(string(msg.Payload), "awaiting_image") {
			t.Errorf("message = %+v", msg)
		}
	}
	select {
	case <-other.Send:
		t.Error("other user received the event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	c := &Connection{UserID: "u1", Send: make(chan []byte, 1), Hub: hub}
	hub.Register(c)
	hub.Unregister(c)

	select {
	case _, ok := <-c.Send:
		if ok {
			t.Error("unexpected message")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
	if n := hub.Connections("u1"); n != 0 {
		t.Errorf("connections = %d", n)
	}
}

func TestHandler_RejectsMissingOrBadToken(t *testing.T) {
	h := NewHandler(NewHub(), service.NewAuthService("secret"))
	for _, target := range []string{"/v1/ws", "/v1/ws?token=garbage"} {
		rec := httptest.NewRecorder()
		h.UserWS(rec, httptest.NewRequest("GET", target, nil))
		if rec.Code != 401 {
			t.Errorf("%s: status = %d, want 401", target, rec.Code)
		}
	}
}

func TestHandler_PushesEvents(t *testing.T) {
	auth := service.NewAuthService("secret")
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, auth).UserWS))
	defer srv.Close()

	guest, _ := auth.IssueGuestToken("")
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=" + guest.Token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Connections(guest.UserID) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	hub.SendToUser(guest.UserID, service.EventReportReady, map[string]int{"overall": 81})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != MsgReportReady {
		t.Errorf("type = %s", msg.Type)
	}
}
