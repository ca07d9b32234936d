package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/KhamessiTaha/collaborative-code-editor/internal/gateway"
	"github.com/KhamessiTaha/collaborative-code-editor/internal/store"
	"github.com/KhamessiTaha/collaborative-code-editor/pkg/types"
)

// newTestServer wires a handler to a real gateway over a seeded store and
// returns the ws:// URL to dial.
func newTestServer(t *testing.T, authorize Authorizer) string {
	t.Helper()

	st := store.New()
	if err := st.Load(store.DefaultSeed()); err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}

	registry := NewRegistry()
	gw := gateway.NewGateway(st, registry, nil)
	if err := gw.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start gateway: %v", err)
	}
	t.Cleanup(func() { gw.Stop() })

	handler := NewHandler(gw, authorize, 30*time.Second, 60*time.Second)
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	t.Cleanup(func() { server.Close() })

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dialClient(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) *types.Event {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}

	var event types.Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("Failed to read event: %v", err)
	}
	return &event
}

func sendIntent(t *testing.T, conn *websocket.Conn, intent *types.Intent) {
	t.Helper()

	if err := conn.WriteJSON(intent); err != nil {
		t.Fatalf("Failed to send intent: %v", err)
	}
}

func TestHandler_RejectsBadToken(t *testing.T) {
	url := newTestServer(t, func(token string) bool { return token == "secret" })

	conn := dialClient(t, url+"?token=wrong")

	event := readEvent(t, conn)
	if event.Type != types.EventAuthError {
		t.Errorf("Expected %s event, got %s", types.EventAuthError, event.Type)
	}

	// Server closes the connection after the auth error
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected connection to be closed after auth failure")
	}
}

func TestHandler_AcceptsValidToken(t *testing.T) {
	url := newTestServer(t, func(token string) bool { return token == "secret" })

	conn := dialClient(t, url+"?token=secret")

	sendIntent(t, conn, &types.Intent{Type: types.IntentGetInitialFiles})

	event := readEvent(t, conn)
	if event.Type != types.EventInitialFiles {
		t.Errorf("Expected %s event, got %s", types.EventInitialFiles, event.Type)
	}
}

func TestHandler_GetInitialFilesReturnsSeed(t *testing.T) {
	url := newTestServer(t, nil)

	conn := dialClient(t, url)
	sendIntent(t, conn, &types.Intent{Type: types.IntentGetInitialFiles})

	event := readEvent(t, conn)
	if event.Type != types.EventInitialFiles {
		t.Fatalf("Expected %s event, got %s", types.EventInitialFiles, event.Type)
	}
	if len(event.Files) != 1 {
		t.Fatalf("Expected 1 file, got %d", len(event.Files))
	}
	if event.Files[0].ID != "1" || event.Files[0].Name != "file1.js" {
		t.Errorf("Unexpected seed file: %+v", event.Files[0])
	}
}

func TestHandler_AddFileReachesAllClients(t *testing.T) {
	url := newTestServer(t, nil)

	clientA := dialClient(t, url)
	clientB := dialClient(t, url)

	// Round-trip both clients so registration has completed
	sendIntent(t, clientA, &types.Intent{Type: types.IntentGetInitialFiles})
	readEvent(t, clientA)
	sendIntent(t, clientB, &types.Intent{Type: types.IntentGetInitialFiles})
	readEvent(t, clientB)

	sendIntent(t, clientA, &types.Intent{
		Type:    types.IntentAddFile,
		Name:    "util.js",
		Content: "export {}",
	})

	for _, conn := range []*websocket.Conn{clientA, clientB} {
		event := readEvent(t, conn)
		if event.Type != types.EventFileAdded {
			t.Fatalf("Expected %s event, got %s", types.EventFileAdded, event.Type)
		}
		if event.File == nil || event.File.Name != "util.js" {
			t.Errorf("Unexpected file in event: %+v", event.File)
		}
		if event.File.ID == "" {
			t.Error("Expected a server-assigned file id")
		}
	}
}

func TestHandler_ContentUpdateSkipsSender(t *testing.T) {
	url := newTestServer(t, nil)

	clientA := dialClient(t, url)
	clientB := dialClient(t, url)

	// Anchor both clients so registration has completed before the update
	sendIntent(t, clientA, &types.Intent{Type: types.IntentGetInitialFiles})
	readEvent(t, clientA)
	sendIntent(t, clientB, &types.Intent{Type: types.IntentGetInitialFiles})
	readEvent(t, clientB)

	sendIntent(t, clientA, &types.Intent{
		Type:    types.IntentUpdateFileContent,
		ID:      "1",
		Content: "const x = 1",
	})

	event := readEvent(t, clientB)
	if event.Type != types.EventFileContentUpdated {
		t.Fatalf("Expected %s event, got %s", types.EventFileContentUpdated, event.Type)
	}
	if event.ID != "1" || event.Content != "const x = 1" {
		t.Errorf("Unexpected update event: %+v", event)
	}

	// Sender must not receive its own content update. Follow up with a
	// rename: the next event the sender sees is the rename, not the update.
	sendIntent(t, clientA, &types.Intent{
		Type:    types.IntentRenameFile,
		ID:      "1",
		NewName: "main.js",
	})

	event = readEvent(t, clientA)
	if event.Type != types.EventFileRenamed {
		t.Errorf("Sender received %s before the rename; content update should skip the sender", event.Type)
	}
}

func TestHandler_LastFileDeleteErrorsToRequesterOnly(t *testing.T) {
	url := newTestServer(t, nil)

	clientA := dialClient(t, url)
	clientB := dialClient(t, url)

	sendIntent(t, clientB, &types.Intent{Type: types.IntentGetInitialFiles})
	readEvent(t, clientB)

	sendIntent(t, clientA, &types.Intent{
		Type: types.IntentDeleteFile,
		ID:   "1",
	})

	event := readEvent(t, clientA)
	if event.Type != types.EventError {
		t.Fatalf("Expected %s event, got %s", types.EventError, event.Type)
	}
	if event.Code != types.ErrorCodeLastFile {
		t.Errorf("Expected error code %s, got %s", types.ErrorCodeLastFile, event.Code)
	}

	// The other client sees nothing from the rejected delete; a subsequent
	// add is the next event it receives.
	sendIntent(t, clientA, &types.Intent{Type: types.IntentAddFile, Name: "b.js"})

	event = readEvent(t, clientB)
	if event.Type != types.EventFileAdded {
		t.Errorf("Expected %s as next event for other client, got %s", types.EventFileAdded, event.Type)
	}
}

func TestHandler_MalformedMessageIsDropped(t *testing.T) {
	url := newTestServer(t, nil)

	conn := dialClient(t, url)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("Failed to write malformed message: %v", err)
	}

	// Connection stays usable
	sendIntent(t, conn, &types.Intent{Type: types.IntentGetInitialFiles})
	event := readEvent(t, conn)
	if event.Type != types.EventInitialFiles {
		t.Errorf("Expected %s event after malformed message, got %s", types.EventInitialFiles, event.Type)
	}
}

func TestHandler_InvalidIntentGetsErrorEvent(t *testing.T) {
	url := newTestServer(t, nil)

	conn := dialClient(t, url)
	sendIntent(t, conn, &types.Intent{Type: types.IntentAddFile}) // missing name

	event := readEvent(t, conn)
	if event.Type != types.EventError {
		t.Fatalf("Expected %s event, got %s", types.EventError, event.Type)
	}
	if event.Code != types.ErrorCodeInvalidInput {
		t.Errorf("Expected error code %s, got %s", types.ErrorCodeInvalidInput, event.Code)
	}
}
