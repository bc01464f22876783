package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"example.com/tracker/internal/persistence"
)

func TestHandlerRunsSessionOverWebsocket(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage := persistence.NewMemoryStorage()
	srv := httptest.NewServer(NewHandler(storage, HandlerConfig{
		BaseContext: ctx,
		Logger:      log.New(testWriter{t}, "", 0),
	}))
	defer srv.Close()

	conn := dial(t, srv.URL)
	defer conn.Close()

	send(t, conn, `{"type":"map.ready","data":{"center":[51.5,-0.12]}}`)
	require.Equal(t, "map.create", next(t, conn).Type)

	send(t, conn, `{"type":"map.click","data":{"coords":[51.51,-0.13]}}`)
	require.Equal(t, "form.show", next(t, conn).Type)

	send(t, conn, `{"type":"form.submit","data":{"type":"cycling","distance":"27","duration":"95","elevation":"523"}}`)
	added := next(t, conn)
	require.Equal(t, "marker.add", added.Type)
	require.Contains(t, string(added.Data), `"className":"cycling-popup"`)
	require.Equal(t, "list.render", next(t, conn).Type)
	require.Equal(t, "form.reset", next(t, conn).Type)
	require.Equal(t, "form.hide", next(t, conn).Type)

	workouts, _, err := persistence.Load(context.Background(), storage, persistence.DefaultSnapshotKey)
	require.NoError(t, err)
	require.Len(t, workouts, 1)
	require.Equal(t, 523.0, workouts[0].Cycling.ElevationGainM)
}

func TestHandlerRestoresSnapshotOnConnect(t *testing.T) {
	storage := persistence.NewMemoryStorage()
	blob := `{"version":1,"workouts":[{"id":"w-1","createdAt":"2025-04-14T10:00:00Z","type":"running","coordinates":[10,20],"distanceKm":5,"durationMin":25,"cadence":170}]}`
	require.NoError(t, storage.Set(context.Background(), persistence.DefaultSnapshotKey, []byte(blob)))

	srv := httptest.NewServer(NewHandler(storage, HandlerConfig{Logger: log.New(testWriter{t}, "", 0)}))
	defer srv.Close()

	conn := dial(t, srv.URL)
	defer conn.Close()

	rendered := next(t, conn)
	require.Equal(t, "list.render", rendered.Type)
	require.Contains(t, string(rendered.Data), `"id":"w-1"`)

	send(t, conn, `{"type":"map.ready","data":{"center":[10,20]}}`)
	require.Equal(t, "map.create", next(t, conn).Type)
	require.Equal(t, "marker.add", next(t, conn).Type)
}

func TestHandlerRejectsForeignOrigin(t *testing.T) {
	srv := httptest.NewServer(NewHandler(persistence.NewMemoryStorage(), HandlerConfig{
		AllowedOrigins: []string{"http://localhost:8080"},
		Logger:         log.New(testWriter{t}, "", 0),
	}))
	defer srv.Close()

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv.URL), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func dial(t *testing.T, httpURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(httpURL), nil)
	require.NoError(t, err)
	return conn
}

func send(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func next(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}
