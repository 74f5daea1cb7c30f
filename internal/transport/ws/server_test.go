package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ragdoll-sandbox/internal/config"
	"ragdoll-sandbox/internal/game"
	"ragdoll-sandbox/internal/physics"
	"ragdoll-sandbox/internal/scene"
)

func newTestWSServer(t *testing.T) *Server {
	t.Helper()
	world := physics.NewWorld(mgl64.Vec3{0, -9.81, 0}, 2)
	objects := scene.NewManager()

	body := physics.NewBody(physics.BodyConfig{
		ID:       "char",
		Position: mgl64.Vec3{0, 0.9, 0},
		Mass:     10,
		Shape:    physics.NewBoxShape(0.8, 1.8, 0.4),
		Material: "character",
	})
	require.NoError(t, world.AddBody(body))
	node := &scene.Object{
		ID:       "char",
		Kind:     scene.KindCharacter,
		Size:     mgl64.Vec3{0.8, 1.8, 0.4},
		Position: body.Position,
		Rotation: mgl64.QuatIdent(),
	}
	objects.Add(node)
	char := game.NewCharacter(body, node, config.Default().Character, zap.NewNop())

	return NewServer(game.NewInputQueue(), objects, world, char, zap.NewNop())
}

func clientCounts(s *Server) (pending, admitted int) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.pending), len(s.clients)
}

// A joiner must not receive the scene from its own handler goroutine:
// object state is live simulation data, so the replay belongs to the
// tick loop's Update.
func TestJoinerAdmittedByTickLoop(t *testing.T) {
	s := newTestWSServer(t)
	ts := httptest.NewServer(http.HandlerFunc(s.HandleWS))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		pending, _ := clientCounts(s)
		return pending == 1
	}, 2*time.Second, 5*time.Millisecond, "handler parks the connection")
	_, admitted := clientCounts(s)
	assert.Zero(t, admitted, "no broadcast membership before the tick")

	require.NoError(t, s.Update(1.0/60.0))
	pending, admitted := clientCounts(s)
	assert.Zero(t, pending)
	assert.Equal(t, 1, admitted)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var create map[string]interface{}
	require.NoError(t, conn.ReadJSON(&create))
	assert.Equal(t, "create", create["type"])
	assert.Equal(t, "char", create["id"])

	var update map[string]interface{}
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, "update", update["type"])
}

func TestPingAnsweredImmediately(t *testing.T) {
	s := newTestWSServer(t)
	ts := httptest.NewServer(http.HandlerFunc(s.HandleWS))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Pong does not wait for admission; it is connection-local.
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "ping", "client_time": 123.0}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var pong map[string]interface{}
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, "pong", pong["type"])
	assert.Equal(t, 123.0, pong["client_time"])
}
