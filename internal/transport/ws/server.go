package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ragdoll-sandbox/internal/game"
	"ragdoll-sandbox/internal/physics"
	"ragdoll-sandbox/internal/scene"
)

// Server owns the websocket clients. Inbound messages become queued input
// events; outbound traffic is the per-tick state stream plus discrete
// world events. It implements both game.Broadcaster and game.TickSystem.
type Server struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	queue   *game.InputQueue
	objects *scene.Manager
	world   *physics.World
	char    *game.Character

	// pending holds freshly upgraded connections until the tick loop
	// replays the scene to them. Scene objects are mutated every tick on
	// the loop goroutine, so the initial-scene read must happen there too.
	clients   map[*SafeWriter]bool
	pending   map[*SafeWriter]bool
	clientsMu sync.Mutex
}

func NewServer(queue *game.InputQueue, objects *scene.Manager, world *physics.World, char *game.Character, logger *zap.Logger) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger,
		queue:   queue,
		objects: objects,
		world:   world,
		char:    char,
		clients: make(map[*SafeWriter]bool),
		pending: make(map[*SafeWriter]bool),
	}
}

// HandleWS upgrades the connection, hands it to the tick loop for the
// scene replay, then reads input until the client goes away.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewSafeWriter(conn)
	s.clientsMu.Lock()
	s.pending[client] = true
	clientCount := len(s.clients) + len(s.pending)
	s.clientsMu.Unlock()

	s.logger.Info("client connected",
		zap.String("remote", r.RemoteAddr),
		zap.Int("clients", clientCount))

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, client)
		delete(s.pending, client)
		s.clientsMu.Unlock()
		client.Close()
		s.logger.Info("client disconnected", zap.String("remote", r.RemoteAddr))
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("read failed", zap.Error(err))
			}
			return
		}
		s.handleMessage(client, data)
	}
}

func (s *Server) handleMessage(client *SafeWriter, data []byte) {
	// Ping gets an immediate connection-local reply; everything else is
	// queued for the tick loop.
	var env Envelope
	if err := decode(data, &env); err != nil {
		s.logger.Debug("malformed message dropped", zap.Error(err))
		return
	}
	if env.Type == "ping" {
		err := client.WriteJSON(pongMessage{
			Type:       "pong",
			ClientTime: env.ClientTime,
			ServerTime: nowMillis(),
		})
		if err != nil {
			s.logger.Debug("pong failed", zap.Error(err))
		}
		return
	}

	ev, err := env.Event()
	if err != nil {
		s.logger.Debug("message rejected", zap.String("type", env.Type), zap.Error(err))
		return
	}
	s.queue.Push(ev)
}

// admitPending promotes freshly connected clients to broadcast members,
// replaying every current object as a create message so a late joiner
// sees the same world as everyone else. Runs on the tick loop, which is
// the only goroutine allowed to read live scene state.
func (s *Server) admitPending() {
	s.clientsMu.Lock()
	if len(s.pending) == 0 {
		s.clientsMu.Unlock()
		return
	}
	joiners := make([]*SafeWriter, 0, len(s.pending))
	for client := range s.pending {
		joiners = append(joiners, client)
		delete(s.pending, client)
		s.clients[client] = true
	}
	s.clientsMu.Unlock()

	for _, client := range joiners {
		s.sendInitialScene(client)
	}
}

func (s *Server) sendInitialScene(client *SafeWriter) {
	for _, obj := range s.objects.Objects() {
		if err := client.WriteJSON(createMsg(obj)); err != nil {
			s.logger.Warn("initial scene send failed",
				zap.String("id", obj.ID),
				zap.Error(err))
			return
		}
	}
}

// ObjectCreated implements game.Broadcaster.
func (s *Server) ObjectCreated(obj *scene.Object) {
	s.broadcast(createMsg(obj))
}

// ObjectRemoved implements game.Broadcaster.
func (s *Server) ObjectRemoved(id string) {
	s.broadcast(removeMessage{Type: "remove", ID: id})
}

// HealthChanged implements game.Broadcaster.
func (s *Server) HealthChanged(change game.HealthChange) {
	s.broadcast(healthMessage{
		Type:      "health",
		Current:   change.Current,
		Max:       change.Max,
		Delta:     change.Delta,
		IsDamage:  change.IsDamage,
		IsHealing: change.IsHealing,
	})
}

// AnimationStarted implements game.Broadcaster.
func (s *Server) AnimationStarted(clip string, duration float64) {
	s.broadcast(animationMessage{Type: "animation", Clip: clip, Duration: duration})
}

// Update implements game.TickSystem: snapshot the scene and stream it,
// plus the character's current bone pose.
func (s *Server) Update(float64) error {
	s.admitPending()

	s.clientsMu.Lock()
	idle := len(s.clients) == 0
	s.clientsMu.Unlock()
	if idle {
		return nil
	}

	objs := s.objects.Objects()
	entries := make([]updateEntry, 0, len(objs))
	for _, obj := range objs {
		if obj.Kind == scene.KindGround || obj.Kind == scene.KindTrash {
			continue // static, announced once at create
		}
		entry := updateEntry{
			ID: obj.ID,
			X:  safeValue(obj.Position.X(), 0),
			Y:  safeValue(obj.Position.Y(), 0),
			Z:  safeValue(obj.Position.Z(), 0),
			QX: safeValue(obj.Rotation.V.X(), 0),
			QY: safeValue(obj.Rotation.V.Y(), 0),
			QZ: safeValue(obj.Rotation.V.Z(), 0),
			QW: safeValue(obj.Rotation.W, 1),
		}
		if body, ok := s.world.Body(obj.ID); ok {
			entry.VX = safeValue(body.Velocity.X(), 0)
			entry.VY = safeValue(body.Velocity.Y(), 0)
		}
		entries = append(entries, entry)
	}

	s.broadcast(updateMessage{
		Type:       "update",
		ServerTime: nowMillis(),
		Objects:    entries,
	})

	if s.char.Skeleton != nil {
		s.broadcast(bonePoseMsg(s.char.Node.ID, s.char.Skeleton))
	}
	return nil
}

func (s *Server) GetName() string  { return "broadcast" }
func (s *Server) GetPriority() int { return game.PriorityBroadcast }

// broadcast sends one message to every client, dropping clients whose
// connection errors.
func (s *Server) broadcast(v interface{}) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for client := range s.clients {
		if err := client.WriteJSON(v); err != nil {
			s.logger.Debug("broadcast to client failed, dropping", zap.Error(err))
			client.Close()
			delete(s.clients, client)
		}
	}
}

func createMsg(obj *scene.Object) createMessage {
	return createMessage{
		Type:       "create",
		ID:         obj.ID,
		ObjectType: string(obj.Kind),
		Asset:      obj.AssetID,
		Color:      obj.Color,
		X:          safeValue(obj.Position.X(), 0),
		Y:          safeValue(obj.Position.Y(), 0),
		Z:          safeValue(obj.Position.Z(), 0),
		Width:      safeValue(obj.Size.X(), 1),
		Height:     safeValue(obj.Size.Y(), 1),
		Depth:      safeValue(obj.Size.Z(), 1),
		ServerTime: nowMillis(),
	}
}

func bonePoseMsg(id string, skel *scene.ResolvedSkeleton) bonesMessage {
	bones := make(map[string][4]float64)
	for _, bone := range skel.Bones() {
		q := bone.LocalRotation
		bones[bone.Name] = [4]float64{
			safeValue(q.V.X(), 0),
			safeValue(q.V.Y(), 0),
			safeValue(q.V.Z(), 0),
			safeValue(q.W, 1),
		}
	}
	return bonesMessage{Type: "bones", ID: id, Bones: bones}
}

func nowMillis() float64 {
	return float64(time.Now().UnixNano()) / 1e6
}
