package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"ragdoll-sandbox/internal/config"
	"ragdoll-sandbox/internal/game"
	"ragdoll-sandbox/internal/observability"
	"ragdoll-sandbox/internal/physics"
	"ragdoll-sandbox/internal/scene"
	"ragdoll-sandbox/internal/telemetry"
	"ragdoll-sandbox/internal/transport/ws"
)

const (
	characterID = "character"
	groundID    = "ground"
	trashID     = "trash"

	// Placeholder character dimensions until the model asset resolves.
	placeholderWidth  = 0.8
	placeholderHeight = 1.8
	placeholderDepth  = 0.4
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// loadConfig falls back to defaults when no config file is present, so
// the demo runs out of the box.
func loadConfig(path string) (config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}

func run(cfg config.Config, logger *zap.Logger) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// Asset library loads in the background; the simulation starts with
	// placeholders and re-syncs once the models arrive.
	library := scene.NewLibrary(cfg.Server.AssetDir, logger.Named("assets"))
	loadCtx, cancelLoad := context.WithCancel(context.Background())
	defer cancelLoad()
	go func() {
		if err := library.Load(loadCtx); err != nil {
			logger.Warn("asset load failed, running with placeholders", zap.Error(err))
		}
	}()

	world := physics.NewWorld(mgl64.Vec3{0, cfg.Physics.GravityY, 0}, cfg.Physics.SolverIterations)
	world.GroundY = cfg.Physics.GroundY
	world.AddContactMaterial("character", physics.GroundMaterial, physics.ContactMaterial{
		Friction:    0.8,
		Restitution: 0.05,
		Stiffness:   1,
	})

	objects := scene.NewManager()
	camera := scene.NewCamera(
		cfg.Camera.FOVDegrees,
		cfg.Camera.ViewportWidth/cfg.Camera.ViewportHeight,
		cfg.Camera.Distance,
	)
	clamp := game.NewBoundaryClamp(camera, cfg.Camera.Margin)

	char, trash := buildScene(cfg, world, objects, clamp, logger)

	health := game.NewHealth(cfg.Health.Max)

	queue := game.NewInputQueue()
	server := ws.NewServer(queue, objects, world, char, logger.Named("ws"))

	items := game.NewItemManager(cfg.Items, world, objects, library, server, logger.Named("items"), rng)
	bridge := game.NewAnimationBridge(cfg.Animation, library, char, items, health, server, logger.Named("bridge"))
	router := game.NewInputRouter(queue, camera, objects, char, items, trash,
		cfg.Camera.ViewportWidth, cfg.Camera.ViewportHeight, logger.Named("input"))

	health.OnChange(server.HealthChanged)

	recorder := telemetry.NewRecorder(true, 10*time.Second, logger.Named("telemetry"))
	char.OnTransition(func(from, to game.State) {
		recorder.Incr("state_" + to.String())
	})
	health.OnChange(func(ch game.HealthChange) {
		if ch.IsDamage {
			recorder.Incr("damage_taken")
		} else if ch.IsHealing {
			recorder.Incr("healing_received")
		}
	})

	ticker := game.NewTicker(cfg.Game.TargetTPS, cfg.Physics.MaxFrameDelta, logger.Named("ticker"))
	ticker.RegisterSystem(game.NewAssetSystem(library, char, cfg.Character.Model, server, logger.Named("assets")))
	ticker.RegisterSystem(game.NewInputSystem(router, clamp, char))
	ticker.RegisterSystem(game.NewControllerSystem(char, items, clamp, cfg.Physics.GroundY))
	ticker.RegisterSystem(game.NewPhysicsSystem(world, cfg.Physics))
	ticker.RegisterSystem(game.NewConstraintSystem(world, char, items, clamp, trash, cfg.Physics.GroundY))
	ticker.RegisterSystem(game.NewPoseSystem(char, bridge))
	ticker.RegisterSystem(game.NewSyncSystem(char, items))
	ticker.RegisterSystem(game.NewBridgeSystem(bridge))
	ticker.RegisterSystem(server)
	ticker.RegisterSystem(recorder)

	ticker.Start()
	defer ticker.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.HandleWS)
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"loop":    ticker.Stats(),
			"systems": ticker.SystemsStats(),
			"items":   items.Count(),
			"health":  health.Current(),
		})
	})
	mux.Handle("/", http.FileServer(http.Dir(cfg.Server.StaticDir)))

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr()))
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	cancelLoad()
	ticker.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// buildScene creates the static world (ground plane, trash zone) and the
// character with placeholder dimensions.
func buildScene(cfg config.Config, world *physics.World, objects *scene.Manager, clamp *game.BoundaryClamp, logger *zap.Logger) (*game.Character, *scene.Object) {
	groundY := cfg.Physics.GroundY

	ground := physics.NewBody(physics.BodyConfig{
		ID:       groundID,
		Position: mgl64.Vec3{0, groundY, 0},
		Shape:    physics.NewPlaneShape(),
		Material: physics.GroundMaterial,
	})
	if err := world.AddBody(ground); err != nil {
		logger.Fatal("ground body", zap.Error(err))
	}
	objects.Add(&scene.Object{
		ID:       groundID,
		Kind:     scene.KindGround,
		Size:     mgl64.Vec3{100, 0.1, 100},
		Color:    "#3a5f3a",
		Position: mgl64.Vec3{0, groundY, 0},
		Rotation: mgl64.QuatIdent(),
	})

	charBody := physics.NewBody(physics.BodyConfig{
		ID:             characterID,
		Position:       mgl64.Vec3{0, groundY + placeholderHeight/2, 0},
		Mass:           cfg.Character.Mass,
		Shape:          physics.NewBoxShape(placeholderWidth, placeholderHeight, placeholderDepth),
		Material:       "character",
		LinearDamping:  cfg.Character.LinearDamping,
		AngularDamping: cfg.Character.AngularDamping,
	})
	if err := world.AddBody(charBody); err != nil {
		logger.Fatal("character body", zap.Error(err))
	}
	charNode := &scene.Object{
		ID:       characterID,
		Kind:     scene.KindCharacter,
		AssetID:  cfg.Character.Model,
		Size:     mgl64.Vec3{placeholderWidth, placeholderHeight, placeholderDepth},
		Color:    "#d9a066",
		Position: charBody.Position,
		Rotation: mgl64.QuatIdent(),
	}
	objects.Add(charNode)
	char := game.NewCharacter(charBody, charNode, cfg.Character, logger.Named("character"))

	// Trash zone sits near the right edge of the initial viewport.
	halfW, _ := clamp.Extents(charBody.Position)
	trash := &scene.Object{
		ID:       trashID,
		Kind:     scene.KindTrash,
		Size:     mgl64.Vec3{1, 1.2, 1},
		Color:    "#777777",
		Position: mgl64.Vec3{halfW * 0.85, groundY + 0.6, 0},
		Rotation: mgl64.QuatIdent(),
	}
	objects.Add(trash)

	return char, trash
}
