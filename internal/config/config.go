// Package config provides Viper-based configuration loading for the
// ragdoll sandbox server.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP/WebSocket listener settings.
type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
	AssetDir  string `mapstructure:"asset_dir"`
}

// Addr returns the "host:port" listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// PhysicsConfig holds the rigid-body world settings.
type PhysicsConfig struct {
	GravityY         float64 `mapstructure:"gravity_y"`
	SolverIterations int     `mapstructure:"solver_iterations"`
	FixedTimestep    float64 `mapstructure:"fixed_timestep"`
	MaxSubsteps      int     `mapstructure:"max_substeps"`
	// MaxFrameDelta caps the wall-clock delta fed into a physics step,
	// bounding the work after a frame hitch.
	MaxFrameDelta float64 `mapstructure:"max_frame_delta"`
	GroundY       float64 `mapstructure:"ground_y"`
}

// CameraConfig mirrors the client camera for projection and clamping.
type CameraConfig struct {
	FOVDegrees float64 `mapstructure:"fov_degrees"`
	Distance   float64 `mapstructure:"distance"`
	// ViewportWidth/Height seed the aspect ratio until the first resize
	// message arrives.
	ViewportWidth  float64 `mapstructure:"viewport_width"`
	ViewportHeight float64 `mapstructure:"viewport_height"`
	Margin         float64 `mapstructure:"margin"`
}

// SpringConfig is one limb-pair oscillator parameter set.
type SpringConfig struct {
	Stiffness    float64 `mapstructure:"stiffness"`
	Damping      float64 `mapstructure:"damping"`
	MaxAngle     float64 `mapstructure:"max_angle"`
	VelocityGain float64 `mapstructure:"velocity_gain"`
}

// CharacterConfig holds the body controller tuning.
type CharacterConfig struct {
	Model          string  `mapstructure:"model"`
	Mass           float64 `mapstructure:"mass"`
	LinearDamping  float64 `mapstructure:"linear_damping"`
	AngularDamping float64 `mapstructure:"angular_damping"`

	DragStiffness float64 `mapstructure:"drag_stiffness"`
	DragDamping   float64 `mapstructure:"drag_damping"`

	RecoverSlerp          float64 `mapstructure:"recover_slerp"`
	RecoverLinearFactor   float64 `mapstructure:"recover_linear_factor"`
	RecoverAngularFactor  float64 `mapstructure:"recover_angular_factor"`
	RestVelocityEpsilon   float64 `mapstructure:"rest_velocity_epsilon"`
	HeadGrabRadius        float64 `mapstructure:"head_grab_radius"`
	HeadHeightFraction    float64 `mapstructure:"head_height_fraction"`
	TiltGain              float64 `mapstructure:"tilt_gain"`
	TiltMaxAngle          float64 `mapstructure:"tilt_max_angle"`
	TiltSmoothing         float64 `mapstructure:"tilt_smoothing"`

	SpringTop    SpringConfig `mapstructure:"spring_top"`
	SpringBottom SpringConfig `mapstructure:"spring_bottom"`
}

// ItemsConfig holds the spawned-item lifecycle tuning.
type ItemsConfig struct {
	MaxItems       int     `mapstructure:"max_items"`
	SpawnHeight    float64 `mapstructure:"spawn_height"`
	MinSeparation  float64 `mapstructure:"min_separation"`
	SeparationPush float64 `mapstructure:"separation_push"`
	ThrowMinSpeed  float64 `mapstructure:"throw_min_speed"`
	ThrowPower     float64 `mapstructure:"throw_power"`
	ThrowScale     float64 `mapstructure:"throw_scale"`
	ThrowMaxSpeed  float64 `mapstructure:"throw_max_speed"`
	SpinMax        float64 `mapstructure:"spin_max"`
	TrashRadius    float64 `mapstructure:"trash_radius"`
}

// AnimationConfig holds the collision-to-animation bridge settings.
type AnimationConfig struct {
	CooldownSeconds float64 `mapstructure:"cooldown_seconds"`
}

// HealthConfig holds the health collaborator settings.
type HealthConfig struct {
	Max float64 `mapstructure:"max"`
}

// GameConfig holds frame-loop settings.
type GameConfig struct {
	TargetTPS int `mapstructure:"target_tps"`
}

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Game      GameConfig      `mapstructure:"game"`
	Physics   PhysicsConfig   `mapstructure:"physics"`
	Camera    CameraConfig    `mapstructure:"camera"`
	Character CharacterConfig `mapstructure:"character"`
	Items     ItemsConfig     `mapstructure:"items"`
	Animation AnimationConfig `mapstructure:"animation"`
	Health    HealthConfig    `mapstructure:"health"`
}

// Validate checks the configuration invariants and reports every violation.
func (c Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", c.Logging.Level))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.Logging.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	if c.Game.TargetTPS < 1 {
		errs = append(errs, fmt.Sprintf("game.target_tps must be >= 1, got %d", c.Game.TargetTPS))
	}
	if c.Physics.FixedTimestep <= 0 {
		errs = append(errs, "physics.fixed_timestep must be positive")
	}
	if c.Physics.MaxSubsteps < 1 {
		errs = append(errs, "physics.max_substeps must be >= 1")
	}
	if c.Physics.MaxFrameDelta <= 0 {
		errs = append(errs, "physics.max_frame_delta must be positive")
	}
	if c.Camera.FOVDegrees <= 0 || c.Camera.FOVDegrees >= 180 {
		errs = append(errs, fmt.Sprintf("camera.fov_degrees must be in (0, 180), got %g", c.Camera.FOVDegrees))
	}
	if c.Camera.Distance <= 0 {
		errs = append(errs, "camera.distance must be positive")
	}
	if c.Character.Mass <= 0 {
		errs = append(errs, "character.mass must be positive")
	}
	if c.Character.RestVelocityEpsilon <= 0 {
		errs = append(errs, "character.rest_velocity_epsilon must be positive")
	}
	if c.Items.MaxItems < 1 {
		errs = append(errs, "items.max_items must be >= 1")
	}
	if c.Items.ThrowMinSpeed < 0 {
		errs = append(errs, "items.throw_min_speed must not be negative")
	}
	if c.Health.Max <= 0 {
		errs = append(errs, "health.max must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix("RAGDOLL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the built-in configuration, used when no file is given.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always unmarshal and validate cleanly.
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.static_dir", "./static")
	v.SetDefault("server.asset_dir", "./assets")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("game.target_tps", 60)

	v.SetDefault("physics.gravity_y", -9.81)
	v.SetDefault("physics.solver_iterations", 2)
	v.SetDefault("physics.fixed_timestep", 1.0/120.0)
	v.SetDefault("physics.max_substeps", 8)
	v.SetDefault("physics.max_frame_delta", 0.05)
	v.SetDefault("physics.ground_y", 0.0)

	v.SetDefault("camera.fov_degrees", 45.0)
	v.SetDefault("camera.distance", 10.0)
	v.SetDefault("camera.viewport_width", 1280.0)
	v.SetDefault("camera.viewport_height", 720.0)
	v.SetDefault("camera.margin", 0.1)

	v.SetDefault("character.model", "ragdoll")
	v.SetDefault("character.mass", 4.0)
	v.SetDefault("character.linear_damping", 0.05)
	v.SetDefault("character.angular_damping", 0.1)
	v.SetDefault("character.drag_stiffness", 60.0)
	v.SetDefault("character.drag_damping", 8.0)
	v.SetDefault("character.recover_slerp", 0.12)
	v.SetDefault("character.recover_linear_factor", 0.96)
	v.SetDefault("character.recover_angular_factor", 0.92)
	v.SetDefault("character.rest_velocity_epsilon", 0.05)
	v.SetDefault("character.head_grab_radius", 0.6)
	v.SetDefault("character.head_height_fraction", 0.75)
	v.SetDefault("character.tilt_gain", 0.08)
	v.SetDefault("character.tilt_max_angle", 0.5)
	v.SetDefault("character.tilt_smoothing", 10.0)

	v.SetDefault("character.spring_top.stiffness", 140.0)
	v.SetDefault("character.spring_top.damping", 9.0)
	v.SetDefault("character.spring_top.max_angle", 1.1)
	v.SetDefault("character.spring_top.velocity_gain", 0.35)

	v.SetDefault("character.spring_bottom.stiffness", 70.0)
	v.SetDefault("character.spring_bottom.damping", 12.0)
	v.SetDefault("character.spring_bottom.max_angle", 1.1)
	v.SetDefault("character.spring_bottom.velocity_gain", 0.45)

	v.SetDefault("items.max_items", 20)
	v.SetDefault("items.spawn_height", 3.0)
	v.SetDefault("items.min_separation", 0.9)
	v.SetDefault("items.separation_push", 0.8)
	v.SetDefault("items.throw_min_speed", 1.5)
	v.SetDefault("items.throw_power", 1.3)
	v.SetDefault("items.throw_scale", 0.9)
	v.SetDefault("items.throw_max_speed", 18.0)
	v.SetDefault("items.spin_max", 4.0)
	v.SetDefault("items.trash_radius", 1.0)

	v.SetDefault("animation.cooldown_seconds", 0.75)

	v.SetDefault("health.max", 100.0)
}
