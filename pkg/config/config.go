// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jinzhu/copier"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is matched by every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// ValidationError names the offending field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrInvalidConfig) hold
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ArenaConfig contains configuration for one simulation run
type ArenaConfig struct {
	Width      float64          `json:"width" yaml:"width"`
	Height     float64          `json:"height" yaml:"height"`
	Durability int              `json:"durability" yaml:"durability"`
	QuadTree   QuadTreeConfig   `json:"quadTree" yaml:"quadTree"`
	Physics    PhysicsConfig    `json:"physics" yaml:"physics"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Stream     StreamConfig     `json:"stream" yaml:"stream"`
	Population PopulationConfig `json:"population" yaml:"population"`
	Resources  ResourceConfig   `json:"resources" yaml:"resources"`
	Bodies     []BodyConfig     `json:"bodies" yaml:"bodies"`
}

// QuadTreeConfig tunes the broad phase
type QuadTreeConfig struct {
	Capacity int `json:"capacity" yaml:"capacity"`
	MaxDepth int `json:"maxDepth" yaml:"maxDepth"`
}

// PhysicsConfig contains collision response settings
type PhysicsConfig struct {
	// Epsilon is the shortest MTV that is still resolved
	Epsilon float64 `json:"epsilon" yaml:"epsilon"`
	// ResolveDegenerate applies contacts whose every axis was nested
	ResolveDegenerate bool `json:"resolveDegenerate" yaml:"resolveDegenerate"`
}

// SimulationConfig drives the fixed-step loop in cmd/arena
type SimulationConfig struct {
	TickRate int    `json:"tickRate" yaml:"tickRate"` // ticks per second
	MaxTicks uint64 `json:"maxTicks" yaml:"maxTicks"` // 0 runs until interrupted
	// StallSeconds is how long without a tick before health fails
	StallSeconds int `json:"stallSeconds" yaml:"stallSeconds"`
}

// StreamConfig contains snapshot stream settings. An empty Address
// disables the stream. ConnectsPerMinute caps viewer connection attempts
// per remote host; 0 disables the limit.
type StreamConfig struct {
	Address           string               `json:"address" yaml:"address"`
	MaxViewers        int                  `json:"maxViewers" yaml:"maxViewers"`
	WriteTimeoutMs    int                  `json:"writeTimeoutMs" yaml:"writeTimeoutMs"`
	FrameEvery        int                  `json:"frameEvery" yaml:"frameEvery"` // ticks per frame
	ConnectsPerMinute int                  `json:"connectsPerMinute" yaml:"connectsPerMinute"`
	CircuitBreaker    CircuitBreakerConfig `json:"circuitBreaker" yaml:"circuitBreaker"`
}

// CircuitBreakerConfig contains per-viewer breaker settings
type CircuitBreakerConfig struct {
	MaxRequests            uint32 `json:"maxRequests" yaml:"maxRequests"`
	IntervalSeconds        int    `json:"intervalSeconds" yaml:"intervalSeconds"`
	TimeoutSeconds         int    `json:"timeoutSeconds" yaml:"timeoutSeconds"`
	MaxConsecutiveFailures uint32 `json:"maxConsecutiveFailures" yaml:"maxConsecutiveFailures"`
}

// ResourceConfig bounds the goroutines and heap of cmd/arena. A zero
// limit is not enforced.
type ResourceConfig struct {
	MaxMemoryMB            int64 `json:"maxMemoryMB" yaml:"maxMemoryMB"`
	MaxGoroutines          int   `json:"maxGoroutines" yaml:"maxGoroutines"`
	CheckIntervalSeconds   int   `json:"checkIntervalSeconds" yaml:"checkIntervalSeconds"`
	ShutdownTimeoutSeconds int   `json:"shutdownTimeoutSeconds" yaml:"shutdownTimeoutSeconds"`
}

// PopulationConfig scatters random bodies across the arena. All counts
// zero disables it.
type PopulationConfig struct {
	Seed       uint64  `json:"seed" yaml:"seed"`
	Rectangles int     `json:"rectangles" yaml:"rectangles"`
	Circles    int     `json:"circles" yaml:"circles"`
	Polygons   int     `json:"polygons" yaml:"polygons"`
	MinSize    float64 `json:"minSize" yaml:"minSize"`
	MaxSize    float64 `json:"maxSize" yaml:"maxSize"`
	MinSpeed   float64 `json:"minSpeed" yaml:"minSpeed"`
	MaxSpeed   float64 `json:"maxSpeed" yaml:"maxSpeed"`
	MinSides   int     `json:"minSides" yaml:"minSides"`
	MaxSides   int     `json:"maxSides" yaml:"maxSides"` // exclusive
}

// Body kinds accepted in BodyConfig.Kind
const (
	BodyRectangle = "rectangle"
	BodyWall      = "wall"
	BodyCircle    = "circle"
	BodyPolygon   = "polygon"
)

// BodyConfig places one body. X and Y are the top-left corner for
// rectangles and walls, the center otherwise. A polygon either lists its
// vertex offsets or is regular with Sides and Radius.
type BodyConfig struct {
	Kind     string       `json:"kind" yaml:"kind"`
	X        float64      `json:"x" yaml:"x"`
	Y        float64      `json:"y" yaml:"y"`
	Width    float64      `json:"width,omitempty" yaml:"width,omitempty"`
	Height   float64      `json:"height,omitempty" yaml:"height,omitempty"`
	Radius   float64      `json:"radius,omitempty" yaml:"radius,omitempty"`
	Sides    int          `json:"sides,omitempty" yaml:"sides,omitempty"`
	Vertices [][2]float64 `json:"vertices,omitempty" yaml:"vertices,omitempty"`
	VX       float64      `json:"vx" yaml:"vx"`
	VY       float64      `json:"vy" yaml:"vy"`
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadConfig loads a configuration from a JSON or YAML file, chosen by
// extension. Settings missing from the file keep their defaults; the
// body list comes from the file alone. The result is validated.
func LoadConfig(path string) (*ArenaConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	config.Bodies = nil

	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig saves a configuration to a JSON or YAML file, chosen by
// extension
func SaveConfig(config *ArenaConfig, path string) error {
	if config == nil {
		return errors.New("failed to marshal config: nil config")
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfig returns a small hand-placed scenario on an 800x600 arena
func DefaultConfig() *ArenaConfig {
	return &ArenaConfig{
		Width:      800,
		Height:     600,
		Durability: 3,
		QuadTree: QuadTreeConfig{
			Capacity: 1,
			MaxDepth: 24,
		},
		Physics: PhysicsConfig{
			Epsilon:           1e-8,
			ResolveDegenerate: true,
		},
		Simulation: SimulationConfig{
			TickRate:     60,
			StallSeconds: 5,
		},
		Stream: StreamConfig{
			MaxViewers:        8,
			WriteTimeoutMs:    250,
			FrameEvery:        2,
			ConnectsPerMinute: 30,
			CircuitBreaker: CircuitBreakerConfig{
				MaxRequests:            1,
				IntervalSeconds:        30,
				TimeoutSeconds:         10,
				MaxConsecutiveFailures: 3,
			},
		},
		Resources: ResourceConfig{
			MaxMemoryMB:            512,
			MaxGoroutines:          64,
			CheckIntervalSeconds:   5,
			ShutdownTimeoutSeconds: 30,
		},
		Population: PopulationConfig{
			MinSize:  1,
			MaxSize:  200,
			MinSpeed: 30,
			MaxSpeed: 50.1,
			MinSides: 3,
			MaxSides: 10,
		},
		Bodies: []BodyConfig{
			{Kind: BodyCircle, X: 200, Y: 200, Radius: 50, VX: -5, VY: -5},
			{Kind: BodyPolygon, X: 60, Y: 60, Radius: 50, Sides: 3, VX: 5, VY: 5},
			{Kind: BodyCircle, X: 60, Y: 60, Radius: 50, VX: 2, VY: 2},
			{Kind: BodyRectangle, X: 100, Y: 100, Width: 30, Height: 30},
			{Kind: BodyRectangle, X: 10, Y: 10, Width: 30, Height: 30, VX: 20, VY: 20},
			{Kind: BodyPolygon, X: 20, Y: 20, Radius: 30, Sides: 3, VX: 10, VY: 10},
			{Kind: BodyCircle, X: 140, Y: 140, Radius: 10, VX: -10, VY: -10},
		},
	}
}

// Clone returns a deep copy
func (c *ArenaConfig) Clone() *ArenaConfig {
	clone := &ArenaConfig{}
	if err := copier.CopyWithOption(clone, c, copier.Option{DeepCopy: true}); err != nil {
		// only fails on mismatched types, which cannot happen here
		panic(fmt.Sprintf("config: clone: %v", err))
	}
	return clone
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// Validate checks the configuration and returns the first problem found
// as a *ValidationError
func (c *ArenaConfig) Validate() error {
	if !positiveFinite(c.Width) {
		return invalid("width", "must be positive, got %v", c.Width)
	}
	if !positiveFinite(c.Height) {
		return invalid("height", "must be positive, got %v", c.Height)
	}
	if c.Durability < 1 {
		return invalid("durability", "must be at least 1, got %d", c.Durability)
	}
	if c.QuadTree.Capacity < 1 {
		return invalid("quadTree.capacity", "must be at least 1, got %d", c.QuadTree.Capacity)
	}
	if c.QuadTree.MaxDepth < 1 {
		return invalid("quadTree.maxDepth", "must be at least 1, got %d", c.QuadTree.MaxDepth)
	}
	if c.Physics.Epsilon < 0 || math.IsNaN(c.Physics.Epsilon) {
		return invalid("physics.epsilon", "must not be negative, got %v", c.Physics.Epsilon)
	}
	if c.Simulation.TickRate < 1 {
		return invalid("simulation.tickRate", "must be at least 1, got %d", c.Simulation.TickRate)
	}
	if c.Simulation.StallSeconds < 0 {
		return invalid("simulation.stallSeconds", "must not be negative, got %d", c.Simulation.StallSeconds)
	}
	if err := c.Stream.validate(); err != nil {
		return err
	}
	if err := c.Population.validate(); err != nil {
		return err
	}
	if err := c.Resources.validate(); err != nil {
		return err
	}
	for i, b := range c.Bodies {
		if err := b.validate(); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				ve.Field = fmt.Sprintf("bodies[%d].%s", i, ve.Field)
			}
			return err
		}
	}
	return nil
}

func (s *StreamConfig) validate() error {
	if s.Address == "" {
		return nil
	}
	if s.MaxViewers < 1 {
		return invalid("stream.maxViewers", "must be at least 1, got %d", s.MaxViewers)
	}
	if s.WriteTimeoutMs < 1 {
		return invalid("stream.writeTimeoutMs", "must be at least 1, got %d", s.WriteTimeoutMs)
	}
	if s.FrameEvery < 1 {
		return invalid("stream.frameEvery", "must be at least 1, got %d", s.FrameEvery)
	}
	if s.ConnectsPerMinute < 0 {
		return invalid("stream.connectsPerMinute", "must not be negative, got %d", s.ConnectsPerMinute)
	}
	if s.CircuitBreaker.MaxConsecutiveFailures < 1 {
		return invalid("stream.circuitBreaker.maxConsecutiveFailures", "must be at least 1")
	}
	return nil
}

func (r *ResourceConfig) validate() error {
	if r.MaxMemoryMB < 0 {
		return invalid("resources.maxMemoryMB", "must not be negative, got %d", r.MaxMemoryMB)
	}
	if r.MaxGoroutines < 0 {
		return invalid("resources.maxGoroutines", "must not be negative, got %d", r.MaxGoroutines)
	}
	if r.CheckIntervalSeconds < 1 {
		return invalid("resources.checkIntervalSeconds", "must be at least 1, got %d", r.CheckIntervalSeconds)
	}
	if r.ShutdownTimeoutSeconds < 1 {
		return invalid("resources.shutdownTimeoutSeconds", "must be at least 1, got %d", r.ShutdownTimeoutSeconds)
	}
	return nil
}

func (p *PopulationConfig) validate() error {
	if p.Rectangles < 0 || p.Circles < 0 || p.Polygons < 0 {
		return invalid("population", "counts must not be negative")
	}
	if p.Rectangles+p.Circles+p.Polygons == 0 {
		return nil
	}
	if !positiveFinite(p.MinSize) || p.MaxSize <= p.MinSize {
		return invalid("population.size", "need 0 < minSize < maxSize, got %v and %v", p.MinSize, p.MaxSize)
	}
	if p.MinSpeed < 0 || p.MaxSpeed <= p.MinSpeed {
		return invalid("population.speed", "need 0 <= minSpeed < maxSpeed, got %v and %v", p.MinSpeed, p.MaxSpeed)
	}
	if p.Polygons > 0 && (p.MinSides < 3 || p.MaxSides <= p.MinSides) {
		return invalid("population.sides", "need 3 <= minSides < maxSides, got %d and %d", p.MinSides, p.MaxSides)
	}
	return nil
}

func (b *BodyConfig) validate() error {
	switch b.Kind {
	case BodyRectangle, BodyWall:
		if !positiveFinite(b.Width) || !positiveFinite(b.Height) {
			return invalid("size", "%s needs positive width and height", b.Kind)
		}
	case BodyCircle:
		if !positiveFinite(b.Radius) {
			return invalid("radius", "circle needs a positive radius")
		}
	case BodyPolygon:
		if len(b.Vertices) > 0 {
			if len(b.Vertices) < 3 {
				return invalid("vertices", "polygon needs at least 3 vertices, got %d", len(b.Vertices))
			}
			return nil
		}
		if b.Sides < 3 {
			return invalid("sides", "polygon needs at least 3 sides, got %d", b.Sides)
		}
		if !positiveFinite(b.Radius) {
			return invalid("radius", "regular polygon needs a positive radius")
		}
	default:
		return invalid("kind", "unknown body kind %q", b.Kind)
	}
	return nil
}
