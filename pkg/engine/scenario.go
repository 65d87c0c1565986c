package engine

import (
	"math/rand/v2"

	"github.com/opd-ai/go-arena/pkg/config"
	"github.com/opd-ai/go-arena/pkg/entity"
	"github.com/opd-ai/go-arena/pkg/logging"
	"github.com/opd-ai/go-arena/pkg/physics"
)

// NewWorldFromConfig validates cfg and builds a world holding the listed
// bodies followed by the random population, in that slot order
func NewWorldFromConfig(cfg *config.ArenaConfig, opts ...Option) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, logging.WrapError(err, "building world")
	}

	base := []Option{
		WithDurability(cfg.Durability),
		WithEpsilon(cfg.Physics.Epsilon),
		WithResolveDegenerate(cfg.Physics.ResolveDegenerate),
		WithQuadTree(cfg.QuadTree.Capacity, cfg.QuadTree.MaxDepth),
	}
	w := NewWorld(cfg.Width, cfg.Height, append(base, opts...)...)

	for _, b := range cfg.Bodies {
		w.Add(BodyFromConfig(b))
	}
	Populate(w, cfg.Population)

	w.logger.Info(w.ctx, "world created",
		"width", cfg.Width,
		"height", cfg.Height,
		"bodies", w.Len(),
	)
	return w, nil
}

// BodyFromConfig builds one body. b must have passed validation.
func BodyFromConfig(b config.BodyConfig) entity.Body {
	vel := physics.Vector2D{X: b.VX, Y: b.VY}
	at := physics.Vector2D{X: b.X, Y: b.Y}

	switch b.Kind {
	case config.BodyWall:
		return entity.NewWall(b.X, b.Y, b.Width, b.Height)
	case config.BodyCircle:
		return entity.NewCircle(at, b.Radius, vel)
	case config.BodyPolygon:
		if len(b.Vertices) == 0 {
			return entity.NewRegularPolygon(at, b.Radius, b.Sides, vel)
		}
		offsets := make([]physics.Vector2D, len(b.Vertices))
		for i, v := range b.Vertices {
			offsets[i] = physics.Vector2D{X: v[0], Y: v[1]}
		}
		return entity.NewPolygon(at, offsets, vel)
	default:
		return entity.NewRectangle(b.X, b.Y, b.Width, b.Height, vel)
	}
}

// Populate scatters p's rectangles, circles and polygons over the arena,
// in that order. A zero seed draws one at random.
func Populate(w *World, p config.PopulationConfig) {
	if p.Rectangles+p.Circles+p.Polygons == 0 {
		return
	}

	seed := p.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	width, height := w.size.X, w.size.Y

	uniform := func(lo, hi float64) float64 {
		return lo + rng.Float64()*(hi-lo)
	}
	speed := func() physics.Vector2D {
		v := physics.Vector2D{X: uniform(p.MinSpeed, p.MaxSpeed), Y: uniform(p.MinSpeed, p.MaxSpeed)}
		if rng.Float64() < 0.5 {
			return v.Scale(-1)
		}
		return v
	}

	for range p.Rectangles {
		size := uniform(p.MinSize, p.MaxSize)
		vel := speed()
		w.Add(entity.NewRectangle(uniform(0, width-size), uniform(0, height-size), size, size, vel))
	}
	for range p.Circles {
		r := uniform(p.MinSize/2, p.MaxSize/2)
		vel := speed()
		center := physics.Vector2D{X: uniform(r/2, width-r/2), Y: uniform(r/2, height-r/2)}
		w.Add(entity.NewCircle(center, r, vel))
	}
	for range p.Polygons {
		r := uniform(p.MinSize/2, p.MaxSize/2)
		vel := speed()
		center := physics.Vector2D{X: uniform(r/2, width-r/2), Y: uniform(r/2, height-r/2)}
		sides := p.MinSides + rng.IntN(p.MaxSides-p.MinSides)
		w.Add(entity.NewRegularPolygon(center, r, sides, vel))
	}

	w.logger.Debug(w.ctx, "population added",
		"seed", seed,
		"rectangles", p.Rectangles,
		"circles", p.Circles,
		"polygons", p.Polygons,
	)
}
