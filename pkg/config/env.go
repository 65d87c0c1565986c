package config

import (
	"os"
	"strconv"
)

// Environment variables read by ApplyEnvironmentOverrides
const (
	EnvWidth             = "ARENA_WIDTH"
	EnvHeight            = "ARENA_HEIGHT"
	EnvDurability        = "ARENA_DURABILITY"
	EnvTickRate          = "ARENA_TICK_RATE"
	EnvMaxTicks          = "ARENA_MAX_TICKS"
	EnvStreamAddr        = "ARENA_STREAM_ADDR"
	EnvQuadTreeDepth     = "ARENA_QUADTREE_MAX_DEPTH"
	EnvPopulationSeed    = "ARENA_POPULATION_SEED"
	EnvResolveDegenerate = "ARENA_RESOLVE_DEGENERATE"
)

// ApplyEnvironmentOverrides replaces settings in config with the ARENA_*
// variables that are set. A variable that does not parse is an error;
// the config may then be partially updated.
func ApplyEnvironmentOverrides(config *ArenaConfig) error {
	if err := overrideFloat(EnvWidth, "width", &config.Width); err != nil {
		return err
	}
	if err := overrideFloat(EnvHeight, "height", &config.Height); err != nil {
		return err
	}
	if err := overrideInt(EnvDurability, "durability", &config.Durability); err != nil {
		return err
	}
	if err := overrideInt(EnvTickRate, "simulation.tickRate", &config.Simulation.TickRate); err != nil {
		return err
	}
	if err := overrideUint(EnvMaxTicks, "simulation.maxTicks", &config.Simulation.MaxTicks); err != nil {
		return err
	}
	if err := overrideInt(EnvQuadTreeDepth, "quadTree.maxDepth", &config.QuadTree.MaxDepth); err != nil {
		return err
	}
	if err := overrideUint(EnvPopulationSeed, "population.seed", &config.Population.Seed); err != nil {
		return err
	}
	if err := overrideBool(EnvResolveDegenerate, "physics.resolveDegenerate", &config.Physics.ResolveDegenerate); err != nil {
		return err
	}
	if v, ok := os.LookupEnv(EnvStreamAddr); ok {
		config.Stream.Address = v
	}
	return nil
}

// WithOverrides returns a validated clone of config with the environment
// overrides applied. config itself is left untouched.
func WithOverrides(config *ArenaConfig) (*ArenaConfig, error) {
	clone := config.Clone()
	if err := ApplyEnvironmentOverrides(clone); err != nil {
		return nil, err
	}
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	return clone, nil
}

func overrideFloat(key, field string, dst *float64) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return invalid(field, "%s=%q is not a number", key, v)
	}
	*dst = f
	return nil
}

func overrideInt(key, field string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return invalid(field, "%s=%q is not an integer", key, v)
	}
	*dst = n
	return nil
}

func overrideUint(key, field string, dst *uint64) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return invalid(field, "%s=%q is not an unsigned integer", key, v)
	}
	*dst = n
	return nil
}

func overrideBool(key, field string, dst *bool) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return invalid(field, "%s=%q is not a boolean", key, v)
	}
	*dst = b
	return nil
}
