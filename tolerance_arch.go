package gemm

import (
	"runtime"
)

// ArchToleranceConfig provides architecture-specific tolerance configurations
type ArchToleranceConfig struct {
	// Base tolerance for all architectures
	Base ToleranceConfig

	// Architecture-specific overrides
	AMD64   *ToleranceConfig
	ARM64   *ToleranceConfig
	Generic *ToleranceConfig
}

// GetArchTolerance returns the appropriate tolerance for the current architecture
func GetArchTolerance(config ArchToleranceConfig) ToleranceConfig {
	return archTolerance(config, runtime.GOARCH)
}

func archTolerance(config ArchToleranceConfig, goarch string) ToleranceConfig {
	base := config.Base

	switch goarch {
	case "amd64":
		if config.AMD64 != nil {
			return mergeTolerances(base, *config.AMD64)
		}
	case "arm64", "arm64be":
		if config.ARM64 != nil {
			return mergeTolerances(base, *config.ARM64)
		}
	default:
		if config.Generic != nil {
			return mergeTolerances(base, *config.Generic)
		}
	}

	return base
}

// mergeTolerances applies overrides to base tolerance
func mergeTolerances(base, override ToleranceConfig) ToleranceConfig {
	result := base

	// Only override non-zero values
	if override.AbsTol > 0 {
		result.AbsTol = override.AbsTol
	}
	if override.RelTol > 0 {
		result.RelTol = override.RelTol
	}
	if override.ULPTol > 0 {
		result.ULPTol = override.ULPTol
	}

	return result
}

// GEMMArchTolerance widens GEMMTolerance where the compiler may fuse
// multiply-add into FMA differently in the naive and blocked loops.
var GEMMArchTolerance = ArchToleranceConfig{
	Base: GEMMTolerance(),
	ARM64: &ToleranceConfig{
		AbsTol: 1e-5,
		RelTol: 1e-5,
		ULPTol: 16,
	},
	Generic: &ToleranceConfig{
		AbsTol: 1e-5,
		RelTol: 1e-5,
		ULPTol: 16,
	},
}
