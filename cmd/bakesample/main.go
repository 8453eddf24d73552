// Package main is the entry point for the bakesample surface sampler.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/michax/optix-prime-baking/internal/config"
	"github.com/michax/optix-prime-baking/internal/logger"
	"github.com/michax/optix-prime-baking/pkg/bake"
	"github.com/michax/optix-prime-baking/pkg/formats"
	"github.com/michax/optix-prime-baking/pkg/math"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	scenePath := config.ScenePath()
	if scenePath == "" {
		fmt.Fprintln(os.Stderr, "Usage: bakesample [options] <scene file>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(cfg, scenePath); err != nil {
		logger.Error("bake failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, scenePath string) error {
	logger.Info("loading scene", zap.String("path", scenePath))
	scene, err := formats.LoadScene(scenePath, logger.Log)
	if err != nil {
		return err
	}

	mesh := &scene.Mesh
	numTris := mesh.NumTriangles()
	logger.Info("scene loaded",
		zap.Int("vertices", mesh.NumVertices()),
		zap.Int("triangles", numTris),
		zap.Float64("surface_area", mesh.SurfaceArea()),
		zap.Bool("has_normals", mesh.HasNormals()),
		zap.String("bbox_min", fmtVec(scene.BBoxMin)),
		zap.String("bbox_max", fmtVec(scene.BBoxMax)),
		zap.Float32("bbox_diagonal", scene.BBoxMax.Distance(scene.BBoxMin)))

	// The sampler requires the budget to cover the per-triangle floor, so
	// raise it here rather than panic there. A zero budget always means
	// "floor only".
	minPer := cfg.Sampling.MinSamplesPerTriangle
	numSamples := cfg.Sampling.NumSamples
	if floor := numTris * minPer; numSamples < floor {
		if numSamples > 0 {
			logger.Warn("raising sample budget to the per-triangle floor",
				zap.Int("requested", numSamples),
				zap.Int("floor", floor))
		}
		numSamples = floor
	}

	logger.Info("sampling surface",
		zap.Int("samples", numSamples),
		zap.Int("min_per_triangle", minPer),
		zap.Int("workers", cfg.Sampling.Workers))

	sampler := bake.NewSurfaceSampler(logger.Log)
	sampler.Workers = cfg.Sampling.Workers
	out := bake.NewAOSamples(numSamples)

	start := time.Now()
	sampler.SampleSurface(mesh, minPer, out)

	logger.Info("sampling complete",
		zap.Int("samples", out.NumSamples()),
		zap.Duration("elapsed", time.Since(start)))
	logSampleSpread(out, numTris)

	if cfg.Output.PrintSamples {
		printSamples(out)
	}
	if cfg.Output.Path != "" {
		if err := formats.WriteAOSamplesFile(cfg.Output.Path, out); err != nil {
			return err
		}
		logger.Info("sample dump written", zap.String("path", cfg.Output.Path))
	}

	return nil
}

// logSampleSpread reports how unevenly the budget landed across triangles.
func logSampleSpread(out *bake.AOSamples, numTris int) {
	counts := make([]int, numTris)
	for _, info := range out.Infos {
		counts[info.TriIndex]++
	}
	minCount, maxCount := counts[0], counts[0]
	for _, c := range counts[1:] {
		minCount = min(minCount, c)
		maxCount = max(maxCount, c)
	}
	logger.Info("per-triangle sample spread",
		zap.Int("min", minCount),
		zap.Int("max", maxCount),
		zap.Float64("mean", float64(len(out.Infos))/float64(numTris)))
}

// printSamples writes one line per sample to stdout.
func printSamples(out *bake.AOSamples) {
	for i := 0; i < out.NumSamples(); i++ {
		p := out.Positions[i]
		n := out.Normals[i]
		info := out.Infos[i]
		fmt.Printf("%d tri=%d pos=(%g %g %g) normal=(%g %g %g) bary=(%g %g %g) dA=%g\n",
			i, info.TriIndex, p.X, p.Y, p.Z, n.X, n.Y, n.Z,
			info.Bary[0], info.Bary[1], info.Bary[2], info.DiffArea)
	}
}

func fmtVec(v math.Vec3) string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}
