// Package formats provides scene loaders and the sample dump format for
// surface baking.
package formats

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/michax/optix-prime-baking/pkg/bake"
	"github.com/michax/optix-prime-baking/pkg/math"
)

// ErrMissingExtension reports a scene path with no file extension to pick a
// loader by.
var ErrMissingExtension = errors.New("missing scene file extension")

// Scene is a loaded mesh together with its axis-aligned bounding box.
type Scene struct {
	Mesh    bake.Mesh
	BBoxMin math.Vec3
	BBoxMax math.Vec3
}

// LoadScene loads a mesh scene from path, picking the loader by file
// extension: ".obj" for Wavefront OBJ, ".bk3d" and ".gz" for the baked-mesh
// container. Any other extension is tried as bk3d after a warning; a path
// with no extension at all fails with ErrMissingExtension. The returned mesh
// has been validated. A nil log disables logging.
func LoadScene(path string, log *zap.Logger) (*Scene, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var mesh *bake.Mesh
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		mesh, err = ParseOBJFile(path)
	case ".bk3d", ".gz":
		mesh, err = ParseBK3DFile(path)
	case "":
		return nil, fmt.Errorf("cannot determine scene format for %s: %w", path, ErrMissingExtension)
	default:
		log.Warn("unrecognized scene file extension, attempting bk3d load",
			zap.String("path", path),
			zap.String("extension", ext))
		mesh, err = ParseBK3DFile(path)
	}
	if err != nil {
		return nil, err
	}
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}

	scene := &Scene{Mesh: *mesh}
	scene.BBoxMin, scene.BBoxMax = bounds(mesh.Vertices)
	return scene, nil
}

// bounds returns the axis-aligned bounding box of a point set.
func bounds(points []math.Vec3) (bmin, bmax math.Vec3) {
	if len(points) == 0 {
		return math.Vec3{}, math.Vec3{}
	}
	bmin, bmax = points[0], points[0]
	for _, p := range points[1:] {
		bmin = bmin.Min(p)
		bmax = bmax.Max(p)
	}
	return bmin, bmax
}
