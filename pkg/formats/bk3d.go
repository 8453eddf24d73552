// Package formats provides scene loaders and the sample dump format for
// surface baking.
package formats

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/michax/optix-prime-baking/pkg/bake"
	"github.com/michax/optix-prime-baking/pkg/math"
)

// BK3D format errors.
var (
	ErrInvalidBK3DMagic       = errors.New("invalid bk3d magic: expected 'BK3D'")
	ErrUnsupportedBK3DVersion = errors.New("unsupported bk3d version")
	ErrTruncatedBK3DData      = errors.New("truncated bk3d data")
)

const (
	bk3dVersion = 1

	// Corrupt archives must not drive decompression.
	maxBK3DDecompressed = 1 << 30
)

// ParseBK3D parses a baked-mesh container from raw bytes. Gzip-compressed
// input is detected by its magic bytes and decompressed transparently.
//
// Layout, little-endian: magic "BK3D", version uint32, vertex count uint32,
// normal count uint32 (zero, or equal to the vertex count), triangle count
// uint32, then the position, normal and index-triple sections.
func ParseBK3D(data []byte) (*bake.Mesh, error) {
	if isGzip(data) {
		raw, err := decompressBK3D(data, maxBK3DDecompressed)
		if err != nil {
			return nil, err
		}
		data = raw
	}

	if len(data) < 20 {
		return nil, ErrTruncatedBK3DData
	}
	if string(data[0:4]) != "BK3D" {
		return nil, ErrInvalidBK3DMagic
	}

	r := bytes.NewReader(data[4:])

	var version, vertexCount, normalCount, triCount uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: reading version", ErrTruncatedBK3DData)
	}
	if version != bk3dVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBK3DVersion, version)
	}
	if err := binary.Read(r, binary.LittleEndian, &vertexCount); err != nil {
		return nil, fmt.Errorf("%w: reading vertex count", ErrTruncatedBK3DData)
	}
	if err := binary.Read(r, binary.LittleEndian, &normalCount); err != nil {
		return nil, fmt.Errorf("%w: reading normal count", ErrTruncatedBK3DData)
	}
	if err := binary.Read(r, binary.LittleEndian, &triCount); err != nil {
		return nil, fmt.Errorf("%w: reading triangle count", ErrTruncatedBK3DData)
	}

	if normalCount != 0 && normalCount != vertexCount {
		return nil, fmt.Errorf("normal count %d does not match vertex count %d", normalCount, vertexCount)
	}
	if need := (uint64(vertexCount) + uint64(normalCount) + uint64(triCount)) * 12; uint64(r.Len()) < need {
		return nil, fmt.Errorf("%w: %d section bytes, %d declared", ErrTruncatedBK3DData, r.Len(), need)
	}

	mesh := &bake.Mesh{
		Vertices: make([]math.Vec3, vertexCount),
	}
	if err := binary.Read(r, binary.LittleEndian, mesh.Vertices); err != nil {
		return nil, fmt.Errorf("%w: reading positions", ErrTruncatedBK3DData)
	}
	if normalCount > 0 {
		mesh.Normals = make([]math.Vec3, normalCount)
		if err := binary.Read(r, binary.LittleEndian, mesh.Normals); err != nil {
			return nil, fmt.Errorf("%w: reading normals", ErrTruncatedBK3DData)
		}
	}

	indices := make([]uint32, 3*int(triCount))
	if err := binary.Read(r, binary.LittleEndian, indices); err != nil {
		return nil, fmt.Errorf("%w: reading indices", ErrTruncatedBK3DData)
	}
	mesh.TriVertexIndices = make([]bake.TriIndices, triCount)
	for i := range mesh.TriVertexIndices {
		for j := 0; j < 3; j++ {
			idx := indices[3*i+j]
			if idx >= vertexCount {
				return nil, fmt.Errorf("triangle %d: index %d out of range (%d vertices)", i, idx, vertexCount)
			}
			mesh.TriVertexIndices[i][j] = int32(idx)
		}
	}

	// Normals are stored per vertex, so normal indices mirror the vertex
	// indices.
	if normalCount > 0 {
		mesh.TriNormalIndices = make([]bake.TriIndices, triCount)
		copy(mesh.TriNormalIndices, mesh.TriVertexIndices)
	}

	return mesh, nil
}

// ParseBK3DFile parses a bk3d file from disk, compressed or not.
func ParseBK3DFile(path string) (*bake.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bk3d file: %w", err)
	}
	return ParseBK3D(data)
}

// WriteBK3D writes a mesh as a bk3d container, gzip-compressed when compress
// is true. Meshes whose normals are indexed separately from their vertices
// are split into per-corner vertices first, since bk3d stores one normal per
// vertex.
func WriteBK3D(w io.Writer, mesh *bake.Mesh, compress bool) error {
	if err := mesh.Validate(); err != nil {
		return fmt.Errorf("validating mesh: %w", err)
	}
	mesh = vertexAlignedMesh(mesh)

	out := w
	var zw *gzip.Writer
	if compress {
		zw = gzip.NewWriter(w)
		out = zw
	}

	if _, err := io.WriteString(out, "BK3D"); err != nil {
		return fmt.Errorf("writing magic: %w", err)
	}
	header := [4]uint32{
		bk3dVersion,
		uint32(mesh.NumVertices()),
		uint32(len(mesh.Normals)),
		uint32(mesh.NumTriangles()),
	}
	if err := binary.Write(out, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := binary.Write(out, binary.LittleEndian, mesh.Vertices); err != nil {
		return fmt.Errorf("writing positions: %w", err)
	}
	if len(mesh.Normals) > 0 {
		if err := binary.Write(out, binary.LittleEndian, mesh.Normals); err != nil {
			return fmt.Errorf("writing normals: %w", err)
		}
	}
	indices := make([]uint32, 0, 3*mesh.NumTriangles())
	for _, tri := range mesh.TriVertexIndices {
		indices = append(indices, uint32(tri[0]), uint32(tri[1]), uint32(tri[2]))
	}
	if err := binary.Write(out, binary.LittleEndian, indices); err != nil {
		return fmt.Errorf("writing indices: %w", err)
	}

	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("closing gzip stream: %w", err)
		}
	}
	return nil
}

// WriteBK3DFile writes a mesh to disk as bk3d, compressing when the path ends
// in .gz.
func WriteBK3DFile(path string, mesh *bake.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating bk3d file: %w", err)
	}
	if err := WriteBK3D(f, mesh, strings.HasSuffix(strings.ToLower(path), ".gz")); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing bk3d file: %w", err)
	}
	return nil
}

// vertexAlignedMesh returns a mesh whose normal indices mirror its vertex
// indices, duplicating vertices referenced with more than one normal.
func vertexAlignedMesh(mesh *bake.Mesh) *bake.Mesh {
	if !mesh.HasNormals() {
		return mesh
	}
	aligned := len(mesh.Normals) == len(mesh.Vertices)
	for i := 0; aligned && i < len(mesh.TriVertexIndices); i++ {
		aligned = mesh.TriNormalIndices[i] == mesh.TriVertexIndices[i]
	}
	if aligned {
		return mesh
	}

	type corner struct{ vertex, normal int32 }
	seen := make(map[corner]int32)
	split := &bake.Mesh{
		TriVertexIndices: make([]bake.TriIndices, len(mesh.TriVertexIndices)),
	}
	for ti, tri := range mesh.TriVertexIndices {
		ntri := mesh.TriNormalIndices[ti]
		for j := 0; j < 3; j++ {
			c := corner{tri[j], ntri[j]}
			idx, ok := seen[c]
			if !ok {
				idx = int32(len(split.Vertices))
				seen[c] = idx
				split.Vertices = append(split.Vertices, mesh.Vertices[c.vertex])
				split.Normals = append(split.Normals, mesh.Normals[c.normal])
			}
			split.TriVertexIndices[ti][j] = idx
		}
	}
	split.TriNormalIndices = make([]bake.TriIndices, len(split.TriVertexIndices))
	copy(split.TriNormalIndices, split.TriVertexIndices)
	return split
}

// decompressBK3D inflates a gzip stream, refusing output past limit bytes.
func decompressBK3D(data []byte, limit int64) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(io.LimitReader(zr, limit+1))
	if err != nil {
		return nil, fmt.Errorf("decompressing bk3d data: %w", err)
	}
	if int64(len(raw)) > limit {
		return nil, fmt.Errorf("implausible bk3d size: decompresses past %d bytes", limit)
	}
	return raw, nil
}

func isGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}
