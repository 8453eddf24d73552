package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/michax/optix-prime-baking/pkg/bake"
	"github.com/michax/optix-prime-baking/pkg/math"
)

// Sample dump errors.
var (
	ErrInvalidSamplesMagic       = errors.New("invalid sample dump magic: expected 'AOSP'")
	ErrUnsupportedSamplesVersion = errors.New("unsupported sample dump version")
	ErrTruncatedSamplesData      = errors.New("truncated sample dump data")
)

const (
	samplesMagic   = "AOSP"
	samplesVersion = 1

	// Corrupt headers must not drive allocation.
	maxDumpSamples = 1 << 27
)

// sampleRecord is the on-disk per-sample layout, little-endian.
type sampleRecord struct {
	Position   math.Vec3
	Normal     math.Vec3
	FaceNormal math.Vec3
	TriIndex   int32
	Bary       [3]float32
	DiffArea   float32
}

// WriteAOSamples writes a sampled buffer to w: magic "AOSP", version and
// sample count, then one fixed-size record per sample. The layout is what a
// downstream occlusion evaluator consumes.
func WriteAOSamples(w io.Writer, samples *bake.AOSamples) error {
	if _, err := io.WriteString(w, samplesMagic); err != nil {
		return fmt.Errorf("writing magic: %w", err)
	}
	header := [2]uint32{samplesVersion, uint32(samples.NumSamples())}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	records := make([]sampleRecord, samples.NumSamples())
	for i := range records {
		info := samples.Infos[i]
		records[i] = sampleRecord{
			Position:   samples.Positions[i],
			Normal:     samples.Normals[i],
			FaceNormal: samples.FaceNormals[i],
			TriIndex:   info.TriIndex,
			Bary:       info.Bary,
			DiffArea:   info.DiffArea,
		}
	}
	if err := binary.Write(w, binary.LittleEndian, records); err != nil {
		return fmt.Errorf("writing samples: %w", err)
	}
	return nil
}

// ReadAOSamples reads a dump written by WriteAOSamples.
func ReadAOSamples(r io.Reader) (*bake.AOSamples, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: reading magic", ErrTruncatedSamplesData)
	}
	if string(magic[:]) != samplesMagic {
		return nil, ErrInvalidSamplesMagic
	}

	var header [2]uint32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedSamplesData)
	}
	if header[0] != samplesVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSamplesVersion, header[0])
	}
	if header[1] > maxDumpSamples {
		return nil, fmt.Errorf("implausible sample count %d", header[1])
	}

	count := int(header[1])
	records := make([]sampleRecord, count)
	if err := binary.Read(r, binary.LittleEndian, records); err != nil {
		return nil, fmt.Errorf("%w: reading %d samples", ErrTruncatedSamplesData, count)
	}

	samples := bake.NewAOSamples(count)
	for i, rec := range records {
		samples.Positions[i] = rec.Position
		samples.Normals[i] = rec.Normal
		samples.FaceNormals[i] = rec.FaceNormal
		samples.Infos[i] = bake.SampleInfo{
			TriIndex: rec.TriIndex,
			Bary:     rec.Bary,
			DiffArea: rec.DiffArea,
		}
	}
	return samples, nil
}

// WriteAOSamplesFile writes a sample dump to disk.
func WriteAOSamplesFile(path string, samples *bake.AOSamples) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating sample dump: %w", err)
	}
	if err := WriteAOSamples(f, samples); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadAOSamplesFile reads a sample dump from disk.
func ReadAOSamplesFile(path string) (*bake.AOSamples, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sample dump: %w", err)
	}
	return ReadAOSamples(bytes.NewReader(data))
}
