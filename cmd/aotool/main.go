// aotool is a CLI utility for inspecting baked sample dumps and converting
// scene files.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/michax/optix-prime-baking/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "print", "p":
		cmdPrint(args)
	case "pack":
		cmdPack(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`aotool - baked sample dump utility

Usage:
  aotool <command> [options]

Commands:
  info <file.aosp>             Show sample dump information
  print <file.aosp> [-n N]     Print samples (default first 20, 0 = all)
  pack <scene> <out.bk3d[.gz]> Convert a scene file to a bk3d container

Examples:
  aotool info sponza.aosp
  aotool print sponza.aosp -n 100
  aotool pack sponza.obj sponza.bk3d.gz`)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: aotool info <file.aosp>")
		os.Exit(1)
	}

	samples, err := formats.ReadAOSamplesFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	n := samples.NumSamples()
	fmt.Printf("Dump:      %s\n", args[0])
	fmt.Printf("Samples:   %d\n", n)
	if n == 0 {
		return
	}

	perTriangle := make(map[int32]int)
	var area float64
	bboxMin := samples.Positions[0]
	bboxMax := samples.Positions[0]
	for i := 0; i < n; i++ {
		perTriangle[samples.Infos[i].TriIndex]++
		area += float64(samples.Infos[i].DiffArea)
		bboxMin = bboxMin.Min(samples.Positions[i])
		bboxMax = bboxMax.Max(samples.Positions[i])
	}

	minCount, maxCount := n, 0
	for _, count := range perTriangle {
		minCount = min(minCount, count)
		maxCount = max(maxCount, count)
	}

	fmt.Printf("Triangles: %d (%d to %d samples each)\n", len(perTriangle), minCount, maxCount)
	fmt.Printf("Area:      %g\n", area)
	fmt.Printf("Bounds:    (%g %g %g) to (%g %g %g)\n",
		bboxMin.X, bboxMin.Y, bboxMin.Z, bboxMax.X, bboxMax.Y, bboxMax.Z)
}

func cmdPrint(args []string) {
	fs := flag.NewFlagSet("print", flag.ExitOnError)
	limit := fs.Int("n", 20, "Limit output to N samples (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: aotool print <file.aosp> [-n N]")
		os.Exit(1)
	}

	samples, err := formats.ReadAOSamplesFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	n := samples.NumSamples()
	count := n
	if *limit > 0 && *limit < n {
		count = *limit
	}

	for i := 0; i < count; i++ {
		pos := samples.Positions[i]
		normal := samples.Normals[i]
		info := samples.Infos[i]
		fmt.Printf("%d tri=%d pos=(%g %g %g) normal=(%g %g %g) bary=(%g %g %g) dA=%g\n",
			i, info.TriIndex,
			pos.X, pos.Y, pos.Z,
			normal.X, normal.Y, normal.Z,
			info.Bary[0], info.Bary[1], info.Bary[2],
			info.DiffArea)
	}

	if count < n {
		fmt.Fprintf(os.Stderr, "\n(showing first %d of %d samples, use -n 0 for all)\n", count, n)
	}
}

func cmdPack(args []string) {
	fs := flag.NewFlagSet("pack", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: aotool pack <scene> <out.bk3d[.gz]>")
		os.Exit(1)
	}

	scene, err := formats.LoadScene(fs.Arg(0), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := formats.WriteBK3DFile(fs.Arg(1), &scene.Mesh); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Packed: %s (%d vertices, %d triangles)\n",
		fs.Arg(1), scene.Mesh.NumVertices(), scene.Mesh.NumTriangles())
}
