// a3dtool is a CLI utility for working with A3D models, BattleMap and
// LightmapData files.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/MapMakersAndProgrammers/io-scene-a3d/internal/assets"
	"github.com/MapMakersAndProgrammers/io-scene-a3d/internal/config"
	"github.com/MapMakersAndProgrammers/io-scene-a3d/internal/logger"
	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/a3d"
	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/battlemap"
	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/lightmap"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "info":
		cmdInfo(args)
	case "dump":
		cmdDump(args)
	case "convert":
		cmdConvert(cfg, args)
	case "map":
		cmdMap(cfg, args)
	case "lightmap":
		cmdLightmap(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`a3dtool - A3D model and map asset utility

Usage:
  a3dtool [options] <command> [args]

Commands:
  info <file.a3d>                Show model information
  dump <file.a3d>                Dump the model's full structure
  convert [-v N] <in> <out>      Re-encode a model as container version N
  map [-check] <file.bin>        Show map summary, optionally check props
  lightmap <file>                Show lightmap data summary

Options:
  -config <path>   Use this config file
  -debug           Enable debug logging
  -libs <dir>      Prop library search path

Examples:
  a3dtool info crate.a3d
  a3dtool convert -v 3 old.a3d new.a3d
  a3dtool -libs ./props map -check map.bin`)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: a3dtool info <file.a3d>")
		os.Exit(1)
	}

	model, err := a3d.ParseFile(args[0])
	if err != nil {
		logger.Fatal("failed to parse model", zap.String("path", args[0]), zap.Error(err))
	}

	fmt.Printf("Model:      %s\n", args[0])
	fmt.Printf("Version:    %d\n", model.Version)
	fmt.Printf("Materials:  %d\n", len(model.Materials))
	fmt.Printf("Meshes:     %d\n", len(model.Meshes))
	fmt.Printf("Transforms: %d\n", len(model.Transforms))
	fmt.Printf("Objects:    %d\n", len(model.Objects))
	fmt.Printf("Vertices:   %d\n", model.TotalVertexCount())
	fmt.Printf("Triangles:  %d\n", model.TotalTriangleCount())
}

func cmdDump(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: a3dtool dump <file.a3d>")
		os.Exit(1)
	}

	model, err := a3d.ParseFile(args[0])
	if err != nil {
		logger.Fatal("failed to parse model", zap.String("path", args[0]), zap.Error(err))
	}

	fmt.Printf("%s (version %d)\n", args[0], model.Version)

	fmt.Printf("\nMaterials (%d):\n", len(model.Materials))
	for i, mat := range model.Materials {
		fmt.Printf("  [%d] %q color=(%g, %g, %g) diffuse=%q\n",
			i, mat.Name, mat.Color[0], mat.Color[1], mat.Color[2], mat.DiffuseMap)
	}

	fmt.Printf("\nMeshes (%d):\n", len(model.Meshes))
	for i, mesh := range model.Meshes {
		fmt.Printf("  [%d] %q vertices=%d\n", i, mesh.Name, mesh.VertexCount)
		for _, buf := range mesh.VertexBuffers {
			fmt.Printf("      buffer %s (%d floats)\n", buf.Type, len(buf.Data))
		}
		for j, sub := range mesh.Submeshes {
			fmt.Printf("      submesh %d: %d indices\n", j, len(sub.Indices))
		}
	}

	fmt.Printf("\nTransforms (%d):\n", len(model.Transforms))
	for i, tr := range model.Transforms {
		parent := "-"
		if p, ok := model.ParentIndex(i); ok {
			parent = fmt.Sprintf("%d", p)
		}
		fmt.Printf("  [%d] %q pos=(%g, %g, %g) parent=%s\n",
			i, tr.Name, tr.Position.X, tr.Position.Y, tr.Position.Z, parent)
	}

	fmt.Printf("\nObjects (%d):\n", len(model.Objects))
	for i, obj := range model.Objects {
		fmt.Printf("  [%d] %q mesh=%d transform=%d materials=%v\n",
			i, obj.Name, obj.MeshID, obj.TransformID, obj.MaterialIDs)
	}
}

func cmdConvert(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	version := fs.Int("v", cfg.Convert.TargetVersion, "Target container version")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: a3dtool convert [-v N] <in.a3d> <out.a3d>")
		os.Exit(1)
	}

	inPath, outPath := fs.Arg(0), fs.Arg(1)

	model, err := a3d.ParseFile(inPath)
	if err != nil {
		logger.Fatal("failed to parse model", zap.String("path", inPath), zap.Error(err))
	}

	data, err := a3d.Encode(model, uint16(*version))
	if err != nil {
		logger.Fatal("failed to encode model", zap.Int("version", *version), zap.Error(err))
	}

	if err := writeOutput(outPath, data); err != nil {
		logger.Fatal("failed to write model", zap.String("path", outPath), zap.Error(err))
	}

	logger.Info("converted model",
		zap.String("in", inPath),
		zap.String("out", outPath),
		zap.Uint16("from", model.Version),
		zap.Int("to", *version),
		zap.Int("bytes", len(data)))
	fmt.Printf("Wrote %s (version %d, %d bytes)\n", outPath, *version, len(data))
}

func cmdMap(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("map", flag.ExitOnError)
	check := fs.Bool("check", false, "Check that referenced prop models resolve")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: a3dtool map [-check] <file.bin>")
		os.Exit(1)
	}

	m, err := battlemap.ParseFile(fs.Arg(0))
	if err != nil {
		logger.Fatal("failed to parse map", zap.String("path", fs.Arg(0)), zap.Error(err))
	}

	fmt.Printf("Map:          %s\n", fs.Arg(0))
	fmt.Printf("Atlases:      %d\n", len(m.Atlases))
	fmt.Printf("Batches:      %d\n", len(m.Batches))
	fmt.Printf("Materials:    %d\n", len(m.Materials))
	fmt.Printf("Spawn points: %d\n", len(m.SpawnPoints))
	fmt.Printf("Props:        %d\n", len(m.StaticGeometry))
	fmt.Printf("Collision:    %d boxes, %d planes, %d triangles\n",
		len(m.CollisionGeometry.Boxes),
		len(m.CollisionGeometry.Planes),
		len(m.CollisionGeometry.Triangles))

	if len(m.Materials) > 0 {
		fmt.Println("\nMaterials by shader:")
		shaderCount := make(map[string]int)
		for i := range m.Materials {
			shaderCount[m.Materials[i].ShaderKind().String()]++
		}
		for kind, count := range shaderCount {
			fmt.Printf("  %-10s %d\n", kind, count)
		}
	}

	if len(m.SpawnPoints) > 0 {
		fmt.Println("\nSpawn points by type:")
		typeCount := make(map[string]int)
		for i := range m.SpawnPoints {
			typeCount[m.SpawnPoints[i].Type.String()]++
		}
		for name, count := range typeCount {
			fmt.Printf("  %-16s %d\n", name, count)
		}
	}

	if *check {
		checkProps(cfg, m)
	}
}

// checkProps resolves every prop's model file against the configured prop
// library paths and reports the missing ones.
func checkProps(cfg *config.Config, m *battlemap.BattleMap) {
	manager := assets.NewManager(cfg.Data.PropLibraryPaths...)

	missing := 0
	seen := make(map[string]bool)
	for i := range m.StaticGeometry {
		prop := &m.StaticGeometry[i]
		name := propModelPath(prop)
		if seen[name] {
			continue
		}
		seen[name] = true

		if _, err := manager.LoadModel(name); err != nil {
			fmt.Fprintf(os.Stderr, "Missing prop: %v\n", errors.Wrapf(err, "prop %q", prop.Name))
			missing++
		}
	}

	hits, misses := manager.Stats()
	logger.Debug("prop check finished",
		zap.Int("props", len(m.StaticGeometry)),
		zap.Int("unique", len(seen)),
		zap.Int("cache_hits", hits),
		zap.Int("cache_misses", misses))

	if missing > 0 {
		fmt.Fprintf(os.Stderr, "\n%d of %d prop models missing\n", missing, len(seen))
		os.Exit(1)
	}
	fmt.Printf("\nAll %d prop models resolved\n", len(seen))
}

// propModelPath maps a prop to its model file inside a prop library.
func propModelPath(p *battlemap.Prop) string {
	parts := []string{p.LibraryName}
	if p.HasGroup {
		parts = append(parts, p.GroupName)
	}
	parts = append(parts, p.Name+".a3d")
	return filepath.Join(parts...)
}

func cmdLightmap(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: a3dtool lightmap <file>")
		os.Exit(1)
	}

	d, err := lightmap.ParseFile(args[0])
	if err != nil {
		logger.Fatal("failed to parse lightmap data", zap.String("path", args[0]), zap.Error(err))
	}

	fmt.Printf("Lightmap data: %s (version %d)\n", args[0], d.Version)
	fmt.Printf("Light:         %s angle=(%g, %g)\n", formatColor(d.LightColor), d.LightAngle[0], d.LightAngle[1])
	fmt.Printf("Ambient:       %s\n", formatColor(d.AmbientLightColor))

	fmt.Printf("\nLightmaps (%d):\n", len(d.Lightmaps))
	for i, name := range d.Lightmaps {
		fmt.Printf("  [%d] %s\n", i, name)
	}

	withUVs, casting := 0, 0
	for i := range d.MapObjects {
		if len(d.MapObjects[i].UV1) > 0 {
			withUVs++
		}
		if d.MapObjects[i].CastShadows {
			casting++
		}
	}
	fmt.Printf("\nMap objects: %d (%d with UVs, %d casting shadows)\n",
		len(d.MapObjects), withUVs, casting)
}

func formatColor(c lightmap.ARGB) string {
	r, g, b, a := c.RGBA()
	return fmt.Sprintf("#%08x (r=%.2f g=%.2f b=%.2f a=%.2f)", uint32(c), r, g, b, a)
}

func writeOutput(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "." && !strings.HasPrefix(dir, "..") {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "creating output directory")
		}
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "writing output file")
}
