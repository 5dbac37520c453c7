package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/Faultbox/sktransfer/internal/config"
	"github.com/Faultbox/sktransfer/internal/logger"
	"github.com/Faultbox/sktransfer/internal/mesh"
	"github.com/Faultbox/sktransfer/internal/transfer"
	"github.com/Faultbox/sktransfer/pkg/formats"
)

func cmdTransfer(args []string) {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	flags := config.BindFlags(fs)
	srcPath := fs.String("src", "", "Source mesh")
	dstPath := fs.String("dst", "", "Destination mesh")
	var shapes stringList
	fs.Var(&shapes, "shape", "Shape target OBJ for the source (repeatable)")
	keyName := fs.String("key", "", "Shape key to transfer (default: active key)")
	all := fs.Bool("all", false, "Transfer every shape key of the source")
	srcUV := fs.Int("src-uv", 0, "Source UV layer index")
	dstUV := fs.Int("dst-uv", 0, "Destination UV layer index")
	out := fs.String("o", "", "Output mesh (.yaml keeps all keys, .obj is deformed by the transferred key)")
	replace := fs.Bool("replace", false, "Replace destination shape keys with the same name")
	fs.Parse(args)

	if *srcPath == "" || *dstPath == "" || *out == "" {
		usageError("transfer -src <mesh> -dst <mesh> -o <out> [-shape target.obj] [-key name | -all]")
	}
	if *all && *keyName != "" {
		fail(errors.New("-key and -all are mutually exclusive"))
	}
	if kind, err := formats.DetectKind(*out); err != nil {
		fail(err)
	} else if *all && kind == formats.KindOBJ {
		fail(errors.New("an OBJ output holds a single shape key; use a .yaml output with -all"))
	}

	if samePath(*srcPath, *dstPath) {
		fail(fmt.Errorf("%w: %s", transfer.ErrSameMesh, *dstPath))
	}

	cfg := setup(flags)
	defer logger.Sync()

	src, err := loadMesh(*srcPath, shapes)
	if err != nil {
		fail(err)
	}
	dst, err := loadMesh(*dstPath, nil)
	if err != nil {
		fail(err)
	}

	opts := transfer.OptionsFromConfig(cfg)
	opts.Replace = *replace
	req := transfer.Request{
		Source:        src,
		SourceUV:      *srcUV,
		ShapeKey:      *keyName,
		Destination:   dst,
		DestinationUV: *dstUV,
	}

	var results []*transfer.Result
	if *all {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		results, err = transfer.TransferAll(ctx, req, nil, opts, cfg.Transfer.Workers)
	} else {
		var res *transfer.Result
		res, err = transfer.Apply(req, opts)
		results = []*transfer.Result{res}
	}
	if err != nil {
		fail(err)
	}

	fmt.Printf("%s %s -> %s (buffer %dx%d, %s)\n", bold("Transfer"), cyan(src.Name), cyan(dst.Name),
		opts.BufferSize, opts.BufferSize, spaceName(opts.NormalRelative))
	for _, res := range results {
		printResult(res, dst.VertexCount())
	}

	if err := writeMesh(*out, dst, results[len(results)-1].ShapeKey.Name); err != nil {
		fail(err)
	}
	fmt.Printf("\nWrote %s\n", *out)
}

func cmdInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	flags := config.BindFlags(fs)
	srcPath := fs.String("src", "", "Source mesh")
	var shapes stringList
	fs.Var(&shapes, "shape", "Shape target OBJ for the source (repeatable)")
	keyName := fs.String("key", "", "Shape key to inspect (default: active key)")
	srcUV := fs.Int("src-uv", 0, "Source UV layer index")
	fs.Parse(args)

	if *srcPath == "" {
		usageError("inspect -src <mesh> [-shape target.obj] [-key name] [-src-uv i]")
	}

	cfg := setup(flags)
	defer logger.Sync()

	src, err := loadMesh(*srcPath, shapes)
	if err != nil {
		fail(err)
	}
	name := *keyName
	if name == "" {
		name = src.ActiveShapeKeyName()
	}

	opts := transfer.OptionsFromConfig(cfg)
	buf, err := transfer.BuildBuffer(src, *srcUV, name, opts)
	if err != nil {
		fail(err)
	}

	s := buf.Stats
	cells := buf.Size() * buf.Size()
	fmt.Printf("%s %s / %s (UV layer %d)\n", bold("Shape key"), cyan(src.Name), cyan(name), *srcUV)
	fmt.Printf("Buffer:        %dx%d (%s)\n", buf.Size(), buf.Size(), spaceName(opts.NormalRelative))
	fmt.Printf("Samples:       %d (%d skipped)\n", s.Samples, s.Skipped)
	fmt.Printf("Sampled cells: %d (%.2f%%)\n", s.OccupiedCells, percent(s.OccupiedCells, cells))
	fmt.Printf("Interpolated:  %d (%.2f%%) from %d triangles\n", s.InterpolatedCells, percent(s.InterpolatedCells, cells), s.Triangles)
	fmt.Printf("Empty:         %d (%.2f%%)\n", s.EmptyCells, percent(s.EmptyCells, cells))
	fmt.Println()
	fmt.Println("Samples per cell:")

	counts := make([]uint32, 0, len(s.CountHistogram))
	for c := range s.CountHistogram {
		if c > 0 {
			counts = append(counts, c)
		}
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i] < counts[j] })
	for _, c := range counts {
		fmt.Printf("  %-6d %d\n", c, s.CountHistogram[c])
	}

	printDiagnostics(buf.Diagnostics)
	for _, path := range buf.DebugImages {
		fmt.Printf("  image %s\n", path)
	}
}

func cmdKeys(args []string) {
	fs := flag.NewFlagSet("keys", flag.ExitOnError)
	var shapes stringList
	fs.Var(&shapes, "shape", "Shape target OBJ (repeatable)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		usageError("keys <mesh> [-shape target.obj]")
	}

	m, err := loadMesh(fs.Arg(0), shapes)
	if err != nil {
		fail(err)
	}

	fmt.Printf("%s %s\n", bold("Mesh"), cyan(m.Name))
	fmt.Printf("Vertices: %d\n", m.VertexCount())
	fmt.Printf("Faces:    %d\n", len(m.Faces))
	fmt.Println()
	fmt.Println("UV layers:")
	for i, l := range m.UVLayers {
		fmt.Printf("  %s%d %-20s seams: %d\n", activeMark(i == m.ActiveUV), i, l.Name, len(l.Seams))
	}
	fmt.Println()
	fmt.Println("Shape keys:")
	if len(m.ShapeKeys) == 0 {
		fmt.Println("  (none)")
	}
	for i, k := range m.ShapeKeys {
		fmt.Printf("  %s%d %-20s range [%g, %g] max offset %.4f\n",
			activeMark(i == m.ActiveShapeKey), i, k.Name, k.SliderMin, k.SliderMax, maxOffset(k))
	}
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	flags := config.BindFlags(fs)
	out := fs.String("o", "", "Write the configuration to this path")
	save := fs.Bool("save", false, "Write the configuration to the user config directory")
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fail(err)
	}

	switch {
	case *out != "":
		if err := cfg.SaveTo(*out); err != nil {
			fail(err)
		}
		fmt.Printf("Wrote %s\n", *out)
	case *save:
		path, err := cfg.Save()
		if err != nil {
			fail(err)
		}
		fmt.Printf("Wrote %s\n", path)
	default:
		data, err := cfg.Marshal()
		if err != nil {
			fail(err)
		}
		os.Stdout.Write(data)
	}
}

func printResult(res *transfer.Result, vertices int) {
	s := res.Stats
	fmt.Printf("  %s %-20s cells %d sampled, %d interpolated, %d triangles; %d/%d vertices covered\n",
		green("✓"), res.ShapeKey.Name, s.OccupiedCells, s.InterpolatedCells, s.Triangles, vertices-s.Uncovered, vertices)
	printDiagnostics(res.Diagnostics)
	for _, path := range res.DebugImages {
		fmt.Printf("      image %s\n", path)
	}
}

func printDiagnostics(ds []transfer.Diagnostic) {
	for _, d := range ds {
		fmt.Printf("    %s %s\n", yellow("!"), d)
	}
}

func spaceName(normalRelative bool) string {
	if normalRelative {
		return "normal-relative"
	}
	return "world space"
}

func activeMark(active bool) string {
	if active {
		return green("*")
	}
	return " "
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

func maxOffset(k mesh.ShapeKey) float64 {
	var m float64
	for _, d := range k.Displacements {
		m = max(m, d.Length())
	}
	return m
}
