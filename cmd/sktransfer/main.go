// sktransfer copies shape keys between meshes of different topology by
// matching them through UV space.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/Faultbox/sktransfer/internal/config"
	"github.com/Faultbox/sktransfer/internal/logger"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "transfer", "t":
		cmdTransfer(args)
	case "inspect", "i":
		cmdInspect(args)
	case "keys", "ls":
		cmdKeys(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sktransfer - UV-space shape key transfer

Usage:
  sktransfer <command> [options]

Commands:
  transfer -src <mesh> -dst <mesh> -o <out>   Transfer shape keys to another mesh
  inspect -src <mesh>                         Show delta buffer statistics for a shape key
  keys <mesh>                                 List UV layers and shape keys
  config [-o path]                            Print or save the effective configuration

Meshes are Wavefront OBJ (.obj) or YAML snapshots (.yaml). Shape keys of an
OBJ come from shape target OBJs with the same vertex order (-shape).

Common options:
  -config <path>        Config file (default ./sktransfer.yaml)
  -buffer-size <n>      Delta buffer side length in cells
  -normal-relative      Transfer displacements relative to vertex normals
  -world                Transfer displacements in world space
  -save-debug-images    Write counts/deltas/filled images of the buffer
  -debug-dir <dir>      Directory for debug images
  -workers <n>          Shape keys transferred concurrently with -all
  -debug                Enable debug logging

Examples:
  sktransfer keys head.yaml
  sktransfer transfer -src head.obj -shape smile.obj -dst head_lod1.obj -o head_lod1_smile.obj
  sktransfer transfer -src head.yaml -dst body.yaml -all -o body_keys.yaml
  sktransfer inspect -src head.yaml -key Smile -save-debug-images -debug-dir ./debug`)
}

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// setup loads the configuration for a parsed flag set and starts logging.
func setup(flags *config.Flags) *config.Config {
	cfg, err := config.Load(flags)
	if err != nil {
		fail(err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fail(err)
	}
	return cfg
}

func fail(err error) {
	logger.Sync()
	fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
	os.Exit(1)
}

func usageError(usage string) {
	fmt.Fprintln(os.Stderr, "Usage: sktransfer "+usage)
	os.Exit(1)
}
