package config

import "flag"

// Flags holds the command-line overrides bound to one flag set.
type Flags struct {
	Config          *string
	Debug           *bool
	BufferSize      *int
	NormalRelative  *bool
	World           *bool
	SaveDebugImages *bool
	DebugDir        *string
	Workers         *int
}

// BindFlags registers the common configuration flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		Config:          fs.String("config", "", "Path to config file"),
		Debug:           fs.Bool("debug", false, "Enable debug logging"),
		BufferSize:      fs.Int("buffer-size", 0, "Delta buffer side length in cells"),
		NormalRelative:  fs.Bool("normal-relative", false, "Transfer displacements relative to vertex normals"),
		World:           fs.Bool("world", false, "Transfer displacements in world space"),
		SaveDebugImages: fs.Bool("save-debug-images", false, "Write debug images of the delta buffer"),
		DebugDir:        fs.String("debug-dir", "", "Directory for debug images"),
		Workers:         fs.Int("workers", 0, "Shape keys transferred concurrently"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.Config
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if *f.Debug {
		cfg.Logging.Level = "debug"
	}
	if *f.BufferSize != 0 {
		cfg.Transfer.BufferSize = *f.BufferSize
	}
	if *f.NormalRelative {
		cfg.Transfer.NormalRelative = true
	}
	if *f.World {
		cfg.Transfer.NormalRelative = false
	}
	if *f.SaveDebugImages {
		cfg.Debug.SaveImages = true
	}
	if *f.DebugDir != "" {
		cfg.Debug.OutputDir = *f.DebugDir
		cfg.Debug.SaveImages = true
	}
	if *f.Workers != 0 {
		cfg.Transfer.Workers = *f.Workers
	}
}
