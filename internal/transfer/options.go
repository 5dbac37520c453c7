package transfer

import (
	"github.com/Faultbox/sktransfer/internal/config"
	"github.com/Faultbox/sktransfer/internal/debug"
	"github.com/Faultbox/sktransfer/internal/deltabuf"
)

// DebugSink receives the delta buffer at each debug stage. It returns the
// path of the artifact written.
type DebugSink interface {
	Write(id debug.ImageID, stage debug.Stage, b *deltabuf.Buffer) (string, error)
}

// Options controls a transfer.
type Options struct {
	BufferSize     int
	NormalRelative bool
	Replace        bool      // Overwrite a destination shape key with the same name
	Debug          DebugSink // nil disables debug images
}

// DefaultOptions returns world-space options with the default buffer size.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// OptionsFromConfig builds options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		BufferSize:     cfg.Transfer.BufferSize,
		NormalRelative: cfg.Transfer.NormalRelative,
	}
	if cfg.Debug.SaveImages {
		opts.Debug = debug.NewWriter(cfg.Debug.OutputDir, cfg.Debug.Scale)
	}
	return opts
}
