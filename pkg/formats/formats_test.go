package formats

import (
	"errors"
	"testing"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		path string
		want Kind
	}{
		{"head.obj", KindOBJ},
		{"models/Head.OBJ", KindOBJ},
		{"head.yaml", KindSnapshot},
		{"/tmp/out.yml", KindSnapshot},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectKind(tt.path)
			if err != nil {
				t.Fatalf("DetectKind(%q) failed: %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("DetectKind(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestDetectKind_Unknown(t *testing.T) {
	for _, path := range []string{"head.fbx", "head", ""} {
		if _, err := DetectKind(path); !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("DetectKind(%q): expected ErrUnknownFormat, got %v", path, err)
		}
	}
}
