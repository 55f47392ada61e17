package vector

import (
	"testing"
)

func TestEncodeDecodeRoundtrip(t *testing.T) {
	tests := []struct {
		name string
		vec  []float32
	}{
		{"empty", []float32{}},
		{"single", []float32{0.5}},
		{"typical", []float32{0.1, -0.2, 0.3, 1.5, -1e6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := Encode(tt.vec)
			if len(blob) != len(tt.vec)*4+1 {
				t.Fatalf("blob length = %d, want %d", len(blob), len(tt.vec)*4+1)
			}
			if blob[len(blob)-1] != TagFloat32 {
				t.Fatalf("trailing byte = %d, want %d", blob[len(blob)-1], TagFloat32)
			}

			got, err := Decode(blob)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(got) != len(tt.vec) {
				t.Fatalf("decoded %d elements, want %d", len(got), len(tt.vec))
			}
			for i := range tt.vec {
				if got[i] != tt.vec[i] {
					t.Errorf("element %d = %v, want %v", i, got[i], tt.vec[i])
				}
			}
		})
	}
}

func TestStrip(t *testing.T) {
	blob := Encode([]float32{1, 2})
	raw, err := Strip(blob)
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}
	if len(raw) != 8 {
		t.Errorf("raw length = %d, want 8", len(raw))
	}
}

func TestStripRejectsUntagged(t *testing.T) {
	tests := []struct {
		name string
		blob []byte
	}{
		{"nil", nil},
		{"wrong tag", []byte{0, 0, 128, 63, 0}},
		{"bad length", []byte{1, 2, 3, TagFloat32}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Strip(tt.blob); err == nil {
				t.Error("expected error")
			}
			if IsVector(tt.blob) {
				t.Error("IsVector = true, want false")
			}
		})
	}
}
