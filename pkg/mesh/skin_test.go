package mesh

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestSkinWeightEffective(t *testing.T) {
	tests := []struct {
		name string
		w    SkinWeight
		want bool
	}{
		{"all zero", SkinWeight{Bones: [4]uint32{1, 2, 3, 4}}, false},
		{"first slot", SkinWeight{Weights: [4]float32{1, 0, 0, 0}}, true},
		{"last slot", SkinWeight{Weights: [4]float32{0, 0, 0, 0.25}}, true},
		{"negative", SkinWeight{Weights: [4]float32{0, -0.5, 0, 0}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.w.Effective(); got != tt.want {
				t.Errorf("Effective() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncodedSkinRoundTrip(t *testing.T) {
	in := []SkinWeight{
		{Bones: [4]uint32{0, 1, 0, 0}, Weights: [4]float32{0.5, 0.5, 0, 0}},
		{Bones: [4]uint32{7, 0, 0, 0}, Weights: [4]float32{1, 0, 0, 0}},
	}

	enc := EncodeSkin(in)
	if len(enc) != 2*skinStride {
		t.Fatalf("encoded length = %d, want %d", len(enc), 2*skinStride)
	}

	out, err := enc.ReadSkin()
	if err != nil {
		t.Fatalf("ReadSkin: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d weights, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("weight %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestEncodedSkinUnreadable(t *testing.T) {
	t.Run("truncated", func(t *testing.T) {
		enc := EncodedSkin(make([]byte, skinStride+3))
		if _, err := enc.ReadSkin(); !errors.Is(err, ErrSkinDataUnreadable) {
			t.Errorf("got %v, want ErrSkinDataUnreadable", err)
		}
	})

	t.Run("nan weight", func(t *testing.T) {
		enc := EncodedSkin(make([]byte, skinStride))
		binary.LittleEndian.PutUint32(enc[16:], math.Float32bits(float32(math.NaN())))
		if _, err := enc.ReadSkin(); !errors.Is(err, ErrSkinDataUnreadable) {
			t.Errorf("got %v, want ErrSkinDataUnreadable", err)
		}
	})
}

func TestRecordSkinBytes(t *testing.T) {
	r := makeQuad()
	b, err := r.SkinBytes()
	if err != nil || b != nil {
		t.Fatalf("no skin: got %v, %v", b, err)
	}

	r.Skin = SkinWeights(make([]SkinWeight, 4))
	b, err = r.SkinBytes()
	if err != nil {
		t.Fatalf("SkinBytes: %v", err)
	}
	if len(b) != 4*skinStride {
		t.Errorf("len = %d, want %d", len(b), 4*skinStride)
	}

	corrupt := EncodedSkin{1, 2, 3}
	r.Skin = corrupt
	b, err = r.SkinBytes()
	if err != nil {
		t.Fatalf("encoded skin should pass through undecoded: %v", err)
	}
	if len(b) != 3 {
		t.Errorf("len = %d, want 3", len(b))
	}
}
