package mesh

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrSkinDataUnreadable is returned when a skin stream cannot be decoded.
var ErrSkinDataUnreadable = errors.New("skin data unreadable")

// skinStride is the packed size of one SkinWeight: 4 uint32 bones + 4 float32 weights.
const skinStride = MaxInfluences*4 + MaxInfluences*4

// SkinWeight holds up to four bone influences for one vertex.
type SkinWeight struct {
	Bones   [MaxInfluences]uint32
	Weights [MaxInfluences]float32
}

// Effective reports whether any slot carries a non-zero weight.
func (w SkinWeight) Effective() bool {
	for _, v := range w.Weights {
		if v != 0 {
			return true
		}
	}
	return false
}

// SkinReader decodes a record's skin stream on demand.
type SkinReader interface {
	ReadSkin() ([]SkinWeight, error)
}

// SkinWeights is an already decoded skin stream.
type SkinWeights []SkinWeight

// ReadSkin returns the weights as-is.
func (s SkinWeights) ReadSkin() ([]SkinWeight, error) {
	return s, nil
}

// EncodedSkin is a packed little-endian skin stream as stored in MESH files.
type EncodedSkin []byte

// ReadSkin decodes the packed stream.
func (e EncodedSkin) ReadSkin() ([]SkinWeight, error) {
	if len(e)%skinStride != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrSkinDataUnreadable, len(e), skinStride)
	}

	weights := make([]SkinWeight, len(e)/skinStride)
	for i := range weights {
		b := e[i*skinStride:]
		for j := 0; j < MaxInfluences; j++ {
			weights[i].Bones[j] = binary.LittleEndian.Uint32(b[j*4:])
		}
		for j := 0; j < MaxInfluences; j++ {
			v := math.Float32frombits(binary.LittleEndian.Uint32(b[16+j*4:]))
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return nil, fmt.Errorf("%w: vertex %d slot %d is not finite", ErrSkinDataUnreadable, i, j)
			}
			weights[i].Weights[j] = v
		}
	}
	return weights, nil
}

// EncodeSkin packs weights into the stream layout read by EncodedSkin.
func EncodeSkin(weights []SkinWeight) EncodedSkin {
	out := make([]byte, len(weights)*skinStride)
	for i, w := range weights {
		b := out[i*skinStride:]
		for j := 0; j < MaxInfluences; j++ {
			binary.LittleEndian.PutUint32(b[j*4:], w.Bones[j])
			binary.LittleEndian.PutUint32(b[16+j*4:], math.Float32bits(w.Weights[j]))
		}
	}
	return out
}

// SkinBytes returns the record's skin stream in packed form, or nil when the
// record has no skin. Encoded streams are returned without decoding.
func (r *Record) SkinBytes() ([]byte, error) {
	if r.Skin == nil {
		return nil, nil
	}
	if enc, ok := r.Skin.(EncodedSkin); ok {
		return enc, nil
	}
	weights, err := r.Skin.ReadSkin()
	if err != nil {
		return nil, err
	}
	return EncodeSkin(weights), nil
}
