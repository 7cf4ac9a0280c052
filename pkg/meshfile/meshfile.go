// Package meshfile reads and writes the native MESH record format.
//
// MESH is the per-asset serialization used when a mesh is not exported as a
// binary glTF container. It stores a record verbatim, skin and bind poses
// included. All values are little-endian.
//
//	magic      "MESH"
//	version    uint8 major, uint8 minor
//	name       uint16 length + bytes (UTF-8; legacy EUC-KR is decoded)
//	vertices   uint32 count
//	flags      uint32 (see flag constants)
//	uvMask     uint8, bit i set when UV channel i is present
//	submeshes  uint32 count + count * (offset uint32, count uint32)
//	positions  count * 3 float32
//	normals    count * 3 float32       (flagNormals)
//	tangents   count * 4 float32       (flagTangents)
//	colors     count * 4 float32       (flagColors)
//	uvs        count * 2 float32 per set bit in uvMask
//	skin       uint32 byte length + packed weights   (flagSkin)
//	bindPoses  uint32 count + count * 16 float32     (flagBindPoses)
//	indices    uint32 count + count * uint32
package meshfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/meshexport/pkg/encoding"
	"github.com/Faultbox/meshexport/pkg/mesh"
)

// Extension is the file extension for MESH files.
const Extension = ".mesh"

const magic = "MESH"

// Stream presence flags.
const (
	flagNormals   uint32 = 1 << 0
	flagTangents  uint32 = 1 << 1
	flagColors    uint32 = 1 << 2
	flagSkin      uint32 = 1 << 3
	flagBindPoses uint32 = 1 << 4
)

// MESH format errors.
var (
	ErrInvalidMagic       = errors.New("invalid MESH magic: expected 'MESH'")
	ErrUnsupportedVersion = errors.New("unsupported MESH version")
	ErrTruncatedData      = errors.New("truncated MESH data")
)

// Version is a MESH format version.
type Version struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// CurrentVersion is the version written by Encode.
var CurrentVersion = Version{Major: 1, Minor: 0}

// header is the fixed part following the name.
type header struct {
	VertexCount uint32
	Flags       uint32
	UVMask      uint8
}

// Parse decodes a MESH file. The skin stream is kept encoded and decoded
// on first read.
func Parse(data []byte) (*mesh.Record, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedData
	}
	if string(data[:4]) != magic {
		return nil, ErrInvalidMagic
	}

	ver := Version{Major: data[4], Minor: data[5]}
	if ver.Major != CurrentVersion.Major {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, ver)
	}

	r := bytes.NewReader(data[6:])
	read := func(v any) error {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("%w: %v", ErrTruncatedData, err)
		}
		return nil
	}
	// count guards allocations against lengths the remaining data cannot hold.
	count := func(n uint32, size int) error {
		if uint64(n)*uint64(size) > uint64(r.Len()) {
			return fmt.Errorf("%w: %d elements of %d bytes", ErrTruncatedData, n, size)
		}
		return nil
	}

	var nameLen uint16
	if err := read(&nameLen); err != nil {
		return nil, err
	}
	if err := count(uint32(nameLen), 1); err != nil {
		return nil, err
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, ErrTruncatedData
	}

	var hdr header
	if err := read(&hdr); err != nil {
		return nil, err
	}

	rec := &mesh.Record{Name: encoding.DecodeName(name)}

	var submeshCount uint32
	if err := read(&submeshCount); err != nil {
		return nil, err
	}
	if err := count(submeshCount, 8); err != nil {
		return nil, err
	}
	rec.Submeshes = make([]mesh.Submesh, submeshCount)
	if err := read(rec.Submeshes); err != nil {
		return nil, err
	}

	n := hdr.VertexCount
	if err := count(n, 12); err != nil {
		return nil, err
	}
	rec.Positions = make([][3]float32, n)
	if err := read(rec.Positions); err != nil {
		return nil, err
	}
	if hdr.Flags&flagNormals != 0 {
		if err := count(n, 12); err != nil {
			return nil, err
		}
		rec.Normals = make([][3]float32, n)
		if err := read(rec.Normals); err != nil {
			return nil, err
		}
	}
	if hdr.Flags&flagTangents != 0 {
		if err := count(n, 16); err != nil {
			return nil, err
		}
		rec.Tangents = make([][4]float32, n)
		if err := read(rec.Tangents); err != nil {
			return nil, err
		}
	}
	if hdr.Flags&flagColors != 0 {
		if err := count(n, 16); err != nil {
			return nil, err
		}
		rec.Colors = make([][4]float32, n)
		if err := read(rec.Colors); err != nil {
			return nil, err
		}
	}
	for ch := 0; ch < mesh.MaxUVChannels; ch++ {
		if hdr.UVMask&(1<<ch) == 0 {
			continue
		}
		if err := count(n, 8); err != nil {
			return nil, err
		}
		rec.UVs[ch] = make([][2]float32, n)
		if err := read(rec.UVs[ch]); err != nil {
			return nil, err
		}
	}

	if hdr.Flags&flagSkin != 0 {
		var skinLen uint32
		if err := read(&skinLen); err != nil {
			return nil, err
		}
		if err := count(skinLen, 1); err != nil {
			return nil, err
		}
		skin := make([]byte, skinLen)
		if _, err := io.ReadFull(r, skin); err != nil {
			return nil, ErrTruncatedData
		}
		rec.Skin = mesh.EncodedSkin(skin)
	}

	if hdr.Flags&flagBindPoses != 0 {
		var poseCount uint32
		if err := read(&poseCount); err != nil {
			return nil, err
		}
		if err := count(poseCount, 64); err != nil {
			return nil, err
		}
		rec.BindPoses = make([][16]float32, poseCount)
		if err := read(rec.BindPoses); err != nil {
			return nil, err
		}
	}

	var indexCount uint32
	if err := read(&indexCount); err != nil {
		return nil, err
	}
	if err := count(indexCount, 4); err != nil {
		return nil, err
	}
	rec.Indices = make([]uint32, indexCount)
	if err := read(rec.Indices); err != nil {
		return nil, err
	}

	return rec, nil
}

// Encode writes rec in the MESH format. An encoded skin stream is copied
// without being decoded, so unreadable skin data survives the round trip.
func Encode(rec *mesh.Record) ([]byte, error) {
	if len(rec.Name) > 0xFFFF {
		return nil, fmt.Errorf("mesh name too long: %d bytes", len(rec.Name))
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid record %q: %w", rec.Name, err)
	}

	skin, err := rec.SkinBytes()
	if err != nil {
		return nil, fmt.Errorf("reading skin: %w", err)
	}

	hdr := header{VertexCount: uint32(rec.VertexCount())}
	if rec.Normals != nil {
		hdr.Flags |= flagNormals
	}
	if rec.Tangents != nil {
		hdr.Flags |= flagTangents
	}
	if rec.Colors != nil {
		hdr.Flags |= flagColors
	}
	if rec.Skin != nil {
		hdr.Flags |= flagSkin
	}
	if rec.BindPoses != nil {
		hdr.Flags |= flagBindPoses
	}
	for ch, uv := range rec.UVs {
		if uv != nil {
			hdr.UVMask |= 1 << ch
		}
	}

	var buf bytes.Buffer
	w := func(v any) {
		// bytes.Buffer writes cannot fail.
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}

	buf.WriteString(magic)
	buf.WriteByte(CurrentVersion.Major)
	buf.WriteByte(CurrentVersion.Minor)
	w(uint16(len(rec.Name)))
	buf.WriteString(rec.Name)
	w(hdr)
	w(uint32(len(rec.Submeshes)))
	w(rec.Submeshes)
	w(rec.Positions)
	if rec.Normals != nil {
		w(rec.Normals)
	}
	if rec.Tangents != nil {
		w(rec.Tangents)
	}
	if rec.Colors != nil {
		w(rec.Colors)
	}
	for _, uv := range rec.UVs {
		if uv != nil {
			w(uv)
		}
	}
	if rec.Skin != nil {
		w(uint32(len(skin)))
		buf.Write(skin)
	}
	if rec.BindPoses != nil {
		w(uint32(len(rec.BindPoses)))
		w(rec.BindPoses)
	}
	w(uint32(len(rec.Indices)))
	w(rec.Indices)

	return buf.Bytes(), nil
}
