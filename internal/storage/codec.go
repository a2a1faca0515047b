package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/annel0/voxel-stream/internal/world/block"
	"github.com/klauspost/compress/zstd"
)

var errBadSnapshot = errors.New("storage: повреждённый снимок")

const (
	snapshotMagic   = "VXR1"
	flagCompressed  = 1
	headerSize      = len(snapshotMagic) + 1 + 4
	bytesPerBlockID = 2
	bytesPerData    = 3
)

// Codec кодирует снимок региона в компактный бинарный вид, при необходимости сжимая zstd.
// EncodeAll/DecodeAll потокобезопасны, поэтому один Codec обслуживает все загрузки.
type Codec struct {
	compress     bool
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
}

// NewCodec создаёт кодек
func NewCodec(compress bool) (*Codec, error) {
	c := &Codec{compress: compress}

	var err error
	c.compressor, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("создание zstd энкодера: %w", err)
	}
	c.decompressor, err = zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("создание zstd декодера: %w", err)
	}
	return c, nil
}

// Encode сериализует снимок
func (c *Codec) Encode(snap *Snapshot) ([]byte, error) {
	if len(snap.Blocks) != len(snap.Data) {
		return nil, fmt.Errorf("блоков %d, данных %d: %w", len(snap.Blocks), len(snap.Data), ErrSizeMismatch)
	}

	n := len(snap.Blocks)
	body := make([]byte, n*(bytesPerBlockID+bytesPerData))
	for i, id := range snap.Blocks {
		binary.LittleEndian.PutUint16(body[i*bytesPerBlockID:], uint16(id))
	}
	off := n * bytesPerBlockID
	for i, d := range snap.Data {
		p := off + i*bytesPerData
		body[p] = byte(d.Direction)
		body[p+1] = byte(d.SubDirection)
		body[p+2] = d.Level
	}

	var flags byte
	if c.compress {
		body = c.compressor.EncodeAll(body, make([]byte, 0, len(body)/8))
		flags |= flagCompressed
	}

	out := make([]byte, headerSize, headerSize+len(body))
	copy(out, snapshotMagic)
	out[len(snapshotMagic)] = flags
	binary.LittleEndian.PutUint32(out[len(snapshotMagic)+1:], uint32(n))
	return append(out, body...), nil
}

// Decode восстанавливает снимок в заранее выделенные массивы dst
func (c *Codec) Decode(raw []byte, dst *Snapshot) error {
	if len(raw) < headerSize || string(raw[:len(snapshotMagic)]) != snapshotMagic {
		return errBadSnapshot
	}
	flags := raw[len(snapshotMagic)]
	n := int(binary.LittleEndian.Uint32(raw[len(snapshotMagic)+1:]))
	if n != len(dst.Blocks) || n != len(dst.Data) {
		return fmt.Errorf("в снимке %d ячеек, ожидалось %d: %w", n, len(dst.Blocks), ErrSizeMismatch)
	}

	body := raw[headerSize:]
	if flags&flagCompressed != 0 {
		var err error
		body, err = c.decompressor.DecodeAll(body, make([]byte, 0, n*(bytesPerBlockID+bytesPerData)))
		if err != nil {
			return fmt.Errorf("распаковка снимка: %w", err)
		}
	}
	if len(body) != n*(bytesPerBlockID+bytesPerData) {
		return errBadSnapshot
	}

	for i := range dst.Blocks {
		dst.Blocks[i] = block.BlockID(binary.LittleEndian.Uint16(body[i*bytesPerBlockID:]))
	}
	off := n * bytesPerBlockID
	for i := range dst.Data {
		p := off + i*bytesPerData
		dst.Data[i] = block.BlockData{
			Direction:    block.Side(body[p]),
			SubDirection: block.Side(body[p+1]),
			Level:        body[p+2],
		}
	}
	return nil
}

// Close освобождает ресурсы zstd
func (c *Codec) Close() {
	c.compressor.Close()
	c.decompressor.Close()
}
