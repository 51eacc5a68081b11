package memory

import (
	"encoding/binary"
	"math"

	"gitlab.com/akita/mem/v3/mem"
)

// CellSize is the number of bytes of one memory cell. Cells hold float32
// values.
const CellSize = 4

// cellStore maps float32 cells onto a byte-addressed akita storage.
type cellStore struct {
	storage *mem.Storage
	n       int
}

func newCellStore(n int) *cellStore {
	s := &cellStore{n: n}
	if n > 0 {
		s.storage = mem.NewStorage(uint64(n * CellSize))
	}
	return s
}

func (s *cellStore) write(offset int, data []float32) error {
	if len(data) == 0 {
		return nil
	}

	buf := make([]byte, len(data)*CellSize)
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[i*CellSize:], math.Float32bits(v))
	}

	return s.storage.Write(uint64(offset*CellSize), buf)
}

func (s *cellStore) read(offset, length int) ([]float32, error) {
	out := make([]float32, length)
	if length == 0 {
		return out, nil
	}

	buf, err := s.storage.Read(uint64(offset*CellSize), uint64(length*CellSize))
	if err != nil {
		return nil, err
	}

	for i := range out {
		out[i] = math.Float32frombits(
			binary.LittleEndian.Uint32(buf[i*CellSize:]))
	}
	return out, nil
}
