package fileengine

import (
	"fmt"
	"io"

	ionicfs "github.com/dargueta/ionicfs"
	"github.com/dargueta/ionicfs/errors"
	"github.com/dargueta/ionicfs/region"
)

// payloadSize is the number of usable bytes per file region: 512 minus the
// 1-byte type tag and the 4-byte continuation pointer.
const payloadSize = region.Size - 1 - 4

// ChainReader streams a file's region chain as an io.Reader, one region's
// payload at a time. ReadFile drains it into a single buffer, so the read
// command still holds the whole chain in memory at once.
type ChainReader struct {
	dev     *region.Device
	current region.ID
	buf     []byte
	done    bool
}

// NewChainReader returns a ChainReader starting at the file's first region.
func NewChainReader(dev *region.Device, start region.ID) *ChainReader {
	return &ChainReader{dev: dev, current: start}
}

// Read implements io.Reader. It returns io.EOF once the chain's final
// region (continuation pointer 0) has been fully drained.
func (r *ChainReader) Read(out []byte) (int, error) {
	if len(r.buf) == 0 {
		if r.done {
			return 0, io.EOF
		}

		data, err := r.dev.ReadRegion(r.current)
		if err != nil {
			return 0, err
		}
		if data[0] != ionicfs.RegionFile {
			return 0, errors.ErrCorruption.WithMessage(
				fmt.Sprintf("region %d is not a file region", r.current))
		}

		link := region.Link{Region: r.current, Data: data}
		r.buf = append([]byte(nil), data[1:1+payloadSize]...)

		next := link.Continuation()
		if next == 0 {
			r.done = true
		} else {
			r.current = next
		}
	}

	n := copy(out, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
