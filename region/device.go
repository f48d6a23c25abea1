package region

import (
	"fmt"
	"io"

	"github.com/dargueta/ionicfs/errors"
)

// Device is a region-addressable view over a disk image stream. It is the
// only thing in this module that ever calls Seek/Read/Write on the raw
// stream; every other package reads and writes in 512-byte regions through
// it.
//
// The exported fields are informational and must not be mutated directly;
// use Resize to change TotalRegions.
type Device struct {
	// TotalRegions is the number of whole 512-byte regions in the image.
	TotalRegions uint32
	stream       io.ReadWriteSeeker
}

// NewDevice wraps stream as a Device with totalRegions whole regions.
func NewDevice(stream io.ReadWriteSeeker, totalRegions uint32) Device {
	return Device{TotalRegions: totalRegions, stream: stream}
}

// DetermineRegionCount returns the number of whole 512-byte regions a stream
// holds, rounded down.
func DetermineRegionCount(stream io.Seeker) (uint32, error) {
	offset, err := stream.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, errors.ErrIoFailure.WrapError(err)
	}
	return uint32(offset / Size), nil
}

// checkBounds verifies that id names a region within the device.
func (d *Device) checkBounds(id ID) error {
	if uint32(id) >= d.TotalRegions {
		return errors.ErrCorruption.WithMessage(
			fmt.Sprintf("region %d not in range [0, %d)", id, d.TotalRegions))
	}
	return nil
}

func (d *Device) seekTo(offset ByteOffset) error {
	_, err := d.stream.Seek(int64(offset), io.SeekStart)
	if err != nil {
		return errors.ErrIoFailure.WrapError(err)
	}
	return nil
}

// ReadRegion reads the full 512 bytes of region id.
func (d *Device) ReadRegion(id ID) ([Size]byte, error) {
	var buf [Size]byte

	if err := d.checkBounds(id); err != nil {
		return buf, err
	}
	if err := d.seekTo(id.ToByteOffset()); err != nil {
		return buf, err
	}

	n, err := io.ReadFull(d.stream, buf[:])
	if err != nil {
		return buf, errors.ErrIoFailure.WrapError(err)
	}
	if n != Size {
		return buf, errors.ErrIoFailure.WithMessage(
			fmt.Sprintf("short read of region %d: got %d of %d bytes", id, n, Size))
	}
	return buf, nil
}

// WriteRegion writes data as the full contents of region id. data must be
// exactly 512 bytes.
func (d *Device) WriteRegion(id ID, data [Size]byte) error {
	if err := d.checkBounds(id); err != nil {
		return err
	}
	if err := d.seekTo(id.ToByteOffset()); err != nil {
		return err
	}

	n, err := d.stream.Write(data[:])
	if err != nil {
		return errors.ErrIoFailure.WrapError(err)
	}
	if n != Size {
		return errors.ErrIoFailure.WithMessage(
			fmt.Sprintf("short write of region %d: wrote %d of %d bytes", id, n, Size))
	}
	return nil
}

// PatchAt writes data at an arbitrary absolute byte offset, without
// requiring a full region's worth of bytes. It serves intra-region patches
// — a chain's continuation pointer, a tombstone or type byte, a directory
// entry, the boot area — that don't warrant a read-modify-write of the
// whole region.
func (d *Device) PatchAt(offset ByteOffset, data []byte) error {
	if err := d.seekTo(offset); err != nil {
		return err
	}
	n, err := d.stream.Write(data)
	if err != nil {
		return errors.ErrIoFailure.WrapError(err)
	}
	if n != len(data) {
		return errors.ErrIoFailure.WithMessage(
			fmt.Sprintf("short write at offset %d: wrote %d of %d bytes", offset, n, len(data)))
	}
	return nil
}

// ReadAt reads length bytes from an arbitrary absolute byte offset.
func (d *Device) ReadAt(offset ByteOffset, length int) ([]byte, error) {
	if err := d.seekTo(offset); err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	n, err := io.ReadFull(d.stream, buf)
	if err != nil {
		return nil, errors.ErrIoFailure.WrapError(err)
	}
	if n != length {
		return nil, errors.ErrIoFailure.WithMessage(
			fmt.Sprintf("short read at offset %d: got %d of %d bytes", offset, n, length))
	}
	return buf, nil
}

// Resize grows the image to newTotalRegions whole regions, appending
// null-filled regions. It refuses to shrink; IonicFS images never shrink
// after format.
func (d *Device) Resize(newTotalRegions uint32) error {
	if newTotalRegions < d.TotalRegions {
		return errors.ErrArgError.WithMessage("cannot shrink a disk image")
	}
	if newTotalRegions == d.TotalRegions {
		return nil
	}

	if err := d.seekTo(ID(d.TotalRegions).ToByteOffset()); err != nil {
		return err
	}
	missing := newTotalRegions - d.TotalRegions
	padding := make([]byte, int(missing)*Size)
	if _, err := d.stream.Write(padding); err != nil {
		return errors.ErrIoFailure.WrapError(err)
	}

	d.TotalRegions = newTotalRegions
	return nil
}
