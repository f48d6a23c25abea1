// Package session gives the CLI layer a single entry point per verb. A
// Session owns one open image file for the lifetime of a command
// invocation; the CLI layer is responsible for closing it (typically via
// defer) before returning the process exit code.
package session

import (
	"fmt"
	"os"
	"path/filepath"

	ionicfs "github.com/dargueta/ionicfs"
	"github.com/dargueta/ionicfs/allocator"
	"github.com/dargueta/ionicfs/directory"
	"github.com/dargueta/ionicfs/errors"
	"github.com/dargueta/ionicfs/fileengine"
	"github.com/dargueta/ionicfs/formatengine"
	"github.com/dargueta/ionicfs/pathresolver"
	"github.com/dargueta/ionicfs/region"
	"github.com/dargueta/ionicfs/superblock"
)

// Session wraps one open disk image and the drive information parsed from
// its superblock. Mutating operations re-read whatever they need from dev
// rather than caching anything beyond Info, honoring invariant 7: the
// in-memory DriveInformation is read-only after load.
type Session struct {
	file  *os.File
	dev   region.Device
	Info  ionicfs.DriveInformation
	Clock ionicfs.Clock
}

func openFile(path string) (*os.File, region.Device, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, region.Device{}, errors.ErrPathInvalid.WrapError(err)
	}
	if stat.IsDir() {
		return nil, region.Device{}, errors.ErrPathInvalid.WithMessage(
			fmt.Sprintf("%s is a directory", path))
	}
	if stat.Size() == 0 {
		return nil, region.Device{}, errors.ErrPathInvalid.WithMessage(
			fmt.Sprintf("%s is empty", path))
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, region.Device{}, errors.ErrPathInvalid.WrapError(err)
	}

	totalRegions, err := region.DetermineRegionCount(f)
	if err != nil {
		f.Close()
		return nil, region.Device{}, err
	}

	return f, region.NewDevice(f, totalRegions), nil
}

// OpenForFormat opens path for writing without requiring a valid superblock
// to already exist, the state format needs to start from.
func OpenForFormat(path string) (*Session, error) {
	f, dev, err := openFile(path)
	if err != nil {
		return nil, err
	}
	return &Session{file: f, dev: dev, Clock: ionicfs.SystemClock{}}, nil
}

// Open opens path and loads its superblock. Every verb besides format uses
// this constructor.
func Open(path string) (*Session, error) {
	s, err := OpenForFormat(path)
	if err != nil {
		return nil, err
	}

	info, err := superblock.Load(&s.dev)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Info = info
	return s, nil
}

// TotalRegions returns the number of whole 512-byte regions in the open
// image, before any superblock has necessarily been written.
func (s *Session) TotalRegions() uint32 {
	return s.dev.TotalRegions
}

// Close releases the underlying image file.
func (s *Session) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

func (s *Session) partition(index int) (ionicfs.Partition, error) {
	if index < 0 || index >= ionicfs.MaxPartitions {
		return ionicfs.Partition{}, errors.ErrArgError.WithMessage(
			fmt.Sprintf("partition index %d out of range", index))
	}
	p := s.Info.Partitions[index]
	if !p.Usable() {
		return ionicfs.Partition{}, errors.ErrArgError.WithMessage(
			fmt.Sprintf("partition %d is not in use", index))
	}
	return p, nil
}

// Format partitions the open image and initializes each usable partition's
// root directory. It refreshes s.Info from the freshly written superblock.
func (s *Session) Format(requests []formatengine.PartitionRequest, progress formatengine.ProgressFunc) error {
	info, err := formatengine.Format(&s.dev, requests, s.Clock, progress)
	if err != nil {
		return err
	}
	s.Info = info
	return nil
}

// Boot overwrites the boot code area with the contents of bootCode.
func (s *Session) Boot(bootCode []byte) error {
	return superblock.WriteBootCode(&s.dev, bootCode)
}

// List returns the parsed directory contents at path within partition.
func (s *Session) List(partitionIndex int, path string) (ionicfs.Directory, error) {
	p, err := s.partition(partitionIndex)
	if err != nil {
		return ionicfs.Directory{}, err
	}

	startRegion, err := pathresolver.Traverse(&s.dev, p, path)
	if err != nil {
		return ionicfs.Directory{}, err
	}
	return directory.Parse(&s.dev, startRegion)
}

// Mkdir creates a new, empty subdirectory named by the last component of
// path, inside path's parent directory.
func (s *Session) Mkdir(partitionIndex int, path string) error {
	p, err := s.partition(partitionIndex)
	if err != nil {
		return err
	}

	parentPath, name := pathresolver.Split(path)
	parentRegion, err := pathresolver.Traverse(&s.dev, p, parentPath)
	if err != nil {
		return err
	}

	if _, err := pathresolver.FindEntry(&s.dev, p, path); err == nil {
		return errors.ErrAlreadyExists.WithMessage(path)
	}

	newRegion, err := allocator.FindFree(&s.dev, p, nil)
	if err != nil {
		return err
	}

	var data [region.Size]byte
	data[0] = ionicfs.RegionDirectory
	if err := s.dev.WriteRegion(newRegion, data); err != nil {
		return err
	}

	now := s.Clock.Now()
	noAlloc := func() (region.ID, error) {
		return 0, errors.ErrNoSpace.WithMessage("parent directory chain is full")
	}
	selfOffset, err := directory.FindFree(&s.dev, newRegion, directory.EntrySize("."), noAlloc)
	if err != nil {
		return err
	}
	if err := directory.WriteEntry(&s.dev, selfOffset, ionicfs.DirectoryEntry{
		Name: ".", IsDirectory: true, Region: newRegion,
		LastAccessed: now, LastModified: now, Created: now,
	}); err != nil {
		return err
	}

	grow := func() (region.ID, error) {
		return allocator.FindFree(&s.dev, p, nil)
	}
	entryOffset, err := directory.FindFree(&s.dev, parentRegion, directory.EntrySize(name), grow)
	if err != nil {
		return err
	}
	return directory.WriteEntry(&s.dev, entryOffset, ionicfs.DirectoryEntry{
		Name: name, IsDirectory: true, Region: newRegion,
		LastAccessed: now, LastModified: now, Created: now,
	})
}

// Copy reads the bytes of hostPath off the local filesystem and writes them
// to destPath inside partition. hostPath is resolved to an absolute path
// before reading, matching the original tool's canonicalize-then-read
// behavior for the copy source.
func (s *Session) Copy(partitionIndex int, hostPath, destPath string) error {
	p, err := s.partition(partitionIndex)
	if err != nil {
		return err
	}

	absHostPath, err := filepath.Abs(hostPath)
	if err != nil {
		return errors.ErrPathInvalid.WrapError(err)
	}

	payload, err := os.ReadFile(absHostPath)
	if err != nil {
		return errors.ErrPathInvalid.WrapError(err)
	}

	return fileengine.CopyFile(&s.dev, p, destPath, payload, s.Clock)
}

// Read returns the full (zero-padded) payload of the file at path.
func (s *Session) Read(partitionIndex int, path string) ([]byte, error) {
	p, err := s.partition(partitionIndex)
	if err != nil {
		return nil, err
	}
	return fileengine.ReadFile(&s.dev, p, path)
}

// Rm removes the file at path.
func (s *Session) Rm(partitionIndex int, path string) error {
	p, err := s.partition(partitionIndex)
	if err != nil {
		return err
	}
	return fileengine.RemoveFile(&s.dev, p, path)
}

// RmDir recursively removes the directory at path.
func (s *Session) RmDir(partitionIndex int, path string) error {
	p, err := s.partition(partitionIndex)
	if err != nil {
		return err
	}
	return fileengine.RemoveDirectory(&s.dev, p, path)
}
