// Package fileengine splits file payloads across chains of file regions and
// reassembles, removes, or recursively deletes them.
package fileengine

import (
	"bytes"
	"fmt"
	"io"

	ionicfs "github.com/dargueta/ionicfs"
	"github.com/dargueta/ionicfs/allocator"
	"github.com/dargueta/ionicfs/directory"
	"github.com/dargueta/ionicfs/errors"
	"github.com/dargueta/ionicfs/pathresolver"
	"github.com/dargueta/ionicfs/region"
	"github.com/hashicorp/go-multierror"
)

func isFileOrDirectoryRegion(b byte) bool {
	return b == ionicfs.RegionFile || b == ionicfs.RegionDirectory
}

// CopyFile writes payload as a new file named by the last component of
// destPath, inside destPath's parent directory in partition. It reserves
// every region the payload needs before writing any of them, so a
// mid-operation failure never leaves a partially-claimed chain referenced
// by a directory entry (invariant 2: a directory entry's region is only
// written once the region it names is fully populated).
func CopyFile(
	dev *region.Device,
	partition ionicfs.Partition,
	destPath string,
	payload []byte,
	clock ionicfs.Clock,
) error {
	parentPath, filename := pathresolver.Split(destPath)

	parentRegion, err := pathresolver.Traverse(dev, partition, parentPath)
	if err != nil {
		return err
	}

	existing, _ := pathresolver.FindEntry(dev, partition, destPath)
	if existing.Name == filename {
		return errors.ErrAlreadyExists.WithMessage(destPath)
	}

	needed := (len(payload) + payloadSize - 1) / payloadSize
	if needed == 0 {
		needed = 1
	}

	regions, err := allocator.ReserveMany(dev, partition, needed)
	if err != nil {
		return err
	}

	for i, id := range regions {
		var data [region.Size]byte
		data[0] = ionicfs.RegionFile

		start := i * payloadSize
		end := start + payloadSize
		if end > len(payload) {
			end = len(payload)
		}
		copy(data[1:], payload[start:end])

		var next region.ID
		if i+1 < len(regions) {
			next = regions[i+1]
		}
		putUint32LE(data[region.ContinuationOffset:], uint32(next))

		if err := dev.WriteRegion(id, data); err != nil {
			return err
		}
	}

	now := clock.Now()
	entry := ionicfs.DirectoryEntry{
		Name:         filename,
		IsDirectory:  false,
		Region:       regions[0],
		LastAccessed: now,
		LastModified: now,
		Created:      now,
	}

	grow := func() (region.ID, error) {
		return allocator.FindFree(dev, partition, nil)
	}
	offset, err := directory.FindFree(dev, parentRegion, directory.EntrySize(filename), grow)
	if err != nil {
		return err
	}
	return directory.WriteEntry(dev, offset, entry)
}

func putUint32LE(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
}

// ReadFile resolves path within partition and returns the full concatenated
// payload of its region chain, zero-padded in the final region. It does not
// trim trailing pad bytes; file length is not stored on disk.
func ReadFile(dev *region.Device, partition ionicfs.Partition, path string) ([]byte, error) {
	entry, err := pathresolver.FindEntry(dev, partition, path)
	if err != nil {
		return nil, err
	}
	if entry.IsDirectory {
		return nil, errors.ErrPathInvalid.WithMessage(fmt.Sprintf("%s is a directory", path))
	}

	var buf bytes.Buffer
	reader := NewChainReader(dev, entry.Region)
	chunk := make([]byte, payloadSize)
	for {
		n, err := reader.Read(chunk)
		buf.Write(chunk[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// RemoveFile tombstones the directory entry named by path and every region
// in its chain. The chain is tombstoned first, then the directory entry is
// eliminated, so no read after this call ever dereferences a region whose
// type byte it already overwrote — see DESIGN.md for why this order is
// safer than the original tool's.
func RemoveFile(dev *region.Device, partition ionicfs.Partition, path string) error {
	entry, err := pathresolver.FindEntry(dev, partition, path)
	if err != nil {
		return err
	}
	if entry.IsDirectory {
		return errors.ErrPathInvalid.WithMessage(fmt.Sprintf("%s is a directory", path))
	}

	if err := tombstoneChain(dev, entry.Region, func(b byte) bool { return b == ionicfs.RegionFile }); err != nil {
		return err
	}

	parentPath, _ := pathresolver.Split(path)
	parentRegion, err := pathresolver.Traverse(dev, partition, parentPath)
	if err != nil {
		return err
	}
	return directory.Eliminate(dev, parentRegion, entry.Name)
}

// RemoveDirectory recursively removes the directory named by path: every
// child entry is removed in directory order (a subdirectory recursively, a
// file directly), then the directory's own region chain is tombstoned and
// its entry eliminated from its parent.
func RemoveDirectory(dev *region.Device, partition ionicfs.Partition, path string) error {
	targetRegion, err := pathresolver.Traverse(dev, partition, path)
	if err != nil {
		return err
	}

	if err := removeDirectoryContents(dev, partition, targetRegion, path); err != nil {
		return err
	}

	if err := tombstoneChain(dev, targetRegion, isFileOrDirectoryRegion); err != nil {
		return err
	}

	parentPath, name := pathresolver.Split(path)
	parentRegion, err := pathresolver.Traverse(dev, partition, parentPath)
	if err != nil {
		return err
	}
	return directory.Eliminate(dev, parentRegion, name)
}

// removeDirectoryContents removes every child entry of dirRegion. A failure
// on one child (e.g. an already-corrupt subtree) doesn't stop the others
// from being attempted; every failure is collected and reported together,
// so one bad entry can't hide the state of its siblings.
func removeDirectoryContents(dev *region.Device, partition ionicfs.Partition, dirRegion region.ID, dirPath string) error {
	dir, err := directory.Parse(dev, dirRegion)
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, entry := range dir.Entries {
		if entry.Name == "." {
			continue
		}
		childPath := dirPath + "/" + entry.Name
		if entry.IsDirectory {
			if err := RemoveDirectory(dev, partition, childPath); err != nil {
				result = multierror.Append(result, err)
			}
		} else if err := RemoveFile(dev, partition, childPath); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func tombstoneChain(dev *region.Device, start region.ID, typeCheck func(byte) bool) error {
	links, err := region.WalkChain(dev, start, typeCheck)
	if err != nil {
		return err
	}
	for _, link := range links {
		if err := dev.PatchAt(link.Region.ToByteOffset(), []byte{ionicfs.RegionDeleted}); err != nil {
			return err
		}
	}
	return nil
}
