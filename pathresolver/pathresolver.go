// Package pathresolver walks a slash-delimited path through a partition's
// directory tree, one token at a time.
package pathresolver

import (
	"fmt"
	"strings"

	ionicfs "github.com/dargueta/ionicfs"
	"github.com/dargueta/ionicfs/directory"
	"github.com/dargueta/ionicfs/errors"
	"github.com/dargueta/ionicfs/region"
)

// Traverse resolves path to a region number within partition, starting from
// the partition's root directory. A leading "./" is stripped; "." tokens
// are skipped; an empty remaining path resolves to the root itself.
func Traverse(dev *region.Device, partition ionicfs.Partition, path string) (region.ID, error) {
	path = strings.TrimPrefix(path, "./")

	current := partition.PartitionRegion
	for _, token := range strings.Split(path, "/") {
		if token == "" || token == "." {
			continue
		}

		dir, err := directory.Parse(dev, current)
		if err != nil {
			return 0, err
		}

		next, found := findSubdirectory(dir, token)
		if !found {
			return 0, errors.ErrNotFound.WithMessage(
				fmt.Sprintf("no such directory: %s", token))
		}

		if !partition.Contains(next) {
			return 0, errors.ErrCorruption.WithMessage(
				fmt.Sprintf("region %d lies outside its partition", next))
		}

		current = next
	}

	return current, nil
}

func findSubdirectory(dir ionicfs.Directory, name string) (region.ID, bool) {
	for _, entry := range dir.Entries {
		if entry.IsDirectory && entry.Name == name {
			return entry.Region, true
		}
	}
	return 0, false
}

// Split divides path into its parent directory path and its final
// component, e.g. "/docs/hello.txt" -> ("/docs", "hello.txt").
func Split(path string) (parent string, name string) {
	path = strings.TrimPrefix(path, "./")
	path = strings.TrimSuffix(path, "/")

	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

// FindEntry resolves a path to the directory entry it names, by traversing
// the parent directory and then looking up the final component by name.
func FindEntry(dev *region.Device, partition ionicfs.Partition, path string) (ionicfs.DirectoryEntry, error) {
	parentPath, name := Split(path)

	parentRegion, err := Traverse(dev, partition, parentPath)
	if err != nil {
		return ionicfs.DirectoryEntry{}, err
	}

	dir, err := directory.Parse(dev, parentRegion)
	if err != nil {
		return ionicfs.DirectoryEntry{}, err
	}

	for _, entry := range dir.Entries {
		if entry.Name == name {
			return entry, nil
		}
	}
	return ionicfs.DirectoryEntry{}, errors.ErrNotFound.WithMessage(
		fmt.Sprintf("no such entry: %s", path))
}
