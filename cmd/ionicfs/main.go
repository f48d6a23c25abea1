// Command ionicfs authors and inspects IonicFS disk images.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dargueta/ionicfs/formatengine"
	"github.com/dargueta/ionicfs/session"
	"github.com/urfave/cli/v2"
)

const versionString = "001"

func displayVersion() string {
	return fmt.Sprintf("%c.%c.%c", versionString[0], versionString[1], versionString[2])
}

func printBanner(w *os.File) {
	fmt.Fprintln(w, "IonicFS Tooling")
	fmt.Fprintln(w, "Created by Max Van den Eynde for the Avery project.")
	fmt.Fprintf(w, "Version: %s\n", displayVersion())
	fmt.Fprintln(w, "Copyright (c) 2025 Max Van den Eynde")
}

func partitionIndexArg(c *cli.Context, pos int) (int, error) {
	if c.Args().Len() <= pos {
		return 0, nil
	}
	return strconv.Atoi(c.Args().Get(pos))
}

func main() {
	app := &cli.App{
		Name:                 "ionicfs",
		Usage:                "Author and inspect IonicFS disk images",
		EnableBashCompletion: true,
		CommandNotFound: func(c *cli.Context, command string) {
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		},
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "Partition a raw disk image and initialize its partitions",
				ArgsUsage: "<disk_path>",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "preset", Usage: "named partition-layout template (repeatable, up to 4)"},
					&cli.StringSliceFlag{Name: "partition", Usage: "NAME:SIZE, where SIZE is a region count or NN%"},
				},
				Action: runFormat,
			},
			{
				Name:      "info",
				Usage:     "Print the superblock summary",
				ArgsUsage: "<disk_path>",
				Action:    runInfo,
			},
			{
				Name:      "list",
				Usage:     "Enumerate the root directory of a partition",
				ArgsUsage: "<disk_path> [partition_index]",
				Action:    runList,
			},
			{
				Name:      "mkdir",
				Usage:     "Create a directory",
				ArgsUsage: "<disk_path> <dirname> [partition_index]",
				Action:    runMkdir,
			},
			{
				Name:      "copy",
				Usage:     "Copy a host file into the image",
				ArgsUsage: "<disk_path> <src_file> <dest_path> [partition_index]",
				Action:    runCopy,
			},
			{
				Name:      "read",
				Usage:     "Print a file's contents",
				ArgsUsage: "[-hex] <disk_path> <file> [partition_index]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "hex"},
				},
				Action: runRead,
			},
			{
				Name:      "rm",
				Usage:     "Remove a file",
				ArgsUsage: "<disk_path> <file> [partition_index]",
				Action:    runRm,
			},
			{
				Name:      "rm-dir",
				Usage:     "Recursively remove a directory",
				ArgsUsage: "<disk_path> <dir> [partition_index]",
				Action:    runRmDir,
			},
			{
				Name:      "boot",
				Usage:     "Write a boot payload into the boot area",
				ArgsUsage: "<disk_path> <boot_file>",
				Action:    runBoot,
			},
			{
				Name:   "version",
				Usage:  "Print version information",
				Action: func(c *cli.Context) error { printBanner(os.Stdout); return nil },
			},
			{
				Name:   "help",
				Usage:  "Print the tool banner",
				Action: func(c *cli.Context) error { printBanner(os.Stdout); return nil },
			},
		},
	}

	if len(os.Args) < 2 {
		printBanner(os.Stdout)
		return
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}
}

func runFormat(c *cli.Context) error {
	if c.Args().Len() < 1 {
		return fmt.Errorf("missing disk path")
	}
	diskPath := c.Args().Get(0)

	s, err := session.OpenForFormat(diskPath)
	if err != nil {
		return err
	}
	defer s.Close()

	usableRegions := s.TotalRegions() - formatengine.SuperblockReservedRegions
	requests, err := buildPartitionRequests(c, usableRegions)
	if err != nil {
		return err
	}

	return s.Format(requests, func(name string, percent int) {
		fmt.Printf("%s: %d%%\n", name, percent)
	})
}

func buildPartitionRequests(c *cli.Context, usableRegions uint32) ([]formatengine.PartitionRequest, error) {
	var requests []formatengine.PartitionRequest

	for _, slug := range c.StringSlice("preset") {
		preset, err := formatengine.GetPreset(slug)
		if err != nil {
			return nil, err
		}
		size, err := formatengine.ParseSize(fmt.Sprintf("%d%%", preset.Percent), usableRegions)
		if err != nil {
			return nil, err
		}
		requests = append(requests, formatengine.PartitionRequest{Name: preset.Name, SizeRegions: size})
	}

	for _, spec := range c.StringSlice("partition") {
		name, sizeSpec, err := splitPartitionSpec(spec)
		if err != nil {
			return nil, err
		}
		size, err := formatengine.ParseSize(sizeSpec, usableRegions)
		if err != nil {
			return nil, err
		}
		requests = append(requests, formatengine.PartitionRequest{Name: name, SizeRegions: size})
	}

	if len(requests) == 0 {
		return nil, fmt.Errorf("format requires at least one --preset NAME or --partition NAME:SIZE")
	}
	return requests, nil
}

func splitPartitionSpec(spec string) (name string, size string, err error) {
	for i, r := range spec {
		if r == ':' {
			return spec[:i], spec[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("invalid --partition spec %q, want NAME:SIZE", spec)
}

func runInfo(c *cli.Context) error {
	if c.Args().Len() < 1 {
		return fmt.Errorf("missing disk path")
	}
	s, err := session.Open(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("Disk size: %d bytes (%d regions)\n", s.Info.DiskSize, s.Info.TotalRegions)
	fmt.Printf("Version: %s\n", s.Info.Version)
	for i, p := range s.Info.Partitions {
		if !p.Usable() {
			continue
		}
		fmt.Printf(
			"Partition %d: %q, region %d, size %d\n",
			i, p.Name, p.PartitionRegion, p.PartitionSize,
		)
	}
	return nil
}

func runList(c *cli.Context) error {
	if c.Args().Len() < 1 {
		return fmt.Errorf("missing disk path")
	}
	s, err := session.Open(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer s.Close()

	partitionIndex, err := partitionIndexArg(c, 1)
	if err != nil {
		return err
	}

	dir, err := s.List(partitionIndex, "")
	if err != nil {
		return err
	}

	if len(dir.Entries) == 0 {
		fmt.Println("No entries found in the directory.")
		return nil
	}

	fmt.Printf("Files at partition %d:\n", partitionIndex)
	for _, entry := range dir.Entries {
		name := entry.Name
		if entry.IsDirectory {
			name += "/"
		}
		fmt.Printf(
			"%s (Last Accessed: %s, Last Modified: %s, Created: %s, Region: %x, Is Directory: %s)\n",
			name,
			formatTimestamp(entry.LastAccessed),
			formatTimestamp(entry.LastModified),
			formatTimestamp(entry.Created),
			uint32(entry.Region),
			yesNo(entry.IsDirectory),
		)
	}
	return nil
}

func formatTimestamp(seconds uint64) string {
	return time.Unix(int64(seconds), 0).Local().Format("Mon Jan  2 15:04:05 2006")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func runMkdir(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("usage: mkdir <disk_path> <dirname> [partition_index]")
	}
	s, err := session.Open(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer s.Close()

	partitionIndex, err := partitionIndexArg(c, 2)
	if err != nil {
		return err
	}
	return s.Mkdir(partitionIndex, c.Args().Get(1))
}

func runCopy(c *cli.Context) error {
	if c.Args().Len() < 3 {
		return fmt.Errorf("usage: copy <disk_path> <src_file> <dest_path> [partition_index]")
	}
	s, err := session.Open(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer s.Close()

	partitionIndex, err := partitionIndexArg(c, 3)
	if err != nil {
		return err
	}
	return s.Copy(partitionIndex, c.Args().Get(1), c.Args().Get(2))
}

func runRead(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("usage: read [-hex] <disk_path> <file> [partition_index]")
	}
	s, err := session.Open(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer s.Close()

	partitionIndex, err := partitionIndexArg(c, 2)
	if err != nil {
		return err
	}

	data, err := s.Read(partitionIndex, c.Args().Get(1))
	if err != nil {
		return err
	}

	if c.Bool("hex") {
		fmt.Println(hex.EncodeToString(data))
	} else {
		os.Stdout.Write(data)
	}
	return nil
}

func runRm(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("usage: rm <disk_path> <file> [partition_index]")
	}
	s, err := session.Open(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer s.Close()

	partitionIndex, err := partitionIndexArg(c, 2)
	if err != nil {
		return err
	}
	return s.Rm(partitionIndex, c.Args().Get(1))
}

func runRmDir(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("usage: rm-dir <disk_path> <dir> [partition_index]")
	}
	s, err := session.Open(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer s.Close()

	partitionIndex, err := partitionIndexArg(c, 2)
	if err != nil {
		return err
	}
	return s.RmDir(partitionIndex, c.Args().Get(1))
}

func runBoot(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("usage: boot <disk_path> <boot_file>")
	}
	s, err := session.Open(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer s.Close()

	bootCode, err := os.ReadFile(c.Args().Get(1))
	if err != nil {
		return err
	}
	return s.Boot(bootCode)
}
