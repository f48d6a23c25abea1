package formatengine

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/dargueta/ionicfs/errors"
	"github.com/gocarina/gocsv"
)

// Preset is a named partition-layout template: a slug usable with
// `format --preset`, and the percentage of the disk's usable regions
// (everything past the reserved superblock) it should claim.
type Preset struct {
	Slug    string `csv:"slug"`
	Name    string `csv:"name"`
	Percent uint   `csv:"percent"`
	Notes   string `csv:"notes"`
}

//go:embed partition-presets.csv
var partitionPresetsRawCSV string

var presets map[string]Preset

func init() {
	presets = make(map[string]Preset)

	reader := strings.NewReader(partitionPresetsRawCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row Preset) error {
		if _, exists := presets[row.Slug]; exists {
			return fmt.Errorf("duplicate partition preset slug %q", row.Slug)
		}
		presets[row.Slug] = row
		return nil
	})
	if err != nil && err != io.EOF {
		panic(err)
	}
}

// GetPreset looks up a named partition-layout template.
func GetPreset(slug string) (Preset, error) {
	preset, ok := presets[slug]
	if !ok {
		return Preset{}, errors.ErrArgError.WithMessage(
			fmt.Sprintf("no partition preset named %q", slug))
	}
	return preset, nil
}
