package seed

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"jiskefet/internal/errs"
	"jiskefet/internal/ports"
)

type detectorEntry struct {
	ID   int64  `toml:"id"`
	Name string `toml:"name"`
}

type detectorFile struct {
	Version   int             `toml:"version"`
	Detectors []detectorEntry `toml:"detector"`
}

// LoadDetectors reads a detector seed file:
//
//	version = 1
//	[[detector]]
//	id = 1
//	name = "TPC"
func LoadDetectors(path string) ([]ports.Detector, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("detector seed file is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(err, "read detector seed file")
	}
	return ParseDetectors(raw)
}

func ParseDetectors(raw []byte) ([]ports.Detector, error) {
	var file detectorFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, errs.Wrap(err, "decode detector seed file")
	}
	if file.Version != 0 && file.Version != 1 {
		return nil, fmt.Errorf("unsupported detector seed version %d", file.Version)
	}

	ids := make(map[int64]struct{}, len(file.Detectors))
	names := make(map[string]struct{}, len(file.Detectors))
	out := make([]ports.Detector, 0, len(file.Detectors))
	for i, entry := range file.Detectors {
		name := strings.TrimSpace(entry.Name)
		if entry.ID <= 0 {
			return nil, fmt.Errorf("detector[%d]: id must be positive", i)
		}
		if name == "" {
			return nil, fmt.Errorf("detector[%d]: name is required", i)
		}
		if _, ok := ids[entry.ID]; ok {
			return nil, fmt.Errorf("detector[%d]: duplicate id %d", i, entry.ID)
		}
		if _, ok := names[name]; ok {
			return nil, fmt.Errorf("detector[%d]: duplicate name %q", i, name)
		}
		ids[entry.ID] = struct{}{}
		names[name] = struct{}{}
		out = append(out, ports.Detector{DetectorID: entry.ID, DetectorName: name})
	}
	return out, nil
}
