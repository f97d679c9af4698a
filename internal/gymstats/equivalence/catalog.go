package equivalence

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/units"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

//go:embed catalogs/*.toml
var catalogFS embed.FS

var catalogUnits = map[Kind][]units.Unit{
	KindWeight:   {units.Pounds, units.Kilograms},
	KindTime:     {units.Minutes},
	KindDistance: {units.Miles, units.Kilometers},
}

type catalogFile struct {
	Entries []catalogFileEntry `toml:"entry"`
}

type catalogFileEntry struct {
	Name        string             `toml:"name"`
	Category    string             `toml:"category"`
	Description string             `toml:"description"`
	Provenance  string             `toml:"provenance"`
	Magnitudes  map[string]float64 `toml:"magnitudes"`
}

// Catalogs holds the reference catalogs for all kinds.
type Catalogs struct {
	Weight   Catalog
	Time     Catalog
	Distance Catalog
}

func (c Catalogs) ByKind(kind Kind) (Catalog, error) {
	switch kind {
	case KindWeight:
		return c.Weight, nil
	case KindTime:
		return c.Time, nil
	case KindDistance:
		return c.Distance, nil
	default:
		return Catalog{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

var (
	loadOnce      sync.Once
	loadedCatalog Catalogs
	loadErr       error
)

// LoadCatalogs parses the embedded catalogs once per process.
func LoadCatalogs() (Catalogs, error) {
	loadOnce.Do(func() {
		loadedCatalog, loadErr = loadEmbedded()
	})
	return loadedCatalog, loadErr
}

func WeightCatalog() Catalog {
	return mustLoad().Weight
}

func TimeCatalog() Catalog {
	return mustLoad().Time
}

func DistanceCatalog() Catalog {
	return mustLoad().Distance
}

func mustLoad() Catalogs {
	c, err := LoadCatalogs()
	if err != nil {
		panic(fmt.Sprintf("embedded equivalence catalogs: %s", err))
	}
	return c
}

func loadEmbedded() (Catalogs, error) {
	var catalogs Catalogs
	var err error
	for _, kind := range []Kind{KindWeight, KindTime, KindDistance} {
		data, readErr := catalogFS.ReadFile("catalogs/" + string(kind) + ".toml")
		if readErr != nil {
			err = multierr.Append(err, fmt.Errorf("read %s catalog: %w", kind, readErr))
			continue
		}
		catalog, parseErr := ParseCatalog(kind, bytes.NewReader(data))
		if parseErr != nil {
			err = multierr.Append(err, parseErr)
			continue
		}
		switch kind {
		case KindWeight:
			catalogs.Weight = catalog
		case KindTime:
			catalogs.Time = catalog
		case KindDistance:
			catalogs.Distance = catalog
		}
	}
	return catalogs, err
}

// ParseCatalog decodes and validates a TOML catalog of the given kind.
func ParseCatalog(kind Kind, r io.Reader) (Catalog, error) {
	allowed, ok := catalogUnits[kind]
	if !ok {
		return Catalog{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	var file catalogFile
	if _, err := toml.NewDecoder(r).Decode(&file); err != nil {
		return Catalog{}, fmt.Errorf("decode %s catalog: %w", kind, err)
	}
	if len(file.Entries) == 0 {
		return Catalog{}, fmt.Errorf("%s catalog is empty", kind)
	}

	catalog := Catalog{
		Kind:    kind,
		Entries: make([]Entry, 0, len(file.Entries)),
	}
	for i, fe := range file.Entries {
		entry, err := fe.toEntry(allowed)
		if err != nil {
			return Catalog{}, fmt.Errorf("%s catalog entry %d: %w", kind, i, err)
		}
		catalog.Entries = append(catalog.Entries, entry)
	}

	return catalog, nil
}

func (fe catalogFileEntry) toEntry(allowed []units.Unit) (Entry, error) {
	name := strings.TrimSpace(fe.Name)
	category := strings.TrimSpace(fe.Category)
	if name == "" || category == "" {
		return Entry{}, errors.New("name and category are required")
	}
	switch fe.Provenance {
	case "", "real", "fictional":
	default:
		return Entry{}, fmt.Errorf("%s: unknown provenance %q", name, fe.Provenance)
	}
	if len(fe.Magnitudes) == 0 {
		return Entry{}, fmt.Errorf("%s: no magnitudes", name)
	}

	magnitudes := make(map[units.Unit]float64, len(fe.Magnitudes))
	for unitStr, m := range fe.Magnitudes {
		unit, ok := units.Parse(unitStr)
		if !ok || !containsUnit(allowed, unit) {
			return Entry{}, fmt.Errorf("%s: unit %q not allowed here", name, unitStr)
		}
		if m <= 0 {
			return Entry{}, fmt.Errorf("%s: magnitude in %s must be positive", name, unit)
		}
		magnitudes[unit] = m
	}

	return Entry{
		Name:        name,
		Category:    category,
		Description: strings.TrimSpace(fe.Description),
		Provenance:  fe.Provenance,
		Magnitudes:  magnitudes,
	}, nil
}

func containsUnit(list []units.Unit, u units.Unit) bool {
	for _, candidate := range list {
		if candidate == u {
			return true
		}
	}
	return false
}
