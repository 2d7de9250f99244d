package inventory

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dellswitch/switchctl/internal/switchdriver"
)

// SeedFile is the on-disk shape for an optional startup inventory seed,
// loaded once at process start and never written back to.
type SeedFile struct {
	Sites    []string      `yaml:"sites"`
	Floors   []seedFloor   `yaml:"floors"`
	Switches []seedSwitch  `yaml:"switches"`
}

type seedFloor struct {
	Site string `yaml:"site"`
	Name string `yaml:"name"`
}

type seedSwitch struct {
	ID          string `yaml:"id"`
	Site        string `yaml:"site"`
	Floor       string `yaml:"floor"`
	DisplayName string `yaml:"display_name"`
	Address     string `yaml:"address"`
	Family      string `yaml:"family"`
	Enabled     bool   `yaml:"enabled"`
	Description string `yaml:"description"`
}

// LoadSeed parses path as a SeedFile.
func LoadSeed(path string) (SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SeedFile{}, err
	}
	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return SeedFile{}, err
	}
	return seed, nil
}

// Apply loads seed's entities into store. A switch whose family tag doesn't
// match a recognized dialect is still stored, with FamilyUnknown.
func Apply(store *MemoryStore, seed SeedFile) {
	for _, name := range seed.Sites {
		store.PutSite(Site{Name: name})
	}
	for _, f := range seed.Floors {
		store.PutFloor(Floor{Site: f.Site, Name: f.Name})
	}
	for _, s := range seed.Switches {
		fam := switchdriver.Family(s.Family)
		if !fam.Valid() {
			fam = switchdriver.FamilyUnknown
		}
		store.PutSwitch(Switch{
			ID:          s.ID,
			Site:        s.Site,
			Floor:       s.Floor,
			DisplayName: s.DisplayName,
			Address:     s.Address,
			Family:      fam,
			Enabled:     s.Enabled,
			Description: s.Description,
		})
	}
}
