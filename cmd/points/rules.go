package points

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Rules bundles the two static tables so deployments can override the
// published defaults from a single YAML file.
type Rules struct {
	Table   RankTable
	Catalog Catalog
}

type rulesFile struct {
	Ranks []struct {
		Name      string `yaml:"name"`
		MinPoints int    `yaml:"min_points"`
	} `yaml:"ranks"`
	Violations []struct {
		Key     string `yaml:"key"`
		Label   string `yaml:"label"`
		Penalty int    `yaml:"penalty"`
	} `yaml:"violations"`
}

// DefaultRules returns the published rank table and violation catalog.
func DefaultRules() Rules {
	return Rules{Table: DefaultRankTable(), Catalog: DefaultCatalog()}
}

// LoadRules reads a YAML rules file. Either section may be omitted, in which
// case the published default for that section is used.
func LoadRules(path string) (Rules, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, err
	}
	return ParseRules(raw)
}

// ParseRules parses YAML rules content.
func ParseRules(raw []byte) (Rules, error) {
	var f rulesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Rules{}, OpError{Op: "points.ParseRules", Kind: ErrInvalidConfig, Msg: err.Error()}
	}

	rules := DefaultRules()

	if len(f.Ranks) > 0 {
		tiers := make([]RankTier, 0, len(f.Ranks))
		for _, r := range f.Ranks {
			tiers = append(tiers, RankTier{Name: Rank(r.Name), MinPoints: r.MinPoints})
		}
		table, err := NewRankTable(tiers)
		if err != nil {
			return Rules{}, err
		}
		rules.Table = table
	}

	if len(f.Violations) > 0 {
		violations := make([]Violation, 0, len(f.Violations))
		for _, v := range f.Violations {
			violations = append(violations, Violation{Key: v.Key, Label: v.Label, Penalty: v.Penalty})
		}
		catalog, err := NewCatalog(violations)
		if err != nil {
			return Rules{}, err
		}
		rules.Catalog = catalog
	}

	return rules, nil
}
