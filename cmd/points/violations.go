package points

import "fmt"

// Violation is one catalogued disciplinary offense with a fixed penalty.
// Penalty is a positive magnitude: the number of points to subtract.
type Violation struct {
	Key     string
	Label   string
	Penalty int
}

// Catalog is the static violation catalog.
type Catalog struct {
	order []string
	byKey map[string]Violation
}

// DefaultCatalog returns the published violation catalog.
func DefaultCatalog() Catalog {
	c, err := NewCatalog([]Violation{
		{Key: "ban-without-reason", Label: "Ban without reason", Penalty: 5},
		{Key: "unfair-punishment", Label: "Unfair punishment", Penalty: 10},
		{Key: "admin-abuse", Label: "Admin abuse", Penalty: 20},
		{Key: "harassment", Label: "Harassment", Penalty: 15},
		{Key: "inactivity", Label: "Inactivity", Penalty: 10},
		{Key: "repeated-misconduct", Label: "Repeated misconduct", Penalty: 30},
		{Key: "spam", Label: "Spam", Penalty: 5},
		{Key: "severe-violation", Label: "Severe violation", Penalty: 20},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// NewCatalog validates and builds a violation catalog.
func NewCatalog(violations []Violation) (Catalog, error) {
	op := "points.NewCatalog"
	if len(violations) == 0 {
		return Catalog{}, OpError{Op: op, Kind: ErrInvalidConfig, Msg: "empty catalog"}
	}
	c := Catalog{
		order: make([]string, 0, len(violations)),
		byKey: make(map[string]Violation, len(violations)),
	}
	for _, v := range violations {
		if v.Key == "" {
			return Catalog{}, OpError{Op: op, Kind: ErrInvalidConfig, Msg: "empty violation key"}
		}
		if v.Penalty <= 0 {
			return Catalog{}, OpError{Op: op, Kind: ErrInvalidConfig, Msg: fmt.Sprintf("non-positive penalty for %q", v.Key)}
		}
		if _, dup := c.byKey[v.Key]; dup {
			return Catalog{}, OpError{Op: op, Kind: ErrInvalidConfig, Msg: fmt.Sprintf("duplicate violation %q", v.Key)}
		}
		c.order = append(c.order, v.Key)
		c.byKey[v.Key] = v
	}
	return c, nil
}

// Violations returns the catalog entries in declaration order.
func (c Catalog) Violations() []Violation {
	out := make([]Violation, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.byKey[key])
	}
	return out
}

// PenaltyFor returns the positive point penalty for a violation key.
func (c Catalog) PenaltyFor(key string) (int, error) {
	v, ok := c.byKey[key]
	if !ok {
		return 0, OpError{Op: "points.PenaltyFor", Kind: ErrUnknownViolation, Msg: key}
	}
	return v.Penalty, nil
}
