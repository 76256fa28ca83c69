package catalog

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed recipes.yaml
var recipesYAML []byte

// Ingredient is one (item, count) input of a recipe.
type Ingredient struct {
	Item  Item `yaml:"item" json:"item"`
	Count int  `yaml:"count" json:"count"`
}

// Recipe transforms inputs into Count units of Output. CraftTime is
// informational: crafting is validated and applied instantly.
type Recipe struct {
	Output    Item          `yaml:"output" json:"output"`
	Count     int           `yaml:"count" json:"count"`
	CraftTime time.Duration `yaml:"craft_time" json:"craft_time"`
	Auto      bool          `yaml:"auto" json:"auto"`
	Inputs    []Ingredient  `yaml:"inputs" json:"inputs"`
}

type recipeFile struct {
	Recipes []Recipe `yaml:"recipes"`
}

// Book is an immutable, validated recipe graph.
type Book struct {
	ordered  []Recipe
	byOutput map[Item]Recipe
}

var defaultBook = mustLoad(recipesYAML)

// Recipes returns the built-in recipe book.
func Recipes() *Book { return defaultBook }

func mustLoad(data []byte) *Book {
	b, err := LoadBook(data)
	if err != nil {
		panic(err)
	}
	return b
}

// LoadBook parses a YAML recipe list and checks that it forms a DAG in
// declaration order.
func LoadBook(data []byte) (*Book, error) {
	var f recipeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse recipes: %w", err)
	}
	b := &Book{byOutput: make(map[Item]Recipe, len(f.Recipes))}
	for idx, r := range f.Recipes {
		if !r.Output.Valid() || r.Output.Category() == CategoryRaw {
			return nil, fmt.Errorf("catalog: recipe %d: output %s is not craftable", idx, r.Output)
		}
		if r.Count <= 0 {
			return nil, fmt.Errorf("catalog: recipe %s: count must be positive", r.Output)
		}
		if len(r.Inputs) == 0 {
			return nil, fmt.Errorf("catalog: recipe %s: no inputs", r.Output)
		}
		if _, dup := b.byOutput[r.Output]; dup {
			return nil, fmt.Errorf("catalog: duplicate recipe for %s", r.Output)
		}
		for _, in := range r.Inputs {
			if in.Count <= 0 {
				return nil, fmt.Errorf("catalog: recipe %s: input %s count must be positive", r.Output, in.Item)
			}
			if in.Item.Category() == CategoryRaw {
				continue
			}
			if _, earlier := b.byOutput[in.Item]; !earlier {
				return nil, fmt.Errorf("catalog: recipe %s: input %s is neither raw nor produced earlier", r.Output, in.Item)
			}
		}
		b.ordered = append(b.ordered, r)
		b.byOutput[r.Output] = r
	}
	return b, nil
}

// All returns every recipe in declaration order.
func (b *Book) All() []Recipe {
	out := make([]Recipe, len(b.ordered))
	copy(out, b.ordered)
	return out
}

// For returns the recipe producing item, if any.
func (b *Book) For(item Item) (Recipe, bool) {
	r, ok := b.byOutput[item]
	return r, ok
}

// AutoChain returns the recipes agents apply each tick, raw to rig.
func (b *Book) AutoChain() []Recipe {
	var out []Recipe
	for _, r := range b.ordered {
		if r.Auto {
			out = append(out, r)
		}
	}
	return out
}
