// Package catalog loads the static food tables: the index-to-name key table
// aligned with the model outputs and the per-meal validity flags.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-food-recommender/internal/meal"
)

// FoodKeys maps a model output index to a food name.
type FoodKeys map[int]string

// Indices returns the indices in ascending order.
func (k FoodKeys) Indices() []int {
	idx := make([]int, 0, len(k))
	for i := range k {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// MaxIndex returns the largest index, or -1 when empty.
func (k FoodKeys) MaxIndex() int {
	hi := -1
	for i := range k {
		if i > hi {
			hi = i
		}
	}
	return hi
}

type foodKeysFile struct {
	Foods map[int]string `yaml:"foods"`
}

// LoadFoodKeys reads a YAML document of the form
//
//	foods:
//	  0: Aloo Paratha
//	  1: Biryani
func LoadFoodKeys(path string) (FoodKeys, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read food keys: %w", err)
	}

	var f foodKeysFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse food keys %s: %w", path, err)
	}
	if len(f.Foods) == 0 {
		return nil, fmt.Errorf("food keys %s: no foods defined", path)
	}

	seen := make(map[string]int, len(f.Foods))
	for i, name := range f.Foods {
		if i < 0 {
			return nil, fmt.Errorf("food keys %s: negative index %d", path, i)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("food keys %s: empty name at index %d", path, i)
		}
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("food keys %s: %q used by index %d and %d", path, name, prev, i)
		}
		seen[name] = i
		f.Foods[i] = name
	}

	return FoodKeys(f.Foods), nil
}

// MealTable holds which meals each food is valid for.
type MealTable struct {
	valid map[string]map[meal.Category]bool
}

// NewMealTable builds a table from explicit flags. Used by tests and tools.
func NewMealTable(rows map[string][]meal.Category) *MealTable {
	t := &MealTable{valid: make(map[string]map[meal.Category]bool, len(rows))}
	for food, meals := range rows {
		flags := make(map[meal.Category]bool, len(meals))
		for _, m := range meals {
			flags[m] = true
		}
		t.valid[food] = flags
	}
	return t
}

// Valid reports whether food is flagged for m. Unknown foods are not valid.
func (t *MealTable) Valid(food string, m meal.Category) bool {
	return t.valid[food][m]
}

// Len returns the number of foods in the table.
func (t *MealTable) Len() int {
	return len(t.valid)
}

// Has reports whether the table has a row for food.
func (t *MealTable) Has(food string) bool {
	_, ok := t.valid[food]
	return ok
}

var errEmptyTable = errors.New("meal table has no rows")

// LoadMealTable reads the spreadsheet export: a CSV whose header is
// "food" followed by meal category columns, with 1/0 (or true/false, yes/no) cells.
func LoadMealTable(path string) (*MealTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open meal table: %w", err)
	}
	defer f.Close()

	t, err := ParseMealTable(f)
	if err != nil {
		return nil, fmt.Errorf("meal table %s: %w", path, err)
	}
	return t, nil
}

// ParseMealTable parses the CSV form described in LoadMealTable.
func ParseMealTable(r io.Reader) (*MealTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmptyTable
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("header needs a food column and at least one meal column")
	}

	cols := make([]meal.Category, len(header)-1)
	for i, h := range header[1:] {
		c, err := meal.ParseCategory(h)
		if err != nil {
			return nil, fmt.Errorf("header column %d: %w", i+2, err)
		}
		cols[i] = c
	}

	t := &MealTable{valid: make(map[string]map[meal.Category]bool)}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		food := strings.TrimSpace(rec[0])
		if food == "" {
			return nil, fmt.Errorf("line %d: empty food name", line)
		}
		if _, dup := t.valid[food]; dup {
			return nil, fmt.Errorf("line %d: duplicate food %q", line, food)
		}

		flags := make(map[meal.Category]bool, len(cols))
		for i, c := range cols {
			v, err := parseFlag(rec[i+1])
			if err != nil {
				return nil, fmt.Errorf("line %d, %s: %w", line, c, err)
			}
			flags[c] = v
		}
		t.valid[food] = flags
	}

	if len(t.valid) == 0 {
		return nil, errEmptyTable
	}
	return t, nil
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "1.0", "true", "yes", "y":
		return true, nil
	case "0", "0.0", "false", "no", "n", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid flag %q", s)
	}
}
