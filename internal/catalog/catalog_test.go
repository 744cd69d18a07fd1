package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/i474232898/weather-food-recommender/internal/meal"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFoodKeys(t *testing.T) {
	path := writeFile(t, "food_keys.yaml", `
foods:
  0: Aloo Paratha
  2: Biryani
  1: " Chole Bhature "
`)

	keys, err := LoadFoodKeys(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 3 || keys[1] != "Chole Bhature" {
		t.Fatalf("unexpected keys: %v", keys)
	}
	if got := keys.Indices(); got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("expected sorted indices, got %v", got)
	}
	if keys.MaxIndex() != 2 {
		t.Fatalf("expected max index 2, got %d", keys.MaxIndex())
	}
}

func TestLoadFoodKeysErrors(t *testing.T) {
	cases := map[string]string{
		"empty":     "foods: {}\n",
		"duplicate": "foods:\n  0: Dosa\n  1: Dosa\n",
		"negative":  "foods:\n  -1: Dosa\n",
		"blank":     "foods:\n  0: \"  \"\n",
		"not yaml":  "foods: [\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadFoodKeys(writeFile(t, "keys.yaml", content)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	if _, err := LoadFoodKeys(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseMealTable(t *testing.T) {
	csvData := `food,late_night,morning,afternoon,evening,night
Aloo Paratha,0,1,0,0,0
Biryani,1,0,1,1,1
Samosa,no,no,yes,true,0
`
	table, err := ParseMealTable(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("expected 3 foods, got %d", table.Len())
	}

	checks := []struct {
		food string
		meal meal.Category
		want bool
	}{
		{"Aloo Paratha", meal.Morning, true},
		{"Aloo Paratha", meal.Night, false},
		{"Biryani", meal.LateNight, true},
		{"Biryani", meal.Morning, false},
		{"Samosa", meal.Afternoon, true},
		{"Samosa", meal.Evening, true},
		{"Samosa", meal.Night, false},
		{"Unknown", meal.Morning, false},
	}
	for _, c := range checks {
		if got := table.Valid(c.food, c.meal); got != c.want {
			t.Errorf("%s/%s: expected %v, got %v", c.food, c.meal, c.want, got)
		}
	}
	if table.Has("Unknown") {
		t.Errorf("unexpected row for Unknown")
	}
}

func TestParseMealTableErrors(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"header only":    "food,morning\n",
		"unknown column": "food,brunch\nDosa,1\n",
		"bad flag":       "food,morning\nDosa,maybe\n",
		"duplicate":      "food,morning\nDosa,1\nDosa,0\n",
		"short row":      "food,morning,night\nDosa,1\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseMealTable(strings.NewReader(content)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadMealTableFromFile(t *testing.T) {
	path := writeFile(t, "food_meal.csv", "food,morning\nIdli,1\n")
	table, err := LoadMealTable(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !table.Valid("Idli", meal.Morning) {
		t.Fatalf("expected Idli to be valid for morning")
	}
}

func TestNewMealTable(t *testing.T) {
	table := NewMealTable(map[string][]meal.Category{
		"Poha": {meal.Morning, meal.Evening},
	})
	if !table.Valid("Poha", meal.Evening) || table.Valid("Poha", meal.Night) {
		t.Fatalf("unexpected flags")
	}
}
