package product

import (
	"strconv"
	"strings"
)

// Category is a closed product category enum stored as SMALLINT.
type Category int16

const (
	CategoryFoodAndDrink  Category = 1
	CategoryClothing      Category = 2
	CategoryTechnology    Category = 3
	CategoryMiscellaneous Category = 4
)

var categoryNames = map[Category]string{
	CategoryFoodAndDrink:  "Food & Drink",
	CategoryClothing:      "Clothing",
	CategoryTechnology:    "Technology",
	CategoryMiscellaneous: "Miscellaneous",
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "Category(" + strconv.Itoa(int(c)) + ")"
}

// ParseCategory parses a category code. The second result is false for
// anything that is not an integer in 1..4.
func ParseCategory(raw string) (Category, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	c := Category(n)
	if int(c) != n || !c.Valid() {
		return 0, false
	}
	return c, true
}
