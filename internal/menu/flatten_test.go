package menu_test

import (
	"errors"
	"os"
	"strings"
	"testing"

	"menuscope/internal/embedded"
	"menuscope/internal/menu"
	"menuscope/internal/services"
)

func decodeDoc(t *testing.T, text string) any {
	t.Helper()
	doc, err := menu.ReadDocument(strings.NewReader(text))
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	return doc
}

func wrapMenus(menus string) string {
	return `{"pages":{"restaurant":{"42":{"order":{"menuList":{"menus":` + menus + `}}}}}}`
}

func TestFlattenTraversalOrder(t *testing.T) {
	doc := decodeDoc(t, wrapMenus(`[
		{"menu":{"categories":[
			{"category":{"items":[{"item":{"name":"a"}},{"item":{"name":"b"}}]}},
			{"category":{"items":[{"item":{"name":"c"}}]}}
		]}},
		{"menu":{"categories":[{"category":{"items":[{"item":{"name":"d"}}]}}]}}
	]`))
	records, err := menu.Flatten(doc)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	var names []string
	for _, r := range records {
		names = append(names, r.Name)
	}
	if got := strings.Join(names, ","); got != "a,b,c,d" {
		t.Fatalf("unexpected order %s", got)
	}
}

func TestFlattenMenuWithoutCategories(t *testing.T) {
	doc := decodeDoc(t, wrapMenus(`[
		{"menu":{"name":"empty"}},
		{"menu":{"categories":[]}},
		{"menu":{"categories":[{"category":{"name":"no items"}}]}}
	]`))
	records, err := menu.Flatten(doc)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestFlattenMissingRatingUsesSentinel(t *testing.T) {
	doc := decodeDoc(t, wrapMenus(`[{"menu":{"categories":[{"category":{"items":[
		{"item":{"name":"Dal","price":120,"desc":"Yellow dal","item_image_url":"https://img/dal.jpg","item_state":"in_stock"}}
	]}}]}}]`))
	records, err := menu.Flatten(doc)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	want := menu.ItemRecord{
		Name:        "Dal",
		Price:       "120",
		Description: "Yellow dal",
		ImageURL:    "https://img/dal.jpg",
		State:       "in_stock",
		Rating:      menu.NotAvailable,
	}
	if records[0] != want {
		t.Fatalf("unexpected record %+v", records[0])
	}
}

func TestFlattenMalformedItemStillEmitted(t *testing.T) {
	doc := decodeDoc(t, wrapMenus(`[{"menu":{"categories":[{"category":{"items":[
		"not an item",
		{"item":{"name":null,"rating":{"value":4.5,"text":"a&b"}}},
		{"item":{"name":"last","price":true}}
	]}}]}}]`))
	records, err := menu.Flatten(doc)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for _, field := range records[0].Row() {
		if field != menu.NotAvailable {
			t.Fatalf("expected all sentinels for malformed item, got %+v", records[0])
		}
	}
	if records[1].Name != "" {
		t.Fatalf("expected explicit null to render empty, got %q", records[1].Name)
	}
	if records[1].Rating != `{"text":"a&b","value":4.5}` {
		t.Fatalf("unexpected rating rendering %q", records[1].Rating)
	}
	if records[2].Price != "true" || records[2].Name != "last" {
		t.Fatalf("unexpected record %+v", records[2])
	}
}

func TestFlattenRestaurantCardinality(t *testing.T) {
	cases := map[string]string{
		"none": `{"pages":{"restaurant":{}}}`,
		"two": `{"pages":{"restaurant":{
			"1":{"order":{"menuList":{"menus":[]}}},
			"2":{"order":{"menuList":{"menus":[]}}}}}}`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := menu.Flatten(decodeDoc(t, text))
			var violation *menu.SchemaViolation
			if !errors.As(err, &violation) {
				t.Fatalf("expected SchemaViolation, got %v", err)
			}
			if !errors.Is(err, services.ErrSchema) {
				t.Fatalf("expected ErrSchema marker, got %v", err)
			}
			if violation.Path != "$.pages.restaurant" {
				t.Fatalf("unexpected path %q", violation.Path)
			}
		})
	}
}

func TestFlattenRequiredStructure(t *testing.T) {
	cases := map[string]struct {
		doc  string
		path string
	}{
		"no pages":        {`{}`, "$.pages"},
		"restaurant list": {`{"pages":{"restaurant":[]}}`, "$.pages.restaurant"},
		"no order":        {`{"pages":{"restaurant":{"9":{}}}}`, "$.pages.restaurant.9.order"},
		"menus object":    {`{"pages":{"restaurant":{"9":{"order":{"menuList":{"menus":{}}}}}}}`, "$.pages.restaurant.9.order.menuList.menus"},
		"root is list":    {`[]`, "$.pages"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := menu.Flatten(decodeDoc(t, tc.doc))
			var violation *menu.SchemaViolation
			if !errors.As(err, &violation) {
				t.Fatalf("expected SchemaViolation, got %v", err)
			}
			if violation.Path != tc.path {
				t.Fatalf("unexpected path %q, want %q", violation.Path, tc.path)
			}
		})
	}
}

func TestRestaurantID(t *testing.T) {
	id, err := menu.RestaurantID(decodeDoc(t, wrapMenus(`[]`)))
	if err != nil {
		t.Fatalf("RestaurantID: %v", err)
	}
	if id != "42" {
		t.Fatalf("unexpected id %q", id)
	}
}

func TestExtractThenFlattenFixture(t *testing.T) {
	html, err := os.ReadFile("testdata/protein-chef.html")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	doc, err := embedded.Extract(string(html))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	records, err := menu.Flatten(doc)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	want := []menu.ItemRecord{
		{
			Name:        "Chicken Keema & High Protein Roti Meal",
			Price:       "349",
			Description: `Protein - 57g Health ka tasty dose "coming" your way`,
			ImageURL:    "https://b.zmtcdn.com/data/dish_photos/a54/keema.jpg",
			State:       "in_stock",
			Rating:      `{"total_rating_text":"64 votes","value":4.2}`,
		},
		{
			Name:        "Paneer Bhurji Bowl",
			Price:       "299.5",
			Description: "Café style bhurji",
			ImageURL:    "",
			State:       "in_stock",
			Rating:      menu.NotAvailable,
		},
		{
			Name:        "Whey Shake",
			Price:       "199",
			Description: "",
			ImageURL:    "https://b.zmtcdn.com/data/dish_photos/shake.jpg",
			State:       "out_of_stock",
			Rating:      "4",
		},
	}
	for i := range want {
		if records[i] != want[i] {
			t.Fatalf("record %d mismatch:\n got %+v\nwant %+v", i, records[i], want[i])
		}
	}
	if records[1].HasImage() || !records[2].HasImage() {
		t.Fatal("unexpected HasImage results")
	}
}
