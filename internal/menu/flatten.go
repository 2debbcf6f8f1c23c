package menu

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// NotAvailable is the sentinel stored in an ItemRecord field whose key is
// absent from the source item.
const NotAvailable = "N/A"

// Header is the column order used when records are written as rows.
var Header = []string{"Name", "Price", "Description", "Image URL", "State", "Rating"}

// ItemRecord is one flattened menu item. Every field is rendered as text;
// absent keys hold NotAvailable and explicit nulls hold the empty string.
type ItemRecord struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	State       string `json:"state"`
	Rating      string `json:"rating"`
}

// Row returns the record in Header order.
func (r ItemRecord) Row() []string {
	return []string{r.Name, r.Price, r.Description, r.ImageURL, r.State, r.Rating}
}

// HasImage reports whether the record carries a usable image URL.
func (r ItemRecord) HasImage() bool {
	url := strings.TrimSpace(r.ImageURL)
	return url != "" && url != NotAvailable
}

// Flatten walks the catalog depth-first (menus, categories, items) and returns
// one record per item in document order. It fails only when the required
// structure is broken, most notably when the restaurant map does not hold
// exactly one entry.
func Flatten(doc any) ([]ItemRecord, error) {
	menus, err := menuList(doc)
	if err != nil {
		return nil, err
	}
	records := make([]ItemRecord, 0)
	for _, entry := range menus {
		menu := optionalObject(entry, "menu")
		for _, categoryEntry := range optionalList(menu, "categories") {
			category := optionalObject(categoryEntry, "category")
			for _, itemEntry := range optionalList(category, "items") {
				records = append(records, newItemRecord(optionalObject(itemEntry, "item")))
			}
		}
	}
	return records, nil
}

// RestaurantID returns the single restaurant identifier of the catalog.
func RestaurantID(doc any) (string, error) {
	id, _, _, err := restaurant(doc)
	return id, err
}

// ReadDocument decodes a catalog previously written as JSON, keeping numbers
// in their source spelling.
func ReadDocument(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode menu document: %w", err)
	}
	return doc, nil
}

func restaurant(doc any) (string, node, map[string]any, error) {
	pages, _, err := root(doc).requireObject("pages")
	if err != nil {
		return "", node{}, nil, err
	}
	restaurants, byID, err := pages.requireObject("restaurant")
	if err != nil {
		return "", node{}, nil, err
	}
	if len(byID) != 1 {
		ids := make([]string, 0, len(byID))
		for id := range byID {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return "", node{}, nil, restaurants.violation(
			fmt.Sprintf("expected exactly one restaurant id, found %d %v", len(byID), ids))
	}
	var id string
	for key := range byID {
		id = key
	}
	next, obj, err := restaurants.requireObject(id)
	return id, next, obj, err
}

func menuList(doc any) ([]any, error) {
	_, entry, _, err := restaurant(doc)
	if err != nil {
		return nil, err
	}
	order, _, err := entry.requireObject("order")
	if err != nil {
		return nil, err
	}
	menuListNode, _, err := order.requireObject("menuList")
	if err != nil {
		return nil, err
	}
	_, menus, err := menuListNode.requireList("menus")
	return menus, err
}

func newItemRecord(item map[string]any) ItemRecord {
	return ItemRecord{
		Name:        fieldText(item, "name"),
		Price:       fieldText(item, "price"),
		Description: fieldText(item, "desc"),
		ImageURL:    fieldText(item, "item_image_url"),
		State:       fieldText(item, "item_state"),
		Rating:      fieldText(item, "rating"),
	}
}

func fieldText(item map[string]any, key string) string {
	raw, ok := item[key]
	if !ok {
		return NotAvailable
	}
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return NotAvailable
		}
		return strings.TrimSuffix(buf.String(), "\n")
	}
}
