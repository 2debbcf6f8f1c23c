// Package menu flattens a decoded order-page catalog into item records.
//
// The catalog is a loosely typed JSON tree. A handful of schema helpers split
// every lookup into two classes: required structure (the single restaurant
// entry and its menu list) whose absence or wrong shape is a SchemaViolation,
// and optional content (categories, items, item fields) that falls back to a
// default. Flatten walks menus, categories and items depth-first in document
// order and never drops an item because one of its fields is malformed.
package menu
