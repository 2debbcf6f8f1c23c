// Package textutil provides the small string helpers shared by the harvest
// pipeline: turning restaurant slugs into file names and display names.
package textutil
