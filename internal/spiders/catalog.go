// Package spiders names the external extraction spiders and reads the
// lead files they produce. Site-specific extraction itself (selectors,
// pagination, rendering) lives outside this service; the boundary is a
// JSONL file of raw records per spider.
package spiders

import (
	"path/filepath"
)

// Spider describes one known extraction source.
type Spider struct {
	// Name is the spider identifier used in job submissions and file names.
	Name string `json:"name"`
	// SourceSite is the directory site the spider extracts from.
	SourceSite string `json:"source_site"`
}

// Catalog lists the extraction spiders this service accepts jobs for.
var Catalog = []Spider{
	{Name: "toolify", SourceSite: "toolify.ai"},
	{Name: "taaft", SourceSite: "theresanaiforthat.com"},
	{Name: "futuretools", SourceSite: "futuretools.io"},
}

// Names returns the catalog spider names in order.
func Names() []string {
	names := make([]string, 0, len(Catalog))
	for _, s := range Catalog {
		names = append(names, s.Name)
	}
	return names
}

// Lookup returns the catalog spider with the given name.
func Lookup(name string) (Spider, bool) {
	for _, s := range Catalog {
		if s.Name == name {
			return s, true
		}
	}
	return Spider{}, false
}

// IsKnown reports whether name is a catalog spider.
func IsKnown(name string) bool {
	for _, s := range Catalog {
		if s.Name == name {
			return true
		}
	}
	return false
}

// LeadsFile returns the path of a spider's lead output file.
func LeadsFile(dir, spider string) string {
	return filepath.Join(dir, spider+"_leads.jsonl")
}
