// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dspace maps Crossref work records into DSpace item metadata.
package dspace

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/dspace-tools/wiley-deposits/pkg/types"
)

// ErrInvalidMetadata is returned when a transformed record contains no
// usable metadata entries.
var ErrInvalidMetadata = errors.New("transformed metadata has no usable fields")

// Mapping maps Crossref field names to DSpace metadata keys. Crossref
// fields absent from the mapping are not carried into the item.
type Mapping map[string]string

// DefaultMapping is the Crossref-to-DSpace mapping used when no mapping
// file is configured.
var DefaultMapping = Mapping{
	"author":          "dc.contributor.author",
	"container-title": "dc.relation.journal",
	"ISSN":            "dc.identifier.issn",
	"issue":           "mit.journal.issue",
	"issued":          "dc.date.issued",
	"language":        "dc.language",
	"original-title":  "dc.title.alternative",
	"publisher":       "dc.publisher",
	"short-title":     "dc.title.alternative",
	"subtitle":        "dc.title.alternative",
	"title":           "dc.title",
	"URL":             "dc.relation.isversionof",
	"volume":          "mit.journal.volume",
}

// LoadMapping reads a YAML mapping file. An empty path returns
// DefaultMapping.
func LoadMapping(path string) (Mapping, error) {
	if path == "" {
		return DefaultMapping, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metadata mapping %s: %w", path, err)
	}
	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing metadata mapping %s: %w", path, err)
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("metadata mapping %s is empty", path)
	}
	return m, nil
}

// Transform maps a Crossref work into DSpace item metadata using mapping.
// Authors become "Family, Given" entries, multi-part titles are joined
// with ". ", the issued date is rendered as zero-padded dash-joined date
// parts, and list-valued fields fan out to one entry per element. It
// returns ErrInvalidMetadata when nothing maps.
func Transform(work *types.Work, mapping Mapping) (types.DSpaceMetadata, error) {
	msg := work.Message
	var entries []types.MetadataEntry

	add := func(field, value string) {
		key, ok := mapping[field]
		if !ok || value == "" {
			return
		}
		entries = append(entries, types.MetadataEntry{Key: key, Value: value})
	}
	addList := func(field string, values []string) {
		for _, v := range values {
			add(field, v)
		}
	}

	for _, author := range msg.Author {
		add("author", fmt.Sprintf("%s, %s", author.Family, author.Given))
	}
	add("title", joinTitles(msg.Title))
	add("issued", formatDate(msg.Issued))
	addList("container-title", msg.ContainerTitle)
	addList("ISSN", msg.ISSN)
	addList("original-title", msg.OriginalTitle)
	addList("short-title", msg.ShortTitle)
	addList("subtitle", msg.Subtitle)
	add("publisher", msg.Publisher)
	add("issue", msg.Issue)
	add("language", msg.Language)
	add("volume", msg.Volume)
	add("URL", msg.URL)

	if len(entries) == 0 {
		return types.DSpaceMetadata{}, ErrInvalidMetadata
	}
	return types.DSpaceMetadata{Metadata: entries}, nil
}

// joinTitles joins multi-part titles with ". ", skipping empty parts.
func joinTitles(titles []string) string {
	var parts []string
	for _, t := range titles {
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, ". ")
}

// formatDate renders Crossref date-parts as "YYYY-MM-DD", zero-padding
// each component and keeping only the parts that are present.
func formatDate(date types.WorkDate) string {
	if len(date.DateParts) == 0 || len(date.DateParts[0]) == 0 {
		return ""
	}
	parts := make([]string, 0, len(date.DateParts[0]))
	for _, d := range date.DateParts[0] {
		parts = append(parts, fmt.Sprintf("%02d", d))
	}
	return strings.Join(parts, "-")
}
