// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package deposit

import (
	"bufio"
	"io"
	"strings"
)

// utf8BOM is the byte-order mark Excel prepends to CSV exports.
const utf8BOM = "\ufeff"

// ReadDOIs extracts DOIs from a spreadsheet export: one DOI per line,
// with a leading byte-order mark, surrounding whitespace, blank lines,
// and an optional "DOI" header row all tolerated.
func ReadDOIs(r io.Reader) ([]string, error) {
	var dois []string
	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, utf8BOM)
			first = false
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.EqualFold(line, "doi") {
			continue
		}
		dois = append(dois, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return dois, nil
}
