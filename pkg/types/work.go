// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Work is a Crossref works API response for a single DOI.
type Work struct {
	Status  string      `json:"status"`
	Message WorkMessage `json:"message"`
}

// WorkMessage is the bibliographic record inside a Crossref work response.
// Only the fields carried into DSpace metadata are decoded.
type WorkMessage struct {
	Title          []string     `json:"title"`
	URL            string       `json:"URL"`
	Author         []WorkAuthor `json:"author"`
	ContainerTitle []string     `json:"container-title"`
	ISSN           []string     `json:"ISSN"`
	Issue          string       `json:"issue"`
	Issued         WorkDate     `json:"issued"`
	Language       string       `json:"language"`
	OriginalTitle  []string     `json:"original-title"`
	Publisher      string       `json:"publisher"`
	ShortTitle     []string     `json:"short-title"`
	Subtitle       []string     `json:"subtitle"`
	Volume         string       `json:"volume"`
}

// WorkAuthor is one author entry in a Crossref work.
type WorkAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

// WorkDate is a Crossref partial date. DateParts holds one entry of
// year, month, day components, any of which may be absent.
type WorkDate struct {
	DateParts [][]int `json:"date-parts"`
}

// MetadataEntry is one key/value pair of DSpace item metadata.
type MetadataEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DSpaceMetadata is the metadata document uploaded alongside an article
// bitstream, in the shape the DSpace Submission Service expects.
type DSpaceMetadata struct {
	Metadata []MetadataEntry `json:"metadata"`
}
