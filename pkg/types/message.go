// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SubmissionAttributes are the string-valued message attributes attached
// to a DSpace Submission Service request.
type SubmissionAttributes struct {
	// PackageID identifies the package; populated with the DOI.
	PackageID string

	// SubmissionSource tags the submitting application ("wiley").
	SubmissionSource string

	// OutputQueue names the queue where the result must be published.
	OutputQueue string
}

// SubmissionFile describes one bitstream of a submission package.
type SubmissionFile struct {
	BitstreamName        string  `json:"BitstreamName"`
	FileLocation         string  `json:"FileLocation"`
	BitstreamDescription *string `json:"BitstreamDescription"`
}

// SubmissionBody is the JSON body of a DSpace Submission Service request.
// The field names are part of the wire contract with the downstream
// service and must not change.
type SubmissionBody struct {
	SubmissionSystem string           `json:"SubmissionSystem"`
	CollectionHandle string           `json:"CollectionHandle"`
	MetadataLocation string           `json:"MetadataLocation"`
	Files            []SubmissionFile `json:"Files"`
}

// SubmissionMessage pairs the attributes and body of one submission request.
type SubmissionMessage struct {
	Attributes SubmissionAttributes
	Body       SubmissionBody
}

// ResultMessage is one message drained from the output queue after the
// downstream service has processed a submission.
type ResultMessage struct {
	// PackageID is the DOI the result refers to, taken from the
	// message attributes.
	PackageID string

	// Body is the raw JSON result document.
	Body string

	// ReceiptHandle is the opaque token used to delete the message once
	// the ledger update has durably completed.
	ReceiptHandle string
}
