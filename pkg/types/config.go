package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AWSConfig holds settings shared by all AWS-backed collaborators.
type AWSConfig struct {
	// Region is the AWS region used for the S3, SQS, and SES clients.
	Region string `json:"region" yaml:"region"`
}

// LedgerConfig holds settings for the DOI ledger database.
type LedgerConfig struct {
	// DBPath is the path of the SQLite database file.
	DBPath string `json:"db_path" yaml:"db_path"`
}

// CrossrefConfig holds settings for the Crossref metadata fetcher.
type CrossrefConfig struct {
	HTTPConfig `yaml:",inline"`

	// MetadataURL is the base URL of the works API (e.g.
	// "https://api.crossref.org/works/"); the DOI is appended.
	MetadataURL string `json:"metadata_url" yaml:"metadata_url"`

	// Mailto is the contact address sent with each request per the
	// Crossref polite-pool convention.
	Mailto string `json:"mailto" yaml:"mailto"`
}

// WileyConfig holds settings for the Wiley content fetcher.
type WileyConfig struct {
	HTTPConfig `yaml:",inline"`

	// ContentURL is the base URL of the PDF endpoint; the DOI is appended.
	ContentURL string `json:"content_url" yaml:"content_url"`
}

// QueueConfig holds settings for the submission channel.
type QueueConfig struct {
	// BaseURL is the base URL of the SQS queues, ending in a slash;
	// queue names are appended to form queue URLs.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// InputQueue is the queue to which submission messages are sent.
	InputQueue string `json:"input_queue" yaml:"input_queue"`

	// OutputQueue is the queue from which result messages are received.
	OutputQueue string `json:"output_queue" yaml:"output_queue"`
}

// DepositConfig holds settings for the deposit run.
type DepositConfig struct {
	// Bucket holds the DOI spreadsheets and receives package files.
	Bucket string `json:"bucket" yaml:"bucket"`

	// CollectionHandle is the DSpace collection receiving the items.
	CollectionHandle string `json:"collection_handle" yaml:"collection_handle"`

	// SubmissionSystem is the target system name sent in each submission
	// message (e.g. "DSpace@MIT").
	SubmissionSystem string `json:"submission_system" yaml:"submission_system"`

	// MappingPath is the path of the Crossref-to-DSpace metadata mapping file.
	MappingPath string `json:"mapping_path" yaml:"mapping_path"`
}

// ListenConfig holds settings for the listen run.
type ListenConfig struct {
	// RetryThreshold is the number of process attempts allowed before a
	// DOI is marked permanently failed.
	RetryThreshold int `json:"retry_threshold" yaml:"retry_threshold"`
}

// EmailConfig holds settings for the end-of-run log email.
type EmailConfig struct {
	// SourceAddress is the sender of the log email.
	SourceAddress string `json:"source_address" yaml:"source_address"`

	// RecipientAddress receives the log email.
	RecipientAddress string `json:"recipient_address" yaml:"recipient_address"`
}

// Config groups all stage configurations for the application.
type Config struct {
	AWS      AWSConfig      `json:"aws" yaml:"aws"`
	Ledger   LedgerConfig   `json:"ledger" yaml:"ledger"`
	Crossref CrossrefConfig `json:"crossref" yaml:"crossref"`
	Wiley    WileyConfig    `json:"wiley" yaml:"wiley"`
	Queue    QueueConfig    `json:"queue" yaml:"queue"`
	Deposit  DepositConfig  `json:"deposit" yaml:"deposit"`
	Listen   ListenConfig   `json:"listen" yaml:"listen"`
	Email    EmailConfig    `json:"email" yaml:"email"`

	// LogLevel selects the logging verbosity: debug, info, warn, or error.
	LogLevel string `json:"log_level" yaml:"log_level"`

	// SentryDSN enables Sentry error reporting when non-empty.
	SentryDSN string `json:"sentry_dsn,omitempty" yaml:"sentry_dsn,omitempty"`
}
