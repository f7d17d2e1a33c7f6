// Package schemas holds the JSON Schema documents describing the importer's outputs.
package schemas

import "embed"

// Schema file names.
const (
	ResumeRecord = "resume_record.schema.json"
	Envelope     = "envelope.schema.json"
)

// FS contains every *.schema.json file in this directory.
//
//go:embed *.schema.json
var FS embed.FS
