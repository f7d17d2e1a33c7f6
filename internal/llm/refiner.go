package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/resume-importer/internal/prompts"
	"github.com/jonathan/resume-importer/internal/schemas"
	"github.com/jonathan/resume-importer/internal/types"
)

const promptFile = "refine.json"

// ExtractionSchema defines the structure for LLM-based content extraction.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "ResumeRecord")
	Description string        // System prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint shown to the model
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// BuildExtractionPrompt constructs the LLM prompt from schema, optional
// guidance and input text.
func BuildExtractionPrompt(schema ExtractionSchema, guidance, inputText string) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = `"string"`
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		fmt.Fprintf(&sb, "  %q: %s%s", field.Name, typeHint, requiredHint)
		if field.Description != "" {
			fmt.Fprintf(&sb, " // %s", field.Description)
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	if guidance != "" {
		sb.WriteString(guidance)
		sb.WriteString("\n\n")
	}

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract information directly from the text, do not invent or summarize.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// ResumeRecordSchema returns the extraction schema for a resume record.
func ResumeRecordSchema() (ExtractionSchema, error) {
	description, err := prompts.Get(promptFile, "resume-record-description")
	if err != nil {
		return ExtractionSchema{}, err
	}
	return ExtractionSchema{
		Name:        "ResumeRecord",
		Description: description,
		Fields: []SchemaField{
			{
				Name:        "personal",
				Type:        `{"name": "string", "email": "string", "phone": "string", "location": "string", "website": "string", "summary": "string", "linkedin": "string"}`,
				Description: "Contact details; name, email, phone and location are always present, possibly empty",
				Required:    true,
			},
			{
				Name:        "skills",
				Type:        `["string"]`,
				Description: "Individual skills, one per entry, no duplicates",
				Required:    true,
			},
			{
				Name:        "workExperience",
				Type:        `[{"company": "string", "position": "string", "startDate": "string", "endDate": "string", "current": bool, "description": "string", "achievements": ["string"]}]`,
				Description: "Most recent first; omit endDate when current is true",
				Required:    true,
			},
			{
				Name:        "education",
				Type:        `[{"institution": "string", "degree": "string", "field": "string", "startDate": "string", "endDate": "string", "gpa": number}]`,
				Description: "Omit gpa when not stated",
				Required:    true,
			},
			{
				Name: "projects",
				Type: `[{"name": "string", "description": "string", "technologies": ["string"]}]`,
			},
			{
				Name: "certifications",
				Type: `[{"name": "string", "issuer": "string", "date": "string", "url": "string"}]`,
			},
			{
				Name: "languages",
				Type: `[{"language": "string", "proficiency": "string"}]`,
			},
		},
	}, nil
}

// RecordRefiner asks a model to correct a heuristic draft. Its output must
// satisfy the record schema or it is rejected.
type RecordRefiner struct {
	Client Client
	Config *Config
	Tier   ModelTier
}

// NewRecordRefiner creates a refiner using the standard model tier.
func NewRecordRefiner(client Client, config *Config) *RecordRefiner {
	if config == nil {
		config = DefaultConfig()
	}
	return &RecordRefiner{Client: client, Config: config, Tier: TierStandard}
}

// Refine returns the model's record for text, seeded with draft.
func (r *RecordRefiner) Refine(ctx context.Context, text string, draft *types.ResumeRecord) (*types.ResumeRecord, error) {
	if r.Client == nil {
		return nil, fmt.Errorf("no LLM client configured")
	}

	prompt, err := r.buildPrompt(text, draft)
	if err != nil {
		return nil, err
	}

	raw, err := r.Client.GenerateJSON(ctx, prompt, r.Tier)
	if err != nil {
		return nil, fmt.Errorf("refinement request failed: %w", err)
	}
	raw = CleanJSONBlock(raw)

	if err := schemas.ValidateRecordJSON([]byte(raw)); err != nil {
		return nil, fmt.Errorf("refined record rejected: %w", err)
	}

	var record types.ResumeRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("failed to decode refined record: %w", err)
	}
	return record.Normalize(), nil
}

func (r *RecordRefiner) buildPrompt(text string, draft *types.ResumeRecord) (string, error) {
	schema, err := ResumeRecordSchema()
	if err != nil {
		return "", err
	}

	var draftContext string
	if draft != nil {
		draftJSON, err := json.MarshalIndent(draft, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode draft: %w", err)
		}
		draftContext, err = prompts.Render(promptFile, "resume-record-draft", map[string]string{"Draft": string(draftJSON)})
		if err != nil {
			return "", err
		}
	}

	limit := 0
	if r.Config != nil {
		limit = r.Config.MaxInputChars
	}
	if runes := []rune(text); limit > 0 && len(runes) > limit {
		text = string(runes[:limit])
	}

	return BuildExtractionPrompt(schema, draftContext, text), nil
}
