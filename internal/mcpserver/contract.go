package mcpserver

import (
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type fieldSpec struct {
	Key      string `yaml:"key"`
	Type     string `yaml:"type"`
	Required bool   `yaml:"required"`
	Maps     string `yaml:"maps_to"`
	Note     string `yaml:"note,omitempty"`
}

var catalogFields = []fieldSpec{
	{Key: "id", Type: "string | number", Required: true, Maps: "id", Note: "passed through unmodified"},
	{Key: "fileName", Type: "string", Required: true, Maps: "file_identifier", Note: "navigation target is prompt/<fileName>"},
	{Key: "title", Type: "string", Maps: "title"},
	{Key: "image", Type: "string", Maps: "media_ref", Note: "resolved as images/<image>; empty means no picture"},
	{Key: "description", Type: "string", Maps: "description"},
	{Key: "category", Type: "string", Maps: "category_key", Note: "compared case-insensitively"},
}

// CatalogFormatContract describes the catalog document that LLM consumers
// should produce when authoring catalog entries.
var CatalogFormatContract = sync.OnceValue(func() string {
	fields, err := yaml.Marshal(map[string]any{"fields": catalogFields})
	if err != nil {
		panic(err)
	}

	var b strings.Builder
	b.WriteString("# Vitrine Catalog Format Contract\n\n")
	b.WriteString("The catalog is a single UTF-8 JSON document: an array of objects, oldest entry first.\n")
	b.WriteString("The catalog is displayed newest first, so new entries are appended at the end.\n\n")
	b.WriteString("## Fields\n\n```yaml\n")
	b.Write(fields)
	b.WriteString("```\n\n")
	b.WriteString("## Rules\n\n")
	b.WriteString("1. Optional fields may be omitted or null; they default to an empty string.\n")
	b.WriteString("2. Images live in the flat `images/` directory next to the catalog file.\n")
	b.WriteString("3. Supported image formats: png, jpg, jpeg, gif, webp, svg.\n")
	b.WriteString("4. Category keys are free text; `all` is reserved and means no restriction.\n\n")
	b.WriteString("## Example\n\n```json\n")
	b.WriteString(`[
  {"id": 1, "fileName": "sunset", "title": "Sunset Beach", "image": "sunset.png", "description": "Warm evening light", "category": "landscape"},
  {"id": 2, "fileName": "robot", "title": "Tin Robot", "image": "robot.png", "category": "scifi"}
]`)
	b.WriteString("\n```\n")
	return b.String()
})
