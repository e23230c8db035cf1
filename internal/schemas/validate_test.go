package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogSchema_IsValidJSON(t *testing.T) {
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(CatalogSchema()), &v))
	assert.Equal(t, "object", v["type"])
}

func TestValidateCatalog(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
		field   string
	}{
		{
			name: "full catalog",
			doc: `{
				"personal_context": "Shopify developer since 2016",
				"proposal_rules": "Never exceed 200 words",
				"portfolio": [
					{"id": "1", "title": "Store", "link": "https://a.example", "description": "Theme build"},
					{"id": "2", "title": "App", "link": "https://b.example"}
				]
			}`,
		},
		{
			name: "null singletons and empty portfolio",
			doc:  `{"personal_context": null, "proposal_rules": null, "portfolio": []}`,
		},
		{
			name:    "missing portfolio",
			doc:     `{"personal_context": "x"}`,
			wantErr: true,
			field:   "(root)",
		},
		{
			name:    "item missing title",
			doc:     `{"portfolio": [{"id": "1", "link": "https://a.example"}]}`,
			wantErr: true,
			field:   "portfolio.0",
		},
		{
			name:    "wrong type",
			doc:     `{"portfolio": [], "proposal_rules": 5}`,
			wantErr: true,
			field:   "proposal_rules",
		},
		{
			name:    "unknown field",
			doc:     `{"portfolio": [], "categories": []}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCatalog([]byte(tt.doc))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.NotEmpty(t, verr.Errors)
			if tt.field != "" {
				assert.Equal(t, tt.field, verr.Errors[0].Field)
			}
		})
	}
}

func TestValidateCatalog_MalformedDocument(t *testing.T) {
	err := ValidateCatalog([]byte(`{not json`))

	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "catalog.schema.json")
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Errors: []FieldError{{Field: "portfolio", Message: "is required"}}}
	assert.Contains(t, err.Error(), "1. portfolio: is required")
}
