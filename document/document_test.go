package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		content     string
		typ         Type
		source      string
		wantErr     bool
		errContains string
		checkFn     func(*testing.T, *Document)
	}{
		{
			name:    "valid textbook document",
			title:   "Options Basics",
			content: "An option is a contract...",
			typ:     TypeTextbook,
			source:  "textbook/options.md",
			checkFn: func(t *testing.T, doc *Document) {
				assert.Equal(t, "Options Basics", doc.Title)
				assert.Equal(t, "An option is a contract...", doc.Content)
				assert.Equal(t, TypeTextbook, doc.Type)
				assert.NotNil(t, doc.Metadata)
				assert.Empty(t, doc.Metadata)
				assert.NotNil(t, doc.Formatter)
				assert.Empty(t, doc.ID)
				assert.Equal(t, float64(0), doc.Score)
			},
		},
		{
			name:    "valid qa_pair document",
			content: "Q: what is a put? A: ...",
			typ:     TypeQAPair,
			source:  "qa/puts.json",
		},
		{
			name:    "valid regulation document",
			content: "Section 15(c) shall require...",
			typ:     TypeRegulation,
			source:  "reg/15c.txt",
		},
		{
			name:        "empty content",
			content:     "",
			typ:         TypeTextbook,
			wantErr:     true,
			errContains: "document requires content",
		},
		{
			name:        "invalid type",
			content:     "some content",
			typ:         Type("bogus"),
			wantErr:     true,
			errContains: "textbook, qa_pair, or regulation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewDocument(tt.title, tt.content, tt.typ, tt.source)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, doc)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, doc)
			if tt.checkFn != nil {
				tt.checkFn(t, doc)
			}
		})
	}
}

func TestDocument_Format(t *testing.T) {
	t.Run("format with default Nop formatter", func(t *testing.T) {
		doc, err := NewDocument("", "test content", TypeTextbook, "s")
		require.NoError(t, err)

		assert.Equal(t, "test content", doc.Format())
	})

	t.Run("format with custom formatter", func(t *testing.T) {
		doc, err := NewDocument("", "test content", TypeTextbook, "s")
		require.NoError(t, err)

		doc.Formatter = mockFormatterFn(func(d *Document, _ MetadataMode) string {
			return "custom: " + d.Content
		})

		assert.Equal(t, "custom: test content", doc.Format())
	})

	t.Run("format with metadata ignored by Nop", func(t *testing.T) {
		doc, err := NewDocument("", "content", TypeTextbook, "s")
		require.NoError(t, err)
		doc.Metadata["author"] = "test"

		assert.Equal(t, "content", doc.Format())
	})
}

func TestDocument_FormatByMetadataMode(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		mode     MetadataMode
		expected string
	}{
		{name: "mode all", content: "test content", mode: MetadataModeAll, expected: "test content"},
		{name: "mode embed", content: "embedding content", mode: MetadataModeEmbed, expected: "embedding content"},
		{name: "mode inference", content: "inference content", mode: MetadataModeInference, expected: "inference content"},
		{name: "mode none", content: "plain content", mode: MetadataModeNone, expected: "plain content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewDocument("", tt.content, TypeTextbook, "s")
			require.NoError(t, err)

			assert.Equal(t, tt.expected, doc.FormatByMetadataMode(tt.mode))
		})
	}
}

func TestDocument_FormatByMetadataModeWithFormatter(t *testing.T) {
	t.Run("use provided formatter", func(t *testing.T) {
		doc, err := NewDocument("", "test", TypeTextbook, "s")
		require.NoError(t, err)

		custom := mockFormatterFn(func(d *Document, mode MetadataMode) string {
			return "custom: " + d.Content + " mode: " + string(mode)
		})

		assert.Equal(t, "custom: test mode: all", doc.FormatByMetadataModeWithFormatter(MetadataModeAll, custom))
	})

	t.Run("fallback to Nop when formatter is nil", func(t *testing.T) {
		doc, err := NewDocument("", "test content", TypeTextbook, "s")
		require.NoError(t, err)

		assert.Equal(t, "test content", doc.FormatByMetadataModeWithFormatter(MetadataModeAll, nil))
	})

	t.Run("override document's default formatter", func(t *testing.T) {
		doc, err := NewDocument("", "content", TypeTextbook, "s")
		require.NoError(t, err)

		doc.Formatter = mockFormatterFn(func(d *Document, _ MetadataMode) string {
			return "default: " + d.Content
		})

		override := mockFormatterFn(func(d *Document, _ MetadataMode) string {
			return "override: " + d.Content
		})

		assert.Equal(t, "override: content", doc.FormatByMetadataModeWithFormatter(MetadataModeAll, override))
	})
}

func TestDocument_HasTag(t *testing.T) {
	doc, err := NewDocument("", "content", TypeTextbook, "s")
	require.NoError(t, err)
	doc.Tags = []string{"options", "derivatives"}

	assert.True(t, doc.HasTag("options"))
	assert.False(t, doc.HasTag("bonds"))
}

func TestDocument_Fields(t *testing.T) {
	doc, err := NewDocument("Title", "test content", TypeRegulation, "reg/1.txt")
	require.NoError(t, err)

	doc.ID = "doc-123"
	doc.Score = 0.95
	doc.Metadata["author"] = "John Doe"
	doc.Metadata["priority"] = 1

	assert.Equal(t, "doc-123", doc.ID)
	assert.Equal(t, 0.95, doc.Score)
	assert.Equal(t, "test content", doc.Content)
	assert.Equal(t, "John Doe", doc.Metadata["author"])
	assert.Equal(t, 1, doc.Metadata["priority"])
	assert.Len(t, doc.Metadata, 2)
}

type mockFormatterFn func(*Document, MetadataMode) string

func (m mockFormatterFn) Format(doc *Document, mode MetadataMode) string {
	if m != nil {
		return m(doc, mode)
	}
	return doc.Content
}
