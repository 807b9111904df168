package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
)

func TestConvertCmd_Use(t *testing.T) {
	assert.Equal(t, "convert [file]", convertCmd.Use)
	require.NotNil(t, convertCmd.Flags().Lookup("format"))
	require.NotNil(t, convertCmd.Flags().Lookup("json"))
}

func TestConvertCmd_RequiresExactlyOneArg(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := runCommand(t, "convert")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestConvertCmd_Bulletin(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := writeFile(t, t.TempDir(), "bulletin.json", bulletinJSON)
	out, err := runCommand(t, "convert", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Document bulletin-1")
	assert.Contains(t, out, "Type: Church bulletin")
	assert.Contains(t, out, "Quality: 1.00")
	assert.Contains(t, out, "Sections:")
	assert.Contains(t, out, "hero")
}

func TestConvertCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := writeFile(t, t.TempDir(), "bulletin.json", bulletinJSON)
	out, err := runCommand(t, "convert", "--json", path)
	require.NoError(t, err)

	var result domain.ConversionResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "bulletin-1", result.DocumentID)
	assert.Equal(t, domain.DocumentTypeChurch, result.DocumentType)
	require.NotNil(t, result.Plan)
	assert.NotEmpty(t, result.PatternID)
}

func TestConvertCmd_ValidationFailurePrintsPartialResult(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := writeFile(t, t.TempDir(), "undated.json", undatedJSON)
	out, err := runCommand(t, "convert", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidationFailed)

	assert.Contains(t, out, "Document undated")
	assert.Contains(t, out, "Rejected")
	assert.Contains(t, out, "missing-required")
}

func TestConvertCmd_Stdin(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader(bulletinJSON))
	defer rootCmd.SetIn(nil)

	out, err := runCommand(t, "convert", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Document bulletin-1")
}

func TestConvertCmd_ExplicitFormat(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	// The extension is ignored when --format is given.
	path := writeFile(t, t.TempDir(), "bulletin.txt", bulletinJSON)
	out, err := runCommand(t, "convert", "--format", "json", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Document bulletin-1")
}

func TestConvertCmd_Errors(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "missing file",
			args: []string{"convert", dir + "/missing.json"},
			want: "failed to read",
		},
		{
			name: "unknown extension",
			args: []string{"convert", writeFile(t, dir, "doc.pdf", "%PDF")},
			want: "cannot infer format",
		},
		{
			name: "malformed payload",
			args: []string{"convert", writeFile(t, dir, "bad.json", "{not json")},
			want: "conversion failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			_, err := runCommand(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
