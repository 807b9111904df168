package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driving"
	"github.com/custodia-labs/folio/internal/core/services"
	"github.com/custodia-labs/folio/internal/normalisers"
	"github.com/custodia-labs/folio/internal/normalisers/jsondoc"
	"github.com/custodia-labs/folio/internal/normalisers/yamldoc"
)

// setupTestServices wires real services over in-memory stores and
// returns a cleanup func that restores the previous services and flags.
func setupTestServices() func() {
	origConversion := conversionService
	origLearning := learningService
	origSettings := settingsService

	settings := domain.DefaultAppSettings()
	patterns := memory.NewPatternStore(settings.Learning)
	blocklist := memory.NewBlocklist(domain.DefaultBlocklist()...)
	issues := memory.NewIssueLog()

	registry := normalisers.NewRegistry()
	registry.Register(jsondoc.New())
	registry.Register(yamldoc.New())

	SetServices(
		services.NewConversionService(patterns, blocklist, issues, registry, settings),
		services.NewLearningService(patterns, blocklist, issues),
		services.NewSettingsService(memory.NewConfigStore()),
	)

	return func() {
		_ = patterns.Close()
		conversionService = origConversion
		learningService = origLearning
		settingsService = origSettings
		resetFlags()
	}
}

func resetFlags() {
	convertFormat = ""
	convertJSON = false
	batchJSON = false
	batchConcurrency = runtime.NumCPU()
	patternsJSON = false
	exportYAML = false
	blocklistType = ""
	blocklistJSON = false
	blocklistDefault = ""
	verbose = false
}

// runCommand executes the root command with args and returns its output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

const bulletinJSON = `{
  "id": "bulletin-1",
  "pages": [
    {
      "page": 1,
      "blocks": [
        {"text": "# 새빛교회 주보", "kind": "heading"},
        {"text": "2024년 3월 10일"}
      ],
      "tables": [{"rows": ["| 1부 | 찬양대 | 겨울이 오면 | 엄태욱 목사 |"]}]
    },
    {
      "page": 2,
      "tables": [{"rows": ["| 1부 | 찬양대 | 겨울이 오면 봄도 멀지 않으리 | 엄태욱 목사 |"]}]
    }
  ]
}`

// undatedJSON is a bulletin missing its required date.
const undatedJSON = `{
  "id": "undated",
  "document_type": "church_bulletin",
  "pages": [{"page": 1, "blocks": [{"text": "# 새빛교회 주보", "kind": "heading"}]}]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRootCmd(t *testing.T) {
	assert.Equal(t, "folio", rootCmd.Use)

	flag := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)

	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"convert", "batch", "watch", "patterns", "blocklist", "settings", "mcp", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestSetServices(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	SetServices(nil, nil, nil)
	assert.Nil(t, conversionService)
	assert.Nil(t, learningService)
	assert.Nil(t, settingsService)

	var conv driving.ConversionService = services.NewConversionService(nil, nil, nil, nil, domain.DefaultAppSettings())
	SetServices(conv, nil, nil)
	assert.Same(t, conv, conversionService)
}

func TestSetVersion(t *testing.T) {
	original := version
	defer func() { version = original }()

	SetVersion("")
	assert.Equal(t, original, version)
	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)
}

func TestCommands_NotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	SetServices(nil, nil, nil)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"convert", "doc.json"}, "conversion service not configured"},
		{[]string{"batch", "."}, "conversion service not configured"},
		{[]string{"watch", "."}, "conversion service not configured"},
		{[]string{"patterns", "list"}, "learning service not configured"},
		{[]string{"blocklist", "list"}, "learning service not configured"},
		{[]string{"settings", "keys"}, "settings service not configured"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			_, err := runCommand(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
