package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"historicalmap/internal/exchange"
	"historicalmap/internal/model"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(&out, BuildInfo{Version: "1.2.3", Commit: "abc", BuildTime: "now"})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "version=1.2.3 commit=abc build_time=now\n", out)

	out, err = run(t, "version", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1.2.3","commit":"abc","build_time":"now"}`, out)
}

func TestTileCommands(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"xy", []string{"tile", "xy", "--lat", "48.85", "--lon", "2.35", "--zoom", "10"}, "z=10 x=518 y=352\n"},
		{"lonlat origin", []string{"tile", "lonlat"}, "lon=-180.000000 lat=85.051129\n"},
		{"zoom world", []string{"tile", "zoom"}, "zoom=0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestTileCommands_Usage(t *testing.T) {
	_, err := run(t, "tile", "xy", "--zoom", "19")
	require.Error(t, err)
	assert.Equal(t, ExitCodeUsage, ExitCode(err))

	_, err = run(t, "tile", "zoom", "--width", "0")
	assert.Equal(t, ExitCodeUsage, ExitCode(err))
}

func TestImportExport(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "atlas.sqlite")
	in := filepath.Join(dir, "in.json")

	doc := exchange.Document{HistoricalInfo: []model.Data{
		{
			Year:      1900,
			Countries: []model.Country{{Name: "France", Contour: []model.Coordinate{{Latitude: 1, Longitude: 2}, {Latitude: 3, Longitude: 4}}}},
			Cities:    []model.City{{Name: "Paris", Coordinate: model.Coordinate{Latitude: 48.85, Longitude: 2.35}}},
			Note:      &model.Note{Text: "belle epoque"},
		},
		{
			Year:   -200,
			Cities: []model.City{{Name: "Rome", Coordinate: model.Coordinate{Latitude: 41.9, Longitude: 12.5}}},
		},
	}}
	b, err := exchange.JSON{}.Encode(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(in, b, 0o644))

	out, err := run(t, "--db", db, "import", in)
	require.NoError(t, err)
	assert.Equal(t, "imported 2 years from in.json\n", out)

	out, err = run(t, "--db", db, "years")
	require.NoError(t, err)
	assert.Equal(t, []string{"-200", "1900"}, strings.Fields(out))

	exported := filepath.Join(dir, "out.bson")
	out, err = run(t, "--db", db, "export", exported, "--from", "0", "--author", "cli")
	require.NoError(t, err)
	assert.Equal(t, "exported 1 years to out.bson\n", out)

	raw, err := os.ReadFile(exported)
	require.NoError(t, err)
	got, err := exchange.BSON{}.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "cli", got.Author)
	require.Len(t, got.HistoricalInfo, 1)
	assert.Equal(t, 1900, got.HistoricalInfo[0].Year)
	assert.Equal(t, "belle epoque", got.HistoricalInfo[0].Note.Text)
	assert.Equal(t, doc.HistoricalInfo[0].Countries, got.HistoricalInfo[0].Countries)

	_, err = run(t, "--db", db, "export", exported)
	assert.Equal(t, ExitCodeIO, ExitCode(err))
	assert.ErrorIs(t, err, exchange.ErrFileExists)
}

func TestImport_Errors(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "atlas.sqlite")

	_, err := run(t, "--db", db, "import", filepath.Join(dir, "missing.json"))
	assert.Equal(t, ExitCodeNotFound, ExitCode(err))

	_, err = run(t, "--db", db, "import", filepath.Join(dir, "atlas.csv"))
	assert.ErrorIs(t, err, exchange.ErrFileFormatNotSupport)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"historical_info":[]}`), 0o644))
	_, err = run(t, "--db", db, "import", empty)
	assert.ErrorIs(t, err, exchange.ErrFileEmpty)

	_, err = run(t, "--db", db, "export", filepath.Join(dir, "x.json"), "--from", "5", "--to", "1")
	assert.Equal(t, ExitCodeUsage, ExitCode(err))

	_, err = run(t, "import")
	assert.Error(t, err)
}
