package gable

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/ukaji3/gable-go/internal/logging"
	"github.com/ukaji3/gable-go/pkg/gable/models"
	"github.com/ukaji3/gable-go/pkg/gable/parser"
	"github.com/ukaji3/gable-go/pkg/gable/sheet"
)

func grid(name string, firstDataRow int, rows [][]string) *models.RawTable {
	t := models.NewRawTable(name)
	for r, cols := range rows {
		for c, v := range cols {
			row := r + 1
			t.Put(models.Cell{Row: row, Column: c + 1, Value: v}, row < firstDataRow)
		}
	}
	return t
}

func weaponTable() *models.RawTable {
	return grid("Item@Weapon", 6, [][]string{
		{"id", "name", "quality", "pos", "note"},
		{"*id", "name", "quality", "pos", "note"},
		{"int", "string", "enum", "vector2", "string"},
		{"client", "client", "client", "client", "server"},
		{"", "", "Enums@Quality", "", ""},
		{"1", "Sword", "Rare", "1,2", "a"},
		{"2", "Axe", "0", "(3,4)", "b"},
	})
}

func configTable() *models.RawTable {
	return grid("Game@Config", 2, [][]string{
		{"field", "type", "keyword", "link", "value", "desc", "index"},
		{"maxLevel", "int", "client", "", "99", "cap", "2"},
		{"title", "string", "client", "", "Hero", "", "1"},
	})
}

func qualityTable() *models.RawTable {
	return grid("Enums@Quality", 2, [][]string{
		{"name", "value", "desc"},
		{"Common", "0", "common"},
		{"Rare", "1", "rare"},
	})
}

// writeWorkspace lays out a small workspace under a temp dir.
func writeWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	tables := map[string]*models.RawTable{
		"Item@Weapon.gable":         weaponTable(),
		"kvs/Game@Config.gable":     configTable(),
		"enums/Enums@Quality.gable": qualityTable(),
		".git/Hidden@Table.gable":   weaponTable(),
	}
	for rel, table := range tables {
		require.NoError(t, parser.WriteRawTable(filepath.Join(dir, rel), table))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Broken@Table.gable"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	return dir
}

// quietContext returns a context whose logger writes to buf.
func quietContext(buf *bytes.Buffer) context.Context {
	return logging.NewContext(context.Background(), logging.New(buf, "debug", "text"))
}

func TestShapeForPath(t *testing.T) {
	tests := []struct {
		rel      string
		expected models.Shape
	}{
		{"Item@Weapon.gable", models.RowRecords},
		{"kvs/Game@Config.gable", models.KeyValue},
		{"enums/Enums@Quality.gable", models.EnumLookup},
		{"localizes/Text@Lang.gable", models.LocalizedRecords},
		{"items/kvs/Nested@Table.gable", models.RowRecords},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShapeForPath(tt.rel))
		})
	}
}

func TestLoadWorkspace(t *testing.T) {
	dir := writeWorkspace(t)
	var logs bytes.Buffer

	ws, err := LoadWorkspace(quietContext(&logs), dir)
	require.NoError(t, err)

	var links []string
	for _, s := range ws.Sheets {
		links = append(links, s.Link)
	}
	assert.Equal(t, []string{"Item@Weapon", "Enums@Quality", "Game@Config"}, links)

	quality, ok := ws.Find("Quality")
	require.True(t, ok)
	assert.Equal(t, models.EnumLookup, quality.Shape)

	config, ok := ws.Find("Game@Config")
	require.True(t, ok)
	assert.Equal(t, models.KeyValue, config.Shape)

	_, ok = ws.Find("Hidden")
	assert.False(t, ok, "tables under .git must be ignored")

	assert.Contains(t, logs.String(), "Broken@Table.gable", "malformed file should be logged")
}

func TestLoadWorkspaceMissingDir(t *testing.T) {
	_, err := LoadWorkspace(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func testTarget(dir string) BuildTarget {
	target := DefaultBuildTarget()
	target.DisplayName = "client"
	target.Keyword = "client"
	target.TargetDir = filepath.Join(dir, "out")
	target.ProtoTargetDir = filepath.Join(dir, "proto")
	target.ProtoPackage = "game"
	return target
}

func TestExport(t *testing.T) {
	dir := writeWorkspace(t)
	var logs bytes.Buffer
	ctx := quietContext(&logs)

	ws, err := LoadWorkspace(ctx, dir)
	require.NoError(t, err)

	target := testTarget(dir)
	report, err := (&Exporter{Parallelism: 2}).Export(ctx, ws, target)
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Empty(t, report.Failed)

	expected := []string{
		"out/Weapon.json", "out/Weapon.csv", "out/Weapon.xml", "out/Weapon.yaml", "out/Weapon.bin",
		"out/Config.json", "out/Config.csv", "out/Config.xml", "out/Config.yaml", "out/Config.bin",
		"proto/Weapon.proto", "proto/Config.proto", "proto/Quality.proto", "proto/Vector2.proto",
	}
	for _, rel := range expected {
		assert.FileExists(t, filepath.Join(dir, rel))
	}
	assert.Len(t, report.Written, len(expected))

	for _, rel := range []string{"out/Quality.json", "out/Quality.csv", "out/Quality.xml", "out/Quality.yaml", "out/Quality.bin"} {
		assert.NoFileExists(t, filepath.Join(dir, rel), "enum tables only get a schema")
	}
	assert.Equal(t, 4, report.Skipped)

	data, err := os.ReadFile(filepath.Join(dir, "out/Weapon.csv"))
	require.NoError(t, err)
	assert.Equal(t, "1,Sword,1,\"1,2\"\n2,Axe,0,\"3,4\"\n", string(data))

	schema, err := os.ReadFile(filepath.Join(dir, "proto/Weapon.proto"))
	require.NoError(t, err)
	assert.Contains(t, string(schema), "import \"Quality.proto\";")
	assert.Contains(t, string(schema), "import \"Vector2.proto\";")

	assert.Contains(t, logs.String(), "run_id="+report.RunID)
	assert.Contains(t, logs.String(), "target=client")
}

func TestExportFailedDestinationDoesNotBlockOtherFormats(t *testing.T) {
	dir := writeWorkspace(t)
	var logs bytes.Buffer
	ctx := quietContext(&logs)

	ws, err := LoadWorkspace(ctx, dir)
	require.NoError(t, err)

	target := testTarget(dir)
	target.Formats = []Format{FormatJSON, FormatCSV}
	// a directory in place of the JSON file makes that write fail
	blocked := filepath.Join(target.TargetDir, "Weapon.json")
	require.NoError(t, os.MkdirAll(filepath.Join(blocked, "x"), 0o755))

	report, err := (&Exporter{Parallelism: 1}).Export(ctx, ws, target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 export job(s) failed")

	require.Len(t, report.Failed, 1)
	var exportErr *ExportError
	require.True(t, errors.As(report.Failed[0], &exportErr))
	assert.Equal(t, "Item@Weapon", exportErr.Table)
	assert.Equal(t, FormatJSON, exportErr.Format)
	assert.Equal(t, blocked, exportErr.Path)

	assert.FileExists(t, filepath.Join(target.TargetDir, "Weapon.csv"))
	assert.FileExists(t, filepath.Join(target.TargetDir, "Config.json"))
	assert.NoFileExists(t, filepath.Join(target.ProtoDir(), "Weapon.proto"))
	assert.True(t, strings.Contains(logs.String(), "path="+blocked))
}

func TestExportFailTablePolicy(t *testing.T) {
	dir := t.TempDir()
	bad := grid("Item@Weapon", 6, [][]string{
		{"id", "count"},
		{"*id", "count"},
		{"int", "int"},
		{"", ""},
		{"", ""},
		{"1", "many"},
		{"2", "3"},
	})
	require.NoError(t, parser.WriteRawTable(filepath.Join(dir, "Item@Weapon.gable"), bad))

	var logs bytes.Buffer
	ctx := quietContext(&logs)
	ws, err := LoadWorkspace(ctx, dir)
	require.NoError(t, err)

	target := testTarget(dir)
	target.Keyword = ""
	target.Formats = []Format{FormatJSON}

	report, err := (&Exporter{}).Export(ctx, ws, target)
	require.NoError(t, err)
	assert.Len(t, report.Warnings, 1)
	data, err := os.ReadFile(filepath.Join(target.TargetDir, "Weapon.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "many")

	target.Policy = sheet.FailTable
	report, err = (&Exporter{}).Export(ctx, ws, target)
	require.Error(t, err)
	require.Len(t, report.Failed, 1)
	var projErr *sheet.ProjectionError
	assert.True(t, errors.As(report.Failed[0], &projErr))
}

func TestExportWarnsOncePerDroppedRecord(t *testing.T) {
	dir := t.TempDir()
	bad := grid("Item@Weapon", 6, [][]string{
		{"id", "count"},
		{"*id", "count"},
		{"int", "int"},
		{"", ""},
		{"", ""},
		{"1", "many"},
		{"2", "3"},
	})
	require.NoError(t, parser.WriteRawTable(filepath.Join(dir, "Item@Weapon.gable"), bad))

	var logs bytes.Buffer
	ctx := quietContext(&logs)
	ws, err := LoadWorkspace(ctx, dir)
	require.NoError(t, err)

	target := testTarget(dir)
	target.Keyword = ""

	report, err := (&Exporter{Parallelism: 3}).Export(ctx, ws, target)
	require.NoError(t, err)
	assert.Len(t, report.Warnings, 1)
	assert.Equal(t, 1, strings.Count(logs.String(), "record skipped"))
	assert.FileExists(t, filepath.Join(target.TargetDir, "Weapon.bin"))
}

func TestExportOutputCollision(t *testing.T) {
	dir := t.TempDir()
	tables := map[string]*models.RawTable{
		"BookA@Weapon.gable":    weaponTable(),
		"BookB@weapon.gable":    weaponTable(),
		"kvs/Game@Config.gable": configTable(),
	}
	for rel, table := range tables {
		require.NoError(t, parser.WriteRawTable(filepath.Join(dir, rel), table))
	}

	var logs bytes.Buffer
	ctx := quietContext(&logs)
	ws, err := LoadWorkspace(ctx, dir)
	require.NoError(t, err)

	target := testTarget(dir)
	target.Formats = []Format{FormatJSON}

	report, err := (&Exporter{}).Export(ctx, ws, target)
	require.Error(t, err)
	require.Len(t, report.Failed, 2)
	var failedTables []string
	for _, f := range report.Failed {
		assert.ErrorIs(t, f, ErrOutputCollision)
		var exportErr *ExportError
		require.True(t, errors.As(f, &exportErr))
		failedTables = append(failedTables, exportErr.Table)
	}
	assert.ElementsMatch(t, []string{"BookA@Weapon", "BookB@weapon"}, failedTables)

	assert.NoFileExists(t, filepath.Join(target.TargetDir, "Weapon.json"))
	assert.NoFileExists(t, filepath.Join(target.TargetDir, "weapon.json"))
	assert.FileExists(t, filepath.Join(target.TargetDir, "Config.json"))
	assert.Equal(t, []string{filepath.Join(target.TargetDir, "Config.json")}, report.Written)
}

func TestExportOutputCollisionWithVectorSchema(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, parser.WriteRawTable(filepath.Join(dir, "Item@Weapon.gable"), weaponTable()))
	vec := configTable()
	vec.SheetName = "Math@Vector2"
	require.NoError(t, parser.WriteRawTable(filepath.Join(dir, "kvs", "Math@Vector2.gable"), vec))
	require.NoError(t, parser.WriteRawTable(filepath.Join(dir, "enums", "Enums@Quality.gable"), qualityTable()))

	var logs bytes.Buffer
	ctx := quietContext(&logs)
	ws, err := LoadWorkspace(ctx, dir)
	require.NoError(t, err)

	target := testTarget(dir)
	target.Formats = []Format{FormatProtobuf}

	report, err := (&Exporter{}).Export(ctx, ws, target)
	require.Error(t, err)
	require.Len(t, report.Failed, 1)
	assert.ErrorIs(t, report.Failed[0], ErrOutputCollision)

	schema, err := os.ReadFile(filepath.Join(target.ProtoDir(), "Vector2.proto"))
	require.NoError(t, err)
	assert.Contains(t, string(schema), "float x = 1;")
}

func TestExportDropsRowsWithoutKeyFromEveryFormat(t *testing.T) {
	dir := t.TempDir()
	raw := grid("Item@Weapon", 6, [][]string{
		{"id", "name"},
		{"*id", "name"},
		{"int", "string"},
		{"", ""},
		{"", ""},
		{"1", "Sword"},
		{"", "Orphan"},
		{"3", "Axe"},
	})
	require.NoError(t, parser.WriteRawTable(filepath.Join(dir, "Item@Weapon.gable"), raw))

	var logs bytes.Buffer
	ctx := quietContext(&logs)
	ws, err := LoadWorkspace(ctx, dir)
	require.NoError(t, err)

	target := testTarget(dir)
	target.Keyword = ""

	report, err := (&Exporter{}).Export(ctx, ws, target)
	require.NoError(t, err)
	assert.Empty(t, report.Warnings, "a row without a key is not a projection failure")

	for _, ext := range []string{".json", ".csv", ".xml", ".yaml", ".bin"} {
		data, err := os.ReadFile(filepath.Join(target.TargetDir, "Weapon"+ext))
		require.NoError(t, err, ext)
		assert.NotContains(t, string(data), "Orphan", ext)
		assert.Contains(t, string(data), "Sword", ext)
		assert.Contains(t, string(data), "Axe", ext)
	}

	bin, err := os.ReadFile(filepath.Join(target.TargetDir, "Weapon.bin"))
	require.NoError(t, err)
	records := 0
	for len(bin) > 0 {
		num, typ, n := protowire.ConsumeTag(bin)
		require.GreaterOrEqual(t, n, 0)
		bin = bin[n:]
		m := protowire.ConsumeFieldValue(num, typ, bin)
		require.GreaterOrEqual(t, m, 0)
		bin = bin[m:]
		assert.Equal(t, protowire.Number(1), num)
		records++
	}
	assert.Equal(t, 2, records)

	csvData, err := os.ReadFile(filepath.Join(target.TargetDir, "Weapon.csv"))
	require.NoError(t, err)
	assert.Equal(t, "1,Sword\n3,Axe\n", string(csvData))
}

func TestExportCancelled(t *testing.T) {
	dir := writeWorkspace(t)
	var logs bytes.Buffer
	ctx, cancel := context.WithCancel(quietContext(&logs))

	ws, err := LoadWorkspace(ctx, dir)
	require.NoError(t, err)
	cancel()

	report, err := (&Exporter{}).Export(ctx, ws, testTarget(dir))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Failed)
}

func TestImportMissingFile(t *testing.T) {
	_, err := Import(context.Background(), filepath.Join(t.TempDir(), "none.xlsx"), models.RowRecords, t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrFileNotFound)
}
