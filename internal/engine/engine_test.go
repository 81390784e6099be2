package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaport-labs/schemaport/internal/depgraph"
	"github.com/schemaport-labs/schemaport/internal/tree"
)

const usersDDL = `CREATE TABLE [dbo].[Users] (
    [UserID] INT IDENTITY(1,1) NOT NULL,
    [Email] NVARCHAR(200) NOT NULL,
    CONSTRAINT [PK_Users] PRIMARY KEY CLUSTERED ([UserID])
);
GO
`

const ordersDDL = `CREATE TABLE [dbo].[Orders] (
    [OrderID] INT NOT NULL,
    [UserID] INT NOT NULL,
    CONSTRAINT [PK_Orders] PRIMARY KEY ([OrderID]),
    CONSTRAINT [FK_Orders_Users] FOREIGN KEY ([UserID]) REFERENCES [dbo].[Users] ([UserID])
);
GO
`

func testEngine(t *testing.T, dryRun bool) (*Engine, *tree.Layout) {
	t.Helper()
	layout := &tree.Layout{
		InputRoot:  filepath.Join(t.TempDir(), "source"),
		OutputRoot: filepath.Join(t.TempDir(), "converted"),
	}
	require.NoError(t, os.MkdirAll(layout.InputRoot, 0o755))
	return New(Options{Layout: layout, DryRun: dryRun}), layout
}

func writeInput(t *testing.T, layout *tree.Layout, schema, name, ddl string) string {
	t.Helper()
	path := layout.InputPath(schema, tree.KindTables, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(ddl), 0o644))
	return path
}

func TestConvertFileWritesOutputAndReport(t *testing.T) {
	e, layout := testEngine(t, false)
	path := writeInput(t, layout, "dbo", "Users", usersDDL)

	res, err := e.ConvertFile(context.Background(), path)
	require.NoError(t, err)
	require.False(t, res.Skipped())
	require.Len(t, res.Units, 1)

	unit := res.Units[0]
	assert.Equal(t, "dbo.users", unit.Key.String())

	sql, err := os.ReadFile(unit.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(sql), "CREATE TABLE dbo.users (")
	assert.Contains(t, string(sql), "GENERATED BY DEFAULT AS IDENTITY")
	assert.Equal(t, unit.SQL, string(sql))

	rep, err := os.ReadFile(unit.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(rep), "object: dbo.users")
}

func TestConvertFileDryRunWritesNothing(t *testing.T) {
	e, layout := testEngine(t, true)
	path := writeInput(t, layout, "dbo", "Users", usersDDL)

	res, err := e.ConvertFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, res.Units, 1)

	assert.NotEmpty(t, res.Units[0].SQL)
	_, err = os.Stat(res.Units[0].OutputPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(layout.OutputRoot)
	assert.True(t, os.IsNotExist(err))
}

func TestConvertFileUnresolvedDependency(t *testing.T) {
	e, layout := testEngine(t, false)
	path := writeInput(t, layout, "dbo", "Orders", ordersDDL)

	res, err := e.ConvertFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, res.Units, 1)

	rep := res.Units[0].Report
	require.Len(t, rep.Unresolved, 1)
	assert.Equal(t, "dbo.users", rep.Unresolved[0].Target)
	assert.Equal(t, []string{"UserID"}, rep.Unresolved[0].Columns)
}

func TestConvertFileResolvedAgainstExistingOutput(t *testing.T) {
	e, layout := testEngine(t, false)

	users := writeInput(t, layout, "dbo", "Users", usersDDL)
	_, err := e.ConvertFile(context.Background(), users)
	require.NoError(t, err)

	orders := writeInput(t, layout, "dbo", "Orders", ordersDDL)
	res, err := e.ConvertFile(context.Background(), orders)
	require.NoError(t, err)
	require.Len(t, res.Units, 1)
	assert.Empty(t, res.Units[0].Report.Unresolved)
}

func TestConvertFileSkipsOnParseError(t *testing.T) {
	e, layout := testEngine(t, false)
	path := writeInput(t, layout, "dbo", "Broken", "CREATE TABLE [dbo].[Broken] (\n    [ID] INT\n")

	res, err := e.ConvertFile(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, res.Skipped())
	assert.Empty(t, res.Units)

	_, err = os.Stat(layout.OutputRoot)
	assert.True(t, os.IsNotExist(err), "a skipped file must write nothing")
}

func TestConvertBatch(t *testing.T) {
	e, layout := testEngine(t, false)
	writeInput(t, layout, "dbo", "Users", usersDDL)
	writeInput(t, layout, "dbo", "Orders", ordersDDL)
	writeInput(t, layout, "dbo", "Broken", "CREATE TABLE nope (")

	batch, err := e.ConvertBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, batch.Converted)
	assert.Equal(t, 1, batch.Skipped)
	assert.Len(t, batch.Files, 3)

	for _, name := range []string{"users.sql", "orders.sql"} {
		_, err := os.Stat(filepath.Join(layout.OutputRoot, "dbo", name))
		assert.NoError(t, err)
	}
}

func TestConvertBatchCancelled(t *testing.T) {
	e, layout := testEngine(t, false)
	writeInput(t, layout, "dbo", "Users", usersDDL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ConvertBatch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteFileAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.sql")

	require.NoError(t, writeFileAtomic(path, []byte("SELECT 1;\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1;\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.sql", entries[0].Name())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestNoOutputWithoutReport(t *testing.T) {
	e, layout := testEngine(t, false)
	path := writeInput(t, layout, "dbo", "Users", usersDDL)
	key := depgraph.NewObjectKey("dbo", "users")

	// A directory squatting on the report path makes the report rename
	// fail; the DDL must not appear without its companion.
	require.NoError(t, os.MkdirAll(layout.ReportPath(key), 0o755))

	_, err := e.ConvertFile(context.Background(), path)
	require.Error(t, err)

	_, statErr := os.Stat(layout.OutputPath(key))
	assert.True(t, os.IsNotExist(statErr),
		"output existence signals converted state and may not precede the report")
	assert.False(t, layout.HasOutput(key))
}
