package transform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaport-labs/schemaport/internal/depgraph"
	"github.com/schemaport-labs/schemaport/pkg/pgsql"
	"github.com/schemaport-labs/schemaport/pkg/tsql"
)

func transformSource(t *testing.T, src string) []*Unit {
	t.Helper()
	stmts, errs := tsql.Parse(src)
	require.Empty(t, errs)
	units, err := Transform(stmts)
	require.NoError(t, err)
	return units
}

func hasTag(unit *Unit, tag RuleTag) bool {
	for _, r := range unit.Rules {
		if r.Tag == tag {
			return true
		}
	}
	return false
}

func TestTransformBasicTable(t *testing.T) {
	units := transformSource(t, `CREATE TABLE [Sales].[Orders] (
    [OrderID] INT IDENTITY(1,1) NOT NULL,
    [Notes] NVARCHAR(MAX) NULL,
    CONSTRAINT [PK_Orders] PRIMARY KEY CLUSTERED ([OrderID])
);`)

	require.Len(t, units, 1)
	unit := units[0]

	assert.Equal(t, depgraph.ObjectKey{Schema: "sales", Table: "orders"}, unit.Key)
	assert.Equal(t, []string{"sales"}, unit.File.Schemas)

	table := unit.File.Table
	require.NotNil(t, table)
	require.Len(t, table.Columns, 2)

	id := table.Columns[0]
	assert.Equal(t, "OrderID", id.Name, "column names keep source casing")
	assert.Contains(t, id.Type, "INTEGER")
	assert.Contains(t, id.Type, "GENERATED BY DEFAULT AS IDENTITY")
	assert.True(t, id.NotNull)

	notes := table.Columns[1]
	assert.Equal(t, "TEXT", notes.Type)
	assert.False(t, notes.NotNull)

	require.Len(t, table.Constraints, 1)
	assert.Equal(t, "PK_Orders", table.Constraints[0].Name)

	assert.True(t, hasTag(unit, TagIdentityRewritten))
	assert.True(t, hasTag(unit, TagClusterDropped))
	assert.True(t, hasTag(unit, TagTypeMapped))
}

func TestTransformSequenceDefault(t *testing.T) {
	units := transformSource(t, `CREATE SEQUENCE [Sequences].[OrderID] START WITH 1000 INCREMENT BY 1;
CREATE TABLE dbo.Orders (
    ID BIGINT NOT NULL DEFAULT (NEXT VALUE FOR [Sequences].[OrderID]),
    Alt BIGINT NULL DEFAULT (NEXT VALUE FOR [Sequences].[OrderID])
);`)

	require.Len(t, units, 1)
	unit := units[0]

	// Two references, one declaration.
	require.Len(t, unit.File.Sequences, 1)
	seq := unit.File.Sequences[0]
	assert.Equal(t, "sequences", seq.Schema)
	assert.Equal(t, "order_id", seq.Name, "sequence names are snake-cased")
	assert.Equal(t, "1000", seq.StartWith)
	assert.False(t, seq.BestEffort)

	assert.Equal(t, "nextval('sequences.order_id')", unit.File.Table.Columns[0].Default)
	assert.Contains(t, unit.File.Schemas, "sequences")
	assert.True(t, hasTag(unit, TagSequenceDefault))
	assert.False(t, hasTag(unit, TagMissingSequence))
}

func TestTransformMissingSequenceBestEffort(t *testing.T) {
	units := transformSource(t, `CREATE TABLE dbo.T (
    ID BIGINT DEFAULT (NEXT VALUE FOR [Sequences].[InvoiceNumber])
);`)

	unit := units[0]
	require.Len(t, unit.File.Sequences, 1)
	assert.True(t, unit.File.Sequences[0].BestEffort)
	assert.Equal(t, "invoice_number", unit.File.Sequences[0].Name)
	assert.True(t, hasTag(unit, TagMissingSequence))
}

func TestTransformTimestampDefaults(t *testing.T) {
	units := transformSource(t, `CREATE TABLE dbo.T (
    CreatedAt DATETIME2(7) NOT NULL DEFAULT (getdate()),
    RowGuid UNIQUEIDENTIFIER DEFAULT (newid()),
    Magic INT DEFAULT (dbo_special())
);`)

	unit := units[0]
	cols := unit.File.Table.Columns

	assert.Equal(t, "CURRENT_TIMESTAMP", cols[0].Default)
	assert.Equal(t, "gen_random_uuid()", cols[1].Default)
	assert.Equal(t, "dbo_special()", cols[2].Default, "unknown functions pass through")

	assert.True(t, hasTag(unit, TagTimestampDefault))
	assert.True(t, hasTag(unit, TagFunctionDefault))
	assert.True(t, hasTag(unit, TagNeedsReview))
}

func TestTransformTemporalTable(t *testing.T) {
	units := transformSource(t, `CREATE TABLE dbo.Products (
    ProductID INT NOT NULL,
    ValidFrom DATETIME2(7) GENERATED ALWAYS AS ROW START HIDDEN NOT NULL,
    ValidTo DATETIME2(7) GENERATED ALWAYS AS ROW END HIDDEN NOT NULL,
    PERIOD FOR SYSTEM_TIME (ValidFrom, ValidTo)
) WITH (SYSTEM_VERSIONING = ON);`)

	unit := units[0]
	cols := unit.File.Table.Columns
	require.Len(t, cols, 3, "period columns stay at their ordinals")

	for _, i := range []int{1, 2} {
		assert.Equal(t, "TIMESTAMP(6)", cols[i].Type)
		assert.True(t, cols[i].NotNull)
		assert.Equal(t, "CURRENT_TIMESTAMP", cols[i].Default)
	}
	assert.True(t, hasTag(unit, TagTemporalDropped))
}

func TestTransformForeignKeyEdges(t *testing.T) {
	units := transformSource(t, `CREATE TABLE [Sales].[Orders] (
    OrderID INT NOT NULL,
    CustomerID INT NOT NULL,
    BillingID INT NULL,
    ParentOrderID INT NULL,
    CONSTRAINT fk1 FOREIGN KEY (CustomerID) REFERENCES [Sales].[Customers] (CustomerID),
    CONSTRAINT fk2 FOREIGN KEY (BillingID) REFERENCES [Sales].[Customers] (CustomerID),
    CONSTRAINT fk3 FOREIGN KEY (ParentOrderID) REFERENCES [Sales].[Orders] (OrderID)
);`)

	unit := units[0]
	edges := unit.Edges.Edges()
	require.Len(t, edges, 2, "edges to the same target merge")

	external := unit.Edges.External()
	require.Len(t, external, 1, "self references are excluded from external edges")
	assert.Equal(t, depgraph.ObjectKey{Schema: "sales", Table: "customers"}, external[0].To)
	assert.Equal(t, []string{"CustomerID", "BillingID"}, external[0].Columns, "columns union in first-seen order")

	var self *depgraph.Edge
	for _, e := range edges {
		if e.SelfRef {
			self = e
		}
	}
	require.NotNil(t, self, "self reference is recorded")
}

func TestTransformColumnstoreIndexOmitted(t *testing.T) {
	units := transformSource(t, `CREATE TABLE dbo.Facts (A INT);
CREATE CLUSTERED COLUMNSTORE INDEX CCI_Facts ON dbo.Facts;
CREATE NONCLUSTERED INDEX IX_A ON dbo.Facts (A DESC);`)

	unit := units[0]
	require.Len(t, unit.File.Indexes, 1, "columnstore produces no index node")
	assert.Equal(t, "IX_A", unit.File.Indexes[0].Name)
	assert.True(t, unit.File.Indexes[0].Columns[0].Desc)

	assert.True(t, hasTag(unit, TagColumnstoreOmit))
	require.NotEmpty(t, unit.File.Omissions)
	assert.Contains(t, unit.File.Omissions[0], "CCI_Facts")
}

func TestTransformExtendedProperties(t *testing.T) {
	units := transformSource(t, `CREATE TABLE [Sales].[Orders] (OrderID INT, Total MONEY);
EXEC sp_addextendedproperty @name = N'MS_Description', @value = N'All orders',
    @level0type = N'SCHEMA', @level0name = N'Sales',
    @level1type = N'TABLE', @level1name = N'Orders';
EXEC sp_addextendedproperty @name = N'MS_Description', @value = N'Grand total',
    @level0type = N'SCHEMA', @level0name = N'Sales',
    @level1type = N'TABLE', @level1name = N'Orders',
    @level2type = N'COLUMN', @level2name = N'Total';`)

	unit := units[0]
	require.Len(t, unit.File.Comments, 2)

	assert.Empty(t, unit.File.Comments[0].Column)
	assert.Equal(t, "All orders", unit.File.Comments[0].Text)

	assert.Equal(t, "Total", unit.File.Comments[1].Column)
	assert.Equal(t, 1, unit.File.Comments[1].Ordinal)
	assert.True(t, hasTag(unit, TagCommentMapped))
}

func TestTransformSessionSettingsOmitted(t *testing.T) {
	units := transformSource(t, "SET ANSI_NULLS ON\nGO\nSET QUOTED_IDENTIFIER ON\nGO\nCREATE TABLE dbo.T (A INT)\nGO")

	unit := units[0]
	require.Len(t, unit.File.Omissions, 2)
	assert.Contains(t, unit.File.Omissions[0], "ANSI_NULLS")
	assert.True(t, hasTag(unit, TagSettingDropped))
	assert.Empty(t, unit.File.Raws, "session settings are counted, not passed through")
}

func TestTransformUnknownStatementPassesThrough(t *testing.T) {
	units := transformSource(t, `CREATE TABLE dbo.T (A INT);
GRANT SELECT ON dbo.T TO app_user;`)

	unit := units[0]
	require.Len(t, unit.File.Raws, 1)
	assert.Contains(t, unit.File.Raws[0], "-- review:")
	assert.Contains(t, unit.File.Raws[0], "GRANT SELECT")
}

func TestTransformMultipleTables(t *testing.T) {
	units := transformSource(t, `SET ANSI_NULLS ON
GO
CREATE TABLE dbo.A (ID INT);
CREATE TABLE dbo.B (ID INT);
CREATE INDEX IX_B ON dbo.B (ID);`)

	require.Len(t, units, 2)
	assert.Equal(t, "a", units[0].Key.Table)
	assert.Equal(t, "b", units[1].Key.Table)

	assert.NotEmpty(t, units[0].File.Omissions, "preamble attaches to the first table")
	require.Len(t, units[1].File.Indexes, 1, "index attaches to its own table")
	assert.Empty(t, units[0].File.Indexes)
}

func TestTransformGeographyFlag(t *testing.T) {
	units := transformSource(t, `CREATE TABLE dbo.Sites (Location GEOGRAPHY NULL);`)
	assert.True(t, units[0].Flags.UsesGeography)
	assert.True(t, hasTag(units[0], TagUsesGeography))
}

func TestTransformNoTableFails(t *testing.T) {
	stmts, errs := tsql.Parse(`CREATE SEQUENCE s START WITH 1;`)
	require.Empty(t, errs)
	_, err := Transform(stmts)
	require.Error(t, err)
}

func TestTransformUnmappedTypePassesThrough(t *testing.T) {
	units := transformSource(t, `CREATE TABLE dbo.T (Doc XML NULL);`)
	unit := units[0]
	assert.Equal(t, "XML", unit.File.Table.Columns[0].Type)
	assert.True(t, hasTag(unit, TagTypeUnmapped))
}

func TestTransformDefaultConstraintUnwrapped(t *testing.T) {
	units := transformSource(t, `CREATE TABLE dbo.T (
    Status NVARCHAR(20) NOT NULL CONSTRAINT DF_T_Status DEFAULT (N'active')
);`)

	unit := units[0]
	assert.Equal(t, "'active'", unit.File.Table.Columns[0].Default)
	assert.True(t, hasTag(unit, TagDefaultUnwrapped))
}

func TestTransformInlineConstraintsPromoted(t *testing.T) {
	units := transformSource(t, `CREATE TABLE [dbo].[Products] (
    [ID] INT NOT NULL CONSTRAINT [PK_Products] PRIMARY KEY CLUSTERED,
    [CategoryID] INT NOT NULL REFERENCES [dbo].[Categories] ([CategoryID]),
    [Price] MONEY NOT NULL CHECK (Price > 0)
);`)

	unit := units[0]
	require.Len(t, unit.File.Table.Constraints, 3)

	pk := unit.File.Table.Constraints[0]
	assert.Equal(t, pgsql.PrimaryKey, pk.Kind)
	assert.Equal(t, "PK_Products", pk.Name)
	assert.Equal(t, []string{"ID"}, pk.Columns)

	fk := unit.File.Table.Constraints[1]
	assert.Equal(t, pgsql.ForeignKey, fk.Kind)
	assert.Equal(t, []string{"CategoryID"}, fk.Columns)
	assert.Equal(t, "categories", fk.RefTable)

	ck := unit.File.Table.Constraints[2]
	assert.Equal(t, pgsql.Check, ck.Kind)
	assert.Equal(t, "Price > 0", ck.CheckExpr)

	edges := unit.Edges.External()
	require.Len(t, edges, 1)
	assert.Equal(t, depgraph.NewObjectKey("dbo", "Categories"), edges[0].To)
	assert.Equal(t, []string{"CategoryID"}, edges[0].Columns)

	assert.True(t, hasTag(unit, TagClusterDropped))
}

func TestTransformTableOptionsReported(t *testing.T) {
	units := transformSource(t,
		`CREATE TABLE dbo.Facts (ID INT NOT NULL) WITH (DATA_COMPRESSION = PAGE);`)

	unit := units[0]
	assert.True(t, hasTag(unit, TagTableOptionDropped))

	var found bool
	for _, om := range unit.File.Omissions {
		if strings.Contains(om, "DATA_COMPRESSION = PAGE") {
			found = true
		}
	}
	assert.True(t, found, "dropped option must leave an omission comment, got %v", unit.File.Omissions)
}

func TestTransformStoragePlacementReported(t *testing.T) {
	units := transformSource(t,
		`CREATE TABLE dbo.Docs (Body NVARCHAR(MAX)) ON [PRIMARY] TEXTIMAGE_ON [PRIMARY];`)

	unit := units[0]
	assert.True(t, hasTag(unit, TagTableOptionDropped))

	joined := strings.Join(unit.File.Omissions, "\n")
	assert.Contains(t, joined, "filegroup placement ON PRIMARY")
	assert.Contains(t, joined, "TEXTIMAGE_ON PRIMARY")
}

func TestTransformSystemVersioningOptionConsumed(t *testing.T) {
	units := transformSource(t, `CREATE TABLE dbo.T (
    A INT NOT NULL
) WITH (SYSTEM_VERSIONING = ON);`)

	unit := units[0]
	assert.True(t, hasTag(unit, TagTemporalDropped))
	assert.False(t, hasTag(unit, TagTableOptionDropped),
		"the versioning option is consumed by the temporal rules, not dropped")
}

func TestTransformExtendedPropertyOtherLevelKeepsSource(t *testing.T) {
	units := transformSource(t, `CREATE TABLE dbo.T (A INT);
EXEC sp_addextendedproperty @name = N'MS_Description', @value = N'Order view',
    @level0type = N'SCHEMA', @level0name = N'dbo',
    @level1type = N'VIEW', @level1name = N'OrdersView';`)

	unit := units[0]
	require.Len(t, unit.File.Raws, 1)
	assert.Contains(t, unit.File.Raws[0], "-- review: extended property on VIEW level not translated")
	assert.Contains(t, unit.File.Raws[0], "sp_addextendedproperty")
	assert.Contains(t, unit.File.Raws[0], "N'Order view'")
}

func TestTransformRoundTrip(t *testing.T) {
	units := transformSource(t, `CREATE TABLE [dbo].[Orders] (
    [OrderID] INT IDENTITY(1,1) NOT NULL,
    [CustomerID] INT NOT NULL,
    [Status] NVARCHAR(20) NOT NULL DEFAULT N'new',
    [Total] DECIMAL(18,2) NULL,
    CONSTRAINT [PK_Orders] PRIMARY KEY ([OrderID]),
    CONSTRAINT [FK_Orders_Customers] FOREIGN KEY ([CustomerID]) REFERENCES [dbo].[Customers] ([CustomerID]),
    CONSTRAINT [CK_Orders_Total] CHECK ([Total] >= (0))
);
EXEC sp_addextendedproperty @name = N'MS_Description', @value = N'All orders',
    @level0type = N'SCHEMA', @level0name = N'dbo',
    @level1type = N'TABLE', @level1name = N'Orders';`)
	first := units[0]

	emitted := pgsql.Emit(first.File)
	stmts, errs := tsql.Parse(emitted)
	require.Empty(t, errs, "emitted output must re-parse cleanly:\n%s", emitted)

	again, err := Transform(stmts)
	require.NoError(t, err)
	require.Len(t, again, 1)
	second := again[0]

	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, first.File.Table.Columns, second.File.Table.Columns)
	assert.Equal(t, first.File.Table.Constraints, second.File.Table.Constraints)

	firstEdges := first.Edges.External()
	secondEdges := second.Edges.External()
	require.Len(t, secondEdges, len(firstEdges))
	assert.Equal(t, firstEdges[0].To, secondEdges[0].To)
	assert.Equal(t, firstEdges[0].Columns, secondEdges[0].Columns)

	// The schema declaration and metadata comment have no source-dialect
	// reading; they come back as verbatim passthroughs, not losses.
	joined := strings.Join(second.File.Raws, "\n")
	assert.Contains(t, joined, "CREATE SCHEMA IF NOT EXISTS dbo")
	assert.Contains(t, joined, "COMMENT ON TABLE dbo.orders IS 'All orders'")
	assert.Empty(t, second.File.Comments)
}
