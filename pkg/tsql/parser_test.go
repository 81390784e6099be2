package tsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, src string) Statement {
	t.Helper()
	stmts, errs := Parse(src)
	require.Empty(t, errs)
	require.Len(t, stmts, 1)
	return stmts[0]
}

func TestParseCreateTable(t *testing.T) {
	src := `CREATE TABLE [Sales].[Orders] (
    [OrderID] INT IDENTITY(1,1) NOT NULL,
    [CustomerID] INT NOT NULL,
    [OrderDate] DATETIME2(7) NOT NULL CONSTRAINT [DF_Orders_OrderDate] DEFAULT (getdate()),
    [Total] MONEY NULL,
    CONSTRAINT [PK_Orders] PRIMARY KEY CLUSTERED ([OrderID] ASC),
    CONSTRAINT [FK_Orders_Customers] FOREIGN KEY ([CustomerID]) REFERENCES [Sales].[Customers] ([CustomerID])
) ON [PRIMARY];`

	stmt, ok := parseOne(t, src).(*CreateTableStmt)
	require.True(t, ok)

	assert.Equal(t, "Sales", stmt.Name.Schema)
	assert.Equal(t, "Orders", stmt.Name.Name)
	assert.Equal(t, "PRIMARY", stmt.FileGroup)

	require.Len(t, stmt.Columns, 4)

	id := stmt.Columns[0]
	assert.Equal(t, "OrderID", id.Name)
	assert.Equal(t, "INT", id.Type.Name)
	assert.True(t, id.NotNull)
	require.NotNil(t, id.Identity)
	assert.Equal(t, "1", id.Identity.Seed)
	assert.Equal(t, "1", id.Identity.Increment)

	date := stmt.Columns[2]
	assert.Equal(t, "OrderDate", date.Name)
	assert.Equal(t, []string{"7"}, date.Type.Args)
	assert.Equal(t, "DF_Orders_OrderDate", date.DefaultName)
	require.NotNil(t, date.Default)
	assert.Equal(t, DefaultFunction, date.Default.Kind)
	assert.Equal(t, "getdate", date.Default.Func)

	total := stmt.Columns[3]
	assert.True(t, total.ExplicitNull)
	assert.False(t, total.NotNull)

	require.Len(t, stmt.Constraints, 2)

	pk := stmt.Constraints[0]
	assert.Equal(t, PrimaryKey, pk.Kind)
	assert.Equal(t, "PK_Orders", pk.Name)
	assert.Equal(t, Clustered, pk.Cluster)
	require.Len(t, pk.Columns, 1)
	assert.Equal(t, "OrderID", pk.Columns[0].Name)

	fk := stmt.Constraints[1]
	assert.Equal(t, ForeignKey, fk.Kind)
	assert.Equal(t, "Customers", fk.RefTable.Name)
	assert.Equal(t, []string{"CustomerID"}, fk.RefColumns)
}

func TestParseColumnNamePreservesCase(t *testing.T) {
	stmt := parseOne(t, `CREATE TABLE t ([OrderID] INT, [order id] INT)`).(*CreateTableStmt)
	assert.Equal(t, "OrderID", stmt.Columns[0].Name)
	assert.Equal(t, "order id", stmt.Columns[1].Name)
}

func TestParseDefaultUnwrapsParens(t *testing.T) {
	stmt := parseOne(t, `CREATE TABLE t (a INT DEFAULT ((0)), b INT DEFAULT (NEXT VALUE FOR [Seq].[OrderID]))`).(*CreateTableStmt)

	a := stmt.Columns[0].Default
	require.NotNil(t, a)
	assert.Equal(t, DefaultLiteral, a.Kind)
	assert.Equal(t, "0", a.Text)

	b := stmt.Columns[1].Default
	require.NotNil(t, b)
	assert.Equal(t, DefaultNextValue, b.Kind)
	assert.Equal(t, "Seq", b.Sequence.Schema)
	assert.Equal(t, "OrderID", b.Sequence.Name)
}

func TestParseTemporalTable(t *testing.T) {
	src := `CREATE TABLE dbo.Products (
    ProductID INT NOT NULL,
    ValidFrom DATETIME2(7) GENERATED ALWAYS AS ROW START HIDDEN NOT NULL,
    ValidTo DATETIME2(7) GENERATED ALWAYS AS ROW END HIDDEN NOT NULL,
    PERIOD FOR SYSTEM_TIME (ValidFrom, ValidTo)
) WITH (SYSTEM_VERSIONING = ON (HISTORY_TABLE = dbo.ProductsHistory));`

	stmt := parseOne(t, src).(*CreateTableStmt)

	require.NotNil(t, stmt.Period)
	assert.Equal(t, "ValidFrom", stmt.Period.StartColumn)
	assert.Equal(t, "ValidTo", stmt.Period.EndColumn)

	assert.Equal(t, GeneratedRowStart, stmt.Columns[1].Generated)
	assert.True(t, stmt.Columns[1].Hidden)
	assert.Equal(t, GeneratedRowEnd, stmt.Columns[2].Generated)

	require.Len(t, stmt.Options, 1)
	assert.Equal(t, "SYSTEM_VERSIONING", stmt.Options[0].Name)
}

func TestParseUnknownColumnClauseKeptRaw(t *testing.T) {
	stmt := parseOne(t, `CREATE TABLE t (a NVARCHAR(50) COLLATE Latin1_General_CI_AS NOT NULL)`).(*CreateTableStmt)

	col := stmt.Columns[0]
	assert.True(t, col.NotNull)
	assert.Contains(t, col.Trailing, "COLLATE")
	assert.Contains(t, col.Trailing, "Latin1_General_CI_AS")
}

func TestParseCreateSequence(t *testing.T) {
	src := `CREATE SEQUENCE [Sequences].[OrderID] AS BIGINT START WITH 1000 INCREMENT BY 1 MINVALUE 1 CACHE 50;`

	stmt := parseOne(t, src).(*CreateSequenceStmt)
	assert.Equal(t, "Sequences", stmt.Name.Schema)
	assert.Equal(t, "OrderID", stmt.Name.Name)
	assert.Equal(t, "BIGINT", stmt.AsType.Name)
	assert.Equal(t, "1000", stmt.StartWith)
	assert.Equal(t, "1", stmt.IncrementBy)
	assert.Equal(t, "1", stmt.MinValue)
	assert.Equal(t, "50", stmt.Cache)
}

func TestParseCreateSequenceNegativeBounds(t *testing.T) {
	stmt := parseOne(t, `CREATE SEQUENCE s START WITH -10 MINVALUE -100 NO MAXVALUE`).(*CreateSequenceStmt)
	assert.Equal(t, "-10", stmt.StartWith)
	assert.Equal(t, "-100", stmt.MinValue)
	assert.True(t, stmt.NoMaxValue)
}

func TestParseCreateIndex(t *testing.T) {
	src := `CREATE UNIQUE NONCLUSTERED INDEX [IX_Orders_CustomerID]
ON [Sales].[Orders] ([CustomerID] ASC, [OrderDate] DESC)
INCLUDE ([Total]) WITH (PAD_INDEX = OFF, FILLFACTOR = 90) ON [PRIMARY];`

	stmt := parseOne(t, src).(*CreateIndexStmt)
	assert.Equal(t, "IX_Orders_CustomerID", stmt.Name)
	assert.True(t, stmt.Unique)
	assert.Equal(t, NonClustered, stmt.Cluster)
	assert.Equal(t, "Sales", stmt.Table.Schema)
	assert.Equal(t, "Orders", stmt.Table.Name)
	require.Len(t, stmt.Columns, 2)
	assert.False(t, stmt.Columns[0].Desc)
	assert.True(t, stmt.Columns[1].Desc)
	assert.Equal(t, []string{"Total"}, stmt.Include)
	assert.Contains(t, stmt.Options, "FILLFACTOR = 90")
}

func TestParseColumnstoreIndex(t *testing.T) {
	stmt := parseOne(t, `CREATE CLUSTERED COLUMNSTORE INDEX [CCI_Orders] ON [Sales].[Orders];`).(*CreateIndexStmt)
	assert.True(t, stmt.Columnstore)
	assert.Equal(t, Clustered, stmt.Cluster)
	assert.Empty(t, stmt.Columns)
}

func TestParseExtendedProperty(t *testing.T) {
	src := `EXEC sys.sp_addextendedproperty
    @name = N'MS_Description', @value = N'Customer orders',
    @level0type = N'SCHEMA', @level0name = N'Sales',
    @level1type = N'TABLE', @level1name = N'Orders',
    @level2type = N'COLUMN', @level2name = N'OrderID';`

	stmt := parseOne(t, src).(*ExtendedPropertyStmt)
	assert.Equal(t, "MS_Description", stmt.PropName)
	assert.Equal(t, "Customer orders", stmt.Value)
	assert.Equal(t, "SCHEMA", stmt.Level0Type)
	assert.Equal(t, "Sales", stmt.Level0Name)
	assert.Equal(t, "TABLE", stmt.Level1Type)
	assert.Equal(t, "Orders", stmt.Level1Name)
	assert.Equal(t, "COLUMN", stmt.Level2Type)
	assert.Equal(t, "OrderID", stmt.Level2Name)
}

func TestParseRawStatementKeepsText(t *testing.T) {
	src := "SET ANSI_NULLS ON\nGO\nCREATE TABLE t (a INT)\nGO"

	stmts, errs := Parse(src)
	require.Empty(t, errs)
	require.Len(t, stmts, 2)

	raw, ok := stmts[0].(*RawStatement)
	require.True(t, ok)
	assert.Equal(t, "SET ANSI_NULLS ON", raw.Text)

	_, ok = stmts[1].(*CreateTableStmt)
	assert.True(t, ok)
}

func TestParseErrorIsStatementScoped(t *testing.T) {
	// The malformed table fails; the following statement still parses.
	src := `CREATE TABLE broken (a INT,
GO
CREATE TABLE dbo.Good (b INT);`

	stmts, errs := Parse(src)
	require.Len(t, errs, 1)
	require.Len(t, stmts, 1)

	good, ok := stmts[0].(*CreateTableStmt)
	require.True(t, ok)
	assert.Equal(t, "Good", good.Name.Name)

	var perr *ParseError
	require.ErrorAs(t, errs[0], &perr)
	assert.True(t, perr.Pos.IsValid())
}

func TestParseMultipleStatements(t *testing.T) {
	src := `CREATE SEQUENCE s START WITH 1;
CREATE TABLE t (a INT DEFAULT (NEXT VALUE FOR s));
CREATE INDEX ix ON t (a);`

	stmts, errs := Parse(src)
	require.Empty(t, errs)
	require.Len(t, stmts, 3)
	assert.IsType(t, &CreateSequenceStmt{}, stmts[0])
	assert.IsType(t, &CreateTableStmt{}, stmts[1])
	assert.IsType(t, &CreateIndexStmt{}, stmts[2])
}

func TestParseObjectNameDropsDatabase(t *testing.T) {
	stmt := parseOne(t, `CREATE TABLE [MyDb].[Sales].[Orders] (a INT)`).(*CreateTableStmt)
	assert.Equal(t, "Sales", stmt.Name.Schema)
	assert.Equal(t, "Orders", stmt.Name.Name)
}

func TestParseCheckConstraint(t *testing.T) {
	stmt := parseOne(t, `CREATE TABLE t (a INT, CONSTRAINT ck CHECK ([a] > (0) AND [a] < (100)))`).(*CreateTableStmt)
	require.Len(t, stmt.Constraints, 1)
	c := stmt.Constraints[0]
	assert.Equal(t, Check, c.Kind)
	assert.Contains(t, c.CheckExpr, "[a] > (0)")
}

func TestParseForeignKeyActions(t *testing.T) {
	src := `CREATE TABLE t (a INT,
CONSTRAINT fk FOREIGN KEY (a) REFERENCES p (id) ON DELETE CASCADE ON UPDATE NO ACTION)`

	stmt := parseOne(t, src).(*CreateTableStmt)
	fk := stmt.Constraints[0]
	assert.Equal(t, "CASCADE", fk.OnDelete)
	assert.Equal(t, "NO ACTION", fk.OnUpdate)
}

func TestParseInlinePrimaryKeyConstraint(t *testing.T) {
	src := `CREATE TABLE [dbo].[T] (
    [ID] INT NOT NULL CONSTRAINT [PK_T] PRIMARY KEY CLUSTERED,
    [Name] NVARCHAR(50) NOT NULL
);`
	stmt, ok := parseOne(t, src).(*CreateTableStmt)
	require.True(t, ok)
	require.Len(t, stmt.Columns, 2)

	id := stmt.Columns[0]
	assert.True(t, id.NotNull)
	require.Len(t, id.Inline, 1)

	pk := id.Inline[0]
	assert.Equal(t, PrimaryKey, pk.Kind)
	assert.Equal(t, "PK_T", pk.Name)
	assert.Equal(t, Clustered, pk.Cluster)
	assert.Equal(t, []IndexColumn{{Name: "ID"}}, pk.Columns)
}

func TestParseInlineUniqueAndCheck(t *testing.T) {
	src := `CREATE TABLE dbo.Products (
    Sku NVARCHAR(40) NOT NULL UNIQUE,
    Price MONEY NOT NULL CONSTRAINT CK_Products_Price CHECK (Price > 0)
);`
	stmt, ok := parseOne(t, src).(*CreateTableStmt)
	require.True(t, ok)

	sku := stmt.Columns[0]
	require.Len(t, sku.Inline, 1)
	assert.Equal(t, Unique, sku.Inline[0].Kind)
	assert.Empty(t, sku.Inline[0].Name)
	assert.Equal(t, []IndexColumn{{Name: "Sku"}}, sku.Inline[0].Columns)

	price := stmt.Columns[1]
	require.Len(t, price.Inline, 1)
	ck := price.Inline[0]
	assert.Equal(t, Check, ck.Kind)
	assert.Equal(t, "CK_Products_Price", ck.Name)
	assert.Equal(t, "Price > 0", ck.CheckExpr)
}

func TestParseInlineForeignKey(t *testing.T) {
	src := `CREATE TABLE dbo.Orders (
    OrderID INT NOT NULL,
    CustomerID INT NOT NULL FOREIGN KEY REFERENCES dbo.Customers (CustomerID) ON DELETE CASCADE,
    RegionID INT NULL REFERENCES dbo.Regions
);`
	stmt, ok := parseOne(t, src).(*CreateTableStmt)
	require.True(t, ok)

	cust := stmt.Columns[1]
	require.Len(t, cust.Inline, 1)
	fk := cust.Inline[0]
	assert.Equal(t, ForeignKey, fk.Kind)
	assert.Equal(t, []IndexColumn{{Name: "CustomerID"}}, fk.Columns)
	assert.Equal(t, "Customers", fk.RefTable.Name)
	assert.Equal(t, []string{"CustomerID"}, fk.RefColumns)
	assert.Equal(t, "CASCADE", fk.OnDelete)

	region := stmt.Columns[2]
	require.Len(t, region.Inline, 1)
	assert.Equal(t, ForeignKey, region.Inline[0].Kind)
	assert.Equal(t, "Regions", region.Inline[0].RefTable.Name)
	assert.Empty(t, region.Inline[0].RefColumns)
}

func TestParseGeneratedByDefaultIdentity(t *testing.T) {
	src := `CREATE TABLE dbo.T (ID INTEGER GENERATED BY DEFAULT AS IDENTITY NOT NULL);`
	stmt, ok := parseOne(t, src).(*CreateTableStmt)
	require.True(t, ok)

	id := stmt.Columns[0]
	require.NotNil(t, id.Identity)
	assert.True(t, id.NotNull)
	assert.Equal(t, GeneratedNone, id.Generated)
}

func TestParseTextImagePlacement(t *testing.T) {
	src := `CREATE TABLE dbo.Docs (Body NVARCHAR(MAX)) ON [PRIMARY] TEXTIMAGE_ON [PRIMARY];`
	stmt, ok := parseOne(t, src).(*CreateTableStmt)
	require.True(t, ok)

	assert.Equal(t, "PRIMARY", stmt.FileGroup)
	assert.Equal(t, "PRIMARY", stmt.TextImageFG)
}

func TestParseExtendedPropertyKeepsText(t *testing.T) {
	src := `EXEC sp_addextendedproperty @name = N'MS_Description', @value = N'Order view',
    @level0type = N'SCHEMA', @level0name = N'dbo',
    @level1type = N'VIEW', @level1name = N'OrdersView';`
	stmt, ok := parseOne(t, src).(*ExtendedPropertyStmt)
	require.True(t, ok)

	assert.Equal(t, "VIEW", stmt.Level1Type)
	assert.Contains(t, stmt.Text, "sp_addextendedproperty")
	assert.Contains(t, stmt.Text, "N'Order view'")
	assert.Contains(t, stmt.Text, "@level1name = N'OrdersView'")
}
