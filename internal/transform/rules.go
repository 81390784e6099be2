package transform

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/schemaport-labs/schemaport/pkg/tsql"
)

// argPolicy controls how a type rule handles source type arguments.
type argPolicy int

const (
	argDrop argPolicy = iota // drop arguments: INT(...) -> INTEGER
	argKeep                  // copy arguments: DECIMAL(10,2) -> NUMERIC(10,2)
	argSize                  // size argument, MAX switches target: NVARCHAR(MAX) -> TEXT
	argPrec                  // fractional-seconds precision, clamped to 6
)

// maxTimestampPrecision is PostgreSQL's fractional-seconds ceiling; T-SQL
// allows 7.
const maxTimestampPrecision = 6

// typeRule is one entry of the declarative type-mapping table.
type typeRule struct {
	target    string
	policy    argPolicy
	maxTarget string // target used when the size argument is MAX
	geography bool   // sets the "uses geography" report flag
}

// typeRules maps uppercase T-SQL type names to their PostgreSQL
// translation. Types absent from this table pass through unchanged and
// raise a review warning; they are never dropped.
var typeRules = map[string]typeRule{
	"INT":              {target: "INTEGER", policy: argDrop},
	"BIGINT":           {target: "BIGINT", policy: argDrop},
	"SMALLINT":         {target: "SMALLINT", policy: argDrop},
	"TINYINT":          {target: "SMALLINT", policy: argDrop},
	"BIT":              {target: "BOOLEAN", policy: argDrop},
	"DECIMAL":          {target: "NUMERIC", policy: argKeep},
	"NUMERIC":          {target: "NUMERIC", policy: argKeep},
	"MONEY":            {target: "NUMERIC(19,4)", policy: argDrop},
	"SMALLMONEY":       {target: "NUMERIC(10,4)", policy: argDrop},
	"FLOAT":            {target: "DOUBLE PRECISION", policy: argDrop},
	"REAL":             {target: "REAL", policy: argDrop},
	"NVARCHAR":         {target: "VARCHAR", policy: argSize, maxTarget: "TEXT"},
	"VARCHAR":          {target: "VARCHAR", policy: argSize, maxTarget: "TEXT"},
	"NCHAR":            {target: "CHAR", policy: argKeep},
	"CHAR":             {target: "CHAR", policy: argKeep},
	"NTEXT":            {target: "TEXT", policy: argDrop},
	"TEXT":             {target: "TEXT", policy: argDrop},
	"VARBINARY":        {target: "BYTEA", policy: argDrop},
	"BINARY":           {target: "BYTEA", policy: argDrop},
	"IMAGE":            {target: "BYTEA", policy: argDrop},
	"DATE":             {target: "DATE", policy: argDrop},
	"DATETIME":         {target: "TIMESTAMP", policy: argDrop},
	"SMALLDATETIME":    {target: "TIMESTAMP(0)", policy: argDrop},
	"DATETIME2":        {target: "TIMESTAMP", policy: argPrec},
	"DATETIMEOFFSET":   {target: "TIMESTAMPTZ", policy: argPrec},
	"TIME":             {target: "TIME", policy: argPrec},
	"UNIQUEIDENTIFIER": {target: "UUID", policy: argDrop},
	"GEOGRAPHY":        {target: "geography", policy: argDrop, geography: true},
	"SYS.GEOGRAPHY":    {target: "geography", policy: argDrop, geography: true},
}

// TypeMapping is one row of the type table in display form.
type TypeMapping struct {
	Source string
	Target string
	Note   string
}

// TypeMappings returns the type table sorted by source name.
func TypeMappings() []TypeMapping {
	mappings := make([]TypeMapping, 0, len(typeRules))
	for source, rule := range typeRules {
		m := TypeMapping{Source: source, Target: rule.target}
		switch rule.policy {
		case argKeep:
			m.Note = "arguments copied"
		case argSize:
			m.Note = "size copied, MAX becomes " + rule.maxTarget
		case argPrec:
			m.Note = "precision clamped to 6"
		}
		if rule.geography {
			m.Note = "requires the postgis extension"
		}
		mappings = append(mappings, m)
	}
	sort.Slice(mappings, func(i, j int) bool {
		return mappings[i].Source < mappings[j].Source
	})
	return mappings
}

// mapType translates a source type reference. Returns the rendered target
// type, whether a geography flag fired, and whether the type was mapped at
// all. Unmapped types render as written.
func mapType(t tsql.TypeRef) (rendered string, geography, mapped bool) {
	rule, ok := typeRules[strings.ToUpper(t.Name)]
	if !ok {
		return renderSourceType(t), false, false
	}

	switch rule.policy {
	case argKeep:
		if len(t.Args) > 0 {
			return rule.target + "(" + strings.Join(t.Args, ",") + ")", rule.geography, true
		}
		return rule.target, rule.geography, true
	case argSize:
		if len(t.Args) == 1 {
			if strings.EqualFold(t.Args[0], "max") {
				return rule.maxTarget, rule.geography, true
			}
			return rule.target + "(" + t.Args[0] + ")", rule.geography, true
		}
		return rule.target, rule.geography, true
	case argPrec:
		// T-SQL defaults to precision 7; PostgreSQL tops out at 6.
		prec := maxTimestampPrecision
		if len(t.Args) == 1 {
			if n, err := strconv.Atoi(t.Args[0]); err == nil && n < maxTimestampPrecision {
				prec = n
			}
		}
		return rule.target + "(" + strconv.Itoa(prec) + ")", rule.geography, true
	default:
		return rule.target, rule.geography, true
	}
}

// renderSourceType renders a type reference as written, for passthrough.
func renderSourceType(t tsql.TypeRef) string {
	if len(t.Args) == 0 {
		return t.Name
	}
	return t.Name + "(" + strings.Join(t.Args, ",") + ")"
}

// timestampFuncs are source functions that rewrite to the target dialect's
// current-timestamp literal.
var timestampFuncs = map[string]bool{
	"getdate":           true,
	"getutcdate":        true,
	"sysdatetime":       true,
	"sysutcdatetime":    true,
	"current_timestamp": true,
}

// functionDefaults maps other recognized default functions to target
// expressions. Functions absent from both tables pass through verbatim
// with a review warning.
var functionDefaults = map[string]string{
	"newid":           "gen_random_uuid()",
	"newsequentialid": "gen_random_uuid()",
}

// currentTimestampLiteral is the target dialect's current-timestamp form.
const currentTimestampLiteral = "CURRENT_TIMESTAMP"

// snakeCase converts a PascalCase/camelCase identifier to snake_case.
// Runs of capitals stay together: "OrderID" -> "order_id",
// "HTTPStatus" -> "http_status".
func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if i > 0 && (prevLower || (nextLower && runes[i-1] != '_')) && b.Len() > 0 {
				if lastByte(&b) != '_' {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func lastByte(b *strings.Builder) byte {
	s := b.String()
	if s == "" {
		return 0
	}
	return s[len(s)-1]
}

// stripBrackets removes bracket quoting from identifiers embedded in a raw
// expression while leaving string literal contents untouched. CHECK bodies
// and literal defaults carry source text; this keeps them portable without
// reinterpreting them.
// normalizeLiteral drops the national string prefix: N'x' becomes 'x'.
// The target dialect has no N prefix; string contents are untouched.
func normalizeLiteral(expr string) string {
	if len(expr) >= 3 && (expr[0] == 'N' || expr[0] == 'n') && expr[1] == '\'' && expr[len(expr)-1] == '\'' {
		return expr[1:]
	}
	return expr
}

func stripBrackets(expr string) string {
	var b strings.Builder
	inString := false
	for i := 0; i < len(expr); i++ {
		ch := expr[i]
		switch {
		case ch == '\'':
			inString = !inString
			b.WriteByte(ch)
		case (ch == '[' || ch == ']') && !inString:
			// drop
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
