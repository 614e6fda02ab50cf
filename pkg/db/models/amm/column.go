package amm

import (
	"fmt"
	"strings"
)

// ColumnDef defines a single column of a mirrored ClickHouse table.
type ColumnDef struct {
	// Name is the column name in the table
	Name string

	// Type is the ClickHouse data type (e.g., "String", "Decimal(76, 18)", "DateTime64(3, 'UTC')")
	Type string

	// Codec is the optional compression codec (e.g., "ZSTD(1)")
	Codec string
}

// SQL returns the full column definition for CREATE TABLE statements.
func (c ColumnDef) SQL() string {
	if c.Codec != "" {
		return fmt.Sprintf("%s %s CODEC(%s)", c.Name, c.Type, c.Codec)
	}
	return fmt.Sprintf("%s %s", c.Name, c.Type)
}

// ColumnsToSchemaSQL converts a list of ColumnDef to a CREATE TABLE schema string.
func ColumnsToSchemaSQL(columns []ColumnDef) string {
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, col.SQL())
	}
	return strings.Join(parts, ",\n\t\t\t")
}

// ColumnsToNameList extracts the column names, in order, for INSERT statements.
func ColumnsToNameList(columns []ColumnDef) []string {
	names := make([]string, 0, len(columns))
	for _, col := range columns {
		names = append(names, col.Name)
	}
	return names
}

// AmountType is the ClickHouse type used for every decimalized token amount.
const AmountType = "Decimal(76, 18)"
