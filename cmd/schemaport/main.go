// Command schemaport converts SQL Server table scripts to PostgreSQL DDL.
package main

import (
	"os"

	"github.com/schemaport-labs/schemaport/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
