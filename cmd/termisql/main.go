// termisql is a read-only terminal browser for SQLite, MySQL, MariaDB and
// PostgreSQL databases.
package main

import (
	"os"

	"github.com/Ellen-desu/termisql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
