package worker

import (
	// Register the database drivers the sql subscriber can open.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)
