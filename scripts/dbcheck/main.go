// Command dbcheck connects to the configured database and reports which of
// the application tables exist and how many rows they hold.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"textile-store/internal/config"
	"textile-store/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, cfg.Database.ConnectionString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	var dbName, version string
	err = conn.QueryRow(ctx, "SELECT current_database(), version()").Scan(&dbName, &version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully connected to database: %s\n", dbName)
	fmt.Printf("Server: %s\n", version)

	fmt.Println("\nTables:")
	missing := 0
	for _, table := range database.Tables {
		var exists bool
		err := conn.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`,
			table,
		).Scan(&exists)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
		if !exists {
			missing++
			fmt.Printf("  - %-16s missing\n", table)
			continue
		}

		var rows int64
		if err := conn.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", table)).Scan(&rows); err != nil {
			fmt.Fprintf(os.Stderr, "Count failed for %s: %v\n", table, err)
			os.Exit(1)
		}
		fmt.Printf("  - %-16s %d rows\n", table, rows)
	}

	if missing > 0 {
		fmt.Println("\nStart the server once to create missing tables.")
		os.Exit(2)
	}
}
