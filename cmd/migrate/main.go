package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"photofilter/internal/infra"
)

func main() {
	_ = godotenv.Load()

	var (
		dsnFlag    string
		sqliteFlag string
		printFlag  bool
	)
	flag.StringVar(&dsnFlag, "dsn", "", "postgres connection string (fallbacks to DATABASE_URL)")
	flag.StringVar(&sqliteFlag, "sqlite", "", "sqlite file to initialise instead of postgres")
	flag.BoolVar(&printFlag, "print", false, "print the postgres schema and exit")
	flag.Parse()

	if printFlag {
		fmt.Print(infra.SchemaPostgres)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if path := strings.TrimSpace(sqliteFlag); path != "" {
		db, err := infra.OpenSQLite(ctx, path)
		if err != nil {
			exitWithError(err)
		}
		_ = db.Close()
		fmt.Printf("sqlite schema applied to %s\n", path)
		return
	}

	dsn := strings.TrimSpace(dsnFlag)
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		exitWithError(errors.New("DATABASE_URL or -dsn is required"))
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		exitWithError(fmt.Errorf("open database: %w", err))
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		exitWithError(fmt.Errorf("ping database: %w", err))
	}
	if _, err := db.ExecContext(ctx, infra.SchemaPostgres); err != nil {
		exitWithError(fmt.Errorf("apply schema: %w", err))
	}
	fmt.Println("postgres schema applied")
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
