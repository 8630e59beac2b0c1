// Command catalog checks achievement catalog files and seeds them into the
// database.
//
//	catalog lint <file>...
//	catalog seed [file]
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"codemaster/achievements"
	"codemaster/config"
	"codemaster/database"
	"codemaster/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(out, "usage: catalog lint <file>... | catalog seed [file]")
		return 2
	}
	switch args[0] {
	case "lint":
		return lint(args[1:], out)
	case "seed":
		return seed(args[1:], out)
	default:
		fmt.Fprintf(out, "unknown command %q\n", args[0])
		return 2
	}
}

func lint(files []string, out io.Writer) int {
	if len(files) == 0 {
		fmt.Fprintln(out, "no catalog files given")
		return 2
	}
	exitCode := 0
	for _, f := range files {
		c, err := achievements.LoadCatalogFile(f)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", f, err)
			exitCode = 1
			continue
		}
		fmt.Fprintf(out, "%s: OK (%d achievements)\n", f, len(c.Achievements))
	}
	return exitCode
}

func seed(args []string, out io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(out, "config:", err)
		return 1
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(out, "logger:", err)
		return 1
	}
	defer log.Sync()

	var catalog *achievements.Catalog
	if len(args) > 0 {
		catalog, err = achievements.LoadCatalogFile(args[0])
	} else {
		catalog, err = achievements.DefaultCatalog()
	}
	if err != nil {
		fmt.Fprintln(out, "catalog:", err)
		return 1
	}

	db, err := database.InitDB(cfg, log)
	if err != nil {
		fmt.Fprintln(out, "database:", err)
		return 1
	}
	defer database.CloseDB()

	res, err := database.SeedCatalog(context.Background(), db, catalog.Models(), log)
	if err != nil {
		fmt.Fprintln(out, "seed:", err)
		return 1
	}
	fmt.Fprintf(out, "created=%d updated=%d locked=%d\n", res.Created, res.Updated, res.Locked)
	return 0
}
