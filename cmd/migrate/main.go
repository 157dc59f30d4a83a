// migrate applies scribe's embedded SQL migrations.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"scribe/cmd/internal/db/migrate"

	"github.com/joho/godotenv"
)

func main() {
	direction := flag.String("direction", migrate.Up, "Migration direction: up or down")
	flag.Parse()
	if flag.NArg() > 0 {
		*direction = flag.Arg(0)
	}

	_ = godotenv.Load()

	dsn := strings.TrimSpace(os.Getenv("SCRIBE_DATABASE_URL"))
	if err := migrate.Run(dsn, *direction); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
	fmt.Println("migrate:", *direction, "ok")
}
