package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func main() {
	name := flag.String("name", "", "name for the new migration pair, e.g. add_cards_index")
	flag.Parse()

	if *name == "" {
		log.Fatal("a -name is required")
	}
	if strings.ContainsAny(*name, " ") {
		log.Fatal("use underscores instead of spaces in the migration name")
	}

	stamp := time.Now().UTC().Format("20060102150405")
	base := filepath.Join("db", "migrations", fmt.Sprintf("%s_%s", stamp, *name))

	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		log.Fatalf("create migrations dir: %v", err)
	}
	for _, suffix := range []string{".up.sql", ".down.sql"} {
		path := base + suffix
		if err := writeStub(path); err != nil {
			log.Fatalf("write %s: %v", path, err)
		}
		log.Printf("wrote %s", path)
	}
}

func writeStub(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("already exists")
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte("-- add statements here\n"), 0o644)
}
