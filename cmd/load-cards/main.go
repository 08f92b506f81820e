package main

import (
	"bufio"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"lip-sprint/internal/config"
	"lip-sprint/internal/db"
)

func main() {
	filePath := flag.String("file", "cards.txt", "path to card phrases, one per line")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}

	conn, err := db.Open()
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	phrases, err := readPhrases(*filePath)
	if err != nil {
		log.Fatalf("failed to read cards: %v", err)
	}

	base := time.Now().UTC()
	inserted := 0
	for i, phrase := range phrases {
		entry := db.Card{
			Text:      phrase,
			Source:    "custom",
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		}
		if err := conn.FirstOrCreate(&entry, db.Card{Text: phrase}).Error; err != nil {
			log.Fatalf("failed to upsert card: %v", err)
		}
		inserted++
	}

	log.Printf("loaded %d cards", inserted)
}

func readPhrases(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var phrases []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		phrase := strings.Join(strings.Fields(scanner.Text()), " ")
		if phrase == "" {
			continue
		}
		phrases = append(phrases, phrase)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return phrases, nil
}
