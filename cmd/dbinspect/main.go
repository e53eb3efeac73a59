package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/daybookapp/daybook-server/internal/domain"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/Daybook/data/entries.db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Entry Store Inspection ===")
	fmt.Println()

	entryCount := 0
	withPhotos := 0
	withGPS := 0
	days := map[string]int{}

	err = db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte("entry:")
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek([]byte("entry:")); it.ValidForPrefix([]byte("entry:")); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(val []byte) error {
				var entry domain.Entry
				if err := json.Unmarshal(val, &entry); err != nil {
					return err
				}

				entryCount++
				days[entry.Date]++

				if len(entry.Photos) > 0 {
					withPhotos++
				}
				for _, photo := range entry.PhotoItems {
					if photo.GPS != nil {
						withGPS++
						break
					}
				}

				// Show the first few entries in detail
				if entryCount <= 3 {
					fmt.Printf("Entry: %s\n", entry.Title)
					fmt.Printf("  ID: %s\n", entry.ID)
					fmt.Printf("  Date: %s (touched %d)\n", entry.Date, entry.Touched)
					fmt.Printf("  Photos: %d (rep %d)\n", len(entry.Photos), entry.RepIndex)
					for i, photo := range entry.PhotoItems {
						fmt.Printf("    [%d] %s shotAt=%d", i, photo.Name, photo.ShotAt)
						if photo.GPS != nil {
							fmt.Printf(" gps=%.6f,%.6f", photo.GPS.Lat, photo.GPS.Lng)
						}
						fmt.Println()
					}
					fmt.Println()
				}

				return nil
			})
			if err != nil {
				log.Printf("Error reading entry %s: %v", key, err)
			}
		}
		return nil
	})

	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Total entries: %d\n", entryCount)
	fmt.Printf("Distinct days: %d\n", len(days))
	fmt.Printf("Entries with photos: %d\n", withPhotos)
	fmt.Printf("Entries with GPS photos: %d\n", withGPS)
}
