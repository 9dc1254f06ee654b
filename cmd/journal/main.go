package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"huddle/infrastructure/storage"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "./journal", "Path to the journal badger DB")
	limit := flag.Int("limit", 50, "Number of most recent entries, 0 for all")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	repository := storage.NewJournalRepository(db, logs.GetLoggerFromString("ERROR"))
	entries, err := repository.List(*limit)
	if err != nil {
		log.Fatal(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"At", "Event", "ID", "Data"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, entry := range entries {
		id := entry.ID
		if len(id) > 8 {
			id = id[:8]
		}
		table.Append([]string{
			entry.At.Format("2006-01-02 15:04:05"),
			string(entry.Event),
			id,
			string(entry.Data),
		})
	}
	table.Render()
	fmt.Printf("%d entries\n", len(entries))
}
