package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/YHTerrance/UniFrames/app"
	"github.com/YHTerrance/UniFrames/database"
	"github.com/YHTerrance/UniFrames/model"
)

func main() {
	csvPath := flag.String("csv", "", "CSV file with name,website_url,logo_key,logo_url columns (defaults to the built-in list)")
	flag.Parse()

	_, log, store, err := app.Bootstrap(false)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bootstrap failed:", err)
		os.Exit(1)
	}
	defer store.Close()

	universities := database.DefaultUniversities()
	if *csvPath != "" {
		universities, err = readCSV(*csvPath)
		if err != nil {
			log.WithError(err).Fatal("Failed to read universities CSV")
		}
	}

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Println("UniFrames - University Seeding")
	fmt.Println(separator)

	created, err := database.NewSeeder(store.GetDB(), log).SeedUniversities(universities)
	if err != nil {
		log.WithError(err).Fatal("Seeding failed")
	}

	fmt.Printf("%d universities read, %d created\n", len(universities), created)
	fmt.Println(separator)
}

func readCSV(path string) ([]model.University, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return database.LoadUniversitiesCSV(f)
}
