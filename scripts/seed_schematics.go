// seed_schematics.go: standalone script to parse a schematic list and seed it via the Assay API.
//
// Each non-blank line that does not start with # is one experiment:
//
//	Composite Armor Segment | armor | Kinetic | steel | OQ=50 SR=33 UT=17
//
// Lines sharing a schematic name are grouped into one schematic.
//
// Usage:
//
//	go run scripts/seed_schematics.go -file schematics.txt -api http://localhost:8700 -client seed
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/MikeSquared-Agency/Assay/internal/scoring"
)

type experiment struct {
	Name    string `json:"name"`
	Class   string `json:"class"`
	Weights []int  `json:"weights"`
}

type schematic struct {
	Name        string       `json:"name"`
	Category    string       `json:"category,omitempty"`
	Experiments []experiment `json:"experiments"`
}

func main() {
	path := flag.String("file", "schematics.txt", "path to schematic list")
	apiURL := flag.String("api", "http://localhost:8700", "Assay API base URL")
	clientID := flag.String("client", "seed", "X-Client-ID header value")
	dryRun := flag.Bool("dry-run", false, "print schematics without posting")
	flag.Parse()

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("open %s: %v", *path, err)
	}
	defer f.Close()

	var order []string
	byName := map[string]*schematic{}
	scanner := bufio.NewScanner(f)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "|")
		if len(fields) != 5 {
			log.Printf("line %d: expected 5 fields, got %d", lineNo, len(fields))
			continue
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		values, err := scoring.ParsePairs(fields[4])
		if err != nil {
			log.Printf("line %d: %v", lineNo, err)
			continue
		}
		weights, err := scoring.NewWeights(values)
		if err != nil {
			log.Printf("line %d: %v", lineNo, err)
			continue
		}

		sc, ok := byName[fields[0]]
		if !ok {
			sc = &schematic{Name: fields[0], Category: fields[1]}
			byName[fields[0]] = sc
			order = append(order, fields[0])
		}
		sc.Experiments = append(sc.Experiments, experiment{
			Name:    fields[2],
			Class:   fields[3],
			Weights: weights.Slice(),
		})
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("scan %s: %v", *path, err)
	}

	log.Printf("parsed %d schematics from %s", len(order), *path)

	if *dryRun {
		for i, name := range order {
			sc := byName[name]
			fmt.Printf("[%d] %s (category=%s)\n", i+1, sc.Name, sc.Category)
			for _, e := range sc.Experiments {
				w, _ := scoring.NewWeightsRelaxed(e.Weights)
				fmt.Printf("    %s on %s: %s\n", e.Name, e.Class, w)
			}
		}
		return
	}

	client := &http.Client{}
	created, skipped := 0, 0
	for _, name := range order {
		body, _ := json.Marshal(byName[name])
		req, err := http.NewRequest("POST", *apiURL+"/api/v1/schematics", bytes.NewReader(body))
		if err != nil {
			log.Printf("skip %q: %v", name, err)
			skipped++
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Client-ID", *clientID)

		resp, err := client.Do(req)
		if err != nil {
			log.Printf("skip %q: %v", name, err)
			skipped++
			continue
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusCreated {
			created++
		} else {
			log.Printf("skip %q: status %d", name, resp.StatusCode)
			skipped++
		}
	}

	log.Printf("done: %d created, %d skipped", created, skipped)
}
