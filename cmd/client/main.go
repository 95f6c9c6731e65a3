package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/atinyakov/GopherQR/internal/client"
	"github.com/atinyakov/GopherQR/internal/models"
)

var (
	version   string
	buildDate string
)

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

// main parses command-line flags and dispatches to the requested API call.
func main() {
	var (
		cmd      string
		baseURL  string
		text     string
		username string
		id       int64
		out      string
		bulkFile string
		showVer  bool
	)

	flag.StringVar(&cmd, "cmd", "", "command: generate | bulk | list | get | delete | count | reset")
	flag.StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	flag.StringVar(&text, "text", "", "text to encode")
	flag.StringVar(&username, "username", "", "owner username")
	flag.Int64Var(&id, "id", 0, "qr code id")
	flag.StringVar(&out, "out", "", "write the generated PNG to this file")
	flag.StringVar(&bulkFile, "file", "", "JSON file with [{\"text\":...,\"username\":...}] for bulk")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("GopherQR Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	c := client.New()

	switch cmd {
	case "generate":
		if text == "" || username == "" {
			log.Fatal("please provide -text and -username")
		}
		image, err := client.Generate(c, baseURL, text, username)
		if err != nil {
			log.Fatal(err)
		}
		if out == "" {
			fmt.Println(image)
			return
		}
		if err := client.SaveImage(out, image); err != nil {
			log.Fatal(err)
		}
		fmt.Println("saved", out)
	case "bulk":
		data, err := os.ReadFile(bulkFile)
		if err != nil {
			log.Fatal(err)
		}
		var requests []models.BulkRequest
		if err := json.Unmarshal(data, &requests); err != nil {
			log.Fatalf("invalid bulk file: %v", err)
		}
		results, err := client.Bulk(c, baseURL, requests)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(results)
	case "list":
		codes, err := client.ListByUser(c, baseURL, username)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(codes)
	case "get":
		qr, err := client.GetQr(c, baseURL, id)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(qr)
	case "delete":
		if err := client.DeleteQr(c, baseURL, id); err != nil {
			log.Fatal(err)
		}
		fmt.Println("QR code deleted")
	case "count":
		n, err := client.RequestCount(c, baseURL)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(n)
	case "reset":
		if err := client.ResetCount(c, baseURL); err != nil {
			log.Fatal(err)
		}
		fmt.Println("counter reset")
	default:
		log.Fatalf("unknown command: %s", cmd)
	}
}
