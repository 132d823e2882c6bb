// Command inspect prints the column metadata and the first rows of a CSV,
// Parquet or Arrow file as tablecheck reads them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/TFMV/tablecheck/pkg/core"
	"github.com/TFMV/tablecheck/pkg/readers"
)

func main() {
	rows := flag.Int("rows", 5, "Number of rows to print")
	typ := flag.String("type", "", "Source type (csv, parquet, arrow); defaults from the file extension")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: inspect [-rows N] [-type T] <file>")
		os.Exit(1)
	}

	filePath := flag.Arg(0)
	sourceType := *typ
	if sourceType == "" {
		sourceType = typeFromPath(filePath)
	}

	src, err := readers.DefaultFactory.Create(core.SourceConfig{Type: sourceType, Path: filePath})
	if err != nil {
		fmt.Printf("Error opening file: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()

	ctx := context.Background()

	md, err := src.Metadata(ctx, "")
	if err != nil {
		fmt.Printf("Error reading metadata: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("File: %s (%s)\n", filePath, sourceType)
	fmt.Println("\nMetadata:")
	printDataset(md)

	data, err := src.Data(ctx, "", *rows)
	if err != nil {
		fmt.Printf("Error reading rows: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nFirst %d rows:\n", data.Len())
	printDataset(data)
}

func typeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return "parquet"
	case ".arrow", ".ipc", ".feather":
		return "arrow"
	default:
		return "csv"
	}
}

func printDataset(d *core.Dataset) {
	fmt.Printf("  Columns: %s\n", strings.Join(d.Columns, ", "))
	for i, row := range d.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			if v.IsNull() {
				cells[j] = "NULL"
			} else {
				cells[j] = v.String()
			}
		}
		fmt.Printf("  Row %d: [%s]\n", i, strings.Join(cells, ", "))
	}
}
