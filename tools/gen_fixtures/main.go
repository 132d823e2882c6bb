// Command gen_fixtures writes a source/target Parquet pair with a controlled
// rate of differing rows, plus a CSV mapping document describing the
// target's columns. The output exercises both schema and data validation.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"

	"github.com/TFMV/tablecheck/pkg/core"
	"github.com/TFMV/tablecheck/pkg/schema"
	"github.com/TFMV/tablecheck/pkg/writers"
)

const (
	defaultRows   = 1000
	defaultOutDir = "test_data"
	defaultSeed   = 42

	firstNames   = "John,Jane,Bob,Mary,Alice,David,Emma,Michael,Olivia,James"
	lastNames    = "Smith,Johnson,Williams,Jones,Brown,Davis,Miller,Wilson,Moore,Taylor"
	domains      = "gmail.com,yahoo.com,example.com,company.com,school.edu"
	statusValues = "active,inactive,pending,suspended"
)

// Config controls the generated fixtures.
type Config struct {
	rowCount    int
	outputDir   string
	sourceFile  string
	targetFile  string
	mappingFile string
	randomSeed  int64
	diffRate    float64
	nullRate    float64
	compression string
}

func main() {
	config := parseFlags()

	if err := os.MkdirAll(config.outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	rnd := rand.New(rand.NewSource(config.randomSeed))
	mem := memory.NewGoAllocator()
	ctx := context.Background()

	source := generateSource(mem, config, rnd)
	defer source.Release()
	target := mutate(mem, source, config, rnd)
	defer target.Release()

	sourcePath := filepath.Join(config.outputDir, config.sourceFile)
	targetPath := filepath.Join(config.outputDir, config.targetFile)
	mappingPath := filepath.Join(config.outputDir, config.mappingFile)

	for path, rec := range map[string]arrow.Record{sourcePath: source, targetPath: target} {
		cfg := core.WriterConfig{Path: path, Compression: config.compression}
		if err := writers.DefaultFactory.Export(ctx, cfg, rec); err != nil {
			log.Fatalf("Failed to write %s: %v", path, err)
		}
	}
	if err := writeMapping(mappingPath, target.Schema()); err != nil {
		log.Fatalf("Failed to write mapping document: %v", err)
	}

	log.Printf("Generated %d rows with %.1f%% differing rows:", config.rowCount, config.diffRate*100)
	log.Printf("  - Source:  %s", sourcePath)
	log.Printf("  - Target:  %s", targetPath)
	log.Printf("  - Mapping: %s", mappingPath)
}

func parseFlags() Config {
	rowCount := flag.Int("rows", defaultRows, "Number of rows to generate")
	outputDir := flag.String("outdir", defaultOutDir, "Output directory for generated files")
	sourceFile := flag.String("source", "customers_source.parquet", "Filename for the source file")
	targetFile := flag.String("target", "customers_target.parquet", "Filename for the target file")
	mappingFile := flag.String("mapping", "customers_mapping.csv", "Filename for the mapping document")
	seed := flag.Int64("seed", defaultSeed, "Random seed for data generation")
	diffRate := flag.Float64("diffs", 0.1, "Fraction of rows that differ between source and target (0.0-1.0)")
	nullRate := flag.Float64("nulls", 0.05, "Fraction of NULL values in nullable columns (0.0-1.0)")
	compression := flag.String("compression", "snappy", "Parquet compression codec")

	flag.Parse()

	return Config{
		rowCount:    *rowCount,
		outputDir:   *outputDir,
		sourceFile:  *sourceFile,
		targetFile:  *targetFile,
		mappingFile: *mappingFile,
		randomSeed:  *seed,
		diffRate:    *diffRate,
		nullRate:    *nullRate,
		compression: *compression,
	}
}

var customerSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.BinaryTypes.String},
	{Name: "name", Type: arrow.BinaryTypes.String},
	{Name: "email", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "status", Type: arrow.BinaryTypes.String},
	{Name: "age", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	{Name: "balance", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "active", Type: arrow.FixedWidthTypes.Boolean},
}, nil)

func generateSource(mem memory.Allocator, config Config, rnd *rand.Rand) arrow.Record {
	b := array.NewRecordBuilder(mem, customerSchema)
	defer b.Release()

	for i := 0; i < config.rowCount; i++ {
		first := pick(firstNames, rnd)
		last := pick(lastNames, rnd)

		b.Field(0).(*array.StringBuilder).Append(uuid.NewString())
		b.Field(1).(*array.StringBuilder).Append(first + " " + last)
		if rnd.Float64() < config.nullRate {
			b.Field(2).AppendNull()
		} else {
			email := strings.ToLower(first+"."+last) + "@" + pick(domains, rnd)
			b.Field(2).(*array.StringBuilder).Append(email)
		}
		b.Field(3).(*array.StringBuilder).Append(pick(statusValues, rnd))
		if rnd.Float64() < config.nullRate {
			b.Field(4).AppendNull()
		} else {
			b.Field(4).(*array.Int32Builder).Append(int32(18 + rnd.Intn(70)))
		}
		if rnd.Float64() < config.nullRate {
			b.Field(5).AppendNull()
		} else {
			b.Field(5).(*array.Float64Builder).Append(float64(rnd.Intn(1000000)) / 100)
		}
		b.Field(6).(*array.BooleanBuilder).Append(rnd.Intn(2) == 1)
	}
	return b.NewRecord()
}

// mutate copies rec row by row, changing one column in a diffRate fraction
// of the rows.
func mutate(mem memory.Allocator, rec arrow.Record, config Config, rnd *rand.Rand) arrow.Record {
	b := array.NewRecordBuilder(mem, rec.Schema())
	defer b.Release()

	ids := rec.Column(0).(*array.String)
	names := rec.Column(1).(*array.String)
	emails := rec.Column(2).(*array.String)
	statuses := rec.Column(3).(*array.String)
	ages := rec.Column(4).(*array.Int32)
	balances := rec.Column(5).(*array.Float64)
	actives := rec.Column(6).(*array.Boolean)

	for i := 0; i < int(rec.NumRows()); i++ {
		changed := -1
		if rnd.Float64() < config.diffRate {
			changed = 1 + rnd.Intn(int(rec.NumCols())-1)
		}

		b.Field(0).(*array.StringBuilder).Append(ids.Value(i))

		name := names.Value(i)
		if changed == 1 {
			name = strings.ToUpper(name)
		}
		b.Field(1).(*array.StringBuilder).Append(name)

		switch {
		case changed == 2:
			b.Field(2).AppendNull()
		case emails.IsNull(i):
			b.Field(2).AppendNull()
		default:
			b.Field(2).(*array.StringBuilder).Append(emails.Value(i))
		}

		status := statuses.Value(i)
		if changed == 3 {
			status = pick(statusValues, rnd) + "_x"
		}
		b.Field(3).(*array.StringBuilder).Append(status)

		if ages.IsNull(i) {
			b.Field(4).AppendNull()
		} else {
			age := ages.Value(i)
			if changed == 4 {
				age++
			}
			b.Field(4).(*array.Int32Builder).Append(age)
		}

		if balances.IsNull(i) {
			b.Field(5).AppendNull()
		} else {
			bal := balances.Value(i)
			if changed == 5 {
				bal += 0.01
			}
			b.Field(5).(*array.Float64Builder).Append(bal)
		}

		b.Field(6).(*array.BooleanBuilder).Append(actives.Value(i) != (changed == 6))
	}
	return b.NewRecord()
}

// writeMapping writes one mapping row per target column, in the layout the
// schema command compares against target metadata.
func writeMapping(path string, s *arrow.Schema) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows := [][]string{{"source_column", "target_column", "data_type", "nullable"}}
	for _, field := range s.Fields() {
		nullable := "No"
		if field.Nullable {
			nullable = "Yes"
		}
		rows = append(rows, []string{field.Name, strings.ToUpper(field.Name), schema.TypeName(field.Type), nullable})
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func pick(items string, rnd *rand.Rand) string {
	list := strings.Split(items, ",")
	return list[rnd.Intn(len(list))]
}
