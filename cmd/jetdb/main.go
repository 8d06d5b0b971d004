// Command jetdb is a small inspection/demo tool over the table/index
// engine, in the same flag-driven shape as the teacher's cmd/go-innodb page
// parser: point it at a CREATE TABLE statement and (optionally) a JSON file
// of rows, and it reports what got written, in one of three output formats.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jetdb/jetdb/iface"
	"github.com/jetdb/jetdb/index"
	"github.com/jetdb/jetdb/jetlog"
	"github.com/jetdb/jetdb/schema"
	"github.com/jetdb/jetdb/table"
)

func main() {
	var (
		sqlFile  = flag.String("sql", "", "Path to a .sql file with one CREATE TABLE statement (required)")
		rowsFile = flag.String("rows", "", "Path to a JSON file holding an array of row objects to insert")
		dbFile   = flag.String("db", "", "Path to a backing file (default: in-memory, discarded on exit)")
		format   = flag.String("format", "text", "Output format: text, json, or summary")
		verbose  = flag.Bool("v", false, "Verbose logging")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "jetdb table tool\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s -sql schema.sql [-rows rows.json] [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -sql people.sql -rows people.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -sql people.sql -rows people.json -format json\n", os.Args[0])
	}
	flag.Parse()

	if *sqlFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -sql is required")
		flag.Usage()
		os.Exit(1)
	}

	log := jetlog.NewWriterLogger(os.Stderr, *verbose)

	ddl, err := os.ReadFile(*sqlFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", *sqlFile, err)
		os.Exit(1)
	}
	tbl, err := schema.BuildFromDDL(string(ddl))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing CREATE TABLE: %v\n", err)
		os.Exit(1)
	}
	log.Debugf("loaded table %s with %d column(s)", tbl.Name, tbl.ColumnCount())

	f := table.DefaultFormat
	channel, closeChannel := openChannel(*dbFile, f.PageSize)
	defer closeChannel()

	pages := iface.NewMemUsageMap()
	engine := table.NewEngine(tbl, f, channel, iface.IdentityEvaluator{}, pages, 0)
	for _, c := range tbl.AutonumberColumns() {
		engine.SetAutonumberGenerator(c.Name, table.NewLongGenerator(false))
	}

	var ids []index.RowID
	if *rowsFile != "" {
		raw, err := os.ReadFile(*rowsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", *rowsFile, err)
			os.Exit(1)
		}
		var rowsIn []map[string]any
		if err := json.Unmarshal(raw, &rowsIn); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing %s: %v\n", *rowsFile, err)
			os.Exit(1)
		}
		ids, err = engine.AddRows(rowsIn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error adding rows: %v\n", err)
			os.Exit(1)
		}
		log.Debugf("wrote %d row(s)", len(ids))
	}

	switch *format {
	case "json":
		outputJSON(engine, ids)
	case "summary":
		outputSummary(tbl, ids)
	default:
		outputText(engine, tbl, ids)
	}
}

func openChannel(path string, pageSize int) (iface.PageChannel, func()) {
	if path == "" {
		return iface.NewMemPageChannel(pageSize), func() {}
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", path, err)
		os.Exit(1)
	}
	return iface.NewFilePageChannel(f, pageSize), func() { f.Close() }
}

func outputText(engine *table.Engine, tbl *schema.Table, ids []index.RowID) {
	fmt.Printf("=== Table %s ===\n", tbl.Name)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Column\tType\tNullable\tAutonumber")
	for _, c := range tbl.Columns {
		fmt.Fprintf(w, "%s\t%s\t%v\t%v\n", c.Name, c.Spec.Type, c.Nullable, c.IsAutonumber)
	}
	w.Flush()

	if len(ids) == 0 {
		return
	}
	fmt.Printf("\n%d row(s):\n", len(ids))
	rw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for i, col := range tbl.Columns {
		if i > 0 {
			fmt.Fprint(rw, "\t")
		}
		fmt.Fprint(rw, col.Name)
	}
	fmt.Fprintln(rw)
	for _, id := range ids {
		values, err := engine.ReadRow(id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading row %+v: %v\n", id, err)
			continue
		}
		for i, col := range tbl.Columns {
			if i > 0 {
				fmt.Fprint(rw, "\t")
			}
			fmt.Fprintf(rw, "%v", values[col.Name])
		}
		fmt.Fprintln(rw)
	}
	rw.Flush()
}

func outputSummary(tbl *schema.Table, ids []index.RowID) {
	fmt.Printf("table=%s columns=%d autonumbers=%d calculated=%d rows_written=%d\n",
		tbl.Name, tbl.ColumnCount(), len(tbl.AutonumberColumns()), len(tbl.CalculatedColumns()), len(ids))
}

func outputJSON(engine *table.Engine, ids []index.RowID) {
	rows := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		values, err := engine.ReadRow(id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading row %+v: %v\n", id, err)
			continue
		}
		rows = append(rows, values)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(rows)
}
