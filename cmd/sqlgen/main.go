// Package main contains the cli implementation of sqlgen. It uses cobra
// for command-tree dispatch and prints the SQL statement a query
// description compiles to for a chosen dialect — a debugging/demo harness
// around the core generator, not part of its public contract.
package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/fathiraz/sqlgen/config"
	"github.com/fathiraz/sqlgen/dialect"
	"github.com/fathiraz/sqlgen/expr"
	"github.com/fathiraz/sqlgen/logging"
	"github.com/fathiraz/sqlgen/model"
	"github.com/fathiraz/sqlgen/mutate"
	"github.com/fathiraz/sqlgen/selectplan"
	"github.com/fathiraz/sqlgen/where"
)

type globalFlags struct {
	dialectName string
	configFile  string
	table       string
	schema      string
	exec        bool
	dsn         string
	timeout     int
}

// queryDoc is the JSON query description shape read from a file or stdin:
//
//	{
//	  "attributes": ["id", "name"],
//	  "where": {"age": {"$gte": 18}, "name": {"$like": "A%"}},
//	  "order": [["name", "ASC"]],
//	  "limit": 10
//	}
type queryDoc struct {
	Attributes []interface{}  `json:"attributes"`
	Where      json.RawMessage `json:"where"`
	Order      []interface{} `json:"order"`
	Group      []interface{} `json:"group"`
	Limit      *int          `json:"limit"`
	Offset     *int          `json:"offset"`
}

func main() {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "sqlgen",
		Short: "Dialect-parameterised SQL generator",
	}
	root.PersistentFlags().StringVar(&flags.dialectName, "dialect", "", "dialect name (mysql, postgres, mssql, sqlite3); defaults to the config file's [dialect].default")
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "path to a sqlgen TOML config file")
	root.PersistentFlags().StringVar(&flags.table, "table", "", "table name (required)")
	root.PersistentFlags().StringVar(&flags.schema, "schema", "", "schema name")
	root.PersistentFlags().BoolVar(&flags.exec, "exec", false, "execute the generated statement against --dsn instead of only printing it")
	root.PersistentFlags().StringVar(&flags.dsn, "dsn", "", "database connection string, required with --exec")
	root.PersistentFlags().IntVar(&flags.timeout, "timeout", 30, "execution timeout in seconds, used with --exec")

	root.AddCommand(selectCmd(flags))
	root.AddCommand(whereCmd(flags))
	root.AddCommand(insertCmd(flags))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveDialect(flags *globalFlags) (dialect.Dialect, *config.Config, error) {
	cfg := config.Default()
	if flags.configFile != "" {
		loaded, err := config.LoadFile(flags.configFile)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	name := flags.dialectName
	if name == "" {
		name = cfg.Dialect.Default
		flags.dialectName = name
	}

	reg := dialect.NewRegistry()
	d, err := reg.Get(name)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlgen: %w", err)
	}

	l := logging.NewConfigLogger(cfg)
	where.SetLogger(l)
	selectplan.SetLogger(l)
	mutate.SetLogger(l)

	return d, cfg, nil
}

func readQueryDoc(path string) (*queryDoc, error) {
	var r *os.File
	if path == "" || path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("sqlgen: open query file %q: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var doc queryDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("sqlgen: decode query description: %w", err)
	}
	return &doc, nil
}

func decodeWhereRaw(raw json.RawMessage) (interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return decodeOrdered(bytes.NewReader(raw))
}

func tableRefFor(flags *globalFlags) model.TableRef {
	return model.TableRef{Schema: flags.schema, TableName: flags.table}
}

func selectCmd(flags *globalFlags) *cobra.Command {
	var queryFile string
	cmd := &cobra.Command{
		Use:   "select [query.json]",
		Short: "Compile a SELECT statement from a JSON query description",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 1 {
				queryFile = args[0]
			}
			return runSelect(flags, queryFile)
		},
	}
	return cmd
}

func runSelect(flags *globalFlags, queryFile string) error {
	if flags.table == "" {
		return fmt.Errorf("sqlgen: --table is required")
	}
	d, _, err := resolveDialect(flags)
	if err != nil {
		return err
	}
	doc, err := readQueryDoc(queryFile)
	if err != nil {
		return err
	}
	whereNode, err := decodeWhereRaw(doc.Where)
	if err != nil {
		return fmt.Errorf("sqlgen: decode where clause: %w", err)
	}

	m := model.NewModelMeta(flags.table, flags.table)
	opts := selectplan.Options{
		Attributes: doc.Attributes,
		Where:      whereNode,
		Order:      doc.Order,
		Group:      doc.Group,
		Limit:      doc.Limit,
		Offset:     doc.Offset,
	}

	sqlText, err := selectplan.Build(d, tableRefFor(flags), m, opts)
	if err != nil {
		return fmt.Errorf("sqlgen: build select: %w", err)
	}
	return emit(flags, sqlText)
}

func whereCmd(flags *globalFlags) *cobra.Command {
	var queryFile string
	cmd := &cobra.Command{
		Use:   "where [condition.json]",
		Short: "Compile a standalone WHERE fragment from a JSON condition tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 1 {
				queryFile = args[0]
			}
			return runWhere(flags, queryFile)
		},
	}
	return cmd
}

func runWhere(flags *globalFlags, queryFile string) error {
	d, _, err := resolveDialect(flags)
	if err != nil {
		return err
	}

	var r *os.File
	if queryFile == "" || queryFile == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(queryFile)
		if err != nil {
			return fmt.Errorf("sqlgen: open condition file %q: %w", queryFile, err)
		}
		defer f.Close()
		r = f
	}

	node, err := decodeOrdered(r)
	if err != nil {
		return fmt.Errorf("sqlgen: decode condition tree: %w", err)
	}

	m := model.NewModelMeta(flags.table, flags.table)
	frag, err := where.WhereQuery(d, node, where.Options{Model: m})
	if err != nil {
		return fmt.Errorf("sqlgen: build where: %w", err)
	}
	return emit(flags, frag)
}

func insertCmd(flags *globalFlags) *cobra.Command {
	var valuesFile string
	var ignore bool
	cmd := &cobra.Command{
		Use:   "insert [values.json]",
		Short: "Compile an INSERT statement from a JSON row of values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 1 {
				valuesFile = args[0]
			}
			return runInsert(flags, valuesFile, ignore)
		},
	}
	cmd.Flags().BoolVar(&ignore, "ignore", false, "use the dialect's duplicate-ignoring insert (INSERT IGNORE on MySQL, INSERT OR IGNORE on SQLite, the EXCEPTION-wrapped insert on PostgreSQL)")
	return cmd
}

func runInsert(flags *globalFlags, valuesFile string, ignore bool) error {
	if flags.table == "" {
		return fmt.Errorf("sqlgen: --table is required")
	}
	d, _, err := resolveDialect(flags)
	if err != nil {
		return err
	}

	var r *os.File
	if valuesFile == "" || valuesFile == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(valuesFile)
		if err != nil {
			return fmt.Errorf("sqlgen: open values file %q: %w", valuesFile, err)
		}
		defer f.Close()
		r = f
	}

	node, err := decodeOrdered(r)
	if err != nil {
		return fmt.Errorf("sqlgen: decode values row: %w", err)
	}
	values, ok := node.(expr.M)
	if !ok {
		return fmt.Errorf("sqlgen: values row must be a JSON object")
	}

	m := model.NewModelMeta(flags.table, flags.table)
	sqlText, err := mutate.Insert(d, tableRefFor(flags), m, values, mutate.InsertOptions{
		Options: mutate.Options{Ignore: ignore},
	})
	if err != nil {
		return fmt.Errorf("sqlgen: build insert: %w", err)
	}
	return emit(flags, sqlText)
}

// emit prints sqlText, or — when --exec is set — opens --dsn and executes
// it, printing the driver result. Drivers are blank-imported only here and
// in tests; the core generator packages never touch database/sql (spec §1
// Non-goals: execution/connection pooling is out of scope for the core).
func emit(flags *globalFlags, sqlText string) error {
	if !flags.exec {
		fmt.Println(sqlText)
		return nil
	}
	if flags.dsn == "" {
		return fmt.Errorf("sqlgen: --dsn is required with --exec")
	}

	driverName, err := driverFor(flags.dialectName)
	if err != nil {
		return err
	}

	db, err := sql.Open(driverName, flags.dsn)
	if err != nil {
		return fmt.Errorf("sqlgen: open %s connection: %w", driverName, err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(flags.timeout)*time.Second)
	defer cancel()

	fmt.Println(sqlText)
	result, err := db.ExecContext(ctx, sqlText)
	if err != nil {
		return fmt.Errorf("sqlgen: exec failed: %w", err)
	}
	rows, _ := result.RowsAffected()
	fmt.Printf("rows affected: %d\n", rows)
	return nil
}

func driverFor(dialectName string) (string, error) {
	switch dialectName {
	case "mysql":
		return "mysql", nil
	case "postgres":
		return "postgres", nil
	case "sqlite3":
		return "sqlite", nil
	case "mssql":
		return "", fmt.Errorf("sqlgen: --exec has no bundled MSSQL driver; supply one via a custom build")
	default:
		return "", fmt.Errorf("sqlgen: unknown dialect %q for --exec", dialectName)
	}
}
