// Command murrctl is a small operator CLI around murr.Store: create a
// table, write a batch from a JSON file, and read keys/columns back as
// JSON. It is plumbing around the core, not part of it — no part of the
// core imports this package.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/spf13/cobra"

	"github.com/murrdb/murr"
	"github.com/murrdb/murr/directory"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var storagePath string

	root := &cobra.Command{
		Use:   "murrctl",
		Short: "Inspect and drive a murr table store from the command line",
	}
	root.PersistentFlags().StringVar(&storagePath, "storage-path", "./murr-data", "root directory holding one subdirectory per table")

	root.AddCommand(newCreateCmd(&storagePath))
	root.AddCommand(newWriteCmd(&storagePath))
	root.AddCommand(newReadCmd(&storagePath))
	root.AddCommand(newListCmd(&storagePath))
	return root
}

func openStore(storagePath string) (*murr.Store, error) {
	return murr.New(murr.WithStoragePath(storagePath))
}

func newCreateCmd(storagePath *string) *cobra.Command {
	var schemaFile string
	cmd := &cobra.Command{
		Use:   "create <table>",
		Short: "Create a table from a JSON schema file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(schemaFile)
			if err != nil {
				return err
			}
			var schema directory.Schema
			if err := json.Unmarshal(data, &schema); err != nil {
				return fmt.Errorf("decode schema: %w", err)
			}
			store, err := openStore(*storagePath)
			if err != nil {
				return err
			}
			return store.Create(context.Background(), args[0], &schema)
		},
	}
	cmd.Flags().StringVar(&schemaFile, "schema", "", "path to a table.json-shaped schema file")
	cmd.MarkFlagRequired("schema")
	return cmd
}

// batchFile is the JSON shape accepted by `murrctl write`: one entry per
// schema column. A column's "float32" or "utf8" array selects its dtype;
// "valid" is optional and defaults to all-valid.
type batchFile struct {
	Columns map[string]struct {
		Float32 []float32 `json:"float32,omitempty"`
		Utf8    []string  `json:"utf8,omitempty"`
		Valid   []bool    `json:"valid,omitempty"`
	} `json:"columns"`
}

func newWriteCmd(storagePath *string) *cobra.Command {
	var batchPath string
	cmd := &cobra.Command{
		Use:   "write <table>",
		Short: "Append a batch from a JSON file to a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(batchPath)
			if err != nil {
				return err
			}
			var bf batchFile
			if err := json.Unmarshal(data, &bf); err != nil {
				return fmt.Errorf("decode batch: %w", err)
			}

			batch := murr.Batch{Columns: make(map[string]murr.ColumnData, len(bf.Columns))}
			for name, col := range bf.Columns {
				batch.Columns[name] = murr.ColumnData{
					Float32: col.Float32,
					Utf8:    col.Utf8,
					Valid:   col.Valid,
				}
			}

			store, err := openStore(*storagePath)
			if err != nil {
				return err
			}
			return store.Write(context.Background(), args[0], batch)
		},
	}
	cmd.Flags().StringVar(&batchPath, "batch", "", "path to a JSON batch file")
	cmd.MarkFlagRequired("batch")
	return cmd
}

func newReadCmd(storagePath *string) *cobra.Command {
	var keys, columns []string
	cmd := &cobra.Command{
		Use:   "read <table>",
		Short: "Fetch columns for a set of keys and print them as JSON, one object per row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(*storagePath)
			if err != nil {
				return err
			}
			record, err := store.Read(args[0], keys, columns)
			if err != nil {
				return err
			}
			defer record.Release()
			return array.RecordToJSON(record, os.Stdout)
		},
	}
	cmd.Flags().StringSliceVar(&keys, "keys", nil, "comma-separated list of keys to fetch")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "comma-separated list of columns to fetch")
	return cmd
}

func newListCmd(storagePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every table and its schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(*storagePath)
			if err != nil {
				return err
			}
			for name, schema := range store.List() {
				data, _ := json.Marshal(schema)
				fmt.Printf("%s\t%s\n", name, data)
			}
			return nil
		},
	}
}
