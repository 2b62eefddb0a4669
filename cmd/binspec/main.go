package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Velocidex/ordereddict"
	"go.uber.org/zap"

	"github.com/wirebyte/binspec"
	"github.com/wirebyte/binspec/schema"
)

func main() {
	var (
		schemaFile  = flag.String("schema", "", "Path to schema file (YAML or JSON)")
		payloadHex  = flag.String("payload", "", "Payload bytes as hex")
		payloadFile = flag.String("in", "", "Read payload bytes from a file")
		jsonOut     = flag.Bool("json", false, "Print the result as JSON")
		verbose     = flag.Bool("v", false, "Log every decoded instruction")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *schemaFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: binspec -schema <file.yaml> -payload <hex>")
		fmt.Fprintln(os.Stderr, "       binspec -schema <file.yaml> -in <payload.bin> [-json]")
		fmt.Fprintln(os.Stderr, "       binspec -schema <file.yaml> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		binspec.SetLogger(log)
	}

	if *interactive {
		if err := runInteractive(*schemaFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*schemaFile, *payloadHex, *payloadFile, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(schemaFile, payloadHex, payloadFile string, jsonOut bool) error {
	spec, err := loadSpec(schemaFile)
	if err != nil {
		return err
	}

	var payload []byte
	switch {
	case payloadHex != "":
		payload, err = decodeHex(payloadHex)
		if err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
	case payloadFile != "":
		payload, err = os.ReadFile(payloadFile)
		if err != nil {
			return fmt.Errorf("read payload: %w", err)
		}
	default:
		return fmt.Errorf("no payload: pass -payload <hex> or -in <file>")
	}

	res, err := spec.Exec(payload)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	if jsonOut {
		out, err := json.Marshal(res)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	printResult(res)
	return nil
}

func loadSpec(path string) (*binspec.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	spec, err := schema.Load(data)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return spec, nil
}

// decodeHex accepts hex with optional whitespace between byte groups and an
// optional 0x prefix.
func decodeHex(s string) ([]byte, error) {
	clean := strings.Join(strings.Fields(s), "")
	clean = strings.TrimPrefix(clean, "0x")
	return hex.DecodeString(clean)
}

func printResult(res *ordereddict.Dict) {
	width := 0
	for _, k := range res.Keys() {
		if len(k) > width {
			width = len(k)
		}
	}
	for _, k := range res.Keys() {
		v, _ := res.Get(k)
		fmt.Printf("%-*s %v\n", width+1, k+":", v)
	}
}
