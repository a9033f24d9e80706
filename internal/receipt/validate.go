package receipt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidTransaction marks input the service refuses to store
var ErrInvalidTransaction = errors.New("invalid transaction")

// transactionSchema describes TransactionInput. Category membership per
// type is checked by the service; the schema only limits it to known names.
func transactionSchema() map[string]any {
	categories := append(Categories(Expense), Categories(Income)...)
	categories = append(categories, Uncategorized)

	nullableCategory := map[string]any{
		"oneOf": []any{
			map[string]any{"type": "null"},
			map[string]any{"enum": categories},
		},
	}

	return map[string]any{
		"$schema":  "https://json-schema.org/draft/2020-12/schema",
		"type":     "object",
		"required": []string{"type", "amount", "date"},
		"properties": map[string]any{
			"type":       map[string]any{"enum": []string{string(Expense), string(Income)}},
			"title":      map[string]any{"type": "string", "maxLength": 200},
			"store_name": map[string]any{"type": "string", "maxLength": 200},
			"amount":     map[string]any{"type": "integer", "exclusiveMinimum": 0},
			"category": map[string]any{
				"oneOf": []any{
					map[string]any{"const": ""},
					map[string]any{"enum": categories},
				},
			},
			"date":    map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"scan_id": map[string]any{"type": "string"},
			"items": map[string]any{
				"type": []string{"array", "null"},
				"items": map[string]any{
					"type":     "object",
					"required": []string{"name", "amount"},
					"properties": map[string]any{
						"id":       map[string]any{"type": "string"},
						"name":     map[string]any{"type": "string", "minLength": 1},
						"amount":   map[string]any{"type": "integer"},
						"category": nullableCategory,
					},
				},
			},
		},
	}
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func compileTransactionSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(transactionSchema())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("transaction.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("transaction.json")
	})
	return compiledSchema, compileErr
}

// ValidateTransactionJSON checks a raw create or update body against the
// transaction schema
func ValidateTransactionJSON(data []byte) error {
	schema, err := compileTransactionSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: malformed JSON: %w", ErrInvalidTransaction, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	return nil
}
