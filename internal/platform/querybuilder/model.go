package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel builds an INSERT from the exported `db`-tagged fields of model.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	cols, vals, err := columnsAndValuesFromModel(model)
	if err != nil {
		return "", nil, err
	}
	return InsertInto(table).
		Columns(cols...).
		Values(vals...).
		Suffix(suffix).
		ToSQL()
}

// UpdateModel builds an UPDATE assigning every `db`-tagged field of model except skip.
func UpdateModel(table string, model any, skip []string, where ...Condition) (string, []any, error) {
	cols, vals, err := columnsAndValuesFromModel(model)
	if err != nil {
		return "", nil, err
	}

	skipped := make(map[string]struct{}, len(skip))
	for _, col := range skip {
		skipped[col] = struct{}{}
	}

	builder := Update(table)
	for i, col := range cols {
		if _, ok := skipped[col]; ok {
			continue
		}
		builder.Set(col, vals[i])
	}
	return builder.Where(where...).ToSQL()
}

func columnsAndValuesFromModel(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct, got %s", value.Kind())
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		col := strings.TrimSpace(strings.Split(field.Tag.Get("db"), ",")[0])
		if col == "" || col == "-" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}
