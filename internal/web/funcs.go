package web

import (
	"fmt"
	"html/template"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"add":      add,
		"sub":      sub,
		"isActive": isActive,
		"even":     even,
	}
}

func add(a, b int) int {
	return a + b
}

func sub(a, b int) int {
	return a - b
}

func even(i int) bool {
	return i%2 == 0
}

func isActive(current, path string) bool {
	return current == path
}

// Table is a generic view of raw documents whose fields vary between documents.
type Table struct {
	Columns []string
	Rows    [][]string
}

// DocumentTable lays documents out as rows. Columns are the union of all field names, sorted,
// with _id first. Missing fields render empty.
func DocumentTable(docs []bson.M) Table {
	seen := make(map[string]bool)
	var columns []string
	hasID := false
	for _, doc := range docs {
		for key := range doc {
			if key == "_id" {
				hasID = true
				continue
			}
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}
	sort.Strings(columns)
	if hasID {
		columns = append([]string{"_id"}, columns...)
	}

	rows := make([][]string, 0, len(docs))
	for _, doc := range docs {
		row := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := doc[col]; ok {
				row[i] = formatCell(v)
			}
		}
		rows = append(rows, row)
	}
	return Table{Columns: columns, Rows: rows}
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC().Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(val)
	}
}
