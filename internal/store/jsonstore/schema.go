package jsonstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const collectionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "title", "completed", "createdAt"],
    "properties": {
      "id":        {"type": "string", "minLength": 1},
      "title":     {"type": "string"},
      "completed": {"type": "boolean"},
      "createdAt": {"type": "string"}
    }
  }
}`

var schema = jsonschema.MustCompileString("tada://todos.schema.json", collectionSchema)

// Issue is one problem found by Check.
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Check validates a stored blob against the collection schema and for
// duplicate ids. An empty blob has no issues. Malformed JSON is returned as
// a *ParseError.
func Check(b []byte) ([]Issue, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, &ParseError{Key: StorageKey, Err: fmt.Errorf("json unmarshal: %w", err)}
	}

	var issues []Issue
	if err := schema.Validate(doc); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return nil, err
		}
		collectIssues(&issues, ve)
	}
	issues = append(issues, duplicateIDs(doc)...)
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
	return issues, nil
}

func collectIssues(out *[]Issue, ve *jsonschema.ValidationError) {
	if len(ve.Causes) == 0 {
		*out = append(*out, Issue{Path: pointerToPath(ve.InstanceLocation), Message: ve.Message})
		return
	}
	for _, c := range ve.Causes {
		collectIssues(out, c)
	}
}

func duplicateIDs(doc interface{}) []Issue {
	items, ok := doc.([]interface{})
	if !ok {
		return nil
	}
	first := make(map[string]int)
	var issues []Issue
	for i, it := range items {
		obj, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		id, ok := obj["id"].(string)
		if !ok {
			continue
		}
		if j, seen := first[id]; seen {
			issues = append(issues, Issue{
				Path:    fmt.Sprintf("[%d].id", i),
				Message: fmt.Sprintf("duplicate id %q (first at [%d])", id, j),
			})
			continue
		}
		first[id] = i
	}
	return issues
}

// pointerToPath turns "/0/title" into "[0].title".
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}
	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		if part != "" && strings.Trim(part, "0123456789") == "" {
			b.WriteString("[" + part + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
