package patch

import (
	"reflect"
	"strings"
)

// AllJSONPointerPaths lists the JSON pointers reachable in T. Slices
// contribute "/-" and maps "/*" wildcard segments.
func AllJSONPointerPaths[T any]() []string {
	typ := reflect.TypeFor[T]()
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return []string{}
	}

	paths := make([]string, 0)
	collectPaths(typ, "", &paths, map[reflect.Type]bool{})
	return paths
}

// opaqueTypes are structs that marshal to a JSON scalar.
var opaqueTypes = map[string]bool{
	"time.Time": true,
}

func collectPaths(typ reflect.Type, prefix string, paths *[]string, visited map[reflect.Type]bool) {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if visited[typ] || opaqueTypes[typ.String()] {
		return
	}

	switch typ.Kind() {
	case reflect.Struct:
		visited[typ] = true
		defer delete(visited, typ)

		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			name := jsonFieldName(field)
			if name == "-" {
				continue
			}
			fieldPath := prefix + "/" + escapeJSONPointer(name)
			*paths = append(*paths, fieldPath)
			collectPaths(field.Type, fieldPath, paths, visited)
		}
	case reflect.Slice, reflect.Array:
		arrayPath := prefix + "/-"
		*paths = append(*paths, arrayPath)
		collectPaths(typ.Elem(), arrayPath, paths, visited)
	case reflect.Map:
		mapPath := prefix + "/*"
		*paths = append(*paths, mapPath)
		collectPaths(typ.Elem(), mapPath, paths, visited)
	}
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" {
		return field.Name
	}
	return name
}

func escapeJSONPointer(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}
