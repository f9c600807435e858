// Package reflection bridges Go structs and the abstract model registry.
// It derives type annotations from struct fields and extracts handler names
// for route metadata.
package reflection

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/skiffworks/skiff/transfer"
	"github.com/skiffworks/skiff/typemap"
)

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// AnnotationFor derives the type annotation for a Go type. Pointers map to
// optional unions, slices to lists, maps to dicts and structs to named
// models.
func AnnotationFor(t reflect.Type) (typemap.Annotation, error) {
	switch {
	case t == timeType:
		return typemap.Time, nil
	case t == uuidType:
		return typemap.UUID, nil
	}

	switch t.Kind() {
	case reflect.String:
		return typemap.String, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return typemap.Int, nil
	case reflect.Float32, reflect.Float64:
		return typemap.Float, nil
	case reflect.Bool:
		return typemap.Bool, nil
	case reflect.Pointer:
		inner, err := AnnotationFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return typemap.Optional(inner), nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return typemap.Bytes, nil
		}
		elem, err := AnnotationFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return typemap.ListOf(elem), nil
	case reflect.Map:
		key, err := AnnotationFor(t.Key())
		if err != nil {
			return nil, err
		}
		value, err := AnnotationFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return typemap.MapOf(key, value), nil
	case reflect.Struct:
		return typemap.Model(t.Name()), nil
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return typemap.Any, nil
		}
		return nil, fmt.Errorf("unsupported interface type %s", t)
	default:
		return nil, fmt.Errorf("unsupported type kind %s", t.Kind())
	}
}

// FieldsOf converts a struct type into model field definitions. Wire names
// come from json tags when present; fields tagged json:"-" and unexported
// fields are skipped. A transfer tag of read-only or private sets the
// corresponding mark.
func FieldsOf(t reflect.Type) ([]transfer.FieldDefinition, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model type must be a struct, got %s", t.Kind())
	}

	fields := make([]transfer.FieldDefinition, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := fieldName(field)
		if name == "" {
			continue
		}

		annotation, err := AnnotationFor(field.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t.Name(), field.Name, err)
		}

		fields = append(fields, transfer.FieldDefinition{
			Name: name,
			Type: annotation,
			Mark: markFor(field),
		})
	}
	return fields, nil
}

// RegisterModel registers a struct type and, recursively, every struct
// type its fields reference.
func RegisterModel(registry *transfer.Registry, t reflect.Type) error {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t == timeType || t == uuidType {
		return nil
	}
	if _, ok := registry.Fields(t.Name()); ok {
		return nil
	}

	fields, err := FieldsOf(t)
	if err != nil {
		return err
	}
	registry.Register(t.Name(), fields...)

	for i := 0; i < t.NumField(); i++ {
		if err := registerReferenced(registry, t.Field(i).Type); err != nil {
			return err
		}
	}
	return nil
}

func registerReferenced(registry *transfer.Registry, t reflect.Type) error {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice:
		return registerReferenced(registry, t.Elem())
	case reflect.Map:
		if err := registerReferenced(registry, t.Key()); err != nil {
			return err
		}
		return registerReferenced(registry, t.Elem())
	case reflect.Struct:
		return RegisterModel(registry, t)
	default:
		return nil
	}
}

func fieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

func markFor(field reflect.StructField) transfer.Mark {
	switch field.Tag.Get("transfer") {
	case "read-only":
		return transfer.MarkReadOnly
	case "private":
		return transfer.MarkPrivate
	default:
		return transfer.MarkNone
	}
}

// ExtractHandlerName returns the bare function name of a handler value.
func ExtractHandlerName(handler any) string {
	if handler == nil {
		return ""
	}
	v := reflect.ValueOf(handler)
	if v.Kind() != reflect.Func {
		return ""
	}
	fn := runtime.FuncForPC(v.Pointer())
	if fn == nil {
		return ""
	}
	name := fn.Name()
	if lastDot := strings.LastIndex(name, "."); lastDot >= 0 {
		name = name[lastDot+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}
