package transfer

import "strings"

// RenameStrategy derives serialization names from internal field names.
type RenameStrategy string

const (
	RenameNone  RenameStrategy = ""
	RenameUpper RenameStrategy = "upper"
	RenameLower RenameStrategy = "lower"
	RenameCamel RenameStrategy = "camel"
	RenameKebab RenameStrategy = "kebab"
)

// Apply transforms a snake_case field name according to the strategy.
// Unknown strategies leave the name untouched.
func (s RenameStrategy) Apply(name string) string {
	switch s {
	case RenameUpper:
		return strings.ToUpper(name)
	case RenameLower:
		return strings.ToLower(name)
	case RenameCamel:
		return camelize(name)
	case RenameKebab:
		return strings.ReplaceAll(name, "_", "-")
	default:
		return name
	}
}

func camelize(name string) string {
	parts := strings.Split(name, "_")
	var sb strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			sb.WriteString(part)
			continue
		}
		sb.WriteString(strings.ToUpper(part[:1]))
		sb.WriteString(part[1:])
	}
	return sb.String()
}
