package transfer

import (
	"github.com/skiffworks/skiff/typemap"
)

// TransferIn maps an inbound wire payload onto internal field names,
// honoring serialization names, partial fields, exclusions, defaults and
// NotRequired wrappers.
// Nested models are transferred recursively through the field's transfer type.
func TransferIn(fields []TransferFieldDefinition, source map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for _, field := range fields {
		if field.IsExcluded {
			continue
		}
		raw, present := source[field.SerializationName]
		if !present {
			switch {
			case field.IsPartial:
				continue
			case field.HasDefault:
				out[field.Name] = field.Default
			case field.DefaultFactory != nil:
				out[field.Name] = field.DefaultFactory()
			case field.TransferType.Parsed().Wrappers.Has(typemap.WrapperNotRequired):
				continue
			case field.TransferType.Parsed().IsOptional():
				continue
			default:
				return nil, &MissingFieldError{Field: field.SerializationName, Model: field.ModelName}
			}
			continue
		}
		value, err := transferValue(field.TransferType, raw, DirectionIn)
		if err != nil {
			return nil, err
		}
		out[field.Name] = value
	}
	return out, nil
}

// TransferOut maps internal field values to their wire representation,
// dropping excluded fields and applying serialization names.
func TransferOut(fields []TransferFieldDefinition, source map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for _, field := range fields {
		if field.IsExcluded {
			continue
		}
		raw, present := source[field.Name]
		if !present {
			continue
		}
		value, err := transferValue(field.TransferType, raw, DirectionOut)
		if err != nil {
			return nil, err
		}
		out[field.SerializationName] = value
	}
	return out, nil
}

// transferValue drives a value through a transfer type. Subtrees without
// nested models pass through untouched; only composite shapes that can hold
// a model are traversed.
func transferValue(tt TransferType, value any, direction Direction) (any, error) {
	if value == nil || !tt.HasNested() {
		return value, nil
	}

	switch t := tt.(type) {
	case SimpleType:
		payload, ok := value.(map[string]any)
		if !ok {
			return value, nil
		}
		return transferNested(t.NestedInfo, payload, direction)
	case CollectionType:
		items, ok := value.([]any)
		if !ok {
			return value, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			transferred, err := transferValue(t.Inner, item, direction)
			if err != nil {
				return nil, err
			}
			out[i] = transferred
		}
		return out, nil
	case TupleType:
		items, ok := value.([]any)
		if !ok {
			return value, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			if i >= len(t.Inner) {
				out[i] = item
				continue
			}
			transferred, err := transferValue(t.Inner[i], item, direction)
			if err != nil {
				return nil, err
			}
			out[i] = transferred
		}
		return out, nil
	case MappingType:
		entries, ok := value.(map[string]any)
		if !ok {
			return value, nil
		}
		out := make(map[string]any, len(entries))
		for key, entry := range entries {
			transferred, err := transferValue(t.Value, entry, direction)
			if err != nil {
				return nil, err
			}
			out[key] = transferred
		}
		return out, nil
	case UnionType:
		// A mapping payload routes to the nested member whose field set
		// covers the most payload keys, first-declared member winning
		// ties; scalar payloads pass through as one of the plain members.
		payload, ok := value.(map[string]any)
		if !ok {
			return value, nil
		}
		if member := matchUnionMember(t.Inner, payload, direction); member != nil {
			return transferValue(member, payload, direction)
		}
		return value, nil
	default:
		return value, nil
	}
}

// matchUnionMember picks the nested union member whose model field set
// matches the most payload keys. Indirectly nested members score zero, so
// a lone nested member still matches.
func matchUnionMember(members []TransferType, payload map[string]any, direction Direction) TransferType {
	var best TransferType
	bestScore := -1
	for _, member := range members {
		if !member.HasNested() {
			continue
		}
		score := memberFieldMatches(member, payload, direction)
		if score > bestScore {
			best, bestScore = member, score
		}
	}
	return best
}

func memberFieldMatches(member TransferType, payload map[string]any, direction Direction) int {
	simple, ok := member.(SimpleType)
	if !ok || simple.NestedInfo == nil {
		return 0
	}
	matches := 0
	for _, field := range simple.NestedInfo.Fields {
		key := field.SerializationName
		if direction == DirectionOut {
			key = field.Name
		}
		if _, present := payload[key]; present {
			matches++
		}
	}
	return matches
}

func transferNested(info *NestedFieldInfo, payload map[string]any, direction Direction) (any, error) {
	if direction == DirectionIn {
		return TransferIn(info.Fields, payload)
	}
	return TransferOut(info.Fields, payload)
}
