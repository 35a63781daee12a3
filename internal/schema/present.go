package schema

import (
	"context"
	"fmt"

	"arkival/internal/domain"
	"arkival/internal/port"
)

// DisplayTitle derives a record's display title: the first value of the first
// schema property, by convention.
func DisplayTitle(s domain.Schema, md domain.Metadata) string {
	if len(s) == 0 {
		return ""
	}
	values := md[s[0].ID].RawValue
	if len(values) == 0 {
		return ""
	}
	if str, ok := values[0].(string); ok {
		return str
	}
	return fmt.Sprintf("%v", values[0])
}

// BuildPresentation derives presentation values for every property of a
// record. Free-text labels echo the raw value; controlled-database labels are
// the referenced record's title. Presentation parallels RawValue element for
// element and is purely for display.
func BuildPresentation(ctx context.Context, s domain.Schema, md domain.Metadata, resolver port.ReferenceResolver) (domain.Metadata, error) {
	out := make(domain.Metadata, len(md))

	for id, item := range md {
		prop := s.Property(id)
		if prop == nil {
			out[id] = domain.MetadataItem{RawValue: item.RawValue}
			continue
		}

		presentation := make([]domain.PresentationValue, 0, len(item.RawValue))
		for _, v := range item.RawValue {
			label := fmt.Sprintf("%v", v)
			if prop.Type == domain.PropertyTypeControlledDatabase && prop.DatabaseID != nil {
				if str, ok := v.(string); ok {
					record, err := resolver.GetRecord(ctx, *prop.DatabaseID, str)
					if err != nil {
						return nil, fmt.Errorf("resolving presentation label for %q: %w", id, err)
					}
					if record != nil {
						label = record.Title
					}
				}
			}
			presentation = append(presentation, domain.PresentationValue{RawValue: v, Label: label})
		}

		out[id] = domain.MetadataItem{RawValue: item.RawValue, Presentation: presentation}
	}

	return out, nil
}
