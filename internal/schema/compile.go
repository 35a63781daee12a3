// Package schema compiles a collection's stored schema into an executable
// metadata validator. A compiled validator is a small interpreter: one check
// closure per property, with the pure arity pass kept separate from the
// type-specific value pass.
package schema

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"arkival/internal/domain"
	"arkival/internal/port"
)

// Validation messages. These are part of the API surface; clients match on
// them when presenting errors.
const (
	MsgRequired      = "required"
	MsgTooManyValues = "too many values"
	MsgNotAString    = "must be a string"
	MsgUnresolved    = "Record does not exist in referenced database"
)

type valueCheck func(ctx context.Context, values []interface{}) ([]string, error)

type compiledProperty struct {
	prop  domain.SchemaProperty
	check valueCheck
}

// Validator validates one record's metadata against a compiled schema.
type Validator struct {
	props []compiledProperty
}

// Compile turns a schema into a Validator. Controlled-database properties
// resolve references through the given resolver; wrap it in a BatchResolver
// when validating many records so lookups are de-duplicated and bounded.
func Compile(s domain.Schema, resolver port.ReferenceResolver) (*Validator, error) {
	seen := make(map[string]bool, len(s))
	props := make([]compiledProperty, 0, len(s))

	for i := range s {
		prop := s[i]
		if prop.ID == "" {
			return nil, fmt.Errorf("%w: property %d has no id", domain.ErrInvalidSchema, i)
		}
		if seen[prop.ID] {
			return nil, fmt.Errorf("%w: duplicate property id %q", domain.ErrInvalidSchema, prop.ID)
		}
		seen[prop.ID] = true

		var check valueCheck
		switch prop.Type {
		case domain.PropertyTypeFreeText:
			check = checkFreeText
		case domain.PropertyTypeControlledDatabase:
			if prop.DatabaseID == nil {
				return nil, fmt.Errorf("%w: property %q has no database_id", domain.ErrInvalidSchema, prop.ID)
			}
			check = controlledDatabaseCheck(*prop.DatabaseID, resolver)
		default:
			return nil, fmt.Errorf("%w: property %q has unknown type %q", domain.ErrInvalidSchema, prop.ID, prop.Type)
		}

		props = append(props, compiledProperty{prop: prop, check: check})
	}

	return &Validator{props: props}, nil
}

// Validate runs every property check against the record's metadata. A non-nil
// FieldErrors map means the record is invalid; a non-nil error means a
// resolver failure, not a validation failure.
func (v *Validator) Validate(ctx context.Context, md domain.Metadata) (domain.FieldErrors, error) {
	var fields domain.FieldErrors

	for i := range v.props {
		cp := &v.props[i]
		values := md[cp.prop.ID].RawValue

		msgs := arityErrors(&cp.prop, len(values))
		// An absent value is a valid empty state for a non-required
		// property; value checks (and the resolver) are never invoked
		// for it.
		if len(values) > 0 {
			valueMsgs, err := cp.check(ctx, values)
			if err != nil {
				return nil, fmt.Errorf("validating property %q: %w", cp.prop.ID, err)
			}
			msgs = append(msgs, valueMsgs...)
		}

		if len(msgs) > 0 {
			if fields == nil {
				fields = domain.FieldErrors{}
			}
			fields[cp.prop.ID] = msgs
		}
	}

	return fields, nil
}

// arityErrors is the pure arity pass: it depends only on required, repeated,
// and the number of values.
func arityErrors(prop *domain.SchemaProperty, n int) []string {
	var msgs []string
	if !prop.Repeated && n > 1 {
		msgs = append(msgs, MsgTooManyValues)
	}
	if prop.Required && n == 0 {
		msgs = append(msgs, MsgRequired)
	}
	return msgs
}

func checkFreeText(_ context.Context, values []interface{}) ([]string, error) {
	var msgs []string
	for _, v := range values {
		if _, ok := v.(string); !ok {
			msgs = append(msgs, MsgNotAString)
		}
	}
	return msgs, nil
}

func controlledDatabaseCheck(databaseID uuid.UUID, resolver port.ReferenceResolver) valueCheck {
	return func(ctx context.Context, values []interface{}) ([]string, error) {
		var msgs []string
		for _, v := range values {
			s, ok := v.(string)
			if !ok {
				msgs = append(msgs, MsgNotAString)
				continue
			}
			record, err := resolver.GetRecord(ctx, databaseID, s)
			if err != nil {
				return nil, err
			}
			if record == nil {
				msgs = append(msgs, MsgUnresolved)
			}
		}
		return msgs, nil
	}
}
