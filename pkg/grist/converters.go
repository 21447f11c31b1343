package grist

import (
	"errors"
	"fmt"
	"strconv"
)

// Converter transforms one cell value between wire and program form.
type Converter func(value interface{}) (interface{}, error)

// SQLResultsKey is the reserved registry key for ad hoc query results.
// Grist table ids are identifier-shaped, so the stars cannot collide
// with a real table.
const SQLResultsKey = "*sql*"

// ConverterMap registers converters by table and column. A client
// carries two of these, one for inbound cells and one for outbound.
//
// The two directions fail differently. Outbound conversion is
// all-or-nothing: the first failing cell aborts the whole call before
// anything reaches the wire. Inbound conversion never takes the call
// down for a bad cell: failures confined to the value domain degrade
// the cell, nil staying nil and anything else becoming its plain
// string rendering. Failures outside the value domain propagate.
type ConverterMap map[string]map[string]Converter

// Register binds a converter to a table and column, displacing any
// previous one.
func (m ConverterMap) Register(table, column string, fn Converter) {
	columns, ok := m[table]
	if !ok {
		columns = make(map[string]Converter)
		m[table] = columns
	}

	columns[column] = fn
}

// IsBadValue reports whether err is confined to the value domain:
// the ErrBadValue sentinel or a numeric parse failure.
func IsBadValue(err error) bool {
	if errors.Is(err, ErrBadValue) {
		return true
	}

	numErr := &strconv.NumError{}

	return errors.As(err, &numErr)
}

// degrade replaces an inconvertible inbound cell: nil stays nil,
// everything else becomes its generic string rendering.
func degrade(value interface{}) interface{} {
	if value == nil {
		return nil
	}

	return fmt.Sprintf("%v", value)
}

// ConvertOut runs the outbound converters of a table over field sets
// about to be sent. The input is not touched; the returned copies
// carry the converted cells. The first failure aborts with a
// ConverterError naming the cell.
func (m ConverterMap) ConvertOut(table string, fieldsets []map[string]interface{}) ([]map[string]interface{}, error) {
	columns := m[table]
	if len(columns) == 0 {
		return fieldsets, nil
	}

	out := make([]map[string]interface{}, len(fieldsets))

	for i, fields := range fieldsets {
		converted := make(map[string]interface{}, len(fields))

		for column, value := range fields {
			fn, ok := columns[column]
			if !ok {
				converted[column] = value

				continue
			}

			newValue, err := fn(value)
			if err != nil {
				return nil, &ConverterError{Table: table, Column: column, Err: err}
			}

			converted[column] = newValue
		}

		out[i] = converted
	}

	return out, nil
}

// ConvertOutRecords is ConvertOut for full records, keeping row ids.
func (m ConverterMap) ConvertOutRecords(table string, records []Record) ([]Record, error) {
	if len(m[table]) == 0 {
		return records, nil
	}

	fieldsets := make([]map[string]interface{}, len(records))
	for i, record := range records {
		fieldsets[i] = record.Fields
	}

	converted, err := m.ConvertOut(table, fieldsets)
	if err != nil {
		return nil, err
	}

	out := make([]Record, len(records))
	for i, record := range records {
		out[i] = Record{ID: record.ID, Fields: converted[i]}
	}

	return out, nil
}

// ConvertIn runs the inbound converters of a table over freshly
// decoded records, in place. Value-domain failures degrade the cell;
// anything else stops the call.
func (m ConverterMap) ConvertIn(table string, records []Record) error {
	columns := m[table]
	if len(columns) == 0 {
		return nil
	}

	for _, record := range records {
		err := convertFieldsIn(columns, record.Fields)
		if err != nil {
			return err
		}
	}

	return nil
}

// ConvertInSQL applies the reserved-key inbound converters to ad hoc
// query rows.
func (m ConverterMap) ConvertInSQL(records []SQLRecord) error {
	columns := m[SQLResultsKey]
	if len(columns) == 0 {
		return nil
	}

	for _, record := range records {
		err := convertFieldsIn(columns, record.Fields)
		if err != nil {
			return err
		}
	}

	return nil
}

func convertFieldsIn(columns map[string]Converter, fields map[string]interface{}) error {
	for column, fn := range columns {
		value, present := fields[column]
		if !present {
			continue
		}

		newValue, err := fn(value)
		if err != nil {
			if IsBadValue(err) {
				fields[column] = degrade(value)

				continue
			}

			return fmt.Errorf("converting received %s: %w", column, err)
		}

		fields[column] = newValue
	}

	return nil
}
