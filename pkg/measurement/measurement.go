// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package measurement defines the identifiers and records shared by the
// pull scheduling core and the concrete pullers.
package measurement

// ID identifies a class of pulled measurement (battery level, memory
// stats, ...). IDs are stable for the process lifetime once registered.
type ID int32

// Vendor IDs are registered dynamically at runtime by external callers.
// Everything below the range is platform-owned and cannot be overridden.
const (
	VendorIDStart ID = 150001
	VendorIDEnd   ID = 200000
)

// IsVendor returns true if the id belongs to the externally-managed
// range. Vendor ids are treated as provisionally valid even before
// their puller registration arrives, since configs may reference them
// first.
func (id ID) IsVendor() bool {
	return id >= VendorIDStart && id < VendorIDEnd
}

// FieldValue is one numeric field of a pulled record, addressed by its
// position within the measurement's schema.
type FieldValue struct {
	Field int32
	Value float64
}

// Record is a single pulled data point. ElapsedNs carries the logical
// event time: the scheduling-clock tick that triggered the pull, not
// the time the pull completed. WallClockNs is stamped from the wall
// clock at the same moment, for attribution only.
type Record struct {
	ID          ID
	ElapsedNs   int64
	WallClockNs int64
	Fields      []FieldValue
}

// NewRecord returns a record for id with the given field values, in
// schema position order starting at 1.
func NewRecord(id ID, values ...float64) *Record {
	fields := make([]FieldValue, 0, len(values))
	for i, v := range values {
		fields = append(fields, FieldValue{Field: int32(i + 1), Value: v})
	}
	return &Record{ID: id, Fields: fields}
}

// Value returns the value at a field position, or false if the record
// has no such field.
func (r *Record) Value(field int32) (float64, bool) {
	for _, f := range r.Fields {
		if f.Field == field {
			return f.Value, true
		}
	}
	return 0, false
}
