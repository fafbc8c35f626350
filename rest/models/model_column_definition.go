package models

import "github.com/autoperception/dataset-explorer/schema"

// ColumnDefinition describes a filterable column of a dataset table
type ColumnDefinition struct {

	// Name of the column in the table
	Name string `json:"name"`

	// Label shown in dropdowns
	Label string `json:"label"`

	// Type is one of string, number and bool, empty when the engine type is unknown
	Type schema.ColumnType `json:"type,omitempty"`

	// Operators allowed when filtering on the column
	Operators []schema.Option `json:"operators"`
}

type ColumnsResponse struct {
	Table   string             `json:"table"`
	Dataset string             `json:"dataset"`
	Columns []ColumnDefinition `json:"columns"`
}

type ValuesResponse struct {
	Column string          `json:"column"`
	Values []schema.Option `json:"values"`
}
