package models

// FilterNode is a node of the filter tree built by the dashboards. Leaves
// set column, operator and value; groups set a combinator and children.
type FilterNode struct {
	Column     string        `json:"column,omitempty"`
	Operator   string        `json:"operator,omitempty" validate:"required_with=Column"`
	Value      interface{}   `json:"value,omitempty"`
	Combinator string        `json:"combinator,omitempty" validate:"omitempty,oneof=AND OR and or"`
	Children   []*FilterNode `json:"children,omitempty" validate:"omitempty,dive,required"`
	Removed    bool          `json:"removed,omitempty"`
}

type CompileRequest struct {
	// Table and Dataset are optional, when set the column types of the
	// dataset decide how literals are rendered
	Table      string      `json:"table,omitempty" validate:"required_with=Dataset"`
	Dataset    string      `json:"dataset,omitempty" validate:"required_with=Table"`
	Filter     *FilterNode `json:"filter"`
	Population string      `json:"population,omitempty"`
}

type CompileResponse struct {
	Where string `json:"where"`
}
