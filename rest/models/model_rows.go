package models

type OrderBy struct {
	Column string `json:"column" validate:"required"`
	Order  string `json:"order,omitempty" validate:"omitempty,oneof=asc desc ASC DESC"`
}

type RowsRequest struct {
	Columns    []string    `json:"columns,omitempty"`
	Filter     *FilterNode `json:"filter,omitempty"`
	Population string      `json:"population,omitempty"`
	OrderBy    []OrderBy   `json:"orderBy,omitempty" validate:"omitempty,dive"`
	PageSize   int         `json:"pageSize,omitempty" validate:"gte=0"`
}

type Rows struct {
	QueryID string                   `json:"queryId,omitempty"`
	Rows    []map[string]interface{} `json:"rows"`
	Count   int64                    `json:"count"`
}

// UnionRowsRequest fetches the same rows from several datasets of a table
type UnionRowsRequest struct {
	Datasets   []string    `json:"datasets" validate:"required,min=1,dive,required"`
	Columns    []string    `json:"columns,omitempty"`
	Filter     *FilterNode `json:"filter,omitempty"`
	Population string      `json:"population,omitempty"`
	PageSize   int         `json:"pageSize,omitempty" validate:"gte=0"`
}
