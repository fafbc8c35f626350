package models

import "github.com/autoperception/dataset-explorer/query"

// LabelSource is the label column of one dump
type LabelSource struct {
	Dataset string `json:"dataset" validate:"required"`
	Column  string `json:"column" validate:"required"`
}

type ConfusionMatrixRequest struct {
	Table      string      `json:"table" validate:"required"`
	Actual     LabelSource `json:"actual"`
	Predicted  LabelSource `json:"predicted"`
	JoinKeys   []string    `json:"joinKeys,omitempty"`
	Filter     *FilterNode `json:"filter,omitempty"`
	Population string      `json:"population,omitempty"`
}

type ConfusionMatrixResponse struct {
	QueryID string `json:"queryId,omitempty"`
	*query.Matrix
}
