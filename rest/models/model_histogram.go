package models

import "github.com/autoperception/dataset-explorer/query"

type HistogramRequest struct {
	Column     string      `json:"column" validate:"required"`
	Filter     *FilterNode `json:"filter,omitempty"`
	Population string      `json:"population,omitempty"`

	// Bins switches to a numeric histogram over [Min, Max]
	Bins int      `json:"bins,omitempty" validate:"gte=0,lte=1000"`
	Min  *float64 `json:"min,omitempty" validate:"required_with=Bins"`
	Max  *float64 `json:"max,omitempty" validate:"required_with=Bins"`
}

type CategoryCount struct {
	Value interface{} `json:"value"`
	Count int64       `json:"count"`
}

type HistogramResponse struct {
	Column     string          `json:"column"`
	Categories []CategoryCount `json:"categories,omitempty"`
	Buckets    []query.Bucket  `json:"buckets,omitempty"`
}
