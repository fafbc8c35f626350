package models

import "github.com/autoperception/dataset-explorer/catalog"

type DatasetsResponse struct {
	Datasets []catalog.Dataset `json:"datasets"`
}

type WorkflowsResponse struct {
	Workflows []catalog.Workflow `json:"workflows"`
}
