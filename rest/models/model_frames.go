package models

type FramesRequest struct {
	Dataset     string      `json:"dataset" validate:"required"`
	Clip        string      `json:"clip" validate:"required"`
	ClipColumn  string      `json:"clipColumn,omitempty"`
	FrameColumn string      `json:"frameColumn,omitempty"`
	Columns     []string    `json:"columns,omitempty"`
	Filter      *FilterNode `json:"filter,omitempty"`
	Limit       int         `json:"limit,omitempty" validate:"gte=0"`
}

// Frame is a row of a clip. Values holding s3:// paths are presigned into
// Urls under the same key.
type Frame struct {
	Values map[string]interface{} `json:"values"`
	Urls   map[string]string      `json:"urls,omitempty"`
}

type FramesResponse struct {
	Clip   string  `json:"clip"`
	Frames []Frame `json:"frames"`
}
