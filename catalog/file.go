package catalog

import (
	"context"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// FileSource serves a static catalog read from a YAML, JSON or TOML file:
//
//	datasets:
//	  - name: dump_a
//	    created: 2024-03-01T00:00:00Z
//	    tables:
//	      frames: perception.frames_dump_a
//	workflows:
//	  - id: wf-1
//	    dataset: dump_a
//	    status: SUCCEEDED
//	    updated: 2024-03-02T10:00:00Z
type FileSource struct {
	datasets  []Dataset
	workflows []Workflow
}

func NewFileSource(datasets []Dataset, workflows []Workflow) *FileSource {
	sortDatasets(datasets)
	return &FileSource{datasets: datasets, workflows: workflows}
}

// LoadFile reads a catalog file, the format follows the file extension
func LoadFile(path string) (*FileSource, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var datasets []Dataset
	if err := decode(v.Get("datasets"), &datasets); err != nil {
		return nil, err
	}

	var workflows []Workflow
	if err := decode(v.Get("workflows"), &workflows); err != nil {
		return nil, err
	}

	return NewFileSource(datasets, workflows), nil
}

func decode(input interface{}, out interface{}) error {
	if input == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func (s *FileSource) Datasets(_ context.Context) ([]Dataset, error) {
	return append([]Dataset{}, s.datasets...), nil
}

func (s *FileSource) Dataset(_ context.Context, name string) (Dataset, error) {
	for _, dataset := range s.datasets {
		if dataset.Name == name {
			return dataset, nil
		}
	}
	return Dataset{}, notFound(name)
}

func (s *FileSource) Workflows(_ context.Context, dataset string) ([]Workflow, error) {
	workflows := make([]Workflow, 0, len(s.workflows))
	for _, workflow := range s.workflows {
		if dataset == "" || workflow.Dataset == dataset {
			workflows = append(workflows, workflow)
		}
	}
	sortWorkflows(workflows)
	return workflows, nil
}
