package config

import (
	"fmt"
)

type Dashboards int

const (
	Catalog Dashboards = 1 << iota
	Filter
	Histogram
	ConfusionMatrix
	Frames
	Workflows
)

const AllDashboards = Catalog | Filter | Histogram | ConfusionMatrix | Frames | Workflows

func Enabled(names ...string) (Dashboards, error) {
	var d Dashboards
	err := d.Add(names...)
	return d, err
}

func (d *Dashboards) Set(dashboards Dashboards)          { *d |= dashboards }
func (d *Dashboards) Clear(dashboards Dashboards)        { *d &= ^dashboards }
func (d Dashboards) IsEnabled(dashboards Dashboards) bool { return d&dashboards != 0 }

func (d *Dashboards) Add(names ...string) error {
	for _, name := range names {
		switch name {
		case "Catalog":
			d.Set(Catalog)
		case "Filter":
			d.Set(Filter)
		case "Histogram":
			d.Set(Histogram)
		case "ConfusionMatrix":
			d.Set(ConfusionMatrix)
		case "Frames":
			d.Set(Frames)
		case "Workflows":
			d.Set(Workflows)
		case "All":
			d.Set(AllDashboards)
		default:
			return fmt.Errorf("invalid dashboard: %s", name)
		}
	}
	return nil
}
