package gormstorage

import (
	"time"

	"gorm.io/datatypes"
)

// Target is one generated trajectory. The track columns are filled in when
// the sink closes.
type Target struct {
	ID          uint           `json:"id" gorm:"primarykey;autoIncrement"`
	CreatedAt   time.Time      `json:"createdAt"`
	RunID       string         `json:"runId" gorm:"size:64;uniqueIndex:idx_run_target"`
	TargetID    string         `json:"targetId" gorm:"size:128;uniqueIndex:idx_run_target"`
	Name        string         `json:"name" gorm:"size:128"`
	Frame       string         `json:"frame" gorm:"size:3"` // NED or NUE
	Config      datatypes.JSON `json:"config"`
	SampleCount int            `json:"sampleCount"`
	TrackWKB    []byte         `json:"-" gorm:"column:track_wkb"` // EPSG:3857 LineString Z
	TrackLength float64        `json:"trackLength"`              // horizontal meters
}

func (*Target) TableName() string {
	return "targets"
}

// SampleRow is one output row, rounded and ordered in the target's frame.
type SampleRow struct {
	ID       uint    `json:"id" gorm:"primarykey;autoIncrement"`
	RunID    string  `json:"runId" gorm:"size:64;index:idx_sample_target"`
	TargetID string  `json:"targetId" gorm:"size:128;index:idx_sample_target"`
	Time     float64 `json:"time" gorm:"column:time"`
	X        float64 `json:"x" gorm:"column:x"`
	Y        float64 `json:"y" gorm:"column:y"`
	Z        float64 `json:"z" gorm:"column:z"`
	VX       float64 `json:"vx" gorm:"column:vx"`
	VY       float64 `json:"vy" gorm:"column:vy"`
	VZ       float64 `json:"vz" gorm:"column:vz"`
}

func (*SampleRow) TableName() string {
	return "samples"
}

// Models lists the tables migrated on Init.
var Models = []any{
	&Target{},
	&SampleRow{},
}
