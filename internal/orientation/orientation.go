package orientation

import (
	"github.com/relabs-tech/hmd_tracker/internal/geom"
)

// Pose is the canonical representation of orientation for your app.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Source is anything that can provide poses over time: the live headset,
// a mock source, maybe a replay source from file later.
type Source interface {
	Next() (Pose, error)
}

// FromQuaternion converts a fused orientation quaternion into
// roll/pitch/yaw in degrees (ZYX order).
func FromQuaternion(q geom.Quaternion) Pose {
	e := q.ToEuler()
	return Pose{
		Roll:  e.Roll,
		Pitch: e.Pitch,
		Yaw:   e.Yaw,
	}
}
