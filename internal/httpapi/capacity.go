package httpapi

import "sync"

const targetActiveUsers = 2000

// CapacitySample is one load-test observation: concurrent active users
// against measured throughput.
type CapacitySample struct {
	Users int     `json:"users"`
	RPS   float64 `json:"rps"`
}

// CapacityTracker accumulates load-test samples and reports whether
// throughput scales linearly with active users as load grows.
type CapacityTracker struct {
	mu      sync.Mutex
	samples []CapacitySample
}

// NewCapacityTracker seeds the tracker with zero or more known samples.
func NewCapacityTracker(samples ...CapacitySample) *CapacityTracker {
	return &CapacityTracker{samples: append([]CapacitySample(nil), samples...)}
}

// RecordSample appends a newly observed load-test sample.
func (c *CapacityTracker) RecordSample(s CapacitySample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = append(c.samples, s)
}

// CapacityInstrumentationResponse is the /v1/ops/capacity wire shape.
type CapacityInstrumentationResponse struct {
	BaselineUsers      int     `json:"baseline_users"`
	BaselineRPS        float64 `json:"baseline_rps"`
	TargetUsers        int     `json:"target_users"`
	TargetRPS          float64 `json:"target_rps"`
	UserScale          float64 `json:"user_scale"`
	ThroughputScale    float64 `json:"throughput_scale"`
	MeasuredLinearity  float64 `json:"measured_linearity"`
	Comfortable        bool    `json:"comfortable"`
	ReadinessStatus    string  `json:"readiness_status"`
}

// Evaluate computes the linearity readiness report from the lowest-user
// baseline sample against the highest-user sample at or above
// targetActiveUsers. ok is false when no sample meets that floor.
func (c *CapacityTracker) Evaluate() (CapacityInstrumentationResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.samples) == 0 {
		return CapacityInstrumentationResponse{}, false
	}

	baseline := c.samples[0]
	for _, s := range c.samples[1:] {
		if s.Users < baseline.Users {
			baseline = s
		}
	}

	var target *CapacitySample
	for i := range c.samples {
		s := c.samples[i]
		if s.Users < targetActiveUsers {
			continue
		}
		if target == nil || s.Users > target.Users {
			target = &c.samples[i]
		}
	}
	if target == nil {
		return CapacityInstrumentationResponse{}, false
	}

	userScale := float64(target.Users) / float64(baseline.Users)
	throughputScale := target.RPS / maxFloat(baseline.RPS, 0.0001)
	linearity := throughputScale / maxFloat(userScale, 0.0001)
	comfortable := linearity >= 0.80
	status := "AT_RISK"
	if comfortable {
		status = "READY"
	}

	return CapacityInstrumentationResponse{
		BaselineUsers:     baseline.Users,
		BaselineRPS:       baseline.RPS,
		TargetUsers:       target.Users,
		TargetRPS:         target.RPS,
		UserScale:         userScale,
		ThroughputScale:   throughputScale,
		MeasuredLinearity: linearity,
		Comfortable:       comfortable,
		ReadinessStatus:   status,
	}, true
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
