// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

// State is the lifecycle stage of a resource.
type State int

// Resource states. Invalid is only ever returned from queries for ids that
// don't resolve to a live slot.
const (
	Initial State = iota
	Setup
	Pending
	Valid
	Failed
	Invalid
)

var stateNames = [...]string{
	Initial: "Initial",
	Setup:   "Setup",
	Pending: "Pending",
	Valid:   "Valid",
	Failed:  "Failed",
	Invalid: "Invalid",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}
