// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import "fmt"

// State is the lifecycle position of a single scan run
type State int

const (
	StateConfigured State = iota
	StateEnumerating
	StateScanning
	StateAggregating
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateEnumerating:
		return "enumerating"
	case StateScanning:
		return "scanning"
	case StateAggregating:
		return "aggregating"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// canTransition lists the edges of the scan lifecycle
func canTransition(from, to State) bool {
	if to == StateFailed {
		return from == StateConfigured || from == StateEnumerating || from == StateScanning
	}
	return !from.Terminal() && to == from+1
}
