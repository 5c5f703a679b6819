package tests

import (
	"runtime/debug"
	"testing"
)

// Success and Failed markers for test log output.
const (
	Success = "✓"
	Failed  = "✗"
)

// Recover is used to prevent panics from allowing the test to cleanup.
func Recover(t *testing.T) {
	if r := recover(); r != nil {
		t.Fatal("Unhandled Exception:", string(debug.Stack()))
	}
}
