package extract

import (
	"math"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/papapumpkin/rocketserializer/internal/ork"
)

const fixturePath = "testdata/calisto.ork"

// openFixture opens the Calisto fixture and registers cleanup.
func openFixture(t *testing.T) *ork.Document {
	t.Helper()
	doc, err := ork.Open(fixturePath)
	if err != nil {
		t.Fatalf("ork.Open(%q): %v", fixturePath, err)
	}
	t.Cleanup(func() { doc.Close() })
	if err := doc.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return doc
}

// fixtureTree returns the fixture's component tree and walked elements.
func fixtureTree(t *testing.T, doc *ork.Document) (ork.Component, *Elements) {
	t.Helper()
	root, err := ork.NewTree(doc)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	elems, err := WalkPositions(root, 1.4, nil)
	if err != nil {
		t.Fatalf("WalkPositions: %v", err)
	}
	return root, elems
}

// observedLogger records Warn and above for assertions.
func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	return zap.New(core), logs
}

func approx(got, want float64) bool {
	return math.Abs(got-want) <= 1e-9*math.Max(1, math.Abs(want))
}

func ptr(v float64) *float64 { return &v }

func nan() float64 { return math.NaN() }
