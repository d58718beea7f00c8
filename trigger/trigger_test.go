// Copyright 2026 The Pulsewatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package trigger_test

import (
	"testing"
	"time"

	"github.com/pulsewatch/pulsewatch/pulseclock"
	"github.com/pulsewatch/pulsewatch/trigger"
)

func TestThresholdEpsilonBoundary(t *testing.T) {
	tr := trigger.NewThresholdTrigger(80.0, trigger.GreaterOrEqual)
	if !tr.Evaluate(80.0 - 1e-10) {
		t.Fatal("expected >= threshold within epsilon to fire")
	}
	if tr.Evaluate(80.0 - 1e-6) {
		t.Fatal("expected value well below threshold not to fire")
	}

	eq := trigger.NewThresholdTrigger(5.0, trigger.Equal)
	if !eq.Evaluate(5.0 + 1e-10) {
		t.Fatal("expected equality within epsilon to fire")
	}
	if eq.Evaluate(5.1) {
		t.Fatal("expected equality outside epsilon not to fire")
	}
}

func TestThresholdStrictHasNoEpsilon(t *testing.T) {
	tr := trigger.NewThresholdTrigger(80.0, trigger.GreaterThan)
	if tr.Evaluate(80.0) {
		t.Fatal("strict > at exact threshold must not fire")
	}
}

func TestRangeTrigger(t *testing.T) {
	in := trigger.InRange(10, 20)
	if !in.Evaluate(15) || in.Evaluate(25) {
		t.Fatal("InRange evaluated incorrectly")
	}
	out := trigger.OutOfRange(10, 20)
	if out.Evaluate(15) || !out.Evaluate(25) {
		t.Fatal("OutOfRange evaluated incorrectly")
	}
}

func TestRateOfChangeFalseUntilMinSamples(t *testing.T) {
	now := time.Now()
	clock := pulseclock.NewFakeMonotonic(&now)
	roc := trigger.NewRateOfChangeTrigger(10, time.Minute, trigger.Increasing, 4)
	roc.Clock = clock

	for i := 0; i < 3; i++ {
		if roc.Evaluate(float64(i) * 100) {
			t.Fatalf("call %d: expected false before MinSamples reached", i)
		}
		now = now.Add(time.Second)
	}
}

func TestRateOfChangeFiresOnSteepIncrease(t *testing.T) {
	now := time.Now()
	clock := pulseclock.NewFakeMonotonic(&now)
	roc := trigger.NewRateOfChangeTrigger(5, time.Minute, trigger.Increasing, 2)
	roc.Clock = clock

	roc.Evaluate(0)
	now = now.Add(time.Second)
	fired := roc.Evaluate(1000)
	if !fired {
		t.Fatal("expected a steep increase to fire")
	}
}

func TestAnomalyDegenerateStdDev(t *testing.T) {
	a := trigger.NewAnomalyTrigger(3.0, 50, 5)
	for i := 0; i < 10; i++ {
		if a.Evaluate(42.0) {
			t.Fatal("constant history has zero stddev and must never fire")
		}
	}
}

func TestAnomalyFiresOnOutlier(t *testing.T) {
	a := trigger.NewAnomalyTrigger(2.0, 50, 5)
	for i := 0; i < 20; i++ {
		a.Evaluate(100 + float64(i%3))
	}
	if !a.Evaluate(10000) {
		t.Fatal("expected a large outlier to fire")
	}
}

func TestCompositeXOR(t *testing.T) {
	a := trigger.Above(10)
	b := trigger.Above(20)
	xor := &trigger.CompositeTrigger{Op: trigger.XOR, Children: []trigger.Trigger{a, b}}

	if !xor.EvaluateMulti([]float64{15, 5}) {
		t.Fatal("expected XOR to fire when exactly one child fires")
	}
	if xor.EvaluateMulti([]float64{25, 25}) {
		t.Fatal("expected XOR not to fire when both children fire")
	}
}

func TestCompositeNot(t *testing.T) {
	inv := trigger.Invert(trigger.Above(10))
	if inv.Evaluate(5) != true {
		t.Fatal("expected NOT(above 10) to fire for 5")
	}
	if inv.Evaluate(15) != false {
		t.Fatal("expected NOT(above 10) not to fire for 15")
	}
}

func TestDeltaFirstCallAlwaysFalse(t *testing.T) {
	d := trigger.NewDeltaTrigger(5, true)
	if d.Evaluate(100) {
		t.Fatal("first call must not fire")
	}
	if !d.Evaluate(110) {
		t.Fatal("expected a jump of 10 > threshold 5 to fire")
	}
}

func TestAbsentTriggerGap(t *testing.T) {
	now := time.Now()
	clock := pulseclock.NewFakeMonotonic(&now)
	a := trigger.NewAbsentTrigger(time.Minute)
	a.Clock = clock

	if a.Evaluate(0) {
		t.Fatal("first call must not fire")
	}
	now = now.Add(30 * time.Second)
	if a.Evaluate(0) {
		t.Fatal("gap under AbsentDuration must not fire")
	}
	now = now.Add(2 * time.Minute)
	if !a.Evaluate(0) {
		t.Fatal("gap over AbsentDuration must fire")
	}
}
