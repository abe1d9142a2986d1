package hashid_test

import (
	"testing"

	"github.com/voxlogica-project/voxlogica-core/internal/hashid"
)

func TestConstantDeterministic(t *testing.T) {
	if hashid.Constant(1.0) != hashid.Constant(1.0) {
		t.Fatal("same constant should hash the same")
	}
	if hashid.Constant(1.0) == hashid.Constant(2.0) {
		t.Fatal("different constants should hash differently")
	}
}

func TestConstantNegativeZeroNormalizes(t *testing.T) {
	if hashid.Constant(0.0) != hashid.Constant(-0.0) {
		t.Fatal("0 and -0 should hash the same")
	}
}

func TestConstantNaNCollapsesToSingleToken(t *testing.T) {
	first := hashid.Constant(nan())
	if first != hashid.Constant(nan()) {
		t.Fatal("all NaNs should hash the same")
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestOperationArgOrderIndependent(t *testing.T) {
	a := hashid.NodeID("aaaa")
	b := hashid.NodeID("bbbb")
	id1 := hashid.Operation("+", map[string]hashid.NodeID{"0": a, "1": b})
	id2 := hashid.Operation("+", map[string]hashid.NodeID{"1": b, "0": a})
	if id1 != id2 {
		t.Fatal("argument map iteration order must not affect the id")
	}
}

func TestOperationDistinguishesOperator(t *testing.T) {
	a := hashid.NodeID("aaaa")
	args := map[string]hashid.NodeID{"0": a}
	if hashid.Operation("+", args) == hashid.Operation("-", args) {
		t.Fatal("different operators should hash differently")
	}
}

func TestClosureDistinguishesCapturedEnv(t *testing.T) {
	shape := []byte("body-shape")
	id1 := hashid.Closure("x", shape, map[string]hashid.NodeID{"y": "aaaa"})
	id2 := hashid.Closure("x", shape, map[string]hashid.NodeID{"y": "bbbb"})
	if id1 == id2 {
		t.Fatal("different captured environments should hash differently")
	}
}

func TestClosureArgOrderIndependent(t *testing.T) {
	shape := []byte("body-shape")
	env := map[string]hashid.NodeID{"y": "aaaa", "z": "bbbb"}
	if hashid.Closure("x", shape, env) != hashid.Closure("x", shape, env) {
		t.Fatal("same closure inputs should hash the same")
	}
}
