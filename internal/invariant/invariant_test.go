package invariant_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/voxlogica-project/voxlogica-core/internal/invariant"
)

// TestPreconditionPass verifies Precondition does not panic when condition is true
func TestPreconditionPass(t *testing.T) {
	// Should not panic
	x := 1
	invariant.Precondition(true, "this should pass")
	invariant.Precondition(x == 1, "math works")
	invariant.Precondition(len("hello") > 0, "string not empty")
}

// TestPreconditionFail verifies Precondition panics with correct message
func TestPreconditionFail(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for false precondition")
		}
		msg := fmt.Sprintf("%v", r)
		if !strings.Contains(msg, "PRECONDITION VIOLATION") {
			t.Errorf("expected PRECONDITION VIOLATION, got: %s", msg)
		}
		if !strings.Contains(msg, "node must not be empty") {
			t.Errorf("expected custom message, got: %s", msg)
		}
		if !strings.Contains(msg, "at ") {
			t.Errorf("expected stack trace context, got: %s", msg)
		}
	}()

	invariant.Precondition(false, "node must not be empty")
}

// TestPostconditionPass verifies Postcondition does not panic when condition is true
func TestPostconditionPass(t *testing.T) {
	// Should not panic
	invariant.Postcondition(true, "this should pass")
	invariant.Postcondition(2+2 == 4, "math works")
}

// TestPostconditionFail verifies Postcondition panics with correct message
func TestPostconditionFail(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for false postcondition")
		}
		msg := fmt.Sprintf("%v", r)
		if !strings.Contains(msg, "POSTCONDITION VIOLATION") {
			t.Errorf("expected POSTCONDITION VIOLATION, got: %s", msg)
		}
		if !strings.Contains(msg, "node id must be non-empty") {
			t.Errorf("expected custom message, got: %s", msg)
		}
	}()

	invariant.Postcondition(false, "node id must be non-empty")
}

// TestInvariantPass verifies Invariant does not panic when condition is true
func TestInvariantPass(t *testing.T) {
	// Should not panic
	invariant.Invariant(true, "this should pass")
	childCount := 2
	parentCount := 1
	invariant.Invariant(childCount > parentCount, "dag grows")
}

// TestInvariantFail verifies Invariant panics with correct message
func TestInvariantFail(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for false invariant")
		}
		msg := fmt.Sprintf("%v", r)
		if !strings.Contains(msg, "INVARIANT VIOLATION") {
			t.Errorf("expected INVARIANT VIOLATION, got: %s", msg)
		}
		if !strings.Contains(msg, "argument id must already exist in nodes") {
			t.Errorf("expected custom message, got: %s", msg)
		}
	}()

	invariant.Invariant(false, "argument id must already exist in nodes")
}

// TestNotNilPass verifies NotNil does not panic for non-nil values
func TestNotNilPass(t *testing.T) {
	// Should not panic
	str := "hello"
	invariant.NotNil(str, "str")

	ptr := &str
	invariant.NotNil(ptr, "ptr")

	slice := []int{1, 2, 3}
	invariant.NotNil(slice, "slice")
}

// TestNotNilFail verifies NotNil panics for nil values
func TestNotNilFail(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for nil value")
		}
		msg := fmt.Sprintf("%v", r)
		if !strings.Contains(msg, "PRECONDITION VIOLATION") {
			t.Errorf("expected PRECONDITION VIOLATION, got: %s", msg)
		}
		if !strings.Contains(msg, "node must not be nil") {
			t.Errorf("expected 'node must not be nil', got: %s", msg)
		}
	}()

	var ptr *string
	invariant.NotNil(ptr, "node")
}

// TestInRangePass verifies InRange does not panic for values in range
func TestInRangePass(t *testing.T) {
	// Should not panic
	invariant.InRange(5, 0, 10, "index")
	invariant.InRange(0, 0, 10, "index")  // min boundary
	invariant.InRange(10, 0, 10, "index") // max boundary
}

// TestInRangeFail verifies InRange panics for values outside range
func TestInRangeFail(t *testing.T) {
	tests := []struct {
		name  string
		value int
		min   int
		max   int
	}{
		{"below_min", -1, 0, 10},
		{"above_max", 11, 0, 10},
		{"far_below", -100, 0, 10},
		{"far_above", 100, 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if r == nil {
					t.Fatal("expected panic for out of range value")
				}
				msg := fmt.Sprintf("%v", r)
				if !strings.Contains(msg, "PRECONDITION VIOLATION") {
					t.Errorf("expected PRECONDITION VIOLATION, got: %s", msg)
				}
				if !strings.Contains(msg, "must be in range") {
					t.Errorf("expected range message, got: %s", msg)
				}
				if !strings.Contains(msg, fmt.Sprintf("got %d", tt.value)) {
					t.Errorf("expected actual value %d in message, got: %s", tt.value, msg)
				}
			}()

			invariant.InRange(tt.value, tt.min, tt.max, "index")
		})
	}
}

// TestFormattedMessages verifies formatted messages work correctly
func TestFormattedMessages(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		msg := fmt.Sprintf("%v", r)
		if !strings.Contains(msg, "node abc123") {
			t.Errorf("expected formatted node id, got: %s", msg)
		}
		if !strings.Contains(msg, "operator sum") {
			t.Errorf("expected formatted operator, got: %s", msg)
		}
	}()

	nodeID := "abc123"
	operator := "sum"
	invariant.Invariant(false, "node %s references unknown operator %s", nodeID, operator)
}

// TestStackTraceContext verifies stack trace is included
func TestStackTraceContext(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		msg := fmt.Sprintf("%v", r)

		// Should include file:line context
		if !strings.Contains(msg, "at ") {
			t.Errorf("expected 'at' in stack trace, got: %s", msg)
		}
		if !strings.Contains(msg, "invariant_test.go:") {
			t.Errorf("expected file:line in stack trace, got: %s", msg)
		}
	}()

	invariant.Precondition(false, "test stack trace")
}

// Example usage in a function with contracts
func ExamplePrecondition() {
	reduceArgs := func(args []string) {
		// INPUT CONTRACT
		invariant.Precondition(len(args) > 0, "args must not be empty")

		// ... work ...
		fmt.Println("Reducing", len(args), "arguments")
	}

	reduceArgs([]string{"left", "right"})
	// Output: Reducing 2 arguments
}

// Example usage with loop invariant
func ExampleInvariant() {
	dispatchReady := func(nodes []string) {
		dispatched := 0
		prevDispatched := -1

		for dispatched < len(nodes) {
			// INVARIANT: dispatch count must advance each iteration
			invariant.Invariant(dispatched > prevDispatched, "dispatch count must advance")
			prevDispatched = dispatched

			fmt.Println("Dispatched:", nodes[dispatched])
			dispatched++
		}
	}

	dispatchReady([]string{"n1", "n2", "n3"})
	// Output:
	// Dispatched: n1
	// Dispatched: n2
	// Dispatched: n3
}

// Example usage with postcondition
func ExamplePostcondition() {
	computeNodeID := func() string {
		id := "n-0001" // Simulate content-derived id

		// OUTPUT CONTRACT
		invariant.Postcondition(id != "", "computed node id must be non-empty")

		return id
	}

	id := computeNodeID()
	fmt.Println("Node id:", id)
	// Output: Node id: n-0001
}

// TestExpectNoErrorPass verifies ExpectNoError does not panic when error is nil
func TestExpectNoErrorPass(t *testing.T) {
	// Should not panic
	invariant.ExpectNoError(nil, "operation")
}

// TestExpectNoErrorFail verifies ExpectNoError panics when error is not nil
func TestExpectNoErrorFail(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for non-nil error")
		}
		msg := fmt.Sprintf("%v", r)
		if !strings.Contains(msg, "POSTCONDITION VIOLATION") {
			t.Errorf("expected POSTCONDITION VIOLATION, got: %s", msg)
		}
		if !strings.Contains(msg, "plan validation must not fail") {
			t.Errorf("expected context in message, got: %s", msg)
		}
	}()

	err := fmt.Errorf("validation failed")
	invariant.ExpectNoError(err, "plan validation")
}

// TestContextNotBackgroundPass verifies ContextNotBackground does not panic for valid contexts
func TestContextNotBackgroundPass(t *testing.T) {
	// Should not panic for contexts derived from Background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	invariant.ContextNotBackground(ctx, "test")

	// Should not panic for contexts with timeout
	ctxTimeout, cancelTimeout := context.WithTimeout(context.Background(), 0)
	defer cancelTimeout()
	invariant.ContextNotBackground(ctxTimeout, "test")
}

// TestContextNotBackgroundFailsOnBackground verifies ContextNotBackground panics for Background()
func TestContextNotBackgroundFailsOnBackground(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for context.Background()")
		}
		msg := fmt.Sprintf("%v", r)
		if !strings.Contains(msg, "PRECONDITION VIOLATION") {
			t.Errorf("expected PRECONDITION VIOLATION, got: %s", msg)
		}
		if !strings.Contains(msg, "context must not be Background()") {
			t.Errorf("expected Background() message, got: %s", msg)
		}
		if !strings.Contains(msg, "test location") {
			t.Errorf("expected location in message, got: %s", msg)
		}
	}()

	invariant.ContextNotBackground(context.Background(), "test location")
}

// TestContextNotBackgroundFailsOnNil verifies ContextNotBackground panics for nil context
func TestContextNotBackgroundFailsOnNil(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for nil context")
		}
		msg := fmt.Sprintf("%v", r)
		if !strings.Contains(msg, "context must not be nil") {
			t.Errorf("expected nil message, got: %s", msg)
		}
	}()

	invariant.ContextNotBackground(nil, "test location")
}
