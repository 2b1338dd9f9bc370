package metrics

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/crucible-ci/crucible/types"
)

func TestErrToLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "nil error",
			err:  nil,
		},
		{
			name: "simple error",
			err:  errors.New("test error"),
		},
		{
			name: "error with special chars",
			err:  errors.New("test@error#123"),
		},
		{
			name: "error with multiple spaces",
			err:  errors.New("test   error"),
		},
		{
			name: "error with multiple underscores",
			err:  errors.New("test__error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := errToLabel(tt.err)
			validLabelRegex := regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*`)
			if !validLabelRegex.MatchString(result) {
				t.Errorf("errLabel() = %v, is not a valid Prometheus label", result)
			}
		})
	}
}

func TestRecordError(t *testing.T) {
	// just test that it doesn't panic
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("RecordError panic'd")
		}
	}()

	RecordError("test_error")
}

func TestRecordErrorDetails(t *testing.T) {
	// Test with nil error
	RecordErrorDetails("test", nil)

	// Test with actual error
	RecordErrorDetails("test", errors.New("sample error"))
}

func TestRecordTest(t *testing.T) {
	RecordTest("run1", "TestFoo", types.TestStatusPass)
	RecordTest("run1", "TestBar", types.TestStatusFail)
	RecordTest("run1", "TestBaz", types.TestStatusSkip)
	RecordTest("run1", "TestQux", types.TestStatusError)

	// Invalid results are dropped without panicking.
	RecordTest("run1", "TestBad", types.TestStatus("bogus"))
}

func TestRecordRun(t *testing.T) {
	RecordRun("run1", "pass", 5, 0, time.Second)
	RecordRun("run2", "fail", 5, 2, 2*time.Second)
}
