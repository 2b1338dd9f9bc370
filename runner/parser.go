package runner

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/crucible-ci/crucible/types"
)

// Go test2json action constants for JSON test output
// See https://cs.opensource.google/go/go/+/master:src/cmd/test2json/main.go;l=34-60
const (
	ActionStart  = "start"
	ActionRun    = "run"
	ActionPass   = "pass"
	ActionFail   = "fail"
	ActionSkip   = "skip"
	ActionOutput = "output"
)

// TestEvent represents a test event from go test -json output
type TestEvent struct {
	Time    time.Time
	Action  string
	Package string
	Test    string
	Elapsed float64
	Output  string
}

// parseStream reads a go test -json event stream and reduces the events for
// the named test function into one Result. Subtest events are folded into
// the parent's output. Lines that do not decode as events are skipped; a
// stream with no terminal action for the test is an error result.
func parseStream(r io.Reader, funcName string) *Result {
	result := &Result{Status: types.TestStatusError, Message: "no terminal test event in output"}

	var output strings.Builder
	terminal := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var event TestEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		if event.Test != funcName && !strings.HasPrefix(event.Test, funcName+"/") {
			continue
		}

		switch event.Action {
		case ActionOutput:
			output.WriteString(event.Output)
		case ActionPass:
			if event.Test == funcName {
				result.Status = types.TestStatusPass
				result.Message = ""
				terminal = true
			}
		case ActionFail:
			if event.Test == funcName {
				result.Status = types.TestStatusFail
				terminal = true
			}
		case ActionSkip:
			if event.Test == funcName {
				result.Status = types.TestStatusSkip
				terminal = true
			}
		}
	}

	result.Output = output.String()
	if terminal && result.Status != types.TestStatusPass {
		result.Message = failureText(result.Output)
	}
	return result
}

// failureText trims the captured output down to the lines a reader needs:
// the run banner lines test2json echoes are dropped, the rest is
// whitespace-trimmed.
func failureText(output string) string {
	var kept []string
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "=== RUN") || strings.HasPrefix(trimmed, "=== PAUSE") ||
			strings.HasPrefix(trimmed, "=== CONT") {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, "\n")
}
