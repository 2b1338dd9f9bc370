package reporting

import (
	"strings"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"

	"github.com/crucible-ci/crucible/events"
	"github.com/crucible-ci/crucible/types"
)

// SourceLocator resolves a test item's source location. Absence is a normal,
// silent outcome: ok is false and the location attributes are omitted.
type SourceLocator func(item *types.TestItem) (file string, line int, ok bool)

// ItemSourceLocator reads the location recorded on the item at load time.
func ItemSourceLocator(item *types.TestItem) (string, int, bool) {
	if item == nil || item.File == "" {
		return "", 0, false
	}
	return item.File, item.Line, true
}

// Options configure the report builder.
type Options struct {
	Log log.Logger

	// ReportRisky records risky outcomes as error faults. When disabled a
	// risky test leaves no fault and counts only toward tests.
	ReportRisky bool

	// Locate resolves test-case source locations. Defaults to
	// ItemSourceLocator.
	Locate SourceLocator

	// Now supplies the clock used for per-test durations.
	Now func() time.Time
}

// frame holds one open suite and the counters running at its depth. Pushed
// on suite-start, popped on suite-finish.
type frame struct {
	suite    *ReportSuite
	counters Counters
}

// ReportBuilder consumes the run's event stream and incrementally builds the
// report tree. Events must arrive in occurrence order with properly nested
// suite start/finish pairs; the only defensive guard is that fault and
// skip events with no open test case are no-ops.
type ReportBuilder struct {
	log         log.Logger
	reportRisky bool
	locate      SourceLocator
	now         func() time.Time

	suites []*ReportSuite
	stack  []*frame

	current    *ReportTestCase
	assertions int
	started    time.Time
}

// NewReportBuilder creates a builder and registers its subscribers on the
// bus.
func NewReportBuilder(bus *events.Bus, opts Options) *ReportBuilder {
	if opts.Log == nil {
		opts.Log = log.New()
	}
	if opts.Locate == nil {
		opts.Locate = ItemSourceLocator
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	b := &ReportBuilder{
		log:         opts.Log,
		reportRisky: opts.ReportRisky,
		locate:      opts.Locate,
		now:         opts.Now,
	}

	events.Subscribe(bus, b.suiteStarted)
	events.Subscribe(bus, b.suiteFinished)
	events.Subscribe(bus, b.testPrepared)
	events.Subscribe(bus, b.assertionMade)
	events.Subscribe(bus, b.testFinished)
	events.Subscribe(bus, b.testPassedWithWarning)
	events.Subscribe(bus, b.testConsideredRisky)
	events.Subscribe(bus, b.testErrored)
	events.Subscribe(bus, b.testFailed)
	events.Subscribe(bus, b.testSkipped)
	events.Subscribe(bus, b.testAborted)
	return b
}

// Report returns the finished tree. Valid once every opened suite has
// closed.
func (b *ReportBuilder) Report() *Report {
	return &Report{Suites: b.suites}
}

func (b *ReportBuilder) top() *frame {
	if len(b.stack) == 0 {
		return nil
	}
	return b.stack[len(b.stack)-1]
}

func (b *ReportBuilder) suiteStarted(ev events.SuiteStarted) {
	suite := &ReportSuite{Name: ev.Name, File: ev.File}
	if parent := b.top(); parent != nil {
		parent.suite.Children = append(parent.suite.Children, suite)
	} else {
		b.suites = append(b.suites, suite)
	}
	b.stack = append(b.stack, &frame{suite: suite})
}

func (b *ReportBuilder) suiteFinished(ev events.SuiteFinished) {
	closed := b.top()
	if closed == nil {
		b.log.Warn("Suite finished with no open suite", "suite", ev.Name)
		return
	}
	// The one-time aggregation point: the node's counters are frozen here
	// and never recomputed.
	closed.suite.Counters = closed.counters
	b.stack = b.stack[:len(b.stack)-1]
	if parent := b.top(); parent != nil {
		parent.counters.Add(closed.counters)
	}
}

func (b *ReportBuilder) testPrepared(ev events.TestPrepared) {
	item := ev.Item
	testCase := &ReportTestCase{
		Name:      item.Name,
		Class:     shortClass(item),
		ClassName: item.ClassName(),
	}
	if file, line, ok := b.locate(item); ok {
		testCase.File = file
		testCase.Line = line
	}
	b.current = testCase
	b.assertions = 0
	b.started = b.now()
}

func (b *ReportBuilder) assertionMade(ev events.AssertionMade) {
	b.assertions += ev.Count
}

func (b *ReportBuilder) testFinished(ev events.TestFinished) {
	if b.current == nil {
		return
	}
	elapsed := b.now().Sub(b.started)
	b.current.Assertions = b.assertions
	b.current.Duration = elapsed
	if ev.Output != "" {
		b.current.SystemOut = stripansi.Strip(ev.Output)
	}

	if open := b.top(); open != nil {
		open.suite.Children = append(open.suite.Children, b.current)
		open.counters.Tests++
		open.counters.Assertions += b.assertions
		open.counters.Duration += elapsed
	}

	b.current = nil
	b.assertions = 0
}

func (b *ReportBuilder) testPassedWithWarning(ev events.TestPassedWithWarning) {
	if b.current == nil {
		return
	}
	b.attachFault("warning", ev.Throwable)
	if open := b.top(); open != nil {
		open.counters.Warnings++
	}
}

func (b *ReportBuilder) testConsideredRisky(ev events.TestConsideredRisky) {
	if !b.reportRisky || b.current == nil {
		return
	}
	b.attachFault("error", ev.Throwable)
	if open := b.top(); open != nil {
		open.counters.Errors++
	}
}

func (b *ReportBuilder) testErrored(ev events.TestErrored) {
	if b.current == nil {
		return
	}
	b.attachFault("error", ev.Throwable)
	if open := b.top(); open != nil {
		open.counters.Errors++
	}
}

func (b *ReportBuilder) testFailed(ev events.TestFailed) {
	if b.current == nil {
		return
	}
	b.attachFault("failure", ev.Throwable)
	if open := b.top(); open != nil {
		open.counters.Failures++
	}
}

func (b *ReportBuilder) testSkipped(ev events.TestSkipped) {
	b.markSkipped()
}

func (b *ReportBuilder) testAborted(ev events.TestAborted) {
	b.markSkipped()
}

func (b *ReportBuilder) markSkipped() {
	if b.current == nil {
		return
	}
	b.current.Skipped = true
	if open := b.top(); open != nil {
		open.counters.Skipped++
	}
}

func (b *ReportBuilder) attachFault(label string, t events.Throwable) {
	b.current.Fault = &Fault{
		Label: label,
		Type:  t.Kind,
		Body:  faultBody(t),
	}
}

// faultBody joins the trimmed descriptive text and stack trace.
func faultBody(t events.Throwable) string {
	message := strings.TrimSpace(stripansi.Strip(t.Message))
	trace := strings.TrimSpace(stripansi.Strip(t.Trace))
	switch {
	case message == "":
		return trace
	case trace == "":
		return message
	default:
		return message + "\n" + trace
	}
}

// shortClass is the last segment of the item's qualified name.
func shortClass(item *types.TestItem) string {
	qualified := item.ClassName()
	if idx := strings.LastIndex(qualified, "."); idx != -1 {
		return qualified[idx+1:]
	}
	return qualified
}
