package reporting

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// WriteXML renders the report as a JUnit-style XML document. The element and
// attribute names are a compatibility surface consumed by CI systems and are
// reproduced exactly: a testsuites root, nested testsuite elements, testcase
// leaves with at most one error/failure/warning child, a skipped marker, and
// a system-out block. Suites and test cases stay interleaved in arrival
// order, which rules out struct-tag marshalling; the document is emitted
// token by token instead.
func WriteXML(w io.Writer, report *Report) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	root := xml.StartElement{Name: xml.Name{Local: "testsuites"}}
	if err := enc.EncodeToken(root); err != nil {
		return err
	}
	for _, suite := range report.Suites {
		if err := encodeSuite(enc, suite); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteXMLFile writes the report to path, creating or truncating the file.
func WriteXMLFile(path string, report *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteXML(f, report); err != nil {
		return fmt.Errorf("writing report to %s: %w", path, err)
	}
	return f.Close()
}

func encodeSuite(enc *xml.Encoder, suite *ReportSuite) error {
	attrs := []xml.Attr{attr("name", suite.Name)}
	if suite.File != "" {
		attrs = append(attrs, attr("file", suite.File))
	}
	c := suite.Counters
	attrs = append(attrs,
		attr("tests", strconv.Itoa(c.Tests)),
		attr("assertions", strconv.Itoa(c.Assertions)),
		attr("errors", strconv.Itoa(c.Errors)),
		attr("warnings", strconv.Itoa(c.Warnings)),
		attr("failures", strconv.Itoa(c.Failures)),
		attr("skipped", strconv.Itoa(c.Skipped)),
		attr("time", formatTime(c.Duration)),
	)

	start := xml.StartElement{Name: xml.Name{Local: "testsuite"}, Attr: attrs}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, child := range suite.Children {
		var err error
		switch node := child.(type) {
		case *ReportSuite:
			err = encodeSuite(enc, node)
		case *ReportTestCase:
			err = encodeTestCase(enc, node)
		}
		if err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func encodeTestCase(enc *xml.Encoder, testCase *ReportTestCase) error {
	attrs := []xml.Attr{
		attr("name", testCase.Name),
		attr("class", testCase.Class),
		attr("classname", testCase.ClassName),
	}
	if testCase.File != "" {
		attrs = append(attrs, attr("file", testCase.File))
		if testCase.Line > 0 {
			attrs = append(attrs, attr("line", strconv.Itoa(testCase.Line)))
		}
	}
	attrs = append(attrs,
		attr("assertions", strconv.Itoa(testCase.Assertions)),
		attr("time", formatTime(testCase.Duration)),
	)

	start := xml.StartElement{Name: xml.Name{Local: "testcase"}, Attr: attrs}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	if fault := testCase.Fault; fault != nil {
		el := xml.StartElement{
			Name: xml.Name{Local: fault.Label},
			Attr: []xml.Attr{attr("type", fault.Type)},
		}
		if err := encodeTextElement(enc, el, fault.Body); err != nil {
			return err
		}
	}
	if testCase.Skipped {
		el := xml.StartElement{Name: xml.Name{Local: "skipped"}}
		if err := enc.EncodeToken(el); err != nil {
			return err
		}
		if err := enc.EncodeToken(el.End()); err != nil {
			return err
		}
	}
	if testCase.SystemOut != "" {
		el := xml.StartElement{Name: xml.Name{Local: "system-out"}}
		if err := encodeTextElement(enc, el, testCase.SystemOut); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func encodeTextElement(enc *xml.Encoder, start xml.StartElement, body string) error {
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if err := enc.EncodeToken(xml.CharData(body)); err != nil {
		return err
	}
	return enc.EncodeToken(start.End())
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// formatTime renders a duration as fixed-point seconds.
func formatTime(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 6, 64)
}
