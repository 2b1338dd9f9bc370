package types

// Suite is an ordered collection of test items, possibly nested.
type Suite struct {
	Name     string
	File     string // Source the suite was built from (config file, directory, test file)
	Items    []TestItem
	Children []*Suite
}

// AddChild appends a nested suite.
func (s *Suite) AddChild(child *Suite) {
	s.Children = append(s.Children, child)
}

// Count returns the number of test items in the suite and all nested suites.
func (s *Suite) Count() int {
	n := len(s.Items)
	for _, child := range s.Children {
		n += child.Count()
	}
	return n
}

// Iterator defines the iteration contract over test items: a lazy, finite,
// single-pass sequence. Iterators are not restartable.
type Iterator interface {
	// Next yields the next test item, or (nil, false) when exhausted.
	Next() (*TestItem, bool)
}

// Iterate returns an iterator over the suite's direct items followed by the
// items of its nested suites, depth first.
func (s *Suite) Iterate() Iterator {
	return &suiteIterator{suite: s}
}

// NewSliceIterator returns an iterator over a fixed slice of items.
func NewSliceIterator(items []TestItem) Iterator {
	return &sliceIterator{items: items}
}

type sliceIterator struct {
	items []TestItem
	pos   int
}

func (it *sliceIterator) Next() (*TestItem, bool) {
	if it.pos >= len(it.items) {
		return nil, false
	}
	item := &it.items[it.pos]
	it.pos++
	return item, true
}

type suiteIterator struct {
	suite *Suite
	pos   int
	child Iterator
	next  int // index into suite.Children
}

func (it *suiteIterator) Next() (*TestItem, bool) {
	if it.pos < len(it.suite.Items) {
		item := &it.suite.Items[it.pos]
		it.pos++
		return item, true
	}
	for {
		if it.child != nil {
			if item, ok := it.child.Next(); ok {
				return item, true
			}
			it.child = nil
		}
		if it.next >= len(it.suite.Children) {
			return nil, false
		}
		it.child = it.suite.Children[it.next].Iterate()
		it.next++
	}
}
