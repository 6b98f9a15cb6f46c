package boolean

// filterCursor emits the subject's documents that the sieve does not
// contain. The sieve is probed lazily with SkipTo, never materialised.
type filterCursor struct {
	subject Cursor
	sieve   Cursor
}

func newFilter(subject, sieve Cursor) Cursor {
	return &filterCursor{subject: subject, sieve: sieve}
}

func (f *filterCursor) Peek() (DocID, bool) {
	for {
		doc, ok := f.subject.Peek()
		if !ok {
			return 0, false
		}
		hit, ok := f.sieve.SkipTo(doc)
		if !ok || hit != doc {
			return doc, true
		}
		// Sieved out; drop the candidate and try the next one.
		f.subject.Next()
	}
}

func (f *filterCursor) Next() (DocID, bool) {
	doc, ok := f.Peek()
	if !ok {
		return 0, false
	}
	f.subject.Next()
	return doc, true
}

func (f *filterCursor) SkipTo(target DocID) (DocID, bool) {
	if _, ok := f.subject.SkipTo(target); !ok {
		return 0, false
	}
	return f.Peek()
}

func (f *filterCursor) EstimateSize() int {
	return f.subject.EstimateSize()
}

func (f *filterCursor) Err() error {
	if err := f.subject.Err(); err != nil {
		return err
	}
	return f.sieve.Err()
}
