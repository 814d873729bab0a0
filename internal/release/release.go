// Package release tracks how to destroy graphics handles in the reverse order
// they were created.
package release

// Stack holds pending release functions. The zero value is ready to use.
// A Stack is not safe for concurrent use.
type Stack struct {
	entries []entry
}

type entry struct {
	name string
	fn   func()
}

// Push records fn as the release for the handle called name. It should be
// called immediately after the handle is created.
func (s *Stack) Push(name string, fn func()) {
	s.entries = append(s.entries, entry{name: name, fn: fn})
}

// Release runs every pending function, newest first, and empties the stack.
func (s *Stack) Release() {
	for len(s.entries) > 0 {
		last := len(s.entries) - 1
		e := s.entries[last]
		s.entries = s.entries[:last]
		e.fn()
	}
}

func (s *Stack) Len() int { return len(s.entries) }

// Names lists the pending releases in the order Release would run them.
func (s *Stack) Names() []string {
	names := make([]string, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		names = append(names, s.entries[i].name)
	}
	return names
}
