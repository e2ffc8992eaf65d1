package gesture

// Smoother stabilizes a label stream by reporting the most frequent of the last N
// labels. Ties go to the tied label seen most recently.
//
// A Smoother is not safe for concurrent use; it belongs to the goroutine that
// delivers labels.
type Smoother struct {
	window []string
	next   int
	full   bool
}

// NewSmoother returns a smoother over the last size labels. Sizes below 1 are treated as 1.
func NewSmoother(size int) *Smoother {
	if size < 1 {
		size = 1
	}
	return &Smoother{window: make([]string, size)}
}

// Push records label, evicting the oldest once the window is full, and returns the
// smoothed label.
func (s *Smoother) Push(label string) string {
	s.window[s.next] = label
	s.next = (s.next + 1) % len(s.window)
	if s.next == 0 {
		s.full = true
	}
	return s.Mode()
}

// Mode returns the current smoothed label, or "" before the first Push.
func (s *Smoother) Mode() string {
	n := s.Len()
	if n == 0 {
		return ""
	}

	counts := make(map[string]int, n)
	maxCount := 0
	for i := 0; i < n; i++ {
		label := s.at(i)
		counts[label]++
		if counts[label] > maxCount {
			maxCount = counts[label]
		}
	}

	// Newest first, so the first label at the maximum is the most recently seen one.
	for i := 0; i < n; i++ {
		if label := s.at(i); counts[label] == maxCount {
			return label
		}
	}
	return ""
}

// at returns the i-th most recent label, 0 being the newest.
func (s *Smoother) at(i int) string {
	return s.window[(s.next-1-i+2*len(s.window))%len(s.window)]
}

// Len returns how many labels the window currently holds.
func (s *Smoother) Len() int {
	if s.full {
		return len(s.window)
	}
	return s.next
}

// Reset empties the window.
func (s *Smoother) Reset() {
	for i := range s.window {
		s.window[i] = ""
	}
	s.next = 0
	s.full = false
}
