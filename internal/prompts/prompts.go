// Package prompts loads the prompt set a sweep draws from and picks prompts
// at random for each request.
package prompts

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
)

// ErrNoPrompts is returned when a prompt source yields no usable prompts.
var ErrNoPrompts = errors.New("no prompts available")

// Set is an immutable, non-empty, ordered collection of prompts.
type Set struct {
	prompts []string
}

// New builds a Set from literal prompts, sent exactly as given.
func New(prompts ...string) (*Set, error) {
	if len(prompts) == 0 {
		return nil, ErrNoPrompts
	}
	return &Set{prompts: append([]string(nil), prompts...)}, nil
}

// Load reads one prompt per line from path. Lines are trimmed and blank lines
// discarded.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}

	var prompts []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		prompts = append(prompts, line)
	}
	if len(prompts) == 0 {
		return nil, fmt.Errorf("%w: %s contains no non-blank lines", ErrNoPrompts, path)
	}
	return &Set{prompts: prompts}, nil
}

// Len returns the number of prompts in the set.
func (s *Set) Len() int {
	return len(s.prompts)
}

// Picker draws prompts uniformly at random. It is safe for concurrent use.
type Picker struct {
	mu  sync.Mutex
	set *Set
	rnd *rand.Rand
}

// NewPicker returns a Picker over set driven by src.
func NewPicker(set *Set, src rand.Source) *Picker {
	return &Picker{set: set, rnd: rand.New(src)}
}

// Next returns the next randomly chosen prompt.
func (p *Picker) Next() string {
	if len(p.set.prompts) == 1 {
		return p.set.prompts[0]
	}
	p.mu.Lock()
	idx := p.rnd.Intn(len(p.set.prompts))
	p.mu.Unlock()
	return p.set.prompts[idx]
}
