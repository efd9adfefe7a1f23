// Package questions loads the ordered quiz question list. The funnel core
// only needs the length and per-item ids/options; the copy itself is content,
// not logic.
package questions

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Question is one quiz item as declared in the question file.
type Question struct {
	ID       int      `yaml:"id" json:"id"`
	Category string   `yaml:"category" json:"category"`
	Text     string   `yaml:"text" json:"text"`
	Options  []string `yaml:"options" json:"options"`
}

// questionFile is the on-disk YAML shape.
type questionFile struct {
	Questions []Question `yaml:"questions"`
}

// Set is the validated, ordered question list. Loaded once at startup and
// cached in memory; there is no hot reload.
type Set struct {
	questions []Question
}

// Load reads and validates the question file. Questions must carry unique,
// sequential 1-based ids so the per-question metrics map keys line up with
// funnel step positions.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates raw YAML question data.
func Parse(data []byte) (*Set, error) {
	var raw questionFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing question file: %w", err)
	}

	if len(raw.Questions) == 0 {
		return nil, fmt.Errorf("question file declares no questions")
	}

	for i, q := range raw.Questions {
		if q.ID != i+1 {
			return nil, fmt.Errorf("question at position %d: id must be %d, got %d", i, i+1, q.ID)
		}
		if q.Text == "" {
			return nil, fmt.Errorf("question %d: text must not be empty", q.ID)
		}
		if len(q.Options) < 2 {
			return nil, fmt.Errorf("question %d: needs at least 2 options, got %d", q.ID, len(q.Options))
		}
	}

	return &Set{questions: raw.Questions}, nil
}

// Len returns the number of questions.
func (s *Set) Len() int {
	return len(s.questions)
}

// At returns the question at the given 0-based index.
func (s *Set) At(index int) (Question, error) {
	if index < 0 || index >= len(s.questions) {
		return Question{}, fmt.Errorf("question index %d out of range [0,%d)", index, len(s.questions))
	}
	return s.questions[index], nil
}

// IsLast reports whether the 0-based index addresses the final question.
func (s *Set) IsLast(index int) bool {
	return index == len(s.questions)-1
}

// All returns a copy of the ordered question list.
func (s *Set) All() []Question {
	out := make([]Question, len(s.questions))
	copy(out, s.questions)
	return out
}
