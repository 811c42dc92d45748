package quiz

import (
	"errors"
	"sync"
)

var ErrOutOfRange = errors.New("quiz number out of range")

// Summary is one catalog listing entry. Number is 1-based, matching what the
// host menu shows and reads back.
type Summary struct {
	Number int
	Title  string
}

// Catalog holds every quiz a host can pick from. Quizzes are only ever
// appended; a published quiz is never mutated.
type Catalog struct {
	mu      sync.Mutex
	quizzes []Quiz
}

func NewCatalog() *Catalog {
	return &Catalog{}
}

func (c *Catalog) List() []Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := make([]Summary, 0, len(c.quizzes))
	for i, q := range c.quizzes {
		list = append(list, Summary{Number: i + 1, Title: q.Title})
	}
	return list
}

// Get returns the quiz with the given 1-based number.
func (c *Catalog) Get(number int) (Quiz, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if number < 1 || number > len(c.quizzes) {
		return Quiz{}, ErrOutOfRange
	}
	return c.quizzes[number-1], nil
}

func (c *Catalog) Publish(q Quiz) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quizzes = append(c.quizzes, q)
}

func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.quizzes)
}

// LoadSamples seeds the catalog with the built-in quizzes.
func (c *Catalog) LoadSamples() {
	sample := func(correct string, count int) Quiz {
		q := Question{
			Text:       correct + " is the correct answer.",
			OptionA:    "Answer 1",
			OptionB:    "Answer 2",
			OptionC:    "Answer 3",
			OptionD:    "Answer 4",
			Correct:    correct,
			AnswerTime: DefaultAnswerTime,
		}
		quiz := Quiz{Title: "Sample quiz " + correct}
		for i := 0; i < count; i++ {
			quiz.Questions = append(quiz.Questions, q)
		}
		return quiz
	}
	c.Publish(sample("A", 4))
	c.Publish(sample("B", 3))
	c.Publish(sample("C", 2))
}
