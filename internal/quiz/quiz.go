package quiz

// DefaultAnswerTime is the per-question answer window in seconds. Sample and
// authored quizzes always use it.
const DefaultAnswerTime = 20

// Question is one quiz question with four labeled options. Immutable once it
// is part of a published Quiz.
type Question struct {
	Text       string
	OptionA    string
	OptionB    string
	OptionC    string
	OptionD    string
	Correct    string // "A", "B", "C" or "D"
	AnswerTime int    // seconds
}

// Quiz is a titled, ordered question set.
type Quiz struct {
	Title     string
	Questions []Question
}
