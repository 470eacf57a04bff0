package model

// Question is a quiz question broadcast to contacts. Questions and their
// answer options are seeded externally and read-only here.
type Question struct {
	ID   int    `json:"id"`
	Text string `json:"question"`
}

// Answer is one selectable option belonging to exactly one question.
type Answer struct {
	ID         int    `json:"id"`
	QuestionID int    `json:"question_id"`
	Text       string `json:"answer"`
}

// UserAnswer is a user's current choice for a question, unique on
// (UserID, QuestionID). Resubmission overwrites AnswerID; no history is kept.
type UserAnswer struct {
	UserID     int `json:"userId"`
	QuestionID int `json:"questionId"`
	AnswerID   int `json:"answerId"`
}
