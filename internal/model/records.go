package model

import "time"

// Field keys used inside Document.Fields.
const (
	FieldTitle    = "title"
	FieldContent  = "content"
	FieldSetTitle = "setTitle"
	FieldQuestion = "question"
	FieldAnswer   = "answer"
)

// Note is a titled free-text study note.
type Note struct {
	ID        string
	OwnerID   string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// NoteFields is the writable part of a Note.
type NoteFields struct {
	Title   string `validate:"required,notblank"`
	Content string `validate:"required,notblank"`
}

// Fields encodes note fields for the document store.
func (f NoteFields) Fields() Fields {
	return Fields{FieldTitle: f.Title, FieldContent: f.Content}
}

// NoteFromDocument decodes a stored document into a Note.
func NoteFromDocument(d Document) Note {
	return Note{
		ID:        d.ID,
		OwnerID:   d.OwnerID,
		Title:     d.Fields[FieldTitle],
		Content:   d.Fields[FieldContent],
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Flashcard is a question/answer card, optionally belonging to a study set.
type Flashcard struct {
	ID        string
	OwnerID   string
	SetTitle  string
	Question  string
	Answer    string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// FlashcardFields is the writable part of a Flashcard.
type FlashcardFields struct {
	SetTitle string
	Question string `validate:"required,notblank"`
	Answer   string `validate:"required,notblank"`
}

// Fields encodes flashcard fields for the document store. An empty set title is omitted.
func (f FlashcardFields) Fields() Fields {
	out := Fields{FieldQuestion: f.Question, FieldAnswer: f.Answer}
	if f.SetTitle != "" {
		out[FieldSetTitle] = f.SetTitle
	}
	return out
}

// FlashcardFromDocument decodes a stored document into a Flashcard.
func FlashcardFromDocument(d Document) Flashcard {
	return Flashcard{
		ID:        d.ID,
		OwnerID:   d.OwnerID,
		SetTitle:  d.Fields[FieldSetTitle],
		Question:  d.Fields[FieldQuestion],
		Answer:    d.Fields[FieldAnswer],
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
