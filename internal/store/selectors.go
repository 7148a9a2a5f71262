package store

import "github.com/and161185/studydeck/internal/model"

// UntitledSet labels records with an empty label.
const UntitledSet = "Untitled"

// Group is one label of a grouped collection.
type Group struct {
	Label string
	Count int
}

// FindByID returns the first item with id.
func FindByID[T any](items []T, id string, idOf func(T) string) (T, bool) {
	for _, it := range items {
		if idOf(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func labelOf[T any](it T, label func(T) string) string {
	if l := label(it); l != "" {
		return l
	}
	return UntitledSet
}

// GroupByLabel counts items per label in order of first appearance.
// Items with an empty label are counted under UntitledSet.
func GroupByLabel[T any](items []T, label func(T) string) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, it := range items {
		l := labelOf(it, label)
		i, ok := index[l]
		if !ok {
			i = len(groups)
			index[l] = i
			groups = append(groups, Group{Label: l})
		}
		groups[i].Count++
	}
	return groups
}

// FilterByLabel returns the items whose label is want, keeping their order.
func FilterByLabel[T any](items []T, label func(T) string, want string) []T {
	var out []T
	for _, it := range items {
		if labelOf(it, label) == want {
			out = append(out, it)
		}
	}
	return out
}

// NoteByID finds a note.
func NoteByID(items []model.Note, id string) (model.Note, bool) {
	return FindByID(items, id, NotesKind.IDOf)
}

// FlashcardByID finds a flashcard.
func FlashcardByID(items []model.Flashcard, id string) (model.Flashcard, bool) {
	return FindByID(items, id, FlashcardsKind.IDOf)
}

func setTitle(c model.Flashcard) string { return c.SetTitle }

// StudySets groups flashcards by set title.
func StudySets(cards []model.Flashcard) []Group {
	return GroupByLabel(cards, setTitle)
}

// StudySet returns the cards of one set.
func StudySet(cards []model.Flashcard, title string) []model.Flashcard {
	return FilterByLabel(cards, setTitle, title)
}
