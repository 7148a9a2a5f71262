package store

import (
	"testing"

	"github.com/and161185/studydeck/internal/model"
	"github.com/stretchr/testify/require"
)

func cards(sets ...string) []model.Flashcard {
	out := make([]model.Flashcard, 0, len(sets))
	for i, s := range sets {
		out = append(out, model.Flashcard{ID: string(rune('1' + i)), SetTitle: s, Question: "q", Answer: "a"})
	}
	return out
}

func TestStudySets_GroupsWithCounts(t *testing.T) {
	t.Parallel()
	got := StudySets(cards("Bio", "Bio", "Chem"))
	require.Equal(t, []Group{{Label: "Bio", Count: 2}, {Label: "Chem", Count: 1}}, got)
}

func TestStudySets_FirstAppearanceAndUntitled(t *testing.T) {
	t.Parallel()
	got := StudySets(cards("Chem", "", "Bio", "Chem", ""))
	require.Equal(t, []Group{
		{Label: "Chem", Count: 2},
		{Label: UntitledSet, Count: 2},
		{Label: "Bio", Count: 1},
	}, got)

	require.Empty(t, StudySets(nil))
}

func TestStudySet_Filters(t *testing.T) {
	t.Parallel()
	cs := cards("Bio", "Chem", "", "Bio")
	bio := StudySet(cs, "Bio")
	require.Len(t, bio, 2)
	require.Equal(t, "1", bio[0].ID)
	require.Equal(t, "4", bio[1].ID)

	untitled := StudySet(cs, UntitledSet)
	require.Len(t, untitled, 1)
	require.Equal(t, "3", untitled[0].ID)

	require.Empty(t, StudySet(cs, "Physics"))
}

func TestFindByID(t *testing.T) {
	t.Parallel()
	notes := []model.Note{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}
	n, ok := NoteByID(notes, "b")
	require.True(t, ok)
	require.Equal(t, "B", n.Title)

	_, ok = NoteByID(notes, "zzz")
	require.False(t, ok)
	_, ok = NoteByID(nil, "a")
	require.False(t, ok)

	c, ok := FlashcardByID(cards("Bio", "Chem"), "2")
	require.True(t, ok)
	require.Equal(t, "Chem", c.SetTitle)
}

func TestSelectorsDoNotMutate(t *testing.T) {
	t.Parallel()
	cs := cards("Bio", "", "Chem")
	orig := append([]model.Flashcard(nil), cs...)
	_ = StudySets(cs)
	_ = StudySet(cs, "Bio")
	_, _ = FlashcardByID(cs, "1")
	require.Equal(t, orig, cs)
}
