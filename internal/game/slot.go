package game

import "strings"

type SlotKind int

const (
	SlotEmpty SlotKind = iota
	SlotCard
	SlotWord
)

func (k SlotKind) String() string {
	switch k {
	case SlotCard:
		return "card"
	case SlotWord:
		return "word"
	default:
		return "empty"
	}
}

// Slot is one position of a title: a word card, the free word, or nothing.
type Slot struct {
	Kind   SlotKind
	CardID string
	Text   string
}

func CardSlot(cardID string) Slot { return Slot{Kind: SlotCard, CardID: cardID} }
func WordSlot(text string) Slot   { return Slot{Kind: SlotWord, Text: text} }
func EmptySlot() Slot             { return Slot{} }

// Slots lays the submission out in title order.
func (s Submission) Slots() [3]Slot {
	var slots [3]Slot
	for i, ref := range s.WordOrder {
		switch ref {
		case orderCard1:
			slots[i] = CardSlot(s.Card1ID)
		case orderCard2:
			slots[i] = CardSlot(s.Card2ID)
		case orderFreeWord:
			slots[i] = WordSlot(s.FreeWord)
		}
	}
	return slots
}

// TitleParts are the submission fields a complete slot layout maps to.
type TitleParts struct {
	Card1ID   string
	Card2ID   string
	FreeWord  string
	WordOrder WordOrder
}

// ComposeTitle converts a slot layout into submission fields. The layout must
// hold two different cards and one free word. The first card slot becomes
// card1.
func ComposeTitle(slots [3]Slot) (TitleParts, error) {
	var (
		parts TitleParts
		cards int
		words int
	)
	for i, slot := range slots {
		switch slot.Kind {
		case SlotCard:
			if slot.CardID == "" {
				return TitleParts{}, ErrSameCard
			}
			cards++
			switch cards {
			case 1:
				parts.Card1ID = slot.CardID
				parts.WordOrder[i] = orderCard1
			case 2:
				parts.Card2ID = slot.CardID
				parts.WordOrder[i] = orderCard2
			default:
				return TitleParts{}, ErrInvalidWordOrder
			}
		case SlotWord:
			words++
			if words > 1 {
				return TitleParts{}, ErrInvalidWordOrder
			}
			parts.FreeWord = slot.Text
			parts.WordOrder[i] = orderFreeWord
		default:
			return TitleParts{}, ErrInvalidWordOrder
		}
	}
	if parts.Card1ID == parts.Card2ID {
		return TitleParts{}, ErrSameCard
	}
	if strings.TrimSpace(parts.FreeWord) == "" {
		return TitleParts{}, ErrFreeWordEmpty
	}
	return parts, nil
}

// AssembleTitle concatenates the slot contents without separators. Card text
// comes from words, keyed by card id; unknown cards and empty slots render as
// nothing.
func AssembleTitle(slots [3]Slot, words map[string]string) string {
	var b strings.Builder
	for _, slot := range slots {
		switch slot.Kind {
		case SlotCard:
			b.WriteString(words[slot.CardID])
		case SlotWord:
			b.WriteString(slot.Text)
		}
	}
	return b.String()
}
