package model

type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Deck is the navigation state over an ordered set of flashcards.
type Deck struct {
	Cards   []Flashcard
	Index   int
	Flipped bool
}

func NewDeck(cards []Flashcard) *Deck {
	return &Deck{Cards: cards}
}

// Current returns the card under the cursor; ok is false for an empty deck.
func (d *Deck) Current() (Flashcard, bool) {
	if len(d.Cards) == 0 {
		return Flashcard{}, false
	}
	d.clamp()
	return d.Cards[d.Index], true
}

// Next advances, wrapping from the last card to the first.
func (d *Deck) Next() int {
	if len(d.Cards) == 0 {
		return 0
	}
	d.clamp()
	if d.Index == len(d.Cards)-1 {
		d.Index = 0
	} else {
		d.Index++
	}
	d.Flipped = false
	return d.Index
}

// Prev steps back, wrapping from the first card to the last.
func (d *Deck) Prev() int {
	if len(d.Cards) == 0 {
		return 0
	}
	d.clamp()
	if d.Index == 0 {
		d.Index = len(d.Cards) - 1
	} else {
		d.Index--
	}
	d.Flipped = false
	return d.Index
}

func (d *Deck) Flip() {
	d.Flipped = !d.Flipped
}

func (d *Deck) clamp() {
	if d.Index < 0 || d.Index >= len(d.Cards) {
		d.Index = 0
	}
}
