package game

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"lip-sprint/internal/db"

	"gorm.io/gorm"
)

// defaultCards seed the catalog the first time the game is played.
var defaultCards = []string{
	"Peanut butter",
	"Movie night",
	"Birthday cake",
	"Water bottle",
	"Traffic light",
	"Banana split",
	"Coffee maker",
	"Tennis shoes",
	"Pizza party",
	"Ice cream",
	"Roller coaster",
	"Sunflower seeds",
	"Chicken nuggets",
	"Video game",
	"School bus",
	"Swimming pool",
	"Sunglasses",
	"Popcorn machine",
	"Skateboard trick",
	"Holiday sweater",
	"Camping trip",
	"Chocolate milk",
	"Pillow fight",
	"Fire truck",
	"Bubble gum",
	"Snow day",
	"Beach towel",
	"Electric guitar",
	"Magic trick",
	"Superhero cape",
}

// allCards returns the catalog in creation order.
func allCards(tx *gorm.DB) ([]db.Card, error) {
	var cards []db.Card
	if err := tx.Order("created_at ASC, id ASC").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

func cardByID(tx *gorm.DB, id uint) (*db.Card, error) {
	var card db.Card
	err := tx.First(&card, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// EnsureCardsSeeded inserts the default phrases when the catalog is empty.
// Timestamps are offset per card so the initial listing order is
// deterministic. Calling it again is a no-op.
func (e *Engine) EnsureCardsSeeded() error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.Card{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		base := e.now()
		for i, text := range defaultCards {
			card := db.Card{
				Text:      text,
				Source:    "default",
				CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
			}
			if err := tx.Create(&card).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AddCards splits multiline input into individual phrases and inserts them
// as custom cards. All lines are validated before anything is written.
func (e *Engine) AddCards(playerToken, text string) (int, error) {
	token, err := validatePlayerToken(playerToken)
	if err != nil {
		return 0, err
	}

	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		line := normalizeText(strings.TrimSuffix(raw, "\r"))
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return 0, invalidInput("enter at least one card phrase")
	}
	for i, line := range lines {
		if length := utf8.RuneCountInString(line); length < minCardTextLength || length > maxCardTextLength {
			return 0, invalidInput("line %d: card text must be between %d and %d characters",
				i+1, minCardTextLength, maxCardTextLength)
		}
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		base := e.now()
		for i, line := range lines {
			card := db.Card{
				Text:           line,
				Source:         "custom",
				CreatedByToken: token,
				CreatedAt:      base.Add(time.Duration(i) * time.Millisecond),
			}
			if err := tx.Create(&card).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(lines), nil
}

// DeleteCard removes a card by id. Deleting an absent id reports false
// rather than failing, so client retries stay harmless. Decks referencing
// the deleted card degrade to "no active card" at read time.
func (e *Engine) DeleteCard(playerToken string, id uint) (bool, error) {
	if _, err := validatePlayerToken(playerToken); err != nil {
		return false, err
	}
	deleted := false
	err := e.db.Transaction(func(tx *gorm.DB) error {
		card, err := cardByID(tx, id)
		if err != nil {
			return err
		}
		if card == nil {
			return nil
		}
		if err := tx.Delete(&db.Card{}, card.ID).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// CardView is the public shape of a catalog entry.
type CardView struct {
	ID     uint   `json:"id"`
	Text   string `json:"text"`
	Source string `json:"source"`
}

func (e *Engine) ListCards() ([]CardView, error) {
	cards, err := allCards(e.db)
	if err != nil {
		return nil, err
	}
	views := make([]CardView, 0, len(cards))
	for _, card := range cards {
		views = append(views, CardView{ID: card.ID, Text: card.Text, Source: card.Source})
	}
	return views, nil
}
