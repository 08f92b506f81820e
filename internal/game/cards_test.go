package game

import (
	"strings"
	"testing"
)

func TestEnsureCardsSeededIsIdempotent(t *testing.T) {
	e := newTestEngine(t)

	if err := e.EnsureCardsSeeded(); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := e.EnsureCardsSeeded(); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	cards, err := e.ListCards()
	if err != nil {
		t.Fatalf("list cards: %v", err)
	}
	if len(cards) != len(defaultCards) {
		t.Fatalf("expected %d cards after double seed, got %d", len(defaultCards), len(cards))
	}
	for i, card := range cards {
		if card.Text != defaultCards[i] {
			t.Fatalf("expected deterministic order, card %d is %q, want %q", i, card.Text, defaultCards[i])
		}
		if card.Source != "default" {
			t.Fatalf("expected default source, got %q", card.Source)
		}
	}
}

func TestAddCardsSplitsAndNormalizes(t *testing.T) {
	e := newTestEngine(t)

	count, err := e.AddCards(tokenA, "  hello   world \r\n\n ok  go \n   \n")
	if err != nil {
		t.Fatalf("add cards: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 cards created, got %d", count)
	}

	cards, err := e.ListCards()
	if err != nil {
		t.Fatalf("list cards: %v", err)
	}
	if cards[0].Text != "hello world" || cards[1].Text != "ok go" {
		t.Fatalf("expected normalized texts in input order, got %q and %q", cards[0].Text, cards[1].Text)
	}
	for _, card := range cards {
		if card.Source != "custom" {
			t.Fatalf("expected custom source, got %q", card.Source)
		}
	}
}

func TestAddCardsRejectsBadLine(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.AddCards(tokenA, "Fine phrase\nX")
	if KindOf(err) != KindInvalidInput {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected error to name line 2, got %q", err.Error())
	}

	tooLong := strings.Repeat("a", 49)
	if _, err := e.AddCards(tokenA, tooLong); KindOf(err) != KindInvalidInput {
		t.Fatalf("expected invalid input for long line, got %v", err)
	}

	cards, listErr := e.ListCards()
	if listErr != nil {
		t.Fatalf("list cards: %v", listErr)
	}
	if len(cards) != 0 {
		t.Fatalf("expected no cards inserted on validation failure, got %d", len(cards))
	}
}

func TestAddCardsRejectsEmptyInput(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.AddCards(tokenA, "  \n \r\n  "); KindOf(err) != KindInvalidInput {
		t.Fatalf("expected invalid input for blank text, got %v", err)
	}
	if _, err := e.AddCards("bad", "Fine phrase"); KindOf(err) != KindInvalidInput {
		t.Fatalf("expected invalid input for bad token, got %v", err)
	}
}

func TestDeleteCardIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.AddCards(tokenA, "Only phrase"); err != nil {
		t.Fatalf("add cards: %v", err)
	}
	cards, err := e.ListCards()
	if err != nil {
		t.Fatalf("list cards: %v", err)
	}

	if _, err := e.DeleteCard("bad", cards[0].ID); KindOf(err) != KindInvalidInput {
		t.Fatalf("expected invalid input for bad token, got %v", err)
	}

	deleted, err := e.DeleteCard(tokenA, cards[0].ID)
	if err != nil {
		t.Fatalf("delete card: %v", err)
	}
	if !deleted {
		t.Fatal("expected first delete to report true")
	}

	deleted, err = e.DeleteCard(tokenA, cards[0].ID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if deleted {
		t.Fatal("expected second delete to report false")
	}
}
