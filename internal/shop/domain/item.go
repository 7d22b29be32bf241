package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ItemKind is the discriminator stored in the items.dtype column.
type ItemKind string

const (
	KindBook  ItemKind = "B"
	KindAlbum ItemKind = "A"
	KindMovie ItemKind = "M"
)

// ParseItemKind accepts either the discriminator or the lower-case kind name.
func ParseItemKind(s string) (ItemKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "b", "book":
		return KindBook, nil
	case "a", "album":
		return KindAlbum, nil
	case "m", "movie":
		return KindMovie, nil
	}
	return "", fmt.Errorf("unknown item kind %q", s)
}

// ItemDetails carries the per-kind fields of an item. The set of
// implementations is closed: Book, Album and Movie.
type ItemDetails interface {
	Kind() ItemKind
	itemDetails()
}

type Book struct {
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

type Album struct {
	Artist string `json:"artist"`
	Etc    string `json:"etc"`
}

type Movie struct {
	Director string `json:"director"`
	Actor    string `json:"actor"`
}

func (Book) Kind() ItemKind  { return KindBook }
func (Album) Kind() ItemKind { return KindAlbum }
func (Movie) Kind() ItemKind { return KindMovie }

func (Book) itemDetails()  {}
func (Album) itemDetails() {}
func (Movie) itemDetails() {}

// Item is a sellable product. Stock is only changed through AddStock and
// RemoveStock.
type Item struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	Price         int         `json:"price"`
	StockQuantity int         `json:"stock_quantity"`
	Details       ItemDetails `json:"details"`
}

// NewBook is a shortcut for the most common item kind.
func NewBook(name string, price, stock int, author, isbn string) *Item {
	return &Item{
		Name:          name,
		Price:         price,
		StockQuantity: stock,
		Details:       Book{Author: author, ISBN: isbn},
	}
}

func (i *Item) Kind() ItemKind {
	if i.Details == nil {
		return ""
	}
	return i.Details.Kind()
}

// Validate checks the fields every item kind shares.
func (i *Item) Validate() error {
	var errs []error
	if strings.TrimSpace(i.Name) == "" {
		errs = append(errs, errors.New("item name is required"))
	}
	if i.Price < 0 {
		errs = append(errs, fmt.Errorf("item price cannot be negative, got %d", i.Price))
	}
	if i.StockQuantity < 0 {
		errs = append(errs, fmt.Errorf("item stock cannot be negative, got %d", i.StockQuantity))
	}
	if i.Details == nil {
		errs = append(errs, errors.New("item kind is required"))
	}
	return errors.Join(errs...)
}

func (i *Item) AddStock(quantity int) {
	i.StockQuantity += quantity
}

func (i *Item) RemoveStock(quantity int) error {
	rest := i.StockQuantity - quantity
	if rest < 0 {
		return fmt.Errorf("%w: item %d has %d, requested %d", ErrNotEnoughStock, i.ID, i.StockQuantity, quantity)
	}
	i.StockQuantity = rest
	return nil
}
