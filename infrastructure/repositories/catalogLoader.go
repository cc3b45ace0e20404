package repositories

import (
	"fmt"
	"os"

	"github.com/sgatu/bookstore-back/models"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Books []*models.Book `yaml:"books"`
}

// DefaultCatalog returns the built-in seed catalog with empty review maps.
func DefaultCatalog() []*models.Book {
	seed := []struct{ author, title string }{
		{"Chinua Achebe", "Things Fall Apart"},
		{"Hans Christian Andersen", "Fairy tales"},
		{"Dante Alighieri", "The Divine Comedy"},
		{"Unknown", "The Epic Of Gilgamesh"},
		{"Unknown", "The Book Of Job"},
		{"Unknown", "One Thousand and One Nights"},
		{"Unknown", "Njál's Saga"},
		{"Jane Austen", "Pride and Prejudice"},
		{"Honoré de Balzac", "Le Père Goriot"},
		{"Samuel Beckett", "Molloy, Malone Dies, The Unnamable, the trilogy"},
	}
	books := make([]*models.Book, 0, len(seed))
	for i, s := range seed {
		books = append(books, &models.Book{
			ISBN:    fmt.Sprintf("%03d", i+1),
			Author:  s.author,
			Title:   s.title,
			Reviews: map[string]string{},
		})
	}
	return books
}

// LoadCatalogFile reads a YAML catalog of the form
//
//	books:
//	  - isbn: "001"
//	    author: Chinua Achebe
//	    title: Things Fall Apart
func LoadCatalogFile(path string) ([]*models.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) ([]*models.Book, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Books) == 0 {
		return nil, fmt.Errorf("catalog has no books")
	}
	return file.Books, nil
}
