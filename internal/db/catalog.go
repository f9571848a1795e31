package db

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"title-party/internal/game"
)

const (
	catalogKindCard  = "card"
	catalogKindTheme = "theme"
)

// Catalog is the immutable word card and theme content.
type Catalog struct {
	Cards  []game.WordCard
	Themes []game.Theme
}

// ReadCatalogFile reads a catalog CSV with the header kind,text,description.
// Rows of kind "card" become word cards and rows of kind "theme" become
// themes. Ids are derived from the text so reloading is stable.
func ReadCatalogFile(path string) (Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return Catalog{}, err
	}
	defer file.Close()
	return ReadCatalog(file)
}

func ReadCatalog(r io.Reader) (Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return Catalog{}, err
	}

	var catalog Catalog
	seenCards := map[string]bool{}
	seenThemes := map[string]bool{}
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		kind := strings.ToLower(strings.TrimSpace(row[0]))
		text := strings.TrimSpace(row[1])
		if text == "" {
			continue
		}
		switch kind {
		case catalogKindCard:
			if seenCards[text] {
				continue
			}
			seenCards[text] = true
			catalog.Cards = append(catalog.Cards, game.WordCard{ID: catalogID(kind, text), Word: text})
		case catalogKindTheme:
			if seenThemes[text] {
				continue
			}
			seenThemes[text] = true
			description := ""
			if len(row) >= 3 {
				description = strings.TrimSpace(row[2])
			}
			catalog.Themes = append(catalog.Themes, game.Theme{ID: catalogID(kind, text), Name: text, Description: description})
		default:
			return Catalog{}, fmt.Errorf("catalog row %d: unknown kind %q", i+1, row[0])
		}
	}
	return catalog, nil
}

func catalogID(kind, text string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(kind+":"+text)).String()
}

// LoadCatalog upserts the catalog into the word_cards and themes tables and
// returns how many rows it wrote.
func LoadCatalog(conn *gorm.DB, catalog Catalog) (int, error) {
	if conn == nil {
		return 0, errors.New("db connection is nil")
	}
	now := time.Now().UTC()
	inserted := 0
	for _, card := range catalog.Cards {
		entry := WordCard{ID: card.ID, Word: card.Word, CreatedAt: now}
		if err := conn.FirstOrCreate(&entry, WordCard{Word: entry.Word}).Error; err != nil {
			return inserted, err
		}
		inserted++
	}
	for _, theme := range catalog.Themes {
		entry := Theme{ID: theme.ID, Name: theme.Name, Description: theme.Description, CreatedAt: now}
		if err := conn.FirstOrCreate(&entry, Theme{Name: entry.Name}).Error; err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
