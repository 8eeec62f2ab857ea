package search

import (
	"github.com/glimpse/glimpse/internal/database"
	"github.com/glimpse/glimpse/internal/models"
)

// Index answers substring queries over capture titles and app names. It
// is a thin pass-through over the record store: each query opens its own
// connection for the duration of the call, so API threads never share a
// cursor with the capture loop.
type Index struct {
	path string
}

func NewIndex(path string) *Index {
	return &Index{path: path}
}

func (i *Index) Path() string {
	return i.path
}

// Search returns up to limit matching non-deleted records, newest first.
func (i *Index) Search(query string, limit int) ([]models.CaptureRecord, error) {
	db, err := database.Connect(i.path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return database.NewRepository(db).Search(query, limit)
}
