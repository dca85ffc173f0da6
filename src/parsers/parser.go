package parsers

import (
	"io"

	"github.com/mediajenny/the-oracle/src/models"
)

type Parser interface {
	Parse(file io.Reader) (*models.RawTable, error)
}
