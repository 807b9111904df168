// Package yamldoc decodes recognizer output delivered as YAML, the format
// operators use when hand-correcting a payload before re-running it.
package yamldoc

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure Decoder implements the interface.
var _ driven.PayloadDecoder = (*Decoder)(nil)

// Decoder handles YAML payloads.
type Decoder struct{}

// New creates a new YAML decoder.
func New() *Decoder {
	return &Decoder{}
}

// Formats returns the format names this decoder handles.
func (d *Decoder) Formats() []string {
	return []string{"yaml"}
}

// Extensions returns the file extensions this decoder handles.
func (d *Decoder) Extensions() []string {
	return []string{".yaml", ".yml"}
}

type documentDTO struct {
	ID           string    `yaml:"id"`
	Source       string    `yaml:"source"`
	DocumentType string    `yaml:"document_type"`
	Pages        []pageDTO `yaml:"pages"`
}

type pageDTO struct {
	Page   int        `yaml:"page"`
	Blocks []blockDTO `yaml:"blocks"`
	Tables []struct {
		Rows []string `yaml:"rows"`
	} `yaml:"tables"`
}

type blockDTO struct {
	Text     string       `yaml:"text"`
	Kind     string       `yaml:"kind"`
	Position *positionDTO `yaml:"position"`
}

type positionDTO struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Decode parses a YAML payload.
func (d *Decoder) Decode(_ context.Context, data []byte) (*domain.RawDocument, error) {
	var dto documentDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if dto.Pages == nil {
		return nil, fmt.Errorf("%w: no pages key", domain.ErrInvalidInput)
	}

	doc := &domain.RawDocument{
		ID:           dto.ID,
		Source:       dto.Source,
		DocumentType: domain.DocumentType(dto.DocumentType),
		Pages:        make([]domain.RawPageOutput, len(dto.Pages)),
	}
	for i, p := range dto.Pages {
		page := domain.RawPageOutput{Page: p.Page}
		for _, b := range p.Blocks {
			blk := domain.TextBlock{Text: b.Text, Kind: domain.BlockKind(b.Kind)}
			if b.Position != nil {
				blk.Position = &domain.Position{
					X: b.Position.X, Y: b.Position.Y, Width: b.Position.Width, Height: b.Position.Height,
				}
			}
			page.Blocks = append(page.Blocks, blk)
		}
		for _, t := range p.Tables {
			page.Tables = append(page.Tables, domain.RawTable{Rows: t.Rows})
		}
		doc.Pages[i] = page
	}
	return doc, nil
}
