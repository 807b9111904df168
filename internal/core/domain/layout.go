package domain

// BlockType is the fixed enumeration of layout content blocks.
type BlockType string

// Content block types.
const (
	BlockTypeHeading   BlockType = "heading"
	BlockTypeParagraph BlockType = "paragraph"
	BlockTypeList      BlockType = "list"
	BlockTypeTable     BlockType = "table"
	BlockTypeImage     BlockType = "image-reference"
	BlockTypeBadge     BlockType = "badge"
	BlockTypeDivider   BlockType = "divider"
	BlockTypeProfile   BlockType = "profile"
	BlockTypeContact   BlockType = "contact"
)

// AllBlockTypes returns every block type in declaration order.
func AllBlockTypes() []BlockType {
	return []BlockType{
		BlockTypeHeading, BlockTypeParagraph, BlockTypeList, BlockTypeTable, BlockTypeImage,
		BlockTypeBadge, BlockTypeDivider, BlockTypeProfile, BlockTypeContact,
	}
}

// Priority ranks blocks for rendering emphasis.
type Priority string

// Priorities, highest first.
const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Level returns 1 for critical through 4 for low.
func (p Priority) Level() int {
	switch p {
	case PriorityCritical:
		return 1
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 3
	default:
		return 4
	}
}

// ContentBlock is a unit destined for layout.
type ContentBlock struct {
	Type     BlockType `json:"type"`
	Priority Priority  `json:"priority"`

	// Ref names the field, section or entity the block came from.
	Ref string `json:"ref"`

	// Title is the block heading, if any.
	Title string `json:"title"`

	// Content is the main text.
	Content string `json:"content"`

	// Items holds list entries or contact lines.
	Items []string `json:"items,omitempty"`

	// Columns and Rows hold tabular data for table blocks.
	Columns []string   `json:"columns,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`

	// Page and Position locate the source, when known.
	Page     int       `json:"page"`
	Position *Position `json:"position,omitempty"`
}

// Strategy is the layout strategy chosen for a section.
type Strategy string

// Layout strategies.
const (
	StrategyHero         Strategy = "hero"
	StrategyCardGrid     Strategy = "card-grid"
	StrategyAccordion    Strategy = "accordion"
	StrategyTableSection Strategy = "table-section"
	StrategyFooter       Strategy = "footer"
	StrategyList         Strategy = "list"
)

// IsValid returns true if the strategy is recognised.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyHero, StrategyCardGrid, StrategyAccordion, StrategyTableSection, StrategyFooter, StrategyList:
		return true
	default:
		return false
	}
}

// LayoutSection is an ordered group of blocks sharing a strategy.
type LayoutSection struct {
	// Key identifies the section across documents of the same signature.
	Key string `json:"key"`

	Strategy Strategy       `json:"strategy"`
	Title    string         `json:"title"`
	Blocks   []ContentBlock `json:"blocks,omitempty"`
}

// LayoutPlan is the ordered sequence of sections handed to the renderer.
type LayoutPlan struct {
	DocumentType DocumentType    `json:"document_type"`
	Theme        Theme           `json:"theme"`
	Sections     []LayoutSection `json:"sections,omitempty"`

	// Signature is the feature fingerprint of the plan's blocks.
	Signature Signature `json:"signature"`

	// PatternID is set when a learned pattern shaped the plan.
	PatternID string `json:"pattern_id"`
}

// SectionKeys returns the section keys in plan order.
func (p *LayoutPlan) SectionKeys() []string {
	keys := make([]string, len(p.Sections))
	for i := range p.Sections {
		keys[i] = p.Sections[i].Key
	}
	return keys
}

// Structure extracts the learnable layout of the plan.
func (p *LayoutPlan) Structure() LayoutStructure {
	s := LayoutStructure{
		SectionOrder: p.SectionKeys(),
		Strategies:   make(map[string]Strategy, len(p.Sections)),
	}
	for i := range p.Sections {
		s.Strategies[p.Sections[i].Key] = p.Sections[i].Strategy
	}
	return s
}

// Theme is the colour assignment for a document type.
type Theme struct {
	Name      string   `json:"name"`
	Primary   string   `json:"primary"`
	Secondary string   `json:"secondary"`
	Accent    string   `json:"accent"`
	Palette   []string `json:"palette,omitempty"`
}

// ThemeFor returns the theme for a document type.
func ThemeFor(t DocumentType) Theme {
	switch t {
	case DocumentTypeElection:
		return Theme{
			Name: "election", Primary: "#E11D48", Secondary: "#DC2626", Accent: "#F59E0B",
			Palette: []string{"#E11D48", "#DC2626", "#F59E0B", "#10B981", "#3B82F6"},
		}
	case DocumentTypeNewsletter:
		return Theme{
			Name: "newsletter", Primary: "#4CAF50", Secondary: "#2196F3", Accent: "#FF9800",
			Palette: []string{"#4CAF50", "#2196F3", "#FF9800", "#9C27B0", "#00BCD4"},
		}
	case DocumentTypeChurch:
		return Theme{
			Name: "church", Primary: "#1E3A8A", Secondary: "#7C3AED", Accent: "#D97706",
			Palette: []string{"#1E3A8A", "#7C3AED", "#D97706", "#059669", "#64748B"},
		}
	default:
		return Theme{
			Name: "neutral", Primary: "#374151", Secondary: "#6B7280", Accent: "#2563EB",
			Palette: []string{"#374151", "#6B7280", "#2563EB", "#9CA3AF", "#111827"},
		}
	}
}
