package services

import (
	"context"
	"sort"
	"strings"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// Paragraph groups switch to an accordion above these limits.
const (
	accordionParagraphs = 3
	accordionBodyRunes  = 600
)

const heroKey = "hero"

// Synthesizer builds a mobile layout plan from a validated record.
type Synthesizer struct {
	patterns driven.PatternLookup
	pipeline domain.PipelineSettings
	learning domain.LearningSettings
}

// NewSynthesizer creates a synthesizer. patterns may be nil.
func NewSynthesizer(
	patterns driven.PatternLookup,
	pipeline domain.PipelineSettings,
	learning domain.LearningSettings,
) *Synthesizer {
	return &Synthesizer{patterns: patterns, pipeline: pipeline, learning: learning}
}

// Synthesize converts rec into a layout plan. Every section ID in
// required is present in the plan, with a placeholder when the record
// lacks it.
func (s *Synthesizer) Synthesize(
	ctx context.Context,
	rec *domain.MergedRecord,
	required []string,
) (*domain.LayoutPlan, error) {
	if rec == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blocks := buildBlocks(rec)
	blocks = ensureRequired(rec, blocks, required)

	plan := &domain.LayoutPlan{
		DocumentType: rec.DocumentType,
		Theme:        domain.ThemeFor(rec.DocumentType),
		Signature:    domain.NewSignature(rec.DocumentType, blocks),
	}

	for _, g := range s.group(blocks) {
		plan.Sections = append(plan.Sections, s.section(g))
	}
	plan.Sections = mergeLeading(plan.Sections, domain.StrategyHero, heroKey)
	plan.Sections = attachDividers(plan.Sections)

	if s.patterns != nil {
		if p, ok := s.patterns.Lookup(plan.Signature); ok {
			if p.Flagged || p.SuccessRate < s.learning.FlagFloor {
				logger.Debug("pattern %s skipped: success %.2f flagged=%t", p.ID, p.SuccessRate, p.Flagged)
			} else {
				applyPattern(plan, p)
			}
		}
	}

	logger.Debug("plan: %d section(s) from %d block(s), signature %s",
		len(plan.Sections), len(blocks), plan.Signature.Key())
	return plan, nil
}

// ensureRequired appends placeholder blocks for required sections the
// record does not carry.
func ensureRequired(rec *domain.MergedRecord, blocks []domain.ContentBlock, required []string) []domain.ContentBlock {
	for _, id := range required {
		if rec.HasSection(id) {
			continue
		}
		blocks = append(blocks, domain.ContentBlock{
			Type:     domain.BlockTypeParagraph,
			Priority: domain.PriorityHigh,
			Ref:      refSectionPrefix + id,
			Title:    domain.SectionLabel(id),
			Content:  domain.SectionPlaceholder,
		})
	}
	return blocks
}

// group splits blocks into runs of the same type and priority. A vertical
// gap of at least ProximityGap between positioned blocks on the same page
// also starts a new run.
func (s *Synthesizer) group(blocks []domain.ContentBlock) [][]domain.ContentBlock {
	var groups [][]domain.ContentBlock
	for i := range blocks {
		b := blocks[i]
		if len(groups) == 0 {
			groups = append(groups, []domain.ContentBlock{b})
			continue
		}
		last := groups[len(groups)-1]
		prev := last[len(last)-1]
		if prev.Type == b.Type && prev.Priority == b.Priority && !s.farApart(prev, b) {
			groups[len(groups)-1] = append(last, b)
			continue
		}
		groups = append(groups, []domain.ContentBlock{b})
	}
	return groups
}

func (s *Synthesizer) farApart(a, b domain.ContentBlock) bool {
	if a.Position == nil || b.Position == nil || a.Page != b.Page {
		return false
	}
	return b.Position.Y-a.Position.Bottom() >= s.pipeline.ProximityGap
}

// section picks a strategy for one group.
func (s *Synthesizer) section(g []domain.ContentBlock) domain.LayoutSection {
	first := g[0]
	sec := domain.LayoutSection{
		Key:    string(first.Type) + ":" + first.Ref,
		Title:  first.Title,
		Blocks: g,
	}

	switch first.Type {
	case domain.BlockTypeHeading, domain.BlockTypeProfile, domain.BlockTypeBadge:
		sec.Strategy = domain.StrategyHero
	case domain.BlockTypeTable:
		rows := 0
		for i := range g {
			rows += len(g[i].Rows)
		}
		if rows > s.pipeline.AccordionThreshold {
			sec.Strategy = domain.StrategyAccordion
		} else {
			sec.Strategy = domain.StrategyTableSection
		}
	case domain.BlockTypeContact, domain.BlockTypeDivider:
		sec.Strategy = domain.StrategyFooter
	case domain.BlockTypeList:
		sec.Strategy = domain.StrategyList
	case domain.BlockTypeParagraph:
		sec.Strategy = domain.StrategyCardGrid
		if len(g) > accordionParagraphs {
			sec.Strategy = domain.StrategyAccordion
		}
		for i := range g {
			if runeLen(g[i].Content) > accordionBodyRunes {
				sec.Strategy = domain.StrategyAccordion
			}
		}
	default:
		sec.Strategy = domain.StrategyCardGrid
	}
	return sec
}

// mergeLeading folds consecutive leading sections of one strategy into one.
func mergeLeading(sections []domain.LayoutSection, strategy domain.Strategy, key string) []domain.LayoutSection {
	n := 0
	for n < len(sections) && sections[n].Strategy == strategy {
		n++
	}
	if n < 2 {
		return sections
	}
	merged := domain.LayoutSection{Key: key, Strategy: strategy, Title: sections[0].Title}
	for i := 0; i < n; i++ {
		merged.Blocks = append(merged.Blocks, sections[i].Blocks...)
	}
	return append([]domain.LayoutSection{merged}, sections[n:]...)
}

// attachDividers moves a divider-only section into the section after it.
func attachDividers(sections []domain.LayoutSection) []domain.LayoutSection {
	out := make([]domain.LayoutSection, 0, len(sections))
	for i := 0; i < len(sections); i++ {
		sec := sections[i]
		if sec.Blocks[0].Type == domain.BlockTypeDivider && i+1 < len(sections) {
			next := sections[i+1]
			next.Blocks = append(append([]domain.ContentBlock(nil), sec.Blocks...), next.Blocks...)
			out = append(out, next)
			i++
			continue
		}
		out = append(out, sec)
	}
	return out
}

// applyPattern reorders sections by the pattern's recorded order and
// applies its strategies. Sections the pattern does not know keep their
// relative position after the known ones; none are dropped.
func applyPattern(plan *domain.LayoutPlan, p *domain.Pattern) {
	rank := make(map[string]int, len(p.Layout.SectionOrder))
	for i, key := range p.Layout.SectionOrder {
		rank[key] = i
	}
	unknown := len(rank)
	order := make(map[string]int, len(plan.Sections))
	for i := range plan.Sections {
		key := plan.Sections[i].Key
		if r, ok := rank[key]; ok {
			order[key] = r
		} else {
			order[key] = unknown + i
		}
		if st, ok := p.Layout.Strategies[key]; ok && st.IsValid() {
			plan.Sections[i].Strategy = st
		}
	}
	sort.SliceStable(plan.Sections, func(i, j int) bool {
		return order[plan.Sections[i].Key] < order[plan.Sections[j].Key]
	})
	plan.PatternID = p.ID
	logger.Debug("plan shaped by pattern %s: %s", p.ID, strings.Join(plan.SectionKeys(), ", "))
}
