package smartquote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/erp/quotedesk/internal/domain/shared"
	"github.com/erp/quotedesk/internal/infrastructure/logger"
	"go.uber.org/zap"
)

var errNoPanels = errors.New("smart quote builder has no panels")

// SelectHandler receives the line items of a selected proposal
type SelectHandler func(panel string, items []quote.LineItem)

// Builder switches between panels by tab index and remembers what each
// panel loaded last.
type Builder struct {
	panels   []Panel
	onSelect SelectHandler
	logger   *zap.Logger

	mu     sync.Mutex
	active int
	loaded map[int][]Proposal
}

// BuilderOption configures a Builder
type BuilderOption func(*Builder)

// WithSelectHandler registers the callback invoked on Select
func WithSelectHandler(h SelectHandler) BuilderOption {
	return func(b *Builder) {
		b.onSelect = h
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithPanels replaces the default panels
func WithPanels(panels ...Panel) BuilderOption {
	return func(b *Builder) {
		b.panels = panels
	}
}

// NewBuilder creates a builder with the suggestions, bundles, templates and
// health panels, in that tab order.
func NewBuilder(gw Gateway, opts ...BuilderOption) *Builder {
	b := &Builder{
		panels: []Panel{
			NewSuggestionsPanel(gw),
			NewBundlesPanel(gw),
			NewTemplatesPanel(gw),
			NewHealthPanel(gw),
		},
		logger: zap.NewNop(),
		loaded: make(map[int][]Proposal),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Panels returns the panel names in tab order
func (b *Builder) Panels() []string {
	names := make([]string, len(b.panels))
	for i, p := range b.panels {
		names[i] = p.Name()
	}
	return names
}

// Tab returns the active tab index
func (b *Builder) Tab() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// SetTab makes panel i visible
func (b *Builder) SetTab(i int) error {
	if i < 0 || i >= len(b.panels) {
		return shared.NewDomainError(shared.ErrInvalidInput.Code,
			fmt.Sprintf("Tab %d does not exist (have %d panels)", i, len(b.panels)))
	}
	b.mu.Lock()
	b.active = i
	b.mu.Unlock()
	return nil
}

// TabByName returns the tab index of the named panel
func (b *Builder) TabByName(name string) (int, error) {
	for i, p := range b.panels {
		if p.Name() == name {
			return i, nil
		}
	}
	return -1, shared.NewDomainError(shared.ErrNotFound.Code, fmt.Sprintf("Panel %q not found", name))
}

// LoadActive loads the visible panel for in and caches its proposals
func (b *Builder) LoadActive(ctx context.Context, in Input) ([]Proposal, error) {
	if in.CustomerID == "" {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "A customer is required for recommendations")
	}

	if len(b.panels) == 0 {
		return nil, errNoPanels
	}

	b.mu.Lock()
	tab := b.active
	b.mu.Unlock()

	panel := b.panels[tab]
	proposals, err := panel.Load(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s panel: %w", panel.Name(), err)
	}

	b.mu.Lock()
	b.loaded[tab] = proposals
	b.mu.Unlock()

	logger.Bind(ctx, b.logger).Debug("Smart quote panel loaded",
		zap.String("panel", panel.Name()),
		zap.Int("proposals", len(proposals)),
	)
	return proposals, nil
}

// Select returns the line items of proposal index on the visible panel and
// passes them to the select handler.
func (b *Builder) Select(index int) ([]quote.LineItem, error) {
	if len(b.panels) == 0 {
		return nil, errNoPanels
	}

	b.mu.Lock()
	tab := b.active
	proposals, ok := b.loaded[tab]
	b.mu.Unlock()

	name := b.panels[tab].Name()
	if !ok {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code,
			fmt.Sprintf("Panel %s has not been loaded", name))
	}
	if index < 0 || index >= len(proposals) {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code,
			fmt.Sprintf("Proposal %d does not exist on panel %s", index, name))
	}

	items := make([]quote.LineItem, len(proposals[index].Items))
	copy(items, proposals[index].Items)

	if b.onSelect != nil {
		b.onSelect(name, items)
	}
	return items, nil
}
