package host

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-pano/common"
)

// pageItem is a list item holding one scene element and its caption.
type pageItem struct {
	page     *pageImpl
	id       string
	label    string
	attached bool
}

// pageImpl is the implementation of the Page interface.
type pageImpl struct {
	mu *sync.Mutex

	width  int
	height int

	scrollY    float32
	translateY float32

	itemWidth     float32
	itemHeight    float32
	captionHeight float32
	gap           float32

	items []*pageItem
	byID  map[string]*pageItem
}

// Page is a desktop host document: a scrollable wrapping list of scene slots whose visible
// viewport is the window. It also acts as the canvas pinned over that viewport.
type Page interface {
	Document
	Canvas
	SlotCreator

	// Resize sets the visible viewport size. The scroll offset is re-clamped.
	//
	// Parameters:
	//   - width: viewport width in pixels
	//   - height: viewport height in pixels
	Resize(width, height int)

	// ScrollBy moves the scroll offset by dy, clamped to the scrollable range.
	//
	// Parameters:
	//   - dy: delta in pixels (positive scrolls down)
	//
	// Returns:
	//   - float32: the new scroll offset
	ScrollBy(dy float32) float32

	// ContentHeight returns the total height of the laid out list.
	ContentHeight() float32

	// TranslateY returns the last offset passed to SetTranslateY.
	TranslateY() float32

	// ElementAt returns the attached element under the viewport point x, y.
	//
	// Parameters:
	//   - x, y: point in viewport pixels
	//
	// Returns:
	//   - Element: the element under the point, or nil
	//   - bool: true if an element was hit
	ElementAt(x, y float32) (Element, bool)

	// Label returns the caption of the slot holding the element id.
	//
	// Parameters:
	//   - id: the element identifier
	//
	// Returns:
	//   - string: the caption, empty if unknown
	Label(id string) string

	// Detach removes the element from the document. Later lookups report it as missing.
	//
	// Parameters:
	//   - id: the element identifier
	//
	// Returns:
	//   - bool: true if an attached element was removed
	Detach(id string) bool
}

var _ Page = &pageImpl{}
var _ Element = &pageItem{}

// NewPage creates an empty Page with default list item geometry.
//
// Parameters:
//   - options: functional options to configure the page
//
// Returns:
//   - Page: the newly created page
func NewPage(options ...PageBuilderOption) Page {
	p := &pageImpl{
		mu:            &sync.Mutex{},
		width:         1280,
		height:        720,
		itemWidth:     400,
		itemHeight:    300,
		captionHeight: 24,
		gap:           16,
		byID:          make(map[string]*pageItem),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *pageImpl) Element(id string) (Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	it, ok := p.byID[id]
	if !ok || !it.attached {
		return nil, false
	}
	return it, true
}

func (p *pageImpl) ScrollY() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scrollY
}

func (p *pageImpl) ClientSize() common.Size {
	p.mu.Lock()
	defer p.mu.Unlock()
	return common.Size{Width: p.width, Height: p.height}
}

func (p *pageImpl) SetTranslateY(y float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.translateY = y
}

func (p *pageImpl) TranslateY() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.translateY
}

func (p *pageImpl) AppendSlot(id, label string) Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	if it, ok := p.byID[id]; ok && it.attached {
		it.label = label
		return it
	}
	it := &pageItem{page: p, id: id, label: label, attached: true}
	p.items = append(p.items, it)
	p.byID[id] = it
	return it
}

func (p *pageImpl) Resize(width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.width = width
	p.height = height
	p.scrollY = common.Clamp(p.scrollY, 0, p.maxScroll())
}

func (p *pageImpl) ScrollBy(dy float32) float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrollY = common.Clamp(p.scrollY+dy, 0, p.maxScroll())
	return p.scrollY
}

func (p *pageImpl) ContentHeight() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.contentHeight()
}

func (p *pageImpl) ElementAt(x, y float32) (Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, it := range p.items {
		if p.rectAt(i).Translate(0, -p.scrollY).Contains(x, y) {
			return it, true
		}
	}
	return nil, false
}

func (p *pageImpl) Label(id string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if it, ok := p.byID[id]; ok {
		return it.label
	}
	return ""
}

func (p *pageImpl) Detach(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	it, ok := p.byID[id]
	if !ok || !it.attached {
		return false
	}
	it.attached = false
	delete(p.byID, id)
	for i, other := range p.items {
		if other == it {
			p.items = append(p.items[:i], p.items[i+1:]...)
			break
		}
	}
	return true
}

// columns returns how many items fit side by side in the current width. Caller must hold the mutex.
func (p *pageImpl) columns() int {
	cols := int((float32(p.width) - p.gap) / (p.itemWidth + p.gap))
	if cols < 1 {
		return 1
	}
	return cols
}

// rectAt returns the page-space rectangle of the scene element at list index i. Caller must hold the mutex.
func (p *pageImpl) rectAt(i int) common.Rect {
	cols := p.columns()
	row, col := i/cols, i%cols
	left := p.gap + float32(col)*(p.itemWidth+p.gap)
	top := p.gap + float32(row)*(p.itemHeight+p.captionHeight+p.gap)
	return common.Rect{Left: left, Top: top, Right: left + p.itemWidth, Bottom: top + p.itemHeight}
}

// contentHeight returns the height of all rows plus trailing gap. Caller must hold the mutex.
func (p *pageImpl) contentHeight() float32 {
	if len(p.items) == 0 {
		return 0
	}
	cols := p.columns()
	rows := (len(p.items) + cols - 1) / cols
	return p.gap + float32(rows)*(p.itemHeight+p.captionHeight+p.gap)
}

// maxScroll returns the largest valid scroll offset. Caller must hold the mutex.
func (p *pageImpl) maxScroll() float32 {
	over := p.contentHeight() - float32(p.height)
	if over < 0 {
		return 0
	}
	return over
}

func (it *pageItem) ID() string {
	return it.id
}

func (it *pageItem) Attached() bool {
	it.page.mu.Lock()
	defer it.page.mu.Unlock()
	return it.attached
}

func (it *pageItem) BoundingClientRect() common.Rect {
	p := it.page
	p.mu.Lock()
	defer p.mu.Unlock()
	if !it.attached {
		return common.Rect{}
	}
	for i, other := range p.items {
		if other == it {
			return p.rectAt(i).Translate(0, -p.scrollY)
		}
	}
	return common.Rect{}
}
