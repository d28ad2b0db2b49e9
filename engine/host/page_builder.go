package host

// PageBuilderOption is a functional option for configuring a Page.
type PageBuilderOption func(*pageImpl)

// WithViewportSize sets the initial visible viewport size.
//
// Parameters:
//   - width: viewport width in pixels
//   - height: viewport height in pixels
//
// Returns:
//   - PageBuilderOption: option function to apply
func WithViewportSize(width, height int) PageBuilderOption {
	return func(p *pageImpl) {
		p.width = width
		p.height = height
	}
}

// WithItemSize sets the size of each scene element within its list item.
//
// Parameters:
//   - width: element width in pixels
//   - height: element height in pixels
//
// Returns:
//   - PageBuilderOption: option function to apply
func WithItemSize(width, height float32) PageBuilderOption {
	return func(p *pageImpl) {
		p.itemWidth = width
		p.itemHeight = height
	}
}

// WithCaptionHeight sets the height reserved below each element for its caption.
//
// Parameters:
//   - height: caption height in pixels
//
// Returns:
//   - PageBuilderOption: option function to apply
func WithCaptionHeight(height float32) PageBuilderOption {
	return func(p *pageImpl) {
		p.captionHeight = height
	}
}

// WithGap sets the spacing between list items and around the list.
//
// Parameters:
//   - gap: spacing in pixels
//
// Returns:
//   - PageBuilderOption: option function to apply
func WithGap(gap float32) PageBuilderOption {
	return func(p *pageImpl) {
		p.gap = gap
	}
}
