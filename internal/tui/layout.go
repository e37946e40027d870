// pattern: Functional Core

package tui

// Region defines a rectangular area within the terminal.
type Region struct {
	X      int // Left position (0-indexed)
	Y      int // Top position (0-indexed)
	Width  int // Width in cells
	Height int // Height in lines
}

// Layout holds computed regions for all UI components.
type Layout struct {
	Header    Region // Title + repository line
	List      Region // Branch list (left side, full width when the detail panel is closed)
	Detail    Region // Selected branch and its hook output (right side)
	Body      Region // Whole area between header and status bar, used by the log view
	StatusBar Region // Status bar (1 line)
}

const (
	headerHeight    = 2 // Title + subtitle
	statusBarHeight = 1
	marginHeight    = 1 // Blank line above the status bar

	// detailMinWidth is the terminal width from which the detail panel is shown.
	detailMinWidth = 90
)

// ComputeLayout calculates regions based on terminal dimensions. The body
// splits 45/55 horizontally (list/detail) when the terminal is wide enough.
func ComputeLayout(width, height int) Layout {
	bodyHeight := height - headerHeight - statusBarHeight - marginHeight
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	y := 0
	header := Region{X: 0, Y: y, Width: width, Height: headerHeight}
	y += headerHeight

	body := Region{X: 0, Y: y, Width: width, Height: bodyHeight}

	var list, detail Region
	if width >= detailMinWidth {
		listWidth := int(float64(width) * 0.45)
		list = Region{X: 0, Y: y, Width: listWidth, Height: bodyHeight}
		detail = Region{X: listWidth, Y: y, Width: width - listWidth, Height: bodyHeight}
	} else {
		list = body
		detail = Region{X: width, Y: y}
	}
	y += bodyHeight + marginHeight

	return Layout{
		Header:    header,
		List:      list,
		Detail:    detail,
		Body:      body,
		StatusBar: Region{X: 0, Y: y, Width: width, Height: statusBarHeight},
	}
}

// DetailOpen reports whether the detail panel has room.
func (l Layout) DetailOpen() bool {
	return l.Detail.Width > 0
}

// ListRows returns how many branch rows fit below the list header.
func (l Layout) ListRows() int {
	h := l.List.Height - 1
	if h < 1 {
		h = 1
	}
	return h
}
