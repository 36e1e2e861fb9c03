package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hm-damul/template-factory-sub001/internal/models"
)

// AssetSelectorModal provides a modal interface for jumping straight to one
// of the canonical assets of the open package.
type AssetSelectorModal struct {
	list           list.Model
	isActive       bool
	width          int
	height         int
	applyRequested bool
	choice         models.AssetKind
}

// assetItem implements the list.Item interface for asset selection
type assetItem struct {
	kind    models.AssetKind
	present bool
	current bool
}

func (a assetItem) FilterValue() string {
	return a.kind.Name()
}

// assetItemDelegate handles rendering of asset items
type assetItemDelegate struct{}

func (d assetItemDelegate) Height() int                               { return 2 }
func (d assetItemDelegate) Spacing() int                              { return 1 }
func (d assetItemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d assetItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(assetItem)
	if !ok {
		return
	}

	var title, desc string
	if item.current {
		title = fmt.Sprintf("✓ %s", item.kind.Name())
	} else {
		title = fmt.Sprintf("  %s", item.kind.Name())
	}

	if item.present {
		desc = item.kind.RelPath()
	} else {
		desc = fmt.Sprintf("missing: %s", item.kind.RelPath())
	}

	// Use different styles for the highlighted row and for missing assets
	if index == m.Index() {
		if item.present {
			title = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true).Render(title)
		} else {
			title = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true).Render(title)
		}
		desc = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(desc)
	} else {
		if item.present {
			title = lipgloss.NewStyle().Foreground(lipgloss.Color("7")).Render(title)
		} else {
			title = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(title)
		}
		desc = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(desc)
	}

	fmt.Fprintf(w, "%s\n%s", title, desc)
}

// NewAssetSelectorModal creates a new asset selector modal
func NewAssetSelectorModal() *AssetSelectorModal {
	l := list.New([]list.Item{}, assetItemDelegate{}, 50, 15)
	l.Title = "Jump to Asset"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	keyMap := list.DefaultKeyMap()
	keyMap.ShowFullHelp = key.NewBinding(
		key.WithKeys("ctrl+h"),
		key.WithHelp("Ctrl+h", "toggle help"),
	)
	l.KeyMap = keyMap

	return &AssetSelectorModal{
		list: l,
	}
}

// SetSize updates the modal size
func (as *AssetSelectorModal) SetSize(width, height int) {
	as.width = width
	as.height = height

	listWidth := min(width-4, 60)
	listHeight := min(height-6, 20)
	as.list.SetSize(listWidth, listHeight)
}

// SetAssets fills the modal with the package's assets. present marks the
// ones that exist on disk; current is the asset in the viewport right now.
func (as *AssetSelectorModal) SetAssets(present map[models.AssetKind]bool, current models.AssetKind) {
	kinds := models.AllAssets()
	items := make([]list.Item, 0, len(kinds))
	for _, kind := range kinds {
		items = append(items, assetItem{
			kind:    kind,
			present: present[kind],
			current: kind == current,
		})
	}
	as.list.SetItems(items)
}

// Show activates the modal
func (as *AssetSelectorModal) Show() {
	as.isActive = true
	as.applyRequested = false
}

// Hide deactivates the modal
func (as *AssetSelectorModal) Hide() {
	as.isActive = false
	as.applyRequested = false
}

// IsActive returns whether the modal is active
func (as *AssetSelectorModal) IsActive() bool {
	return as.isActive
}

// ShouldApply returns whether an asset was chosen
func (as *AssetSelectorModal) ShouldApply() bool {
	return as.applyRequested
}

// Choice returns the chosen asset
func (as *AssetSelectorModal) Choice() models.AssetKind {
	return as.choice
}

// Update handles modal updates
func (as *AssetSelectorModal) Update(msg tea.Msg) (*AssetSelectorModal, tea.Cmd) {
	if !as.isActive {
		return as, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if item, ok := as.list.SelectedItem().(assetItem); ok {
				as.choice = item.kind
				as.applyRequested = true
				as.isActive = false
			}
			return as, nil
		case "esc", "a":
			as.isActive = false
			return as, nil
		}
	}

	// Handle list navigation
	var cmd tea.Cmd
	as.list, cmd = as.list.Update(msg)
	return as, cmd
}

// View renders the modal
func (as *AssetSelectorModal) View() string {
	if !as.isActive {
		return ""
	}

	content := as.list.View()

	instructions := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Render("Enter: open asset • Esc: cancel")

	modalContent := lipgloss.JoinVertical(
		lipgloss.Left,
		content,
		"",
		instructions,
	)

	modalStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("12")).
		Padding(1, 2).
		Background(lipgloss.Color("0"))

	return lipgloss.Place(
		as.width,
		as.height,
		lipgloss.Center,
		lipgloss.Center,
		modalStyle.Render(modalContent),
	)
}
