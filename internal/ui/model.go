package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/hm-damul/template-factory-sub001/internal/clipboard"
	"github.com/hm-damul/template-factory-sub001/internal/models"
	"github.com/hm-damul/template-factory-sub001/internal/service"
	"github.com/hm-damul/template-factory-sub001/internal/validation"
)

// createGlamourRenderer creates a glamour renderer with improved contrast handling
func createGlamourRenderer(wordWrap int) (*glamour.TermRenderer, error) {
	// Check for environment variable override first
	if style := os.Getenv("GLAMOUR_STYLE"); style != "" {
		return glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(wordWrap),
		)
	}

	// Detect terminal capabilities and background
	profile := termenv.ColorProfile()
	hasDarkBg := lipgloss.HasDarkBackground()

	var styleOption glamour.TermRendererOption

	if hasDarkBg {
		switch profile {
		case termenv.TrueColor, termenv.ANSI256:
			styleOption = glamour.WithStandardStyle("dark")
		default:
			// Fallback to auto-style for limited color terminals
			styleOption = glamour.WithAutoStyle()
		}
	} else {
		switch profile {
		case termenv.TrueColor, termenv.ANSI256:
			styleOption = glamour.WithStandardStyle("light")
		default:
			styleOption = glamour.WithAutoStyle()
		}
	}

	return glamour.NewTermRenderer(
		styleOption,
		glamour.WithColorProfile(profile),
		glamour.WithWordWrap(wordWrap),
	)
}

// Messages for async operations
type loadCompleteMsg struct {
	products []*models.Product
	err      error
}

type gitStatusMsg struct {
	status string
}

// loadProductsCmd drives the service's async loader and reports the result
// as a message once the scan settles
func loadProductsCmd(svc *service.Service) tea.Cmd {
	return func() tea.Msg {
		poll := svc.LoadProductsAsync()
		for {
			products, done, err := poll()
			if done {
				return loadCompleteMsg{products: products, err: err}
			}
			time.Sleep(25 * time.Millisecond)
		}
	}
}

// gitStatusCmd fetches the git sync status off the UI loop
func gitStatusCmd(svc *service.Service) tea.Cmd {
	return func() tea.Msg {
		status, err := svc.GetGitSyncStatus()
		if err != nil {
			return gitStatusMsg{status: ""}
		}
		return gitStatusMsg{status: status}
	}
}

// ViewMode represents the current view in the TUI
type ViewMode int

const (
	ViewLibrary ViewMode = iota
	ViewPackageDetail
	ViewCreatePackage
	ViewEditPackage
	ViewTemplateSets
	ViewTemplateSetDetail
	ViewValidation
)

// Model represents the TUI application state
type Model struct {
	service  *service.Service
	viewMode ViewMode

	// UI components
	packageList list.Model
	viewport    viewport.Model
	keys        KeyMap

	// Data
	products        []*models.Product
	templateSets    []*models.TemplateSet
	loading         bool
	selectedProduct *models.Product
	selectedSet     *models.TemplateSet

	// Form state
	packageForm   *PackageForm
	setForm       *SelectForm
	editMode      bool
	deleteConfirm bool

	// Detail view state
	assetKind    models.AssetKind
	assetContent string // raw asset text, used for clipboard copies
	assetModal   *AssetSelectorModal

	// Validation state
	reports          []*validation.Report
	validationReturn ViewMode

	glamourRenderer *glamour.TermRenderer

	// Window dimensions
	width  int
	height int

	// Status messages
	statusMsg     string
	statusTimeout int

	// Error state
	err error

	// Help modal state
	showHelpModal    bool
	showExpandedHelp bool
	helpViewport     viewport.Model
	modalContent     string // plain text content for copying

	// Git sync state
	gitSyncStatus string
}

// KeyMap defines all key bindings
type KeyMap struct {
	Left         key.Binding
	Enter        key.Binding
	Back         key.Binding
	Quit         key.Binding
	Help         key.Binding
	ExpandHelp   key.Binding
	Copy         key.Binding
	Export       key.Binding
	New          key.Binding
	Edit         key.Binding
	Delete       key.Binding
	Rebuild      key.Binding
	Validate     key.Binding
	TemplateSets key.Binding
	Assets       key.Binding
	NextAsset    key.Binding
	PrevAsset    key.Binding
}

var keys = KeyMap{
	Left: key.NewBinding(
		key.WithKeys("left"),
		key.WithHelp("←", "back"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "back"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	ExpandHelp: key.NewBinding(
		key.WithKeys("ctrl+g"),
		key.WithHelp("Ctrl+g", "expand help"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy asset"),
	),
	Export: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "export"),
	),
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new package"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete"),
	),
	Rebuild: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "rebuild"),
	),
	Validate: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "validate"),
	),
	TemplateSets: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "template sets"),
	),
	Assets: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "jump to asset"),
	),
	NextAsset: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "next asset"),
	),
	PrevAsset: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("Shift+Tab", "previous asset"),
	),
}

// NewModel creates a new TUI model
func NewModel(svc *service.Service) (*Model, error) {
	// Initialize adaptive colors based on terminal background
	initializeColors()

	// Start with an empty list for immediate UI responsiveness; packages
	// are loaded asynchronously
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 80, 20)
	l.Title = "" // We'll handle the title in the view
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	keyMap := list.DefaultKeyMap()
	keyMap.Filter = key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	)
	l.KeyMap = keyMap

	// Viewport for asset previews; default size until the first WindowSizeMsg
	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()

	helpVp := viewport.New(56, 23)
	helpVp.Style = lipgloss.NewStyle()

	renderer, err := createGlamourRenderer(60)
	if err != nil {
		return nil, fmt.Errorf("failed to create glamour renderer: %w", err)
	}

	return &Model{
		service:         svc,
		viewMode:        ViewLibrary,
		packageList:     l,
		viewport:        vp,
		helpViewport:    helpVp,
		keys:            keys,
		products:        []*models.Product{},
		loading:         true,
		glamourRenderer: renderer,
	}, nil
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(loadProductsCmd(m.service), gitStatusCmd(m.service))
}

// tickMsg is sent to clear the status message
type tickMsg time.Time

// clearStatusCmd returns a command that clears the status message after a delay
func clearStatusCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tickMsg:
		if m.statusTimeout > 0 {
			m.statusTimeout--
			if m.statusTimeout == 0 {
				m.statusMsg = ""
			} else {
				return m, clearStatusCmd()
			}
		}

	case loadCompleteMsg:
		m.loading = false
		m.products = msg.products

		items := make([]list.Item, len(m.products))
		for i, p := range m.products {
			items[i] = p
		}
		m.packageList.SetItems(items)

		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Warning: %v", msg.err)
			m.statusTimeout = 100 // Keep showing until the user acts
		}

	case gitStatusMsg:
		m.gitSyncStatus = msg.status

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Reserve space for: title (1) + spacing (1) + help (2) + status (1) +
		// git status (1) + margins (2)
		const minReservedHeight = 8
		availableHeight := msg.Height - minReservedHeight
		if availableHeight < 5 {
			availableHeight = 5
		}

		// Size every component here, not just the active view's: views can
		// switch without another resize arriving
		m.packageList.SetSize(msg.Width, availableHeight)

		viewportWidth := msg.Width - 20
		if viewportWidth < 40 {
			viewportWidth = 40
		}
		m.viewport.Width = viewportWidth
		m.viewport.Height = availableHeight + 1
		if renderer, err := createGlamourRenderer(viewportWidth); err == nil {
			m.glamourRenderer = renderer
		}

		helpWidth := min(60, msg.Width-4)
		helpHeight := min(25, msg.Height-4)
		m.helpViewport.Width = helpWidth - 4
		m.helpViewport.Height = helpHeight - 4

		if m.assetModal != nil {
			m.assetModal.SetSize(msg.Width, msg.Height)
		}

		// Re-render whatever the viewport currently shows at the new width
		switch m.viewMode {
		case ViewPackageDetail:
			if m.selectedProduct != nil {
				m.renderAsset()
			}
		case ViewTemplateSetDetail:
			if m.selectedSet != nil {
				m.renderTemplateSetPreview()
			}
		case ViewValidation:
			m.renderValidationContent()
		}

	case tea.KeyMsg:
		// Handle the asset selector modal first
		if m.assetModal != nil && m.assetModal.IsActive() {
			var cmd tea.Cmd
			m.assetModal, cmd = m.assetModal.Update(msg)
			if m.assetModal.ShouldApply() {
				m.assetKind = m.assetModal.Choice()
				m.assetModal.Hide()
				m.renderAsset()
			}
			return m, cmd
		}

		// Handle modal-specific keys for the help modal
		if m.showHelpModal {
			switch msg.String() {
			case "up", "k":
				m.helpViewport.LineUp(1)
				return m, nil
			case "down", "j":
				m.helpViewport.LineDown(1)
				return m, nil
			case "pgup":
				m.helpViewport.HalfViewUp()
				return m, nil
			case "pgdown":
				m.helpViewport.HalfViewDown()
				return m, nil
			case "home":
				m.helpViewport.GotoTop()
				return m, nil
			case "end":
				m.helpViewport.GotoBottom()
				return m, nil
			case "c":
				if m.modalContent != "" {
					if statusMsg, err := clipboard.CopyWithFallback(m.modalContent); err != nil {
						m.statusMsg = fmt.Sprintf("Copy failed: %v", err)
						m.statusTimeout = 3
					} else {
						m.statusMsg = statusMsg
						m.statusTimeout = 2
					}
					return m, clearStatusCmd()
				}
			case "?", "esc", "q":
				m.showHelpModal = false
				m.modalContent = ""
				return m, nil
			}
			// Don't process other keys while the modal is open
			return m, nil
		}

		// While the filter input is active the list owns every keystroke
		if m.viewMode == ViewLibrary && m.packageList.SettingFilter() {
			newListModel, cmd := m.packageList.Update(msg)
			m.packageList = newListModel
			return m, cmd
		}

		// Reset delete confirmation for any key except the delete key itself
		if msg.String() != "d" {
			m.deleteConfirm = false
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			// Plain q must still type into forms; Ctrl+c always quits
			if msg.String() == "ctrl+c" || !m.typingContext() {
				return m, tea.Quit
			}

		case key.Matches(msg, m.keys.Enter):
			if m.viewMode == ViewLibrary && !m.loading {
				if i, ok := m.packageList.SelectedItem().(*models.Product); ok {
					// Re-fetch the edition so the preview reflects disk
					product, err := m.service.GetProductByLanguage(i.ID, i.Language)
					if err != nil {
						m.err = err
						return m, nil
					}
					m.selectedProduct = product
					m.assetKind = models.AssetREADME
					m.viewMode = ViewPackageDetail
					m.renderAsset()
				}
			}

		case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Left):
			// Left arrow stays with the form for cursor movement
			if key.Matches(msg, m.keys.Left) && m.typingContext() {
				break
			}

			switch m.viewMode {
			case ViewCreatePackage, ViewEditPackage:
				m.viewMode = ViewLibrary
				m.packageForm = nil
				m.editMode = false
			case ViewTemplateSets:
				m.viewMode = ViewLibrary
				m.setForm = nil
			case ViewTemplateSetDetail:
				m.viewMode = ViewTemplateSets
				m.selectedSet = nil
				if m.setForm != nil {
					m.setForm.Reset()
				}
			case ViewValidation:
				m.viewMode = m.validationReturn
				m.reports = nil
				if m.viewMode == ViewPackageDetail && m.selectedProduct != nil {
					m.renderAsset()
				}
			}

		case key.Matches(msg, m.keys.New):
			if m.viewMode == ViewLibrary && !m.loading {
				m.packageForm = m.newPackageForm()
				m.editMode = false
				m.viewMode = ViewCreatePackage
				return m, nil
			}

		case key.Matches(msg, m.keys.Edit):
			var product *models.Product
			switch m.viewMode {
			case ViewLibrary:
				if !m.loading {
					if i, ok := m.packageList.SelectedItem().(*models.Product); ok {
						fresh, err := m.service.GetProductByLanguage(i.ID, i.Language)
						if err != nil {
							m.err = err
							return m, nil
						}
						product = fresh
					}
				}
			case ViewPackageDetail:
				product = m.selectedProduct
			}
			if product != nil {
				m.selectedProduct = product
				m.packageForm = m.newPackageForm()
				m.packageForm.LoadProduct(product)
				m.editMode = true
				m.viewMode = ViewEditPackage
				return m, nil
			}

		case key.Matches(msg, m.keys.Delete):
			if m.viewMode == ViewLibrary && !m.loading {
				if i, ok := m.packageList.SelectedItem().(*models.Product); ok {
					if !m.deleteConfirm {
						// First press: show confirmation
						m.deleteConfirm = true
						m.statusMsg = fmt.Sprintf("Press d again to delete '%s' (all languages)", i.ID)
						m.statusTimeout = 100 // Keep showing until next action
						return m, nil
					}
					// Second press: actually delete
					m.deleteConfirm = false
					if err := m.service.DeleteProduct(i.ID); err != nil {
						m.statusMsg = fmt.Sprintf("Delete failed: %v", err)
						m.statusTimeout = 3
					} else {
						m.statusMsg = fmt.Sprintf("Deleted package: %s", i.ID)
						m.statusTimeout = 2
						if err := m.refreshPackageList(); err != nil {
							m.statusMsg = fmt.Sprintf("Failed to refresh list: %v", err)
							m.statusTimeout = 3
						}
					}
					return m, clearStatusCmd()
				}
			}

		case key.Matches(msg, m.keys.Rebuild):
			var id string
			switch m.viewMode {
			case ViewLibrary:
				if !m.loading {
					if i, ok := m.packageList.SelectedItem().(*models.Product); ok {
						id = i.ID
					}
				}
			case ViewPackageDetail:
				if m.selectedProduct != nil {
					id = m.selectedProduct.ID
				}
			}
			if id != "" {
				result, err := m.service.RebuildProduct(id)
				if err != nil {
					m.statusMsg = fmt.Sprintf("Rebuild failed: %v", err)
					m.statusTimeout = 3
				} else {
					m.statusMsg = fmt.Sprintf("Rebuilt %s (%d assets)", result.Product.ID, len(result.Written))
					m.statusTimeout = 2
					if m.viewMode == ViewPackageDetail {
						m.renderAsset()
					}
				}
				return m, clearStatusCmd()
			}

		case key.Matches(msg, m.keys.Validate):
			switch m.viewMode {
			case ViewLibrary:
				if !m.loading {
					reports, err := m.service.ValidateLibrary()
					if err != nil {
						m.statusMsg = fmt.Sprintf("Validation failed: %v", err)
						m.statusTimeout = 3
						return m, clearStatusCmd()
					}
					m.reports = reports
					m.validationReturn = ViewLibrary
					m.viewMode = ViewValidation
					m.renderValidationContent()
					return m, nil
				}
			case ViewPackageDetail:
				if m.selectedProduct != nil {
					report := m.service.ValidateDir(m.selectedProduct.Dir)
					m.reports = []*validation.Report{report}
					m.validationReturn = ViewPackageDetail
					m.viewMode = ViewValidation
					m.renderValidationContent()
					return m, nil
				}
			}

		case key.Matches(msg, m.keys.TemplateSets):
			if m.viewMode == ViewLibrary && !m.loading {
				sets, err := m.service.ListTemplateSets()
				if err != nil {
					m.statusMsg = fmt.Sprintf("Failed to list template sets: %v", err)
					m.statusTimeout = 3
					return m, clearStatusCmd()
				}
				m.templateSets = sets

				options := []SelectOption{}
				for _, set := range sets {
					description := set.Description
					if description == "" {
						description = fmt.Sprintf("%d template files", len(set.Slots))
					}
					if set.Builtin {
						description += " (built-in)"
					}
					options = append(options, SelectOption{
						Label:       set.Name,
						Description: description,
						Value:       set,
					})
				}
				m.setForm = NewSelectForm(options)
				m.viewMode = ViewTemplateSets
				return m, nil
			}

		case key.Matches(msg, m.keys.Assets):
			if m.viewMode == ViewPackageDetail && m.selectedProduct != nil {
				if m.assetModal == nil {
					m.assetModal = NewAssetSelectorModal()
				}
				m.assetModal.SetSize(m.width, m.height)
				m.assetModal.SetAssets(m.assetPresence(), m.assetKind)
				m.assetModal.Show()
				return m, nil
			}

		case key.Matches(msg, m.keys.NextAsset):
			if m.viewMode == ViewPackageDetail && m.selectedProduct != nil {
				m.assetKind = nextAsset(m.assetKind, 1)
				m.renderAsset()
				return m, nil
			}

		case key.Matches(msg, m.keys.PrevAsset):
			if m.viewMode == ViewPackageDetail && m.selectedProduct != nil {
				m.assetKind = nextAsset(m.assetKind, -1)
				m.renderAsset()
				return m, nil
			}

		case key.Matches(msg, m.keys.Copy):
			if m.viewMode == ViewPackageDetail && m.assetContent != "" {
				if statusMsg, err := clipboard.CopyWithFallback(m.assetContent); err != nil {
					m.statusMsg = fmt.Sprintf("Copy failed: %v", err)
					m.statusTimeout = 3
				} else {
					m.statusMsg = statusMsg
					m.statusTimeout = 2
				}
				return m, clearStatusCmd()
			}

		case key.Matches(msg, m.keys.Export):
			if m.viewMode == ViewPackageDetail && m.selectedProduct != nil {
				result, err := m.service.ExportProduct(m.selectedProduct.ID, "")
				if err != nil {
					m.statusMsg = fmt.Sprintf("Export failed: %v", err)
					m.statusTimeout = 3
				} else {
					m.statusMsg = fmt.Sprintf("Exported to %s (%d files)", result.ArchivePath, result.FileCount)
					m.statusTimeout = 3
				}
				return m, clearStatusCmd()
			}

		case key.Matches(msg, m.keys.Help):
			m.showHelpModal = !m.showHelpModal
			if m.showHelpModal {
				styled, plain := m.buildHelpContent()
				m.helpViewport.SetContent(styled)
				m.helpViewport.GotoTop()
				m.modalContent = plain
			} else {
				m.modalContent = ""
			}
			return m, nil

		case key.Matches(msg, m.keys.ExpandHelp):
			m.showExpandedHelp = !m.showExpandedHelp
			return m, nil
		}
	}

	// Update the appropriate component based on view mode
	switch m.viewMode {
	case ViewLibrary:
		// Wraparound navigation when not typing in the filter
		if keyMsg, ok := msg.(tea.KeyMsg); ok && !m.packageList.SettingFilter() {
			visibleCount := len(m.packageList.VisibleItems())
			if visibleCount > 0 {
				switch keyMsg.String() {
				case "up", "k":
					if m.packageList.Index() == 0 {
						m.packageList.Select(visibleCount - 1)
						return m, nil
					}
				case "down", "j":
					if m.packageList.Index() == visibleCount-1 {
						m.packageList.Select(0)
						return m, nil
					}
				}
			}
		}

		newListModel, cmd := m.packageList.Update(msg)
		m.packageList = newListModel
		cmds = append(cmds, cmd)

	case ViewPackageDetail:
		// Handle back navigation keys before passing to the viewport
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			if key.Matches(keyMsg, m.keys.Back) || key.Matches(keyMsg, m.keys.Left) {
				m.viewMode = ViewLibrary
				m.selectedProduct = nil
				m.assetContent = ""
			} else {
				newViewport, cmd := m.viewport.Update(msg)
				m.viewport = newViewport
				cmds = append(cmds, cmd)
			}
		} else {
			newViewport, cmd := m.viewport.Update(msg)
			m.viewport = newViewport
			cmds = append(cmds, cmd)
		}

	case ViewCreatePackage, ViewEditPackage:
		if m.packageForm != nil {
			cmd := m.packageForm.Update(msg)
			cmds = append(cmds, cmd)

			if m.packageForm.IsSubmitted() {
				if m.editMode {
					updated := m.packageForm.ToProduct()
					if err := m.service.UpdateProduct(updated); err != nil {
						m.statusMsg = fmt.Sprintf("Update failed: %v", err)
						m.statusTimeout = 3
						m.packageForm.submitted = false
					} else {
						m.statusMsg = fmt.Sprintf("Package updated: %s", updated.ID)
						m.statusTimeout = 2
						if err := m.refreshPackageList(); err != nil {
							m.statusMsg = fmt.Sprintf("Failed to refresh list: %v", err)
							m.statusTimeout = 3
						}
						m.viewMode = ViewLibrary
						m.packageForm = nil
						m.editMode = false
						m.selectedProduct = nil
					}
				} else {
					req := m.packageForm.ToScaffoldRequest()
					if req.Topic == "" {
						m.statusMsg = "Topic is required"
						m.statusTimeout = 3
						m.packageForm.submitted = false
					} else if result, err := m.service.CreateProduct(req); err != nil {
						m.statusMsg = fmt.Sprintf("Create failed: %v", err)
						m.statusTimeout = 3
						m.packageForm.submitted = false
					} else {
						m.statusMsg = fmt.Sprintf("Created package: %s", result.Product.ID)
						m.statusTimeout = 2
						if err := m.refreshPackageList(); err != nil {
							m.statusMsg = fmt.Sprintf("Failed to refresh list: %v", err)
							m.statusTimeout = 3
						}
						m.viewMode = ViewLibrary
						m.packageForm = nil
					}
				}
				return m, clearStatusCmd()
			}
		}

	case ViewTemplateSets:
		if m.setForm != nil {
			cmd := m.setForm.Update(msg)
			cmds = append(cmds, cmd)

			if m.setForm.IsSubmitted() {
				if selected := m.setForm.GetSelected(); selected != nil {
					if set, ok := selected.Value.(*models.TemplateSet); ok {
						m.selectedSet = set
						m.viewMode = ViewTemplateSetDetail
						m.renderTemplateSetPreview()
					}
				}
				m.setForm.Reset()
			}
		}

	case ViewTemplateSetDetail, ViewValidation:
		newViewport, cmd := m.viewport.Update(msg)
		m.viewport = newViewport
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// typingContext reports whether keystrokes currently belong to a text field
func (m Model) typingContext() bool {
	switch m.viewMode {
	case ViewCreatePackage, ViewEditPackage:
		return m.packageForm != nil && m.packageForm.IsInTextInputField()
	}
	return false
}

// newPackageForm builds a form wired with tag and set suggestions
func (m *Model) newPackageForm() *PackageForm {
	form := NewPackageForm()
	if tags, err := m.service.GetAllTags(); err == nil {
		form.SetAvailableTags(tags)
	}
	if sets, err := m.service.ListTemplateSets(); err == nil {
		names := make([]string, 0, len(sets))
		for _, set := range sets {
			names = append(names, set.Name)
		}
		form.SetAvailableTemplateSets(names)
	}
	return form
}

// assetPresence checks which canonical assets of the open package exist
func (m *Model) assetPresence() map[models.AssetKind]bool {
	present := make(map[models.AssetKind]bool)
	if m.selectedProduct == nil {
		return present
	}
	for _, kind := range models.AllAssets() {
		_, err := m.service.ReadAsset(m.selectedProduct, kind.RelPath())
		present[kind] = err == nil
	}
	return present
}

// nextAsset cycles through the canonical assets in package order
func nextAsset(current models.AssetKind, step int) models.AssetKind {
	kinds := models.AllAssets()
	for i, kind := range kinds {
		if kind == current {
			next := (i + step + len(kinds)) % len(kinds)
			return kinds[next]
		}
	}
	return kinds[0]
}

// refreshPackageList reloads the package list from the service
func (m *Model) refreshPackageList() error {
	products, err := m.service.ListProducts()
	if err != nil {
		return fmt.Errorf("failed to list packages: %w", err)
	}

	m.products = products

	items := make([]list.Item, len(products))
	for i, p := range products {
		items[i] = p
	}
	m.packageList.SetItems(items)

	return nil
}

// renderAsset loads the current asset of the open package into the viewport
func (m *Model) renderAsset() {
	if m.selectedProduct == nil {
		return
	}

	content, err := m.service.ReadAsset(m.selectedProduct, m.assetKind.RelPath())
	if err != nil {
		m.assetContent = ""
		m.viewport.SetContent(StyleWarning.Render(fmt.Sprintf("Asset not found: %s", m.assetKind.RelPath())) +
			"\n\n" + StyleTextDim.Render("Press r to rebuild the package from its template set."))
		m.viewport.GotoTop()
		return
	}

	raw := string(content)
	m.assetContent = raw

	// Markdown assets go through glamour; the CSV worksheet is shown as a
	// fenced code block so the columns stay aligned
	markdown := raw
	if !m.assetKind.Markdown() {
		markdown = "```\n" + raw + "\n```"
	}

	formatted, err := m.glamourRenderer.Render(markdown)
	if err != nil {
		formatted = raw
	}

	m.viewport.SetContent(formatted)
	m.viewport.GotoTop()
}

// renderTemplateSetPreview renders the selected template set into the viewport
func (m *Model) renderTemplateSetPreview() {
	if m.selectedSet == nil {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", m.selectedSet.Name)
	if m.selectedSet.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", m.selectedSet.Description)
	}
	if m.selectedSet.Version != "" {
		fmt.Fprintf(&b, "- Version: %s\n", m.selectedSet.Version)
	}
	if m.selectedSet.Language != "" {
		fmt.Fprintf(&b, "- Language: %s\n", m.selectedSet.Language)
	}
	if m.selectedSet.Author != "" {
		fmt.Fprintf(&b, "- Author: %s\n", m.selectedSet.Author)
	}
	fmt.Fprintf(&b, "\n## Template files\n\n")
	for _, slot := range m.selectedSet.Slots {
		fmt.Fprintf(&b, "- `%s`\n", slot.RelPath)
	}

	formatted, err := m.glamourRenderer.Render(b.String())
	if err != nil {
		formatted = b.String()
	}

	m.viewport.SetContent(formatted)
	m.viewport.GotoTop()
}

// renderValidationContent renders the current reports into the viewport
func (m *Model) renderValidationContent() {
	if len(m.reports) == 0 {
		m.viewport.SetContent(StyleTextDim.Render("No packages to validate."))
		return
	}

	var lines []string
	for _, report := range m.reports {
		name := report.ProductID
		if name == "" {
			name = report.Dir
		}
		if report.Valid {
			lines = append(lines, StyleSuccess.Render("✅ "+name))
		} else {
			lines = append(lines, StyleError.Render("❌ "+name))
		}
		for _, issue := range report.Errors {
			lines = append(lines, StyleError.Render("   error ")+fmt.Sprintf("%s: %s", issue.Check, issue.Message))
		}
		for _, issue := range report.Warnings {
			lines = append(lines, StyleWarning.Render("   warning ")+fmt.Sprintf("%s: %s", issue.Check, issue.Message))
		}
		lines = append(lines, "")
	}

	summary := validation.Summarize(m.reports)
	lines = append(lines, StyleTextMuted.Render(fmt.Sprintf(
		"%d packages checked: %d valid, %d invalid, %d warnings",
		summary.Packages, summary.Valid, summary.Invalid, summary.Warnings)))

	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoTop()
}

// View renders the current view
func (m Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("\n  Error: %v\n\n  Press 'q' to quit.\n", m.err)
	}

	// Modals render on top of everything
	if m.showHelpModal {
		return m.renderHelpModal()
	}
	if m.assetModal != nil && m.assetModal.IsActive() {
		return m.assetModal.View()
	}

	var mainView string
	switch m.viewMode {
	case ViewLibrary:
		mainView = m.renderLibraryView()
	case ViewPackageDetail:
		mainView = m.renderPackageDetailView()
	case ViewCreatePackage:
		mainView = m.renderPackageFormView("New Package")
	case ViewEditPackage:
		mainView = m.renderPackageFormView("Edit Package")
	case ViewTemplateSets:
		mainView = m.renderTemplateSetsView()
	case ViewTemplateSetDetail:
		mainView = m.renderTemplateSetDetailView()
	case ViewValidation:
		mainView = m.renderValidationView()
	default:
		mainView = "Unknown view mode"
	}

	// Add status message at the bottom if present
	if m.statusMsg != "" {
		statusBar := CreateStatus(m.statusMsg, "success")
		return AddMainPadding(lipgloss.JoinVertical(lipgloss.Left, mainView, statusBar))
	}

	return AddMainPadding(mainView)
}

// renderLibraryView renders the package library list
func (m Model) renderLibraryView() string {
	title := CreateMainHeader("Template Factory")

	var help string
	if m.loading {
		help = CreateGuaranteedHelp("Loading packages... • q quit", m.width)
	} else {
		essential := []string{"enter view • n new • e edit"}
		additional := []string{
			"/ filter • v validate • t template sets",
			"r rebuild • d delete • ? help • q quit",
		}
		help = CreateContextualHelp(essential, additional, m.showExpandedHelp, m.width)
	}

	var gitStatus string
	if m.gitSyncStatus != "" {
		gitStatus = CreateGitStatus(m.gitSyncStatus)
	}

	elements := []string{title}
	if gitStatus != "" {
		elements = append(elements, gitStatus)
	}

	if m.loading {
		elements = append(elements, StyleLoading.Render("⏳ Loading packages..."))
	} else {
		elements = append(elements, m.packageList.View())
	}

	elements = append(elements, help)

	return lipgloss.JoinVertical(lipgloss.Left, elements...)
}

// renderPackageDetailView renders the open package with its asset tab bar
func (m Model) renderPackageDetailView() string {
	if m.selectedProduct == nil {
		return "No package selected"
	}

	headerLine := CreateSubPageHeader(m.selectedProduct.Topic)

	metadata := fmt.Sprintf("ID: %s • v%s • %s", m.selectedProduct.ID,
		m.selectedProduct.Version, m.selectedProduct.Language)
	if !m.selectedProduct.UpdatedAt.IsZero() {
		metadata += fmt.Sprintf(" • Updated: %s", m.selectedProduct.UpdatedAt.Format("2006-01-02 15:04"))
	}
	if len(m.selectedProduct.Tags) > 0 {
		metadata += fmt.Sprintf(" • Tags: %s", strings.Join(m.selectedProduct.Tags, ", "))
	}
	metadataLine := CreateMetadata(metadata)

	// Asset tab bar
	var tabs []string
	for _, kind := range models.AllAssets() {
		if kind == m.assetKind {
			tabs = append(tabs, StyleSelected.Render(kind.Name()))
		} else {
			tabs = append(tabs, StyleUnselected.Render(kind.Name()))
		}
	}
	tabBar := lipgloss.JoinHorizontal(lipgloss.Left, tabs...)

	essential := []string{"Tab next asset • c copy • e edit"}
	additional := []string{"a jump to asset • r rebuild • v validate", "x export • Esc back"}
	help := CreateContextualHelp(essential, additional, m.showExpandedHelp, m.width)

	canScrollUp := !m.viewport.AtTop()
	canScrollDown := !m.viewport.AtBottom()
	topIndicator, bottomIndicator := CreateScrollIndicators(canScrollUp, canScrollDown, m.width-4)

	content := StyleContentContainer.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		topIndicator,
		m.viewport.View(),
		bottomIndicator,
	))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		headerLine,
		metadataLine,
		tabBar,
		content,
		help,
	)
}

// renderPackageFormView renders the create and edit forms
func (m Model) renderPackageFormView(title string) string {
	headerLine := CreateSubPageHeader(title)

	if m.packageForm == nil {
		return lipgloss.JoinVertical(lipgloss.Left, headerLine, "", "No form available")
	}

	var formFields []string

	topicLabel := StyleFormLabel.Render("Topic:")
	formFields = append(formFields, topicLabel, m.packageForm.inputs[topicField].View(), "")

	if m.editMode {
		// Identity is pinned while editing
		pinned := CreateMetadata(fmt.Sprintf("ID: %s • Language: %s",
			m.packageForm.base.ID, m.packageForm.base.Language))
		formFields = append(formFields, pinned, "")
	} else {
		idLabel := StyleFormLabel.Render("ID:")
		idHelp := StyleFormHelp.Render("Leave empty to derive from the topic and today's date")
		formFields = append(formFields, idLabel, m.packageForm.inputs[idField].View(), idHelp, "")

		langLabel := StyleFormLabel.Render("Language:")
		formFields = append(formFields, langLabel, m.packageForm.inputs[languageField].View(), "")
	}

	setLabel := StyleFormLabel.Render("Template set:")
	formFields = append(formFields, setLabel, m.packageForm.inputs[templateSetField].View(), "")

	tagsLabel := StyleFormLabel.Render("Tags:")
	tagsHelp := StyleFormHelp.Render("Use comma-separated values for organization and discovery")
	formFields = append(formFields, tagsLabel, m.packageForm.inputs[tagsField].View(), tagsHelp, "")

	authorLabel := StyleFormLabel.Render("Author:")
	formFields = append(formFields, authorLabel, m.packageForm.inputs[authorField].View(), "")

	help := CreateGuaranteedHelp("Tab next field • Ctrl+s save • Esc cancel", m.width)

	allElements := []string{headerLine, ""}
	allElements = append(allElements, formFields...)
	allElements = append(allElements, help)

	return AddFormPadding(lipgloss.JoinVertical(lipgloss.Left, allElements...))
}

// renderTemplateSetsView renders the template set chooser
func (m Model) renderTemplateSetsView() string {
	headerLine := CreateSubPageHeader("Template Sets")

	if m.setForm == nil || len(m.setForm.options) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, headerLine, "", "No template sets available")
	}

	var optionLines []string
	for i, option := range m.setForm.options {
		isSelected := i == m.setForm.selected
		lines := CreateOption(option.Label, option.Description, isSelected)
		optionLines = append(optionLines, lines...)
	}

	essential := []string{"↑/↓ navigate • enter view"}
	additional := []string{"Esc back"}
	help := CreateContextualHelp(essential, additional, m.showExpandedHelp, m.width)

	allElements := []string{headerLine, ""}
	allElements = append(allElements, optionLines...)
	allElements = append(allElements, help)

	return lipgloss.JoinVertical(lipgloss.Left, allElements...)
}

// renderTemplateSetDetailView renders one template set
func (m Model) renderTemplateSetDetailView() string {
	if m.selectedSet == nil {
		return "No template set selected"
	}

	headerLine := CreateSubPageHeader("Template Set: " + m.selectedSet.Name)

	canScrollUp := !m.viewport.AtTop()
	canScrollDown := !m.viewport.AtBottom()
	topIndicator, bottomIndicator := CreateScrollIndicators(canScrollUp, canScrollDown, m.width-4)

	content := StyleContentContainer.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		topIndicator,
		m.viewport.View(),
		bottomIndicator,
	))

	help := CreateGuaranteedHelp("↑/↓ scroll • Esc back", m.width)

	return lipgloss.JoinVertical(lipgloss.Left, headerLine, content, help)
}

// renderValidationView renders validation reports
func (m Model) renderValidationView() string {
	headerLine := CreateSubPageHeader("Validation Results")

	canScrollUp := !m.viewport.AtTop()
	canScrollDown := !m.viewport.AtBottom()
	topIndicator, bottomIndicator := CreateScrollIndicators(canScrollUp, canScrollDown, m.width-4)

	content := StyleContentContainer.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		topIndicator,
		m.viewport.View(),
		bottomIndicator,
	))

	help := CreateGuaranteedHelp("↑/↓ scroll • Esc back", m.width)

	return lipgloss.JoinVertical(lipgloss.Left, headerLine, content, help)
}

// buildHelpContent builds the styled help text and its plain twin for copying
func (m Model) buildHelpContent() (string, string) {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Underline(true).
		MarginTop(1)

	contentStyle := lipgloss.NewStyle().
		MarginLeft(2)

	keyStyle := lipgloss.NewStyle().
		Reverse(true).
		Bold(true).
		Padding(0, 1)

	var content []string
	var plainText []string

	section := func(title string, pairs [][]string) {
		content = append(content, headerStyle.Render(title))
		plainText = append(plainText, title)
		for _, kv := range pairs {
			content = append(content, contentStyle.Render(keyStyle.Render(kv[0])+" "+kv[1]))
			plainText = append(plainText, kv[0]+" "+kv[1])
		}
		content = append(content, "")
		plainText = append(plainText, "")
	}

	content = append(content, contentStyle.Render("Manage static bonus packages: scaffold, validate, rebuild and export."))
	plainText = append(plainText, "Manage static bonus packages: scaffold, validate, rebuild and export.")
	content = append(content, "")
	plainText = append(plainText, "")

	section("Navigation", [][]string{
		{"↑/↓", "Navigate lists"},
		{"Enter", "Open selected package"},
		{"/", "Filter the package list"},
		{"Esc", "Go back / close modals"},
		{"q", "Quit"},
	})

	section("Packages", [][]string{
		{"n", "Create a new package"},
		{"e", "Edit package metadata"},
		{"r", "Rebuild assets from the template set"},
		{"d", "Delete package (press twice to confirm)"},
		{"v", "Validate against the canonical layout"},
		{"Ctrl+s", "Save when editing"},
	})

	section("Package Detail", [][]string{
		{"Tab", "Cycle through assets"},
		{"a", "Jump to a specific asset"},
		{"c", "Copy the visible asset"},
		{"x", "Export the package as a zip archive"},
	})

	section("Template Sets", [][]string{
		{"t", "Browse installed template sets"},
	})

	return strings.Join(content, "\n"), strings.Join(plainText, "\n")
}

// renderHelpModal renders the scrollable help modal
func (m Model) renderHelpModal() string {
	maxWidth := min(60, m.width-4)
	maxHeight := min(25, m.height-4)

	modalStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(1, 2).
		Width(maxWidth).
		Height(maxHeight)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		MarginBottom(1)

	footer := StyleTextDim.Render("↑/↓ scroll • c copy • ? close")

	modal := modalStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("Template Factory - Help"),
		m.helpViewport.View(),
		footer,
	))

	return CenterModal(modal, m.width, m.height)
}
