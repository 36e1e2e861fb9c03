package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hm-damul/template-factory-sub001/internal/factory"
	"github.com/hm-damul/template-factory-sub001/internal/models"
)

// PackageForm handles package creation and metadata editing. Creation only
// collects metadata: the asset bodies come from the template set, so there
// is no content field.
type PackageForm struct {
	inputs        []textinput.Model
	focused       int
	submitted     bool
	base          *models.Product // set when editing an existing package
	availableTags []string
}

// Form field indices
const (
	topicField = iota
	idField
	languageField
	templateSetField
	tagsField
	authorField
)

// NewPackageForm creates a new package form with helpful placeholders
func NewPackageForm() *PackageForm {
	inputs := make([]textinput.Model, 6)

	// Topic field - the only required input
	inputs[topicField] = textinput.New()
	inputs[topicField].Placeholder = "Sleep Revolution"
	inputs[topicField].Focus()
	inputs[topicField].CharLimit = 100
	inputs[topicField].Width = 40

	// ID field - generated from the topic when left empty
	inputs[idField] = textinput.New()
	inputs[idField].Placeholder = "auto-generated from topic"
	inputs[idField].CharLimit = 60
	inputs[idField].Width = 40

	// Language field
	inputs[languageField] = textinput.New()
	inputs[languageField].Placeholder = models.DefaultLanguage
	inputs[languageField].CharLimit = 10
	inputs[languageField].Width = 20

	// Template set field
	inputs[templateSetField] = textinput.New()
	inputs[templateSetField].Placeholder = "default"
	inputs[templateSetField].CharLimit = 60
	inputs[templateSetField].Width = 40

	// Tags field
	inputs[tagsField] = textinput.New()
	inputs[tagsField].Placeholder = "health, sleep, productivity (comma-separated)"
	inputs[tagsField].CharLimit = 300
	inputs[tagsField].Width = 60

	// Author field
	inputs[authorField] = textinput.New()
	inputs[authorField].Placeholder = "Author name (optional)"
	inputs[authorField].CharLimit = 100
	inputs[authorField].Width = 40

	return &PackageForm{
		inputs:  inputs,
		focused: topicField,
	}
}

// Update handles form updates
func (f *PackageForm) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Handle form-level navigation keys
		switch msg.String() {
		case "tab", "enter", "down":
			f.nextField()
			return nil
		case "shift+tab", "up":
			f.prevField()
			return nil
		case "ctrl+s":
			f.submitted = true
			return nil
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)

	// Update tag autocomplete if we're in the tags field
	if f.focused == tagsField {
		f.updateTagAutocomplete()
	}

	return cmd
}

// nextField moves to the next form field
func (f *PackageForm) nextField() {
	f.inputs[f.focused].Blur()
	for {
		f.focused++
		if f.focused >= len(f.inputs) {
			f.focused = 0
		}
		if !f.fieldSkipped(f.focused) {
			break
		}
	}
	f.inputs[f.focused].Focus()
}

// prevField moves to the previous form field
func (f *PackageForm) prevField() {
	f.inputs[f.focused].Blur()
	for {
		f.focused--
		if f.focused < 0 {
			f.focused = len(f.inputs) - 1
		}
		if !f.fieldSkipped(f.focused) {
			break
		}
	}
	f.inputs[f.focused].Focus()
}

// fieldSkipped reports fields that navigation should pass over. When editing
// an existing package the ID and language are pinned.
func (f *PackageForm) fieldSkipped(field int) bool {
	if f.base == nil {
		return false
	}
	return field == idField || field == languageField
}

// IsInTextInputField returns true when keystrokes belong to a text input.
// Every field on this form is a text input, so arrow keys stay with it.
func (f *PackageForm) IsInTextInputField() bool {
	return true
}

// SetAvailableTags sets the available tags for autocomplete
func (f *PackageForm) SetAvailableTags(tags []string) {
	f.availableTags = tags
	if len(tags) > 0 {
		f.inputs[tagsField].SetSuggestions(tags)
		f.inputs[tagsField].ShowSuggestions = true

		// Customize keybindings to avoid Tab conflict with field navigation
		customKeyMap := textinput.DefaultKeyMap
		customKeyMap.AcceptSuggestion = key.NewBinding(key.WithKeys("ctrl+space", "right"))
		f.inputs[tagsField].KeyMap = customKeyMap
	}
}

// SetAvailableTemplateSets sets the installed set names for autocomplete
func (f *PackageForm) SetAvailableTemplateSets(names []string) {
	if len(names) > 0 {
		f.inputs[templateSetField].SetSuggestions(names)
		f.inputs[templateSetField].ShowSuggestions = true

		customKeyMap := textinput.DefaultKeyMap
		customKeyMap.AcceptSuggestion = key.NewBinding(key.WithKeys("ctrl+space", "right"))
		f.inputs[templateSetField].KeyMap = customKeyMap
	}
}

// updateTagAutocomplete updates tag suggestions based on current input
func (f *PackageForm) updateTagAutocomplete() {
	if len(f.availableTags) == 0 {
		return
	}

	value := f.inputs[tagsField].Value()
	cursorPos := f.inputs[tagsField].Position()

	// Find the current tag being typed (comma-separated)
	currentTag := f.getCurrentTagForCompletion(value, cursorPos)

	if currentTag == "" {
		f.inputs[tagsField].SetSuggestions(f.availableTags)
	} else {
		// Filter tags that start with the current tag (case insensitive)
		var filteredTags []string
		currentTagLower := strings.ToLower(currentTag)
		for _, tag := range f.availableTags {
			if strings.HasPrefix(strings.ToLower(tag), currentTagLower) {
				filteredTags = append(filteredTags, tag)
			}
		}
		f.inputs[tagsField].SetSuggestions(filteredTags)
	}
}

// getCurrentTagForCompletion extracts the tag at the cursor position in
// comma-separated input
func (f *PackageForm) getCurrentTagForCompletion(text string, cursorPos int) string {
	if cursorPos < 0 || cursorPos > len(text) {
		return ""
	}

	tagStart := 0
	for i := cursorPos - 1; i >= 0; i-- {
		if text[i] == ',' {
			tagStart = i + 1
			break
		}
	}

	tagEnd := len(text)
	for i := cursorPos; i < len(text); i++ {
		if text[i] == ',' {
			tagEnd = i
			break
		}
	}

	return strings.TrimSpace(text[tagStart:tagEnd])
}

// LoadProduct loads an existing package into the form for editing. The ID
// and language stay pinned to the loaded edition when the form is saved.
func (f *PackageForm) LoadProduct(product *models.Product) {
	f.base = product

	f.inputs[topicField].SetValue(product.Topic)
	f.inputs[idField].SetValue(product.ID)
	f.inputs[languageField].SetValue(product.Language)
	f.inputs[templateSetField].SetValue(product.TemplateSet)
	f.inputs[tagsField].SetValue(strings.Join(product.Tags, ", "))
	f.inputs[authorField].SetValue(product.Author)
}

// IsEditing returns true when the form was loaded from an existing package
func (f *PackageForm) IsEditing() bool {
	return f.base != nil
}

// ToScaffoldRequest converts form data to a scaffold request for creation
func (f *PackageForm) ToScaffoldRequest() factory.ScaffoldRequest {
	return factory.ScaffoldRequest{
		Topic:       f.inputs[topicField].Value(),
		ID:          f.inputs[idField].Value(),
		Language:    f.inputs[languageField].Value(),
		TemplateSet: f.inputs[templateSetField].Value(),
		Tags:        parseTags(f.inputs[tagsField].Value()),
		Author:      f.inputs[authorField].Value(),
	}
}

// ToProduct converts form data to an updated package. Only valid in edit
// mode: the identity fields come from the loaded edition so the update
// targets the same directory.
func (f *PackageForm) ToProduct() *models.Product {
	updated := *f.base
	updated.Topic = f.inputs[topicField].Value()
	updated.TemplateSet = f.inputs[templateSetField].Value()
	updated.Tags = parseTags(f.inputs[tagsField].Value())
	updated.Author = f.inputs[authorField].Value()
	return &updated
}

// parseTags splits a comma-separated tag string
func parseTags(value string) []string {
	if value == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

// IsSubmitted returns whether the form has been submitted
func (f *PackageForm) IsSubmitted() bool {
	return f.submitted
}

// Reset resets the form
func (f *PackageForm) Reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	f.base = nil
	f.focused = topicField
	f.submitted = false
	f.inputs[topicField].Focus()
}

// SelectForm handles selection from a list of options
type SelectForm struct {
	options   []SelectOption
	selected  int
	submitted bool
}

// SelectOption represents an option in the select form
type SelectOption struct {
	Label       string
	Description string
	Value       interface{}
}

// NewSelectForm creates a new select form
func NewSelectForm(options []SelectOption) *SelectForm {
	return &SelectForm{
		options:  options,
		selected: 0,
	}
}

// Update handles select form updates
func (f *SelectForm) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if f.selected > 0 {
				f.selected--
			} else {
				// Wrap to bottom
				f.selected = len(f.options) - 1
			}
		case "down", "j":
			if f.selected < len(f.options)-1 {
				f.selected++
			} else {
				// Wrap to top
				f.selected = 0
			}
		case "enter":
			f.submitted = true
			return nil
		}
	}
	return nil
}

// GetSelected returns the selected option
func (f *SelectForm) GetSelected() *SelectOption {
	if f.selected >= 0 && f.selected < len(f.options) {
		return &f.options[f.selected]
	}
	return nil
}

// IsSubmitted returns whether an option has been selected
func (f *SelectForm) IsSubmitted() bool {
	return f.submitted
}

// Reset resets the select form
func (f *SelectForm) Reset() {
	f.selected = 0
	f.submitted = false
}
