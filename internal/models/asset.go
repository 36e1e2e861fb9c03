package models

import "fmt"

// AssetKind identifies one of the canonical files inside a bonus package.
type AssetKind int

const (
	AssetREADME AssetKind = iota
	AssetChecklist
	AssetPromptPack
	AssetEmailScript
	AssetSocialScript
	AssetFunnelCSV
)

// RelPath returns the asset's path relative to the package directory.
func (k AssetKind) RelPath() string {
	switch k {
	case AssetREADME:
		return "README.md"
	case AssetChecklist:
		return "execution_checklist.md"
	case AssetPromptPack:
		return "prompt_pack.md"
	case AssetEmailScript:
		return "scripts/email_nurture_sequence.md"
	case AssetSocialScript:
		return "scripts/social_promo_posts.md"
	case AssetFunnelCSV:
		return "worksheets/funnel_metrics_template.csv"
	}
	return ""
}

// Name returns the short name used on the command line.
func (k AssetKind) Name() string {
	switch k {
	case AssetREADME:
		return "readme"
	case AssetChecklist:
		return "checklist"
	case AssetPromptPack:
		return "prompts"
	case AssetEmailScript:
		return "emails"
	case AssetSocialScript:
		return "social"
	case AssetFunnelCSV:
		return "funnel"
	}
	return "unknown"
}

// Markdown reports whether the asset renders as markdown.
func (k AssetKind) Markdown() bool {
	return k != AssetFunnelCSV
}

// AllAssets lists every canonical asset in package order.
func AllAssets() []AssetKind {
	return []AssetKind{
		AssetREADME,
		AssetChecklist,
		AssetPromptPack,
		AssetEmailScript,
		AssetSocialScript,
		AssetFunnelCSV,
	}
}

// RequiredSiblings lists the paths a well-formed package must contain,
// relative to the package directory. scripts/ is a directory: a package
// needs the folder even when a template set ships different script files.
func RequiredSiblings() []string {
	return []string{
		"README.md",
		"execution_checklist.md",
		"prompt_pack.md",
		"scripts",
	}
}

// ParseAssetKind resolves a CLI name ("readme", "checklist", ...) to a kind.
func ParseAssetKind(name string) (AssetKind, error) {
	for _, k := range AllAssets() {
		if k.Name() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown asset %q (expected one of: readme, checklist, prompts, emails, social, funnel)", name)
}
