package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hm-damul/template-factory-sub001/internal/clipboard"
	"github.com/hm-damul/template-factory-sub001/internal/config"
	"github.com/hm-damul/template-factory-sub001/internal/errors"
	"github.com/hm-damul/template-factory-sub001/internal/factory"
	"github.com/hm-damul/template-factory-sub001/internal/importer"
	"github.com/hm-damul/template-factory-sub001/internal/models"
	"github.com/hm-damul/template-factory-sub001/internal/service"
	"github.com/hm-damul/template-factory-sub001/internal/validation"
	"github.com/hm-damul/template-factory-sub001/internal/watcher"
)

// CLI provides headless command-line interface functionality
type CLI struct {
	service      *service.Service
	errorHandler *errors.CLIErrorHandler
}

// NewCLI creates a new CLI instance
func NewCLI(svc *service.Service) *CLI {
	return &CLI{
		service:      svc,
		errorHandler: errors.NewCLIErrorHandler(os.Getenv("VERBOSE") == "true"),
	}
}

// ExecuteCommand processes a CLI command and returns the result
func (c *CLI) ExecuteCommand(args []string) error {
	if len(args) == 0 {
		return c.printUsage()
	}

	command := args[0]
	commandArgs := args[1:]

	var err error
	switch command {
	case "new", "create":
		err = c.createPackage(commandArgs)
	case "list", "ls":
		err = c.listPackages(commandArgs)
	case "search":
		err = c.searchPackages(commandArgs)
	case "get", "show":
		err = c.showPackage(commandArgs)
	case "render":
		err = c.renderAsset(commandArgs)
	case "copy":
		err = c.copyAsset(commandArgs)
	case "rebuild":
		err = c.rebuildPackage(commandArgs)
	case "delete", "rm":
		err = c.deletePackage(commandArgs)
	case "validate":
		err = c.validatePackages(commandArgs)
	case "export":
		err = c.exportPackages(commandArgs)
	case "import":
		err = c.importPackages(commandArgs)
	case "tags":
		err = c.listTags(commandArgs)
	case "templates":
		err = c.handleTemplates(commandArgs)
	case "git":
		err = c.handleGit(commandArgs)
	case "watch":
		err = c.watchLibrary(commandArgs)
	case "init":
		err = c.initLibrary(commandArgs)
	case "help":
		return c.printHelp(commandArgs)
	default:
		err = errors.CommandNotFoundError(command)
	}

	if err != nil {
		return c.errorHandler.HandleError(err)
	}
	return nil
}

// createPackage scaffolds a new bonus package
func (c *CLI) createPackage(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("create requires a topic")
	}

	req := factory.ScaffoldRequest{Topic: args[0]}

	// Parse flags
	for i := 1; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--id":
			if i+1 < len(args) {
				req.ID = args[i+1]
				i++
			}
		case "--lang", "-l":
			if i+1 < len(args) {
				req.Language = args[i+1]
				i++
			}
		case "--template-set":
			if i+1 < len(args) {
				req.TemplateSet = args[i+1]
				i++
			}
		case "--tags":
			if i+1 < len(args) {
				req.Tags = splitTags(args[i+1])
				i++
			}
		case "--author":
			if i+1 < len(args) {
				req.Author = args[i+1]
				i++
			}
		case "--force":
			req.Force = true
		case "--fill-missing":
			req.FillMissing = true
		case "--dry-run":
			req.DryRun = true
		}
	}

	result, err := c.service.CreateProduct(req)
	if err != nil {
		return fmt.Errorf("failed to create package: %w", err)
	}

	if result.DryRun {
		fmt.Printf("Dry run for package %s (%s):\n", result.Product.ID, result.Product.Language)
		for _, path := range result.Written {
			fmt.Printf("  would write %s\n", path)
		}
		for _, path := range result.Skipped {
			fmt.Printf("  would skip %s\n", path)
		}
		return nil
	}

	fmt.Printf("Created package: %s (%s)\n", result.Product.ID, result.Product.Language)
	for _, path := range result.Written {
		fmt.Printf("  wrote %s\n", path)
	}
	for _, path := range result.Skipped {
		fmt.Printf("  skipped %s\n", path)
	}
	return nil
}

// listPackages lists packages in the library
func (c *CLI) listPackages(args []string) error {
	var format string
	var tag string
	var lang string

	// Parse flags
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--format", "-f":
			if i+1 < len(args) {
				format = args[i+1]
				i++
			}
		case "--tag", "-t":
			if i+1 < len(args) {
				tag = args[i+1]
				i++
			}
		case "--lang", "-l":
			if i+1 < len(args) {
				lang = args[i+1]
				i++
			}
		}
	}

	var products []*models.Product
	var err error

	if tag != "" {
		products, err = c.service.FilterProductsByTag(tag)
	} else {
		products, err = c.service.ListProducts()
	}
	if err != nil {
		return fmt.Errorf("failed to list packages: %w", err)
	}

	if lang != "" {
		var filtered []*models.Product
		for _, p := range products {
			if p.Language == lang {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	return c.formatOutput(products, format)
}

// searchPackages searches packages by fuzzy query
func (c *CLI) searchPackages(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("search requires a query")
	}

	var format string
	var queryParts []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--format", "-f":
			if i+1 < len(args) {
				format = args[i+1]
				i++
			}
		default:
			queryParts = append(queryParts, arg)
		}
	}

	products, err := c.service.SearchProducts(strings.Join(queryParts, " "))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	return c.formatOutput(products, format)
}

// showPackage displays a specific package
func (c *CLI) showPackage(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("show requires a package ID")
	}

	id := args[0]
	var format string
	var lang string
	var raw bool

	// Parse flags
	for i := 1; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--format", "-f":
			if i+1 < len(args) {
				format = args[i+1]
				i++
			}
		case "--lang", "-l":
			if i+1 < len(args) {
				lang = args[i+1]
				i++
			}
		case "--raw":
			raw = true
		}
	}

	product, err := c.getProduct(id, lang)
	if err != nil {
		return fmt.Errorf("failed to get package: %w", err)
	}

	if raw {
		content, err := c.service.ReadAsset(product, models.AssetREADME.RelPath())
		if err != nil {
			return fmt.Errorf("failed to read README: %w", err)
		}
		os.Stdout.Write(content)
		return nil
	}

	return c.formatSingleProduct(product, format)
}

// renderAsset prints one package asset to stdout
func (c *CLI) renderAsset(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("render requires a package ID and an asset name (readme, checklist, prompts, emails, social, funnel)")
	}

	id := args[0]
	kind, err := models.ParseAssetKind(args[1])
	if err != nil {
		return err
	}

	var rerender bool
	for _, arg := range args[2:] {
		if arg == "--rerender" {
			rerender = true
		}
	}

	content, err := c.service.RenderAsset(id, kind, rerender)
	if err != nil {
		return fmt.Errorf("failed to render asset: %w", err)
	}

	os.Stdout.Write(content)
	return nil
}

// copyAsset copies a package asset to the clipboard
func (c *CLI) copyAsset(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("copy requires a package ID")
	}

	id := args[0]
	kind := models.AssetPromptPack
	if len(args) > 1 && !strings.HasPrefix(args[1], "--") {
		parsed, err := models.ParseAssetKind(args[1])
		if err != nil {
			return err
		}
		kind = parsed
	}

	content, err := c.service.RenderAsset(id, kind, false)
	if err != nil {
		return fmt.Errorf("failed to read asset: %w", err)
	}

	if statusMsg, err := clipboard.CopyWithFallback(string(content)); err != nil {
		// Print the helpful error message and continue without failing
		fmt.Printf("Warning: %v\n", err)
		fmt.Printf("Content not copied to clipboard.\n")
	} else {
		fmt.Printf("%s\n", statusMsg)
	}
	return nil
}

// rebuildPackage re-renders a package from its template set
func (c *CLI) rebuildPackage(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("rebuild requires a package ID")
	}

	id := args[0]
	var fillMissing bool
	for _, arg := range args[1:] {
		if arg == "--fill-missing" {
			fillMissing = true
		}
	}

	var result *factory.ScaffoldResult
	var err error
	if fillMissing {
		result, err = c.service.RepairProduct(id)
	} else {
		result, err = c.service.RebuildProduct(id)
	}
	if err != nil {
		return fmt.Errorf("failed to rebuild package: %w", err)
	}

	fmt.Printf("Rebuilt package: %s\n", result.Product.ID)
	for _, path := range result.Written {
		fmt.Printf("  wrote %s\n", path)
	}
	for _, path := range result.Skipped {
		fmt.Printf("  kept %s\n", path)
	}
	return nil
}

// deletePackage removes a package from the library
func (c *CLI) deletePackage(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("delete requires a package ID")
	}

	id := args[0]
	var force bool
	var language string

	// Parse flags
	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "--force", "-f":
			force = true
		case "--lang", "-l":
			if i+1 < len(args) {
				language = args[i+1]
				i++
			}
		}
	}

	if !force {
		target := fmt.Sprintf("package '%s'", id)
		if language != "" {
			target = fmt.Sprintf("the %s edition of package '%s'", language, id)
		}
		fmt.Printf("Are you sure you want to delete %s? (y/N): ", target)
		var response string
		fmt.Scanln(&response)
		if strings.ToLower(response) != "y" && strings.ToLower(response) != "yes" {
			fmt.Println("Cancelled")
			return nil
		}
	}

	if language != "" {
		if err := c.service.DeleteProductEdition(id, language); err != nil {
			return fmt.Errorf("failed to delete package: %w", err)
		}
		fmt.Printf("Deleted package: %s (%s)\n", id, language)
		return nil
	}

	if err := c.service.DeleteProduct(id); err != nil {
		return fmt.Errorf("failed to delete package: %w", err)
	}

	fmt.Printf("Deleted package: %s\n", id)
	return nil
}

// validatePackages validates one package or the whole library
func (c *CLI) validatePackages(args []string) error {
	var id string
	var format string
	var strict bool

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--format", "-f":
			if i+1 < len(args) {
				format = args[i+1]
				i++
			}
		case "--strict":
			strict = true
		default:
			if !strings.HasPrefix(arg, "--") && id == "" {
				id = arg
			}
		}
	}

	if strict {
		c.service.SetStrictValidation(true)
	}

	var reports []*validation.Report
	if id != "" {
		report, err := c.service.ValidateProduct(id)
		if err != nil {
			return fmt.Errorf("failed to validate package: %w", err)
		}
		reports = []*validation.Report{report}
	} else {
		var err error
		reports, err = c.service.ValidateLibrary()
		if err != nil {
			return fmt.Errorf("failed to validate library: %w", err)
		}
	}

	if format == "json" {
		if err := json.NewEncoder(os.Stdout).Encode(reports); err != nil {
			return err
		}
	} else {
		c.printReports(reports)
	}

	if appErr := validation.ReportsToAppError(reports); appErr != nil {
		return appErr
	}
	return nil
}

// printReports renders validation reports for the terminal
func (c *CLI) printReports(reports []*validation.Report) {
	for _, report := range reports {
		name := report.ProductID
		if name == "" {
			name = report.Dir
		}
		if report.Valid {
			fmt.Printf("✅ %s\n", name)
		} else {
			fmt.Printf("❌ %s\n", name)
		}
		for _, issue := range report.Errors {
			fmt.Printf("   error %s: %s\n", issue.Check, issue.Message)
		}
		for _, issue := range report.Warnings {
			fmt.Printf("   warning %s: %s\n", issue.Check, issue.Message)
		}
	}

	summary := validation.Summarize(reports)
	fmt.Printf("\n%d packages checked: %d valid, %d invalid, %d warnings\n",
		summary.Packages, summary.Valid, summary.Invalid, summary.Warnings)
}

// exportPackages zips packages into distributable archives
func (c *CLI) exportPackages(args []string) error {
	var id string
	var outputDir string
	var all bool

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--all", "-a":
			all = true
		case "--output", "-o":
			if i+1 < len(args) {
				outputDir = args[i+1]
				i++
			}
		default:
			if !strings.HasPrefix(arg, "--") && id == "" {
				id = arg
			}
		}
	}

	if !all && id == "" {
		return fmt.Errorf("export requires a package ID or --all")
	}

	if all {
		results, errs := c.service.ExportAll(outputDir)
		for _, result := range results {
			fmt.Printf("Exported %s -> %s (%d files)\n",
				result.Product.ID, result.ArchivePath, result.FileCount)
		}
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		}
		if len(errs) > 0 {
			return errors.ExportError(
				fmt.Sprintf("%d of %d packages", len(errs), len(errs)+len(results)), nil)
		}
		fmt.Printf("Exported %d packages\n", len(results))
		return nil
	}

	result, err := c.service.ExportProduct(id, outputDir)
	if err != nil {
		return errors.ExportError(id, err)
	}
	fmt.Printf("Exported %s -> %s (%d files)\n", result.Product.ID, result.ArchivePath, result.FileCount)
	fmt.Printf("Manifest: %s\n", result.ManifestPath)
	return nil
}

// importPackages adopts foreign bonus folders into the library
func (c *CLI) importPackages(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("import requires a source path")
	}

	options := importer.ImportOptions{Path: args[0]}

	// Parse flags
	for i := 1; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--lang", "-l":
			if i+1 < len(args) {
				options.Language = args[i+1]
				i++
			}
		case "--tags":
			if i+1 < len(args) {
				options.Tags = splitTags(args[i+1])
				i++
			}
		case "--preview", "--dry-run":
			options.DryRun = true
		case "--overwrite":
			options.OverwriteExisting = true
		case "--skip-existing":
			options.SkipExisting = true
		}
	}

	result, err := c.service.ImportPackages(options)
	if err != nil {
		return errors.ImportError(options.Path, err)
	}

	// Display results
	if options.DryRun {
		fmt.Println("Import Preview:")
		fmt.Println("===============")
	} else {
		fmt.Println("Import Complete:")
		fmt.Println("================")
	}

	if len(result.Products) > 0 {
		fmt.Printf("Packages: %d\n", len(result.Products))
		for _, product := range result.Products {
			fmt.Printf("  - %s (%s)\n", product.ID, product.Topic)
		}
	}

	if len(result.Skipped) > 0 {
		fmt.Printf("Skipped: %d\n", len(result.Skipped))
		for _, skipped := range result.Skipped {
			fmt.Printf("  - %s: %s\n", skipped.Path, skipped.Reason)
		}
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors encountered: %d\n", len(result.Errors))
		for _, err := range result.Errors {
			fmt.Printf("  - %v\n", err)
		}
	}

	if options.DryRun {
		fmt.Printf("\nTo actually import these packages, run the same command without --dry-run\n")
	} else {
		fmt.Printf("\nSuccessfully imported %d packages\n", len(result.Products))
	}

	return nil
}

// listTags prints every tag in the library
func (c *CLI) listTags(args []string) error {
	tags, err := c.service.GetAllTags()
	if err != nil {
		return fmt.Errorf("failed to get tags: %w", err)
	}

	for _, tag := range tags {
		fmt.Println(tag)
	}
	return nil
}

// handleTemplates manages template sets
func (c *CLI) handleTemplates(args []string) error {
	if len(args) == 0 || args[0] == "list" {
		sets, err := c.service.ListTemplateSets()
		if err != nil {
			return fmt.Errorf("failed to list template sets: %w", err)
		}

		for _, set := range sets {
			fmt.Printf("%s - %s", set.Name, set.Description)
			if set.Builtin {
				fmt.Print(" [built-in]")
			}
			fmt.Println()
		}
		return nil
	}

	subcommand := args[0]
	switch subcommand {
	case "show":
		if len(args) < 2 {
			return fmt.Errorf("templates show requires a set name")
		}
		set, err := c.service.GetTemplateSet(args[1])
		if err != nil {
			return fmt.Errorf("failed to get template set: %w", err)
		}

		fmt.Printf("Name: %s\n", set.Name)
		fmt.Printf("Description: %s\n", set.Description)
		fmt.Printf("Version: %s\n", set.Version)
		fmt.Printf("Language: %s\n", set.Language)
		fmt.Println("\nTemplates:")
		for _, slot := range set.Slots {
			fmt.Printf("  %s\n", slot.RelPath)
		}
		return nil

	case "install":
		if len(args) < 2 {
			return fmt.Errorf("templates install requires a git URL or a directory")
		}
		source := args[1]
		options := config.InstallOptions{}
		for i := 2; i < len(args); i++ {
			arg := args[i]
			switch arg {
			case "--name":
				if i+1 < len(args) {
					options.Name = args[i+1]
					i++
				}
			case "--force":
				options.Force = true
			}
		}

		name, err := c.service.InstallTemplateSet(source, options)
		if err != nil {
			return errors.TemplateError(source, err)
		}
		fmt.Printf("Installed template set: %s\n", name)
		return nil

	case "uninstall":
		if len(args) < 2 {
			return fmt.Errorf("templates uninstall requires a set name")
		}
		if err := c.service.UninstallTemplateSet(args[1]); err != nil {
			return fmt.Errorf("failed to uninstall template set: %w", err)
		}
		fmt.Printf("Uninstalled template set: %s\n", args[1])
		return nil

	case "scaffold":
		if len(args) < 2 {
			return fmt.Errorf("templates scaffold requires a set name")
		}
		dir, err := c.service.ScaffoldTemplateSet(args[1])
		if err != nil {
			return fmt.Errorf("failed to scaffold template set: %w", err)
		}
		fmt.Printf("Created template set scaffold at %s\n", dir)
		fmt.Println("Edit the templates, then build packages with --template-set")
		return nil

	default:
		return errors.InvalidCommandError("templates "+subcommand,
			"expected list, show, install, uninstall or scaffold")
	}
}

// handleGit manages git synchronization
func (c *CLI) handleGit(args []string) error {
	if len(args) == 0 {
		// Show git status
		status, err := c.service.GetGitSyncStatus()
		if err != nil {
			return errors.GitError("status", err)
		}
		fmt.Println("Git sync status:", status)
		return nil
	}

	subcommand := args[0]
	switch subcommand {
	case "setup":
		if len(args) < 2 {
			return fmt.Errorf("git setup requires a repository URL\n\nUsage: template-factory git setup <repository-url>\n\nExamples:\n  template-factory git setup https://github.com/username/my-packages.git\n  template-factory git setup git@github.com:username/my-packages.git")
		}
		if err := c.service.SetupGitRepository(args[1]); err != nil {
			return errors.GitError("setup", err)
		}
		fmt.Println("Git repository successfully configured!")
		return nil
	case "status":
		status, err := c.service.GetGitSyncStatus()
		if err != nil {
			return errors.GitError("status", err)
		}
		fmt.Println(status)
		return nil
	case "sync":
		message := "Manual sync from CLI"
		if len(args) > 1 {
			message = strings.Join(args[1:], " ")
		}
		if err := c.service.SyncChanges(message); err != nil {
			return errors.GitError("sync", err)
		}
		fmt.Println("Successfully synced with remote repository")
		return nil
	case "pull":
		if err := c.service.PullChanges(); err != nil {
			return errors.GitError("pull", err)
		}
		fmt.Println("Successfully pulled changes from remote repository")
		return nil
	default:
		return errors.InvalidCommandError("git "+subcommand,
			"expected setup, sync, pull or status")
	}
}

// watchLibrary blocks while reacting to filesystem changes
func (c *CLI) watchLibrary(args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	w, err := watcher.New(c.service, logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	fmt.Printf("Watching %s for changes. Press Ctrl+C to stop.\n", c.service.GetBaseDir())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nStopping watcher...")
	w.Stop()
	return nil
}

// initLibrary creates the library directory layout
func (c *CLI) initLibrary(args []string) error {
	if err := c.service.InitLibrary(); err != nil {
		return fmt.Errorf("failed to initialize library: %w", err)
	}
	fmt.Printf("Initialized template factory library at %s\n", c.service.GetBaseDir())
	return nil
}

// getProduct resolves a package, optionally pinned to a language
func (c *CLI) getProduct(id, lang string) (*models.Product, error) {
	if lang != "" {
		return c.service.GetProductByLanguage(id, lang)
	}
	return c.service.GetProduct(id)
}

// formatOutput formats packages for output
func (c *CLI) formatOutput(products []*models.Product, format string) error {
	switch format {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(products)
	case "ids":
		for _, p := range products {
			fmt.Println(p.ID)
		}
	case "table":
		fmt.Printf("%-32s %-28s %-6s %-8s %s\n", "ID", "Topic", "Lang", "Version", "Updated")
		fmt.Println(strings.Repeat("-", 86))
		for _, p := range products {
			topic := p.Topic
			if len(topic) > 28 {
				topic = topic[:25] + "..."
			}
			fmt.Printf("%-32s %-28s %-6s %-8s %s\n",
				p.ID, topic, p.Language, p.Version, p.UpdatedAt.Format("2006-01-02"))
		}
	default:
		for _, p := range products {
			fmt.Printf("%s - %s", p.ID, p.Topic)
			if p.Language != models.DefaultLanguage {
				fmt.Printf(" [%s]", p.Language)
			}
			fmt.Println()
			if len(p.Tags) > 0 {
				fmt.Printf("  Tags: %s\n", strings.Join(p.Tags, ", "))
			}
		}
	}
	return nil
}

// formatSingleProduct formats a single package for output
func (c *CLI) formatSingleProduct(product *models.Product, format string) error {
	switch format {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(product)
	default:
		fmt.Printf("ID: %s\n", product.ID)
		fmt.Printf("Topic: %s\n", product.Topic)
		fmt.Printf("Language: %s\n", product.Language)
		fmt.Printf("Version: %s\n", product.Version)
		if product.TemplateSet != "" {
			fmt.Printf("Template set: %s\n", product.TemplateSet)
		}
		if len(product.Tags) > 0 {
			fmt.Printf("Tags: %s\n", strings.Join(product.Tags, ", "))
		}
		if product.Author != "" {
			fmt.Printf("Author: %s\n", product.Author)
		}
		fmt.Printf("Created: %s\n", product.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Printf("Updated: %s\n", product.UpdatedAt.Format("2006-01-02 15:04"))
		fmt.Printf("Directory: %s\n", product.Dir)
		fmt.Printf("\nREADME:\n%s\n", product.Body)
	}
	return nil
}

// splitTags parses a comma-separated tag list
func splitTags(value string) []string {
	parts := strings.Split(value, ",")
	var tags []string
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func (c *CLI) printUsage() error {
	fmt.Println(`template-factory - Headless CLI mode

Usage: template-factory <command> [options]

Commands:
  new, create <topic>   Scaffold a new bonus package
  list, ls              List all packages
  search <query>        Search packages
  get, show <id>        Show a specific package
  render <id> <asset>   Print a package asset to stdout
  copy <id> [asset]     Copy a package asset to the clipboard
  rebuild <id>          Re-render a package from its template set
  delete, rm <id>       Delete a package
  validate [id]         Validate packages against the canonical layout
  export <id|--all>     Export packages as zip archives
  import <path>         Import foreign bonus folders
  tags                  List all tags
  templates             Template set management (list, show, install, uninstall, scaffold)
  git                   Git synchronization (setup, sync, pull, status)
  watch                 Rebuild and revalidate on file changes
  init                  Initialize the library layout
  help                  Show help

Use 'template-factory help <command>' for detailed help on a specific command.`)
	return nil
}

func (c *CLI) printHelp(args []string) error {
	if len(args) == 0 {
		return c.printUsage()
	}

	switch args[0] {
	case "new", "create":
		fmt.Println(`Usage: template-factory new <topic> [options]

Scaffold a new bonus package under outputs/<id>/bonus_<lang>/.

Options:
  --id <id>             Explicit package ID (default: <YYYYMMDD>_<topic-slug>)
  --lang, -l <lang>     Package language (default: configured language)
  --template-set <name> Template set to render from (default: configured set)
  --tags <a,b,c>        Comma-separated tags
  --author <name>       Author recorded in the README frontmatter
  --force               Overwrite existing assets
  --fill-missing        Only write assets that don't exist yet
  --dry-run             Show what would be written without touching disk

Examples:
  template-factory new "Sleep Revolution"
  template-factory new "Sleep Revolution" --lang de --tags health,sleep`)
	case "list", "ls":
		fmt.Println(`Usage: template-factory list [options]

Options:
  --format, -f <fmt>    Output format: text (default), table, json, ids
  --tag, -t <tag>       Only packages carrying the tag
  --lang, -l <lang>     Only packages in the language`)
	case "get", "show":
		fmt.Println(`Usage: template-factory get <id> [options]

Options:
  --lang, -l <lang>     Pick a language edition (default: configured language)
  --format, -f <fmt>    Output format: text (default), json
  --raw                 Print the README file exactly as stored`)
	case "render":
		fmt.Println(`Usage: template-factory render <id> <asset> [options]

Assets: readme, checklist, prompts, emails, social, funnel

Options:
  --rerender            Re-render from the template set instead of reading disk`)
	case "copy":
		fmt.Println(`Usage: template-factory copy <id> [asset]

Copy a package asset to the system clipboard. Defaults to the prompt pack.

Assets: readme, checklist, prompts, emails, social, funnel`)
	case "rebuild":
		fmt.Println(`Usage: template-factory rebuild <id> [options]

Re-render every asset of a package from its recorded template set.

Options:
  --fill-missing        Only restore assets that are missing`)
	case "delete", "rm":
		fmt.Println(`Usage: template-factory delete <id> [options]

Delete a package. Without --lang every language edition goes.

Options:
  --lang, -l <lang>     Delete only one language edition
  --force, -f           Skip the confirmation prompt`)
	case "validate":
		fmt.Println(`Usage: template-factory validate [id] [options]

Validate one package, or the whole library when no ID is given.
Exits non-zero when any package fails.

Options:
  --strict              Treat warnings as errors
  --format, -f <fmt>    Output format: text (default), json`)
	case "export":
		fmt.Println(`Usage: template-factory export <id> [options]
       template-factory export --all [options]

Zip packages into distributable archives with a JSON manifest.

Options:
  --all, -a             Export every package in the library
  --output, -o <dir>    Output directory (default: <library>/dist)`)
	case "import":
		fmt.Println(`Usage: template-factory import <path> [options]

Scan a directory tree for bonus package folders and adopt them into
the library layout.

Options:
  --lang, -l <lang>     Language for imported packages (default: configured)
  --tags <a,b,c>        Extra tags applied to every imported package
  --dry-run, --preview  Show what would be imported without writing
  --overwrite           Replace packages that already exist
  --skip-existing       Silently skip packages that already exist`)
	case "templates":
		fmt.Println(`Usage: template-factory templates [subcommand]

Subcommands:
  list                  List available template sets (default)
  show <name>           Show one template set
  install <src>         Install a set from a git URL or local directory
                        (--name <name>, --force)
  uninstall <name>      Remove an installed set
  scaffold <name>       Start a custom set from the built-in default`)
	case "git":
		fmt.Println(`Usage: template-factory git [subcommand]

Subcommands:
  status                Show sync status (default)
  setup <url>           Initialize git and configure the remote
  sync [message]        Commit and push library changes
  pull                  Pull remote changes`)
	case "watch":
		fmt.Println(`Usage: template-factory watch

Watch templates/ and outputs/ for changes. Template edits rebuild the
packages rendered from them; package edits trigger revalidation.`)
	default:
		fmt.Printf("No detailed help for '%s'. Use 'template-factory help' for the command list.\n", args[0])
	}
	return nil
}
