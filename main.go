package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hm-damul/template-factory-sub001/internal/cli"
	"github.com/hm-damul/template-factory-sub001/internal/service"
	"github.com/hm-damul/template-factory-sub001/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

var version = "0.1.0"

func printHelp() {
	fmt.Printf(`template-factory - Static bonus package management

USAGE:
    template-factory [OPTIONS] [COMMAND]

OPTIONS:
    --help      Show this help information
    --version   Print version information
    --init      Initialize a new package library
    --dir       Library directory (overrides TEMPLATE_FACTORY_DIR)

COMMANDS:
    (no command)       Start interactive TUI mode
    new, create        Scaffold a new bonus package
    list, ls           List all packages
    search <query>     Search packages
    get, show <id>     Show a specific package
    render <id>        Print a package asset
    copy <id>          Copy a package asset to the clipboard
    rebuild <id>       Rebuild package assets from the template set
    delete, rm <id>    Delete a package
    validate           Validate packages against the canonical layout
    export             Export packages as zip archives
    import             Import foreign package folders
    tags               List all tags
    templates          Template set management
    git                Git synchronization commands
    watch              Watch the library and rebuild on template changes
    help               Show CLI command help

EXAMPLES:
    template-factory                                  # Start interactive mode
    template-factory --init                           # Initialize new library
    template-factory new "Sleep Revolution" --tags health,sleep
    template-factory list --format table              # List packages in table format
    template-factory render 20260217_sleep_revolution --asset checklist
    template-factory validate --strict                # Fail on warnings too
    template-factory export --all --output dist/      # Export every package
    template-factory git setup <repo-url>             # Setup git sync
    template-factory help <command>                   # Get detailed help

STORAGE:
    Default directory: current directory
    Override with: TEMPLATE_FACTORY_DIR=<path> or --dir <path>
`)
}

func main() {
	var showVersion bool
	var initLib bool
	var showHelp bool
	var baseDir string

	flag.BoolVar(&showVersion, "version", false, "Print version information")
	flag.BoolVar(&initLib, "init", false, "Initialize a new package library")
	flag.BoolVar(&showHelp, "help", false, "Show help information")
	flag.StringVar(&baseDir, "dir", "", "Library directory")
	flag.Parse()

	if showHelp {
		printHelp()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("template-factory version %s\n", version)
		os.Exit(0)
	}

	svc, err := service.NewServiceWithDir(baseDir)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if initLib {
		if err := svc.InitLibrary(); err != nil {
			fmt.Println("Error initializing library:", err)
			os.Exit(1)
		}
		fmt.Println("Initialized template factory library at", svc.GetBaseDir())
		return
	}

	// Command line arguments mean CLI mode
	args := flag.Args()
	if len(args) > 0 {
		cliHandler := cli.NewCLI(svc)
		if err := cliHandler.ExecuteCommand(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// No arguments provided - start TUI mode
	model, err := ui.NewModel(svc)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
