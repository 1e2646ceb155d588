package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/blackbox/cmd"
	"github.com/illarion/blackbox/internal/core"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init", "add", "extract", "cat", "ls", "rm", "passwd", "diff", "status", "keyring":
		cmd.Setup()
		defer cmd.Log.Sync()
	}

	switch os.Args[1] {
	case "init":
		runInit(ctx, os.Args[2:])
	case "add":
		runAdd(ctx, os.Args[2:])
	case "extract":
		runExtract(ctx, os.Args[2:])
	case "cat":
		runCat(ctx, os.Args[2:])
	case "ls":
		runLs(ctx, os.Args[2:])
	case "rm":
		runRm(ctx, os.Args[2:])
	case "passwd":
		runPasswd(ctx, os.Args[2:])
	case "diff":
		runDiff(ctx, os.Args[2:])
	case "status":
		runStatus(ctx, os.Args[2:])
	case "keyring":
		runKeyring(ctx, os.Args[2:])
	case "completion":
		runCompletion(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// newFlagSet returns a flag set with the shared -f container flag
func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	file := fs.String("f", "", "Container file (default $BLACKBOX_FILE or .blackbox)")
	return fs, file
}

func parse(fs *flag.FlagSet, file *string, args []string) {
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	cmd.SetContainer(*file)
}

func runInit(ctx context.Context, args []string) {
	fs, file := newFlagSet("init")
	parse(fs, file, args)

	cmd.Init(ctx)
}

func runAdd(ctx context.Context, args []string) {
	fs, file := newFlagSet("add")
	name := fs.String("name", "", "Store a single file under this entry name")
	mediaType := fs.String("type", "", "Media type to record instead of the sniffed one")
	parse(fs, file, args)

	cmd.Add(ctx, fs.Args(), *name, *mediaType)
}

func runExtract(ctx context.Context, args []string) {
	fs, file := newFlagSet("extract")
	dir := fs.String("dir", ".", "Destination directory")
	force := fs.Bool("force", false, "Overwrite local files without asking")
	keepLocal := fs.Bool("keep-local", false, "Skip all conflicts, keep local versions")
	keepBoth := fs.Bool("keep-both", false, "Keep both local and container versions")
	onConflict := fs.String("on-conflict", "", "Conflict strategy: ask, local, container, both or abort")
	parse(fs, file, args)

	// Validate mutually exclusive flags
	choice := *onConflict
	set := 0
	if choice != "" {
		set++
	}
	for flagSet, name := range map[*bool]string{force: "container", keepLocal: "local", keepBoth: "both"} {
		if *flagSet {
			choice = name
			set++
		}
	}
	if set > 1 {
		fmt.Fprintf(os.Stderr, "error: --force, --keep-local, --keep-both and --on-conflict are mutually exclusive\n")
		os.Exit(1)
	}

	strategy, err := core.ParseStrategy(choice)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Extract(ctx, *dir, strategy)
}

func runCat(ctx context.Context, args []string) {
	fs, file := newFlagSet("cat")
	out := fs.String("o", "", "Write to this file instead of stdout")
	parse(fs, file, args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: blackbox cat [-o file] <entry>")
		os.Exit(1)
	}
	cmd.Cat(ctx, fs.Arg(0), *out)
}

func runLs(ctx context.Context, args []string) {
	fs, file := newFlagSet("ls")
	parse(fs, file, args)

	cmd.Ls(ctx)
}

func runRm(ctx context.Context, args []string) {
	fs, file := newFlagSet("rm")
	parse(fs, file, args)

	cmd.Remove(ctx, fs.Args())
}

func runPasswd(ctx context.Context, args []string) {
	fs, file := newFlagSet("passwd")
	parse(fs, file, args)

	cmd.Passwd(ctx)
}

func runDiff(ctx context.Context, args []string) {
	fs, file := newFlagSet("diff")
	dir := fs.String("dir", ".", "Directory holding the local files")
	parse(fs, file, args)

	cmd.Diff(ctx, *dir, fs.Args())
}

func runStatus(ctx context.Context, args []string) {
	fs, file := newFlagSet("status")
	parse(fs, file, args)

	cmd.Status(ctx)
}

func runKeyring(ctx context.Context, args []string) {
	fs, file := newFlagSet("keyring")
	parse(fs, file, args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: blackbox keyring <save|delete|status>")
		os.Exit(1)
	}
	switch fs.Arg(0) {
	case "save":
		cmd.KeyringSave(ctx)
	case "delete":
		cmd.KeyringDelete()
	case "status":
		cmd.KeyringStatus()
	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring command: %s\n", fs.Arg(0))
		os.Exit(1)
	}
}

func runCompletion(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: blackbox completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("blackbox - password-protected encrypted file container")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  blackbox <command> [-f container] [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init        Create a new encrypted container")
	fmt.Println("  add         Store files in the container")
	fmt.Println("  extract     Restore all entries into a directory")
	fmt.Println("  cat         Write one entry to stdout or a file")
	fmt.Println("  ls          List entries in the container")
	fmt.Println("  rm          Remove entries from the container")
	fmt.Println("  passwd      Change the container password")
	fmt.Println("  diff        Compare entries with local files")
	fmt.Println("  status      Show container details (no password needed)")
	fmt.Println("  keyring     Manage password in OS keyring")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  blackbox init                   # Create .blackbox in current directory")
	fmt.Println("  blackbox add .env id_rsa        # Store two files")
	fmt.Println("  blackbox extract --dir restore  # Restore everything into ./restore")
	fmt.Println("  blackbox ls -f c.box            # Use another container file")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  BLACKBOX_PASSWORD         Password (skips prompt and keyring)")
	fmt.Println("  BLACKBOX_FILE             Container file")
	fmt.Println("  BLACKBOX_CONFIG           JSON config file")
	fmt.Println("  BLACKBOX_STAGE_MODE       auto, memory or staged")
	fmt.Println("  BLACKBOX_STAGE_THRESHOLD  Bytes above which auto mode stages to disk")
	fmt.Println("  BLACKBOX_TEMP_DIR         Directory for staged content")
	fmt.Println("  BLACKBOX_LOG_LEVEL        debug, info, warn, error or off")
	fmt.Println()
	fmt.Println("Use 'blackbox help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "init":
		fmt.Println("blackbox init [-f container]")
		fmt.Println()
		fmt.Println("Creates an empty encrypted container.")
		fmt.Println("Prompts for a password that will be used for encryption.")
		fmt.Println("The password cannot be recovered - you must remember it.")
	case "add":
		fmt.Println("blackbox add [-f container] [--name entry] [--type media/type] <file> [file...]")
		fmt.Println()
		fmt.Println("Compresses and stores files in the container.")
		fmt.Println("Entries are named after the file's base name unless --name is given.")
		fmt.Println("An entry with the same name is replaced.")
		fmt.Println("Use '-' with --name to read from stdin.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  blackbox add .env")
		fmt.Println("  blackbox add --name prod.env config/production.env")
		fmt.Println("  pg_dump db | blackbox add --name db.sql -")
	case "extract":
		fmt.Println("blackbox extract [-f container] [--dir dir] [--force|--keep-local|--keep-both|--on-conflict strategy]")
		fmt.Println()
		fmt.Println("Decrypts and restores every entry into a directory.")
		fmt.Println("Files identical to the stored entry are skipped.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --force          Overwrite local files without asking")
		fmt.Println("  --keep-local     Skip all conflicts, keep local versions")
		fmt.Println("  --keep-both      Keep both versions (save stored one as .from-container)")
		fmt.Println("  --on-conflict    ask, local, container, both or abort")
		fmt.Println()
		fmt.Println("Interactive mode (default):")
		fmt.Println("    [l] Keep local version")
		fmt.Println("    [c] Use container version (overwrite local)")
		fmt.Println("    [e] Edit merged (opens in $EDITOR, text files only)")
		fmt.Println("    [b] Keep both (save container version as .from-container)")
		fmt.Println("    [x] Skip this file")
	case "cat":
		fmt.Println("blackbox cat [-f container] [-o file] <entry>")
		fmt.Println()
		fmt.Println("Writes one entry to stdout, or atomically to the file given with -o.")
	case "ls":
		fmt.Println("blackbox ls [-f container]")
		fmt.Println()
		fmt.Println("Lists entries with their media type and stored size.")
	case "rm":
		fmt.Println("blackbox rm [-f container] <entry> [entry...]")
		fmt.Println()
		fmt.Println("Removes entries from the container.")
	case "passwd":
		fmt.Println("blackbox passwd [-f container]")
		fmt.Println()
		fmt.Println("Changes the container password and re-encrypts its content.")
		fmt.Println("Updates the keyring when it holds the old password.")
	case "diff":
		fmt.Println("blackbox diff [-f container] [--dir dir] [entry...]")
		fmt.Println()
		fmt.Println("Shows a unified diff between stored entries and local files.")
	case "status":
		fmt.Println("blackbox status [-f container]")
		fmt.Println()
		fmt.Println("Shows the container ID, size, encryption details and keyring state.")
		fmt.Println("Does not require a password.")
	case "keyring":
		fmt.Println("blackbox keyring [-f container] <save|delete|status>")
		fmt.Println()
		fmt.Println("Manages the container password in the OS keyring.")
	case "completion":
		fmt.Println("blackbox completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(blackbox completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(blackbox completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  blackbox completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
