package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/illarion/blackbox/internal/config"
	"github.com/illarion/blackbox/internal/core"
	"github.com/illarion/blackbox/internal/crypto"
	"github.com/illarion/blackbox/internal/keyring"
	"github.com/illarion/blackbox/internal/logger"
	"go.uber.org/zap"
)

var (
	// Log is the CLI logger. It discards everything until Setup runs.
	Log     = logger.New()
	options = config.Default()
)

// Setup loads configuration and initializes logging
func Setup() {
	opts, err := config.Parse()
	if err != nil {
		HandleError(err)
	}
	options = opts

	if err := Log.Init(opts.LogLevel); err != nil {
		HandleError(err)
	}
	Log.Log.Debug("configuration loaded",
		zap.String("config", opts.Config),
		zap.String("container", opts.Container),
		zap.String("stage_mode", opts.StageMode),
		zap.Int64("stage_threshold", opts.StageThreshold))
}

// SetContainer overrides the configured container path when path is set
func SetContainer(path string) {
	if path != "" {
		options.Container = path
	}
}

func containerPath() string {
	return options.Container
}

func containerOptions() []core.Option {
	spool, err := options.Spool()
	if err != nil {
		HandleError(err)
	}
	return []core.Option{core.WithSpool(spool), core.WithLogger(Log.Log)}
}

// PasswordSource records where a password came from
type PasswordSource int

const (
	SourceEnv PasswordSource = iota
	SourceKeyring
	SourcePrompt
)

// GetPassword retrieves the password from the environment, the keyring
// entry for containerID, or a prompt, in that order.
// The caller is responsible for calling crypto.ClearBytes on the returned password
func GetPassword(prompt, containerID string) ([]byte, PasswordSource, error) {
	if password := core.GetPasswordFromEnv(); password != nil {
		return password, SourceEnv, nil
	}

	if containerID != "" {
		password, err := keyring.GetPassword(containerID)
		if err == nil {
			return password, SourceKeyring, nil
		}
		if !errors.Is(err, keyring.ErrNotFound) {
			Log.Log.Debug("keyring lookup failed", zap.Error(err))
		}
	}

	password, err := core.ReadPassword(prompt)
	if err != nil {
		return nil, SourcePrompt, err
	}
	return password, SourcePrompt, nil
}

// GetPasswordForInit retrieves password for init command
// Checks environment variable first, then prompts with confirmation
func GetPasswordForInit() ([]byte, error) {
	if password := core.GetPasswordFromEnv(); password != nil {
		return password, nil
	}

	password, err := core.ReadPasswordConfirm()
	if err != nil {
		return nil, err
	}
	if len(password) == 0 {
		return nil, errors.New("password cannot be empty")
	}
	return password, nil
}

// openContainer opens the configured container. A stale keyring password
// falls back to a prompt. The caller closes the container and clears the
// returned password.
func openContainer(ctx context.Context) (*core.Container, []byte, PasswordSource) {
	path := containerPath()
	info, err := core.Stat(path)
	if err != nil {
		HandleError(err)
	}

	password, source, err := GetPassword("Enter password: ", info.ID)
	if err != nil {
		HandleError(err)
	}

	c, err := unlock(ctx, path, password)
	if errors.Is(err, core.ErrWrongPassword) && source == SourceKeyring {
		crypto.ClearBytes(password)
		fmt.Fprintln(os.Stderr, warning.Sprintf("Password stored in keyring is out of date"))
		password, err = core.ReadPassword("Enter password: ")
		if err != nil {
			HandleError(err)
		}
		source = SourcePrompt
		c, err = unlock(ctx, path, password)
	}
	if err != nil {
		crypto.ClearBytes(password)
		HandleError(err)
	}
	return c, password, source
}

func unlock(ctx context.Context, path string, password []byte) (*core.Container, error) {
	sp := startSpinner("Unlocking " + path)
	defer sp.Stop()
	return core.Open(ctx, path, password, sp.Progress, containerOptions()...)
}

func save(ctx context.Context, c *core.Container) error {
	sp := startSpinner("Saving " + c.Path())
	defer sp.Stop()
	return c.Save(ctx, sp.Progress)
}

// fail closes c, releasing staged content, then reports err
func fail(c *core.Container, err error) {
	c.Close()
	HandleError(err)
}

// OfferToSavePassword offers to store a prompted password in the keyring
func OfferToSavePassword(containerID string, password []byte) {
	if !core.IsTerminal() || keyring.HasPassword(containerID) {
		return
	}

	fmt.Print("Save password to keyring? [y/N]: ")
	choice, err := readChoice()
	if err != nil || choice != "y" {
		return
	}

	if err := keyring.SavePassword(containerID, password); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", warning.Sprintf("warning:"), err)
		return
	}
	fmt.Println(success.Sprintf("✓") + " Password saved to keyring")
}

// HandleError handles common errors consistently
func HandleError(err error) {
	label := failure.Sprintf("Error:")
	switch {
	case errors.Is(err, core.ErrNotFound) && !containerExists():
		fmt.Fprintf(os.Stderr, "%s %s not found\n", label, containerPath())
		fmt.Fprintf(os.Stderr, "Run %s first\n", hint.Sprintf("'blackbox init'"))
	case errors.Is(err, core.ErrAlreadyExists):
		fmt.Fprintf(os.Stderr, "%s %s already exists\n", label, containerPath())
		fmt.Fprintf(os.Stderr, "Use %s to see its details\n", hint.Sprintf("'blackbox status'"))
	case errors.Is(err, core.ErrWrongPassword):
		fmt.Fprintf(os.Stderr, "%s wrong password\n", label)
	case errors.Is(err, core.ErrFormat):
		fmt.Fprintf(os.Stderr, "%s %s is not a valid container: %s\n", label, containerPath(), err)
	case errors.Is(err, core.ErrPermission):
		fmt.Fprintf(os.Stderr, "%s %s\n", label, err)
		fmt.Fprintf(os.Stderr, "Check file permissions\n")
	case errors.Is(err, core.ErrConflict):
		fmt.Fprintf(os.Stderr, "%s %s\n", label, err)
		fmt.Fprintf(os.Stderr, "Use %s to choose how conflicts are resolved\n", hint.Sprintf("--on-conflict"))
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(os.Stderr, "%s interrupted\n", label)
	default:
		fmt.Fprintf(os.Stderr, "%s %s\n", label, err)
	}
	Log.Sync()
	os.Exit(1)
}

func containerExists() bool {
	_, err := os.Stat(containerPath())
	return err == nil
}
