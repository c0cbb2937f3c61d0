package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/SantanaDZ/cad-social/internal/app"
	"github.com/SantanaDZ/cad-social/internal/config"
	"github.com/SantanaDZ/cad-social/internal/logging"
)

type commandContext struct {
	configFlag *string
	prefsFlag  *string

	configOnce sync.Once
	config     config.Config
	configErr  error
}

func newCommandContext(configFlag, prefsFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		prefsFlag:  prefsFlag,
	}
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = config.Load(c.configPath())
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) prefsPath() string {
	if c.prefsFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.prefsFlag)
}

// options builds runtime options. A nil console keeps logs in the file only.
func (c *commandContext) options(console io.Writer) (app.Options, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return app.Options{}, err
	}
	return app.Options{
		ConfigPath: c.configPath(),
		PrefsPath:  c.prefsPath(),
		Console:    console,
		Config:     &cfg,
	}, nil
}

// withRuntime opens the wired runtime for one command without starting any
// background work.
func (c *commandContext) withRuntime(cmd *cobra.Command, fn func(*app.Runtime) error) (err error) {
	opts, err := c.options(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	rt, err := app.Open(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(rt)
}

var errNotConfirmed = errors.New("cancelled")

// confirm asks a yes/no question unless assumeYes is set. Without a terminal
// on stdin the caller must pass --yes.
func confirm(cmd *cobra.Command, title string, assumeYes bool) error {
	if assumeYes {
		return nil
	}
	in, ok := cmd.InOrStdin().(*os.File)
	if !ok || !logging.IsTerminal(in) {
		return fmt.Errorf("%s: confirmation required; rerun with --yes", title)
	}
	var confirmed bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Sim").
		Negative("Não").
		Value(&confirmed).
		Run()
	if err != nil {
		return err
	}
	if !confirmed {
		return errNotConfirmed
	}
	return nil
}
