//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"audiocut/cmd"
	"audiocut/infrastructure/config"

	"github.com/cucumber/godog"
)

type configContext struct {
	tempDir    string
	configPath string
	cfg        *config.Config
	found      bool
	output     *bytes.Buffer
	envKeys    []string
	err        error
}

// SharedConfigContext is reset before each scenario via After hook
var SharedConfigContext = &configContext{}

func InitializeConfigScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedConfigContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "config-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.configPath = filepath.Join(tempDir, "config.yaml")
		testCtx.output = &bytes.Buffer{}
		testCtx.cfg = nil
		testCtx.found = false
		testCtx.envKeys = nil
		testCtx.err = nil
		return c, nil
	})

	// Reset context after each scenario
	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		for _, key := range testCtx.envKeys {
			os.Unsetenv(key)
		}
		SharedConfigContext = &configContext{}
		return c, nil
	})

	ctx.Step(`^a configuration file containing:$`, testCtx.aConfigurationFileContaining)
	ctx.Step(`^no configuration file exists$`, testCtx.noConfigurationFileExists)
	ctx.Step(`^the environment variable "([^"]*)" is "([^"]*)"$`, testCtx.theEnvironmentVariableIs)
	ctx.Step(`^I load the configuration$`, testCtx.iLoadTheConfiguration)
	ctx.Step(`^I run config set "([^"]*)" "([^"]*)"$`, testCtx.iRunConfigSet)
	ctx.Step(`^I run config show$`, testCtx.iRunConfigShow)
	ctx.Step(`^"([^"]*)" should be "([^"]*)"$`, testCtx.keyShouldBe)
	ctx.Step(`^the configuration file should have "([^"]*)" set to "([^"]*)"$`, testCtx.theConfigurationFileShouldHave)
	ctx.Step(`^the command should fail mentioning "([^"]*)"$`, testCtx.theCommandShouldFailMentioning)
	ctx.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
}

func (c *configContext) aConfigurationFileContaining(doc *godog.DocString) error {
	return os.WriteFile(c.configPath, []byte(doc.Content), 0644)
}

func (c *configContext) noConfigurationFileExists() error {
	return nil
}

func (c *configContext) theEnvironmentVariableIs(key, value string) error {
	c.envKeys = append(c.envKeys, key)
	return os.Setenv(key, value)
}

func (c *configContext) iLoadTheConfiguration() error {
	cfg, found, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		return fmt.Errorf("unexpected error loading config: %w", err)
	}
	config.ApplyEnv(cfg)
	c.cfg, c.found = cfg, found
	return nil
}

func (c *configContext) iRunConfigSet(key, value string) error {
	cfg, _, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.err = cmd.RunConfigSetWithDependencies(cfg, c.configPath, key, value, c.output)
	return nil
}

func (c *configContext) iRunConfigShow() error {
	if c.cfg == nil {
		if err := c.iLoadTheConfiguration(); err != nil {
			return err
		}
	}
	c.err = cmd.RunConfigShowWithDependencies(c.cfg, c.configPath, c.found, c.output)
	return c.err
}

func (c *configContext) keyShouldBe(key, expected string) error {
	if c.cfg == nil {
		return fmt.Errorf("config was not loaded")
	}
	got, err := config.NewConfigManager(c.cfg, c.configPath).Get(key)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("expected %s %q, got %q", key, expected, got)
	}
	return nil
}

func (c *configContext) theConfigurationFileShouldHave(key, expected string) error {
	if c.err != nil {
		return fmt.Errorf("config set failed: %w", c.err)
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	got, err := config.NewConfigManager(cfg, c.configPath).Get(key)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("expected %s %q in file, got %q", key, expected, got)
	}
	return nil
}

func (c *configContext) theCommandShouldFailMentioning(text string) error {
	if c.err == nil {
		return fmt.Errorf("expected an error mentioning %q", text)
	}
	if !strings.Contains(c.err.Error(), text) {
		return fmt.Errorf("expected error mentioning %q, got %v", text, c.err)
	}
	return nil
}

func (c *configContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(c.output.String(), text) {
		return fmt.Errorf("output contains %q:\n%s", text, c.output.String())
	}
	return nil
}
