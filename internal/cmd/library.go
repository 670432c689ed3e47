package cmd

import (
	"github.com/luispater/sl2browser/internal/browser"
	"github.com/luispater/sl2browser/internal/browser/chrome"
	"github.com/luispater/sl2browser/internal/browser/playwright"
	"github.com/luispater/sl2browser/internal/config"
	"github.com/luispater/sl2browser/internal/keyword"
)

// engineFactory returns the factory of the configured engine. The engine is
// only started by the first keyword that needs a browser.
func engineFactory(cfg *config.AppConfig) keyword.EngineFactory {
	return func() (browser.Engine, error) {
		switch cfg.Engine {
		case config.EngineChrome:
			return chrome.New(chrome.Options{
				ExecPath: cfg.Browser.ExecPath,
				Args:     cfg.Browser.Args,
				Headless: cfg.Browser.Headless,
			}), nil
		default:
			e, err := playwright.New(playwright.Options{
				Install:  cfg.InstallDriver,
				ExecPath: cfg.Browser.ExecPath,
				Args:     cfg.Browser.Args,
				Headless: cfg.Browser.Headless,
			})
			if err != nil {
				return nil, err
			}
			return e, nil
		}
	}
}

// libraryOptions maps the library section of the configuration.
func libraryOptions(cfg *config.AppConfig) keyword.Options {
	return keyword.Options{
		Timeout:                 cfg.Library.Timeout,
		ImplicitWait:            cfg.Library.ImplicitWait,
		RunOnFailure:            cfg.Library.RunOnFailure,
		ScreenshotRootDirectory: cfg.Library.ScreenshotRootDirectory,
		BrowserArgs:             cfg.Library.BrowserArgs,
		UserDataDir:             cfg.Browser.UserDataDir,
	}
}

func newLibrary(cfg *config.AppConfig) *keyword.Library {
	return keyword.New(engineFactory(cfg), libraryOptions(cfg))
}
