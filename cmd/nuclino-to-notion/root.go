/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/fatih/structs"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/toothbrush/nuclino-to-notion/notion"
	"github.com/toothbrush/nuclino-to-notion/nuclino"
	"github.com/toothbrush/nuclino-to-notion/pacing"
)

var (
	// Store the result of binding cobra flags
	Config       string
	ConfigActual string
	Debug        bool

	LocalStore   string
	NuclinoWait  string
	NotionWait   string
	NotionParent string

	ParsedConfig YamlConfig
)

// Build the cobra command that handles our command line tool.
var rootCmd = &cobra.Command{
	Use:   "nuclino-to-notion",
	Short: "Move a Nuclino wiki into Notion",
	Long: `
Nuclino shutting down on you, or the team simply moving on?  This tool snapshots a whole Nuclino
workspace to local disk, then replays it into Notion: pages, hierarchy, cross-links and all.  Cache
first, migrate second, so you can re-run either half without hammering anyone's API.
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// You can bind cobra and viper in a few locations, but PersistentPreRunE on the root command works well
		if err := initializeConfig(cmd); err != nil {
			return fmt.Errorf("nuclino-to-notion: failed to initialise config: %w", err)
		}
		return nil
	},
}

func init() {
	// Define cobra flags, the default value has the lowest (least significant) precedence
	rootCmd.PersistentFlags().StringVar(&Config, "config", "", "config file location (default: ~/.config/nuclino-to-notion.yaml, respects NUCLINO_TO_NOTION_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "display debug output")
	rootCmd.PersistentFlags().StringVar(&LocalStore, "store", "", "location to cache Nuclino data")
	rootCmd.PersistentFlags().StringVar(&NuclinoWait, "nuclino-wait", "", "pause between Nuclino requests, e.g. 750ms")
	rootCmd.PersistentFlags().StringVar(&NotionWait, "notion-wait", "", "pause between Notion requests, e.g. 200ms")
}

func initializeConfig(cmd *cobra.Command) error {
	if Config == "" {
		// Did the user provide an ENV?
		envConfig := os.Getenv("NUCLINO_TO_NOTION_CONFIG")
		if envConfig != "" {
			Config = envConfig
		} else {
			// As fallback, search for config in home XDG-ish directory
			Config = "~/.config/nuclino-to-notion.yaml"
		}
	}
	config, err := homedir.Expand(Config)
	if err != nil {
		return fmt.Errorf("nuclino-to-notion: unable to expand homedir: %w", err)
	}
	ConfigActual = config

	// A missing config file is fine; everything can come from flags.
	if _, err := os.Stat(ConfigActual); errors.Is(err, os.ErrNotExist) {
		debugLog("no config file at %s, using flags only\n", ConfigActual)
		return nil
	}

	yamlFile, err := os.ReadFile(ConfigActual)
	if err != nil {
		return fmt.Errorf("nuclino-to-notion: error reading config file: %w", err)
	}

	// I'd like to bark if a user sets a flag we don't recognise:
	if err := yaml.UnmarshalStrict(yamlFile, &ParsedConfig); err != nil {
		return fmt.Errorf("nuclino-to-notion: issue parsing config file: %w", err)
	}

	if err := bindFlags(cmd, ParsedConfig); err != nil {
		return fmt.Errorf("nuclino-to-notion: failed to bind flags: %w", err)
	}

	return nil
}

type YamlConfig struct {
	AlwaysDownload *bool `yaml:"always-download"`
	WithVCR        *bool `yaml:"with-vcr"`
	NoPrompt       *bool `yaml:"no-prompt"`

	StorePath    string `yaml:"store"`
	NuclinoWait  string `yaml:"nuclino-wait"`
	NotionWait   string `yaml:"notion-wait"`
	NotionParent string `yaml:"notion-parent"`
	EnvFile      string `yaml:"env-file"`
}

// Bind each cobra flag to its associated config-file key.
func bindFlags(cmd *cobra.Command, v YamlConfig) error {
	for _, field := range structs.Fields(v) {
		key := field.Tag("yaml")
		if key == "" {
			return fmt.Errorf("nuclino-to-notion: could not retrieve struct tag 'yaml'")
		}
		if flag := cmd.Flag(key); flag == nil {
			// hmm... the flag is unknown.  but that can legitimately happen if you're running
			// e.g. `list workspaces` which has no `notion-parent` flag but your YAML file does
			// define that flag...
			continue
		}
		if !cmd.Flags().Changed(key) {
			switch field.Kind() {
			case reflect.Ptr:
				// err, this is crappy, but i know YamlConfig only uses pointers for bools.....
				b, ok := field.Value().(*bool)
				if !ok {
					return fmt.Errorf("nuclino-to-notion: found unrecognised field: %+v", field)
				}
				if b != nil {
					cmd.Flags().Set(key, fmt.Sprintf("%v", *b))
				}

			case reflect.String:
				s, ok := field.Value().(string)
				if !ok {
					return fmt.Errorf("nuclino-to-notion: found unrecognised field: %+v", field)
				}
				if s != "" {
					cmd.Flags().Set(key, s)
				}

			case reflect.Slice:
				ss, ok := field.Value().([]string)
				if !ok {
					return fmt.Errorf("nuclino-to-notion: found unrecognised field: %+v", field)
				}
				for _, s := range ss {
					// yes, repeatedly calling Set() appends to the slice...
					cmd.Flags().Set(key, s)
				}

			default:
				return fmt.Errorf("nuclino-to-notion: found unrecognised field: %+v", field)
			}
		}
	}

	return nil
}

// Credentials come from the environment, optionally seeded from a .env file.
// Both keys are optional here; each client barks if its own key is missing.
type Credentials struct {
	NuclinoAPIKey string `envconfig:"NUCLINO_API_KEY"`
	NotionAPIKey  string `envconfig:"NOTION_API_KEY"`
}

func loadCredentials() (Credentials, error) {
	envFile := ParsedConfig.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	expanded, err := homedir.Expand(envFile)
	if err != nil {
		return Credentials{}, fmt.Errorf("nuclino-to-notion: unable to expand homedir: %w", err)
	}
	if err := godotenv.Load(expanded); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Credentials{}, fmt.Errorf("nuclino-to-notion: couldn't load env file %s: %w", expanded, err)
	}

	var creds Credentials
	if err := envconfig.Process("", &creds); err != nil {
		return Credentials{}, fmt.Errorf("nuclino-to-notion: couldn't read credentials from environment: %w", err)
	}
	return creds, nil
}

func paceFromFlag(value string, fallback time.Duration) (pacing.Strategy, error) {
	if value == "" {
		return pacing.NewFixedInterval(fallback), nil
	}
	wait, err := time.ParseDuration(value)
	if err != nil {
		return nil, fmt.Errorf("nuclino-to-notion: couldn't parse wait duration '%s': %w", value, err)
	}
	if wait <= 0 {
		return pacing.None{}, nil
	}
	return pacing.NewFixedInterval(wait), nil
}

func newNuclinoAPI() (*nuclino.API, error) {
	creds, err := loadCredentials()
	if err != nil {
		return nil, err
	}
	pace, err := paceFromFlag(NuclinoWait, nuclino.DefaultWait)
	if err != nil {
		return nil, err
	}
	return nuclino.NewAPI(creds.NuclinoAPIKey, pace)
}

func newNotionAPI() (*notion.API, error) {
	creds, err := loadCredentials()
	if err != nil {
		return nil, err
	}
	pace, err := paceFromFlag(NotionWait, notion.DefaultWait)
	if err != nil {
		return nil, err
	}
	return notion.NewAPI(creds.NotionAPIKey, pace)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Flags are only available after (or inside, presumably) the .Execute() thing.
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("nuclino-to-notion: execution error: %w", err)
	}

	return nil
}
