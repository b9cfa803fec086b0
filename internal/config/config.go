// file: internal/config/config.go
// version: 1.1.0
// guid: 9a0b1c2d-3e4f-5a6b-7c8d-9e0f1a2b3c4d

package config

import (
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	IncomingDir  string
	LibraryDir   string
	CoversDir    string
	DatabasePath string

	// Catalog settings
	PreferredLocale string

	// Tagging settings (Mp3tag Audible API web-source compatibility)
	EmbedCovers          bool
	ExcludeTranslators   bool
	OutputSingleAuthor   bool
	AddNarratorToArtist  bool
	AddSingleAlbumArtist bool
	AddSingleGenreOnly   bool
	GenreDelimiter       string
	TagBackend           string // "taglib" (default) or "ffmpeg"

	// Library settings
	IncludeSeriesInFilename  bool
	CreateAdditionalMetadata bool

	// Automation
	AutoTagEnabled bool

	// AI filename parsing fallback (auto mode only)
	AIParserEnabled bool
	OpenAIAPIKey    string

	// Self-update (serve mode)
	AutoUpdateEnabled bool
	UpdateChannel     string // "stable" or "develop"
	UpdateCheckMins   int
	UpdateWindowStart int // hour 0-23
	UpdateWindowEnd   int // hour 0-23
}

var AppConfig Config

// InitConfig initializes the application configuration from viper state.
// Defaults mirror a freshly generated config file.
func InitConfig() {
	viper.SetDefault("incoming_dir", "incoming")
	viper.SetDefault("library_dir", "library")
	viper.SetDefault("covers_dir", "covers")
	viper.SetDefault("database_path", "audiobooks.db")
	viper.SetDefault("preferred_locale", "com")
	viper.SetDefault("embed_covers", true)
	viper.SetDefault("exclude_translators", true)
	viper.SetDefault("output_single_author", false)
	viper.SetDefault("add_narrator_to_artist", false)
	viper.SetDefault("add_single_album_artist_only", true)
	viper.SetDefault("add_single_genre_only", false)
	viper.SetDefault("genre_delimiter", "/")
	viper.SetDefault("tag_backend", "taglib")
	viper.SetDefault("include_series_in_filename", true)
	viper.SetDefault("create_additional_metadata", true)
	viper.SetDefault("auto_tag_enabled", false)
	viper.SetDefault("ai_parser_enabled", false)
	viper.SetDefault("openai_api_key", "")
	viper.SetDefault("auto_update_enabled", false)
	viper.SetDefault("update_channel", "stable")
	viper.SetDefault("update_check_minutes", 360)
	viper.SetDefault("update_window_start", 2)
	viper.SetDefault("update_window_end", 5)

	AppConfig = Config{
		IncomingDir:              viper.GetString("incoming_dir"),
		LibraryDir:               viper.GetString("library_dir"),
		CoversDir:                viper.GetString("covers_dir"),
		DatabasePath:             viper.GetString("database_path"),
		PreferredLocale:          viper.GetString("preferred_locale"),
		EmbedCovers:              viper.GetBool("embed_covers"),
		ExcludeTranslators:       viper.GetBool("exclude_translators"),
		OutputSingleAuthor:       viper.GetBool("output_single_author"),
		AddNarratorToArtist:      viper.GetBool("add_narrator_to_artist"),
		AddSingleAlbumArtist:     viper.GetBool("add_single_album_artist_only"),
		AddSingleGenreOnly:       viper.GetBool("add_single_genre_only"),
		GenreDelimiter:           viper.GetString("genre_delimiter"),
		TagBackend:               viper.GetString("tag_backend"),
		IncludeSeriesInFilename:  viper.GetBool("include_series_in_filename"),
		CreateAdditionalMetadata: viper.GetBool("create_additional_metadata"),
		AutoTagEnabled:           viper.GetBool("auto_tag_enabled"),
		AIParserEnabled:          viper.GetBool("ai_parser_enabled"),
		OpenAIAPIKey:             viper.GetString("openai_api_key"),
		AutoUpdateEnabled:        viper.GetBool("auto_update_enabled"),
		UpdateChannel:            viper.GetString("update_channel"),
		UpdateCheckMins:          viper.GetInt("update_check_minutes"),
		UpdateWindowStart:        viper.GetInt("update_window_start"),
		UpdateWindowEnd:          viper.GetInt("update_window_end"),
	}

	if AppConfig.GenreDelimiter == "" {
		AppConfig.GenreDelimiter = "/"
	}
	if AppConfig.TagBackend == "" {
		AppConfig.TagBackend = "taglib"
	}
}

// Default returns a configuration with stock defaults, independent of viper
// state. Used by tests and library callers.
func Default() Config {
	return Config{
		IncomingDir:              "incoming",
		LibraryDir:               "library",
		CoversDir:                "covers",
		DatabasePath:             "audiobooks.db",
		PreferredLocale:          "com",
		EmbedCovers:              true,
		ExcludeTranslators:       true,
		OutputSingleAuthor:       false,
		AddNarratorToArtist:      false,
		AddSingleAlbumArtist:     true,
		AddSingleGenreOnly:       false,
		GenreDelimiter:           "/",
		TagBackend:               "taglib",
		IncludeSeriesInFilename:  true,
		CreateAdditionalMetadata: true,
		AutoTagEnabled:           false,
		UpdateChannel:            "stable",
		UpdateCheckMins:          360,
		UpdateWindowStart:        2,
		UpdateWindowEnd:          5,
	}
}
