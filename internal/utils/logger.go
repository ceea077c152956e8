package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v2"
)

const buildInfoPrefix = "build."

// LoggerConfig controls the process-wide slog logger.
type LoggerConfig struct {
	Level           string `yaml:"level"`
	IncludeSrc      bool   `yaml:"include_src"`
	LogToFile       bool   `yaml:"log_to_file"`
	Filename        string `yaml:"filename"`
	MaxSize         int    `yaml:"max_size"` // megabytes
	MaxAge          int    `yaml:"max_age"`  // days
	MaxBackups      int    `yaml:"max_backups"`
	CompressOldLogs bool   `yaml:"compress_old_logs"`
	BuildInfoFile   string `yaml:"build_info_file"`
}

// InitLogger builds a JSON slog logger from cfg, installs it as the default
// and returns it. When cfg.LogToFile is set, records go to stdout and to a
// rotating file.
func InitLogger(cfg LoggerConfig) *slog.Logger {
	return initLogger(cfg, os.Stdout)
}

func initLogger(cfg LoggerConfig, stdout io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     logLevelFromString(cfg.Level),
		AddSource: cfg.IncludeSrc,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if source, _ := a.Value.Any().(*slog.Source); source != nil {
					source.File = filepath.Base(source.File)
					source.Function = strings.TrimPrefix(source.Function, "github.com/coffee-research/coffee/")
				}
			}
			return a
		},
	}

	w := stdout
	if cfg.LogToFile && cfg.Filename != "" {
		w = io.MultiWriter(stdout, &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxAge:     cfg.MaxAge,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.CompressOldLogs,
		})
	}
	logger := slog.New(slog.NewJSONHandler(w, opts))

	if cfg.BuildInfoFile != "" {
		attrs, err := loadBuildInfo(cfg.BuildInfoFile)
		if err != nil {
			logger.Warn("build info unavailable", slog.String("error", err.Error()))
		} else {
			logger = logger.With(attrs...)
		}
	}

	slog.SetDefault(logger)
	return logger
}

func logLevelFromString(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadBuildInfo reads a flat YAML map (version, commit, ...) and returns it as
// "build."-prefixed logger attributes.
func loadBuildInfo(filename string) ([]any, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	info := map[string]string{}
	if err := yaml.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	attrs := make([]any, 0, len(info))
	for k, v := range info {
		attrs = append(attrs, slog.String(buildInfoPrefix+k, v))
	}
	return attrs, nil
}
