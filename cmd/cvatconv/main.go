// Converts YOLO bounding box, YOLO segmentation and color mask datasets into task backup
// archives for the CVAT annotation platform.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/sensorable/cvatconv"
)

// Environment variables supplying flag defaults. They may also be set in a .env file.
const (
	envConfig   = "CVATCONV_CONFIG"
	envLogLevel = "CVATCONV_LOG_LEVEL"
	envLogFile  = "CVATCONV_LOG_FILE"
)

var (
	configPath string // The YAML configuration file.

	format       string // Overrides the converter of the configuration.
	inputDir     string // Overrides the input directory.
	output       string // Overrides the archive path.
	stagingDir   string // Overrides the staging directory.
	taskName     string // Overrides the task name.
	imageQuality int    // Overrides the image quality, if > 0.

	logLevel string // The logrus level name.
	logFile  string // Optional rotating log file.
)

func init() {
	// Missing .env files are fine, the environment may be set up otherwise.
	envErr := godotenv.Load()
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, "Failed to load .env:", envErr)
	}

	formatNames := make([]string, len(cvatconv.Formats))
	for i, f := range cvatconv.Formats {
		formatNames[i] = string(f)
	}

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", filepath.Base(os.Args[0]))
		_, _ = fmt.Fprintln(os.Stderr, "  yolo-bbox, yolo-segm input:\t-input <dir with *.txt and images>")
		_, _ = fmt.Fprintln(os.Stderr, "  mask input:\t\t\t-input <dir with masks/ and images/>")
		_, _ = fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}

	flag.StringVar(&configPath, "config", os.Getenv(envConfig),
		"The configuration file `path` (YAML or JSON) with the class map and run parameters")
	flag.StringVar(&format, "format", format,
		"The source `format` {"+strings.Join(formatNames, ", ")+"}")
	flag.StringVar(&inputDir, "input", inputDir, "The dataset input directory `path`")
	flag.StringVar(&output, "output", output, "The backup archive `path`")
	flag.StringVar(&stagingDir, "staging-dir", stagingDir,
		"The staging directory `path`; deleted before and after each run")
	flag.StringVar(&taskName, "task-name", taskName, "The task `name`")
	flag.IntVar(&imageQuality, "image-quality", imageQuality, "The task image quality [1, 100]")

	flag.StringVar(&logLevel, "log-level", envOr(envLogLevel, "info"),
		"The log `level` {debug, info, warning, error}")
	flag.StringVar(&logFile, "log-file", os.Getenv(envLogFile),
		"Also write logs to this rotating log file `path`")

	flag.Parse()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	log, err := newLogger(logLevel, logFile)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Error(err)
		flag.Usage()
		os.Exit(1)
	}

	res, err := cvatconv.Convert(cfg, log)
	if err != nil {
		log.Fatal("Conversion failed: ", err)
	}

	log.Printf("Successfully wrote %d images and %d shapes to %s (%d pairs skipped)",
		res.Images, res.Shapes, res.Archive, res.Skipped)
}

// loadConfig reads the configuration file, if any, and applies the flag overrides and defaults.
func loadConfig() (cvatconv.Config, error) {
	var cfg cvatconv.Config
	if configPath != "" {
		var err error
		if cfg, err = cvatconv.LoadConfig(filepath.Clean(configPath)); err != nil {
			return cfg, err
		}
	}

	if format != "" {
		cfg.Format = cvatconv.Format(format)
	}
	if inputDir != "" {
		cfg.InputDir = inputDir
	}
	if output != "" {
		cfg.Output = output
	}
	if stagingDir != "" {
		cfg.StagingDir = stagingDir
	}
	if taskName != "" {
		cfg.TaskName = taskName
	}
	if imageQuality > 0 {
		cfg.ImageQuality = imageQuality
	}
	cfg = cfg.WithDefaults()

	// Clean path arguments.
	if cfg.InputDir != "" {
		cfg.InputDir = filepath.Clean(cfg.InputDir)
	}
	cfg.Output = filepath.Clean(cfg.Output)
	cfg.StagingDir = filepath.Clean(cfg.StagingDir)

	if len(cfg.Classes) == 0 {
		return cfg, fmt.Errorf("missing class map, pass -config")
	}

	return cfg, nil
}
