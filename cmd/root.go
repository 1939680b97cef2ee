package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/linter"
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/presets"
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/prompt"
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/transform"
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/writeback"
)

type options struct {
	presetsFile        string
	templateFile       string
	indent             int
	clean              int
	noSchemaValidation bool
	force              bool
	nonInteractive     bool
	warnThreshold      int
	verbose            int
	stdout             bool
	backupSuffix       string
	noBackup           bool
}

func defaultOptions() options {
	return options{
		presetsFile:   "CMakePresets.json",
		indent:        4,
		warnThreshold: 150,
		backupSuffix:  writeback.DefaultBackupSuffix,
	}
}

var flags = defaultOptions()

// errCancelled is returned when the user declines a confirmation.
var errCancelled = errors.New("operation cancelled")

// openDir returns the filesystem rooted at dir.
var openDir = func(dir string) billy.Filesystem {
	return osfs.New(dir)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.presetsFile, "presets-file", flags.presetsFile, "The CMakePresets.json file to generate")
	pf.StringVarP(&flags.templateFile, "template-file", "t", "", "A JSON or YAML template used instead of the presets file when it exists")
	pf.IntVar(&flags.indent, "indent", flags.indent, "Indentation of the written JSON")
	pf.CountVarP(&flags.verbose, "verbose", "v", "Log more (-v debug, -vv trace)")
	pf.BoolVar(&flags.stdout, "stdout", false, "Print the result instead of writing the presets file")

	f := rootCmd.Flags()
	f.CountVar(&flags.clean, "clean", "Remove generated presets that are no longer produced (repeat to remove all generated presets first)")
	f.BoolVar(&flags.noSchemaValidation, "no-schema-validation", false, "Skip structural validation of the input and the result")
	f.BoolVarP(&flags.force, "force", "f", false, "Answer every confirmation with its default")
	f.BoolVar(&flags.nonInteractive, "non-interactive", false, "Never prompt; answer every confirmation with its default")
	f.IntVar(&flags.warnThreshold, "warn-threshold", flags.warnThreshold, "Number of presets in a group that triggers a confirmation")
	f.StringVar(&flags.backupSuffix, "backup-file-suffix", flags.backupSuffix, "Suffix of backup files")
	f.BoolVarP(&flags.noBackup, "no-backup", "n", false, "Do not back up the presets file before overwriting it")
}

var rootCmd = &cobra.Command{
	Use:   "tcpm",
	Short: "Generate matrices of CMake presets from the vendor section of CMakePresets.json",
	Long: `tcpm expands the vendor.tcpm section of a CMakePresets.json document into
named, inheriting presets: one hidden base preset per parameter value and one
visible preset per combination of parameters. String values may embed pQuery
statements such as $('#preset-name cacheVariables FOO').text().`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd.ErrOrStderr())
		ask := prompt.New(cmd.InOrStdin(), cmd.ErrOrStderr(),
			prompt.WithForce(flags.force),
			prompt.WithNonInteractive(flags.nonInteractive))

		doc, err := loadSource(log)
		if err != nil {
			return err
		}
		if err := lint(log, "input", doc, linter.WithReferenceSeverity(linter.Warning)); err != nil {
			return err
		}

		meta, err := presets.FromDocument(doc)
		if err != nil {
			return err
		}
		skipped, err := transform.InPlace(meta, transform.Options{Clean: flags.clean, Log: log})
		if err != nil {
			return err
		}
		if err := lint(log, "result", doc); err != nil {
			return err
		}

		for _, group := range presets.GroupNames {
			records := meta.Records(group)
			if contains(skipped, group) || records == nil || records.Len() <= flags.warnThreshold {
				continue
			}
			key := presets.CollectionKey(group)
			log.Warn().Str("group", key).Int("count", records.Len()).Int("threshold", flags.warnThreshold).Msg("large preset group")
			q := fmt.Sprintf("Warning: %s contains %d presets (--warn-threshold). Continue? (y/n): ", key, records.Len())
			if !ask.Confirm(q).Proceed() {
				return errCancelled
			}
		}

		if flags.stdout {
			return printDocument(cmd.OutOrStdout(), doc)
		}
		return write(log, ask, doc)
	},
}

func write(log zerolog.Logger, ask *prompt.Prompter, doc *document.Map) error {
	fs, name, err := presetsFS()
	if err != nil {
		return err
	}
	opts := []writeback.Option{writeback.WithBackupSuffix(flags.backupSuffix)}
	if flags.noBackup {
		opts = append(opts, writeback.WithoutBackup())
	}
	w := writeback.NewWriter(fs, name, doc, flags.indent, opts...)

	overwrite, err := w.WillOverwrite()
	if err != nil {
		return err
	}
	if overwrite && !flags.force {
		q := fmt.Sprintf("%s already exists. Overwrite? (y/n): ", flags.presetsFile)
		if !ask.Confirm(q).Proceed() {
			return errCancelled
		}
	}
	existed := writeback.Exists(fs, name)
	backup, err := w.Swap()
	if err != nil {
		return err
	}
	switch {
	case backup != "":
		log.Info().Str("file", flags.presetsFile).Str("backup", backup).Msg("wrote presets")
	case overwrite || !existed:
		log.Info().Str("file", flags.presetsFile).Msg("wrote presets")
	default:
		log.Info().Str("file", flags.presetsFile).Msg("presets unchanged")
	}
	return nil
}

// presetsFS opens the directory of the presets file and returns the file's
// name within it.
func presetsFS() (billy.Filesystem, string, error) {
	abs, err := filepath.Abs(flags.presetsFile)
	if err != nil {
		return nil, "", fmt.Errorf("resolve %s: %w", flags.presetsFile, err)
	}
	return openDir(filepath.Dir(abs)), filepath.Base(abs), nil
}

// loadSource reads the template file when one is given and exists,
// otherwise the presets file.
func loadSource(log zerolog.Logger) (*document.Map, error) {
	path := flags.presetsFile
	if flags.templateFile != "" {
		abs, err := filepath.Abs(flags.templateFile)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", flags.templateFile, err)
		}
		if writeback.Exists(openDir(filepath.Dir(abs)), filepath.Base(abs)) {
			path = flags.templateFile
		} else {
			log.Warn().Str("template", flags.templateFile).Msg("template file not found, using the presets file")
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	log.Debug().Str("file", path).Msg("loading")
	return writeback.Load(openDir(filepath.Dir(abs)), filepath.Base(abs))
}

func lint(log zerolog.Logger, stage string, doc *document.Map, opts ...linter.Option) error {
	if flags.noSchemaValidation {
		log.Debug().Str("stage", stage).Msg("skipping schema validation (--no-schema-validation)")
		return nil
	}
	failed := false
	for _, d := range linter.Lint(doc, opts...) {
		ev := log.Warn()
		if d.Severity == linter.Error {
			ev = log.Error()
			failed = true
		}
		ev.Str("stage", stage).Str("locator", d.Locator.String()).Msg(d.Message)
	}
	if failed {
		return fmt.Errorf("%s failed validation (use --no-schema-validation to skip)", stage)
	}
	return nil
}

func printDocument(w io.Writer, doc document.Value) error {
	_, err := w.Write(append(document.Encode(doc, flags.indent), '\n'))
	return err
}

func newLogger(w io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case flags.stdout:
		level = zerolog.ErrorLevel
	case flags.verbose >= 2:
		level = zerolog.TraceLevel
	case flags.verbose == 1:
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
