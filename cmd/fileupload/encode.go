package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fileupload/internal/errors"
	"github.com/vango-dev/fileupload/pkg/toast"
	"github.com/vango-dev/fileupload/pkg/widget"
)

func encodeCmd() *cobra.Command {
	var (
		filetypes []string
		maxSize   int64
		multiple  bool
		workers   int
	)

	cmd := &cobra.Command{
		Use:   "encode [flags] <file>...",
		Short: "Validate and encode local files like the widget does",
		Long: `Offer local files to a widget and print the committed value.

The value is written to stdout as JSON: [["name","base64"], ...].
Notifications go to stderr. The command fails when any file is rejected
or encoding fails; accepted files are still printed after a rejection.

Examples:
  fileupload encode --filetypes .png,.csv --max-size 1000 --multiple photo.png sheet.xls
  fileupload encode report.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := widget.Config{
				Filetypes: filetypes,
				Multiple:  multiple,
				Kind:      widget.KindButton,
				MaxSize:   maxSize,
			}
			return runEncode(cmd.Context(), cfg, workers, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringSliceVar(&filetypes, "filetypes", nil, "Accepted extensions, e.g. .png,.csv (default: any)")
	cmd.Flags().Int64Var(&maxSize, "max-size", widget.DefaultMaxSize, "Maximum file size in bytes")
	cmd.Flags().BoolVar(&multiple, "multiple", false, "Accept more than one file")
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel encodes (0: GOMAXPROCS)")

	return cmd
}

func runEncode(ctx context.Context, cfg widget.Config, workers int, paths []string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(paths) == 0 {
		return errors.New("E140").WithSuggestion("Pass one or more file paths")
	}
	if cfg.Filetypes == nil {
		cfg.Filetypes = []string{}
	}
	if err := cfg.Validate(); err != nil {
		return errors.New("E102").WithDetail(err.Error()).Wrap(err)
	}

	files := make([]widget.OfferedFile, len(paths))
	for i, p := range paths {
		f, err := widget.FromPath(p)
		if err != nil {
			return errors.Newf(errors.CategoryCLI, "cannot offer %s", p).Wrap(err)
		}
		files[i] = f
	}

	var committed widget.Value
	opts := []widget.Option{
		widget.WithNotifier(stderrNotifier(stderr)),
		widget.WithCommit(func(v widget.Value) { committed = v }),
		widget.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	if workers > 0 {
		opts = append(opts, widget.WithMaxWorkers(workers))
	}
	ctrl := widget.New(cfg, opts...)

	result, err := ctrl.Offer(ctx, files)
	if err != nil {
		return errors.FromError(err, "E142")
	}

	if result.Committed {
		data, err := json.Marshal(committed)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(data))
	}

	if len(result.Rejections) > 0 {
		lines := make([]string, len(result.Rejections))
		for i, r := range result.Rejections {
			lines[i] = r.Error()
		}
		return errors.New("E141").
			WithDetail(fmt.Sprintf("%d of %d files rejected", len(result.Rejections), len(files))).
			WithSuggestion("Check --filetypes, --max-size and --multiple").
			Wrap(fmt.Errorf("%s", strings.Join(lines, "\n")))
	}
	return nil
}

// stderrNotifier prints notifications as a title followed by indented lines.
func stderrNotifier(w io.Writer) toast.Notifier {
	return toast.NotifierFunc(func(n toast.Notification) {
		if n.Title != "" {
			fmt.Fprintf(w, "%s:\n", n.Title)
		}
		for _, line := range strings.Split(n.Description, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	})
}
