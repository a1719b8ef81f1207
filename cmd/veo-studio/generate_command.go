package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"github.com/shouni/gemini-video-kit/internal/config"
	"github.com/shouni/gemini-video-kit/pkg/adapters"
	"github.com/shouni/gemini-video-kit/pkg/domain"
	"github.com/shouni/gemini-video-kit/pkg/generator"
	"github.com/shouni/gemini-video-kit/pkg/ui"
	"github.com/shouni/gemini-video-kit/pkg/utils"
)

type generateOptions struct {
	prompt      string
	imagePath   string
	aspectRatio string
	resolution  string
	outputDir   string
	model       string
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Submit a prompt to Veo, wait for the video, and save it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && opts.prompt == "" {
				opts.prompt = args[0]
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runGenerate(cmd.Context(), ctx, cfg, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "Text prompt describing the video")
	cmd.Flags().StringVarP(&opts.imagePath, "image", "i", "", "Reference image used as the first frame")
	cmd.Flags().StringVar(&opts.aspectRatio, "aspect-ratio", "", "Aspect ratio (16:9 or 9:16)")
	cmd.Flags().StringVar(&opts.resolution, "resolution", "", "Resolution (720p or 1080p)")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Directory the video is saved to")
	cmd.Flags().StringVar(&opts.model, "model", "", "Veo model name")

	return cmd
}

func runGenerate(ctx context.Context, cmdCtx *commandContext, cfg *config.Config, opts generateOptions, stdout, stderr io.Writer) error {
	logger := cmdCtx.newLogger(stderr)
	interactive := isTerminal(os.Stdin) && isTerminal(stderr)

	req, err := buildRequest(cfg, opts)
	if err != nil {
		return err
	}

	// キーの有無は起動時に一度だけ確認し、なければ選択フローを開く
	creds := adapters.NewTerminalCredentialStore(cfg.APIKey, os.Stdin, stderr)
	if !hasKey(ctx, logger, creds) {
		if !interactive {
			return fmt.Errorf("%w: set GEMINI_API_KEY or api_key in %s", domain.ErrCredentialMissing, cmdCtx.configPath)
		}
		if err := creds.SelectKey(ctx); err != nil {
			return err
		}
	}

	if opts.imagePath != "" {
		selection, err := loadReference(ctx, opts.imagePath, stderr)
		if err != nil {
			return err
		}
		defer releaseReference(logger, selection)
		req.Image = selection.Image()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  creds.Key(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("Gemini クライアントの初期化に失敗しました: %w", err)
	}

	model := cfg.Model
	if opts.model != "" {
		model = opts.model
	}
	service, err := adapters.NewVeoService(client, model)
	if err != nil {
		return err
	}
	fetcher, err := adapters.NewHTTPMediaFetcher(httpkit.New(cfg.HTTPTimeout()))
	if err != nil {
		return err
	}

	controller, err := generator.NewController(service, fetcher, creds,
		generator.WithPollInterval(cfg.PollInterval()),
		generator.WithMaxPollAttempts(cfg.MaxPollAttempts),
		generator.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	if _, err := controller.RefreshCredential(ctx); err != nil {
		return err
	}

	if interactive {
		rotator := ui.NewMessageRotator(ui.DefaultRotationInterval, nil, func(msg string) {
			fmt.Fprintf(stderr, "\r\033[K%s", msg)
		})
		defer rotator.Close()
		controller.Observe(rotator.Observe)
	} else {
		controller.Observe(func(s domain.WorkflowState) {
			logger.Info("状態が変わりました", "state", describeState(s))
		})
	}

	st, err := controller.Submit(ctx, req)
	if interactive {
		fmt.Fprintln(stderr)
	}
	if err != nil {
		return err
	}

	switch s := st.(type) {
	case domain.Succeeded:
		dir := cfg.OutputDir
		if opts.outputDir != "" {
			dir = opts.outputDir
		}
		path, err := saveVideo(dir, s.Video, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, path)
		return nil
	case domain.Failed:
		if s.Kind == domain.ErrorKindCredentialInvalid && !controller.HasCredential() {
			return fmt.Errorf("%s (update GEMINI_API_KEY and run again)", s.Message)
		}
		if s.Kind == domain.ErrorKindCancelled {
			return context.Canceled
		}
		return errors.New(s.Message)
	}
	return fmt.Errorf("unexpected final state: %s", st.Name())
}

func buildRequest(cfg *config.Config, opts generateOptions) (domain.GenerationRequest, error) {
	arValue := cfg.AspectRatio
	if opts.aspectRatio != "" {
		arValue = opts.aspectRatio
	}
	ar, err := domain.ParseAspectRatio(arValue)
	if err != nil {
		return domain.GenerationRequest{}, err
	}

	resValue := cfg.Resolution
	if opts.resolution != "" {
		resValue = opts.resolution
	}
	res, err := domain.ParseResolution(resValue)
	if err != nil {
		return domain.GenerationRequest{}, err
	}

	req := domain.GenerationRequest{
		Prompt:      strings.TrimSpace(opts.prompt),
		AspectRatio: ar,
		Resolution:  res,
	}
	if err := req.Validate(); err != nil {
		return domain.GenerationRequest{}, err
	}
	return req, nil
}

func loadReference(ctx context.Context, path string, stderr io.Writer) (*ui.ImageSelection, error) {
	reader, closer, err := adapters.NewReferenceReader(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("参照画像の読み込み準備に失敗しました: %w", err)
	}
	defer closer.Close()

	loader, err := adapters.NewReferenceImageLoader(reader)
	if err != nil {
		return nil, err
	}
	img, err := loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	selection, err := ui.NewImageSelection(ui.TempPreviewStore{})
	if err != nil {
		return nil, err
	}
	if err := selection.Select(*img); err != nil {
		return nil, err
	}
	fmt.Fprintf(stderr, "reference image: %s (%s, preview: %s)\n", path, img.MIMEType, selection.PreviewHandle())
	return selection, nil
}

// hasKey はキーの有無を返します。確認に失敗したときはログに残し、キーなしとして扱います。
func hasKey(ctx context.Context, logger *slog.Logger, creds generator.CredentialStore) bool {
	ok, err := creds.HasSelectedKey(ctx)
	if err != nil {
		logger.WarnContext(ctx, "API キーの確認に失敗しました", "error", err)
		return false
	}
	return ok
}

func releaseReference(logger *slog.Logger, selection *ui.ImageSelection) {
	preview := selection.PreviewHandle()
	if err := selection.Remove(); err != nil {
		logger.Warn("プレビューの解放に失敗しました", "preview", preview, "error", err)
	}
}

func saveVideo(dir string, video domain.Video, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory %q: %w", dir, err)
	}
	path := filepath.Join(dir, utils.DownloadFileName(now, video.MIMEType))
	if err := os.WriteFile(path, video.Data, 0o644); err != nil {
		return "", fmt.Errorf("write video: %w", err)
	}
	return path, nil
}

func describeState(s domain.WorkflowState) string {
	switch v := s.(type) {
	case domain.Polling:
		return fmt.Sprintf("polling %s (checks: %d)", v.JobName, v.Attempts)
	case domain.Succeeded:
		return fmt.Sprintf("succeeded (%d bytes)", len(v.Video.Data))
	case domain.Failed:
		return fmt.Sprintf("failed [%s] %s", v.Kind, v.Message)
	}
	return s.Name()
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
