package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"cushionflow/internal/app"
	"cushionflow/internal/config"
	"cushionflow/internal/cushion"
	"cushionflow/internal/model"

	"github.com/spf13/cobra"
)

var (
	messageFlag string
	styleFlag   string
	contextFlag string
	imageFlag   string
	mimeFlag    string
	modelFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "cushionflow",
	Short: "Soften workplace messages with Gemini",
	Long: `CushionFlow rewrites a blunt workplace message into a polite one tuned to the
recipient's personality style and the situation.

Configuration comes from the same environment variables as the API server;
GEMINI_API_KEY must be set for rewrite.

Examples:
  cushionflow rewrite --message "왜 아직 안 하셨나요?" --style INFP --context "휴가 중 보고"
  cushionflow rewrite --image ./chat.png --style ESTJ
  cushionflow options`,
	SilenceUsage: true,
}

var rewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "Rewrite one message and print the result as JSON",
	Args:  cobra.NoArgs,
	RunE:  runRewrite,
}

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the recipient styles and situation contexts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printJSON(cmd.OutOrStdout(), model.OptionsResponse{
			RecipientStyles:         cushion.RecipientStyles,
			SituationContexts:       cushion.SituationContexts,
			DefaultRecipientStyle:   cushion.DefaultRecipientStyle,
			DefaultSituationContext: cushion.DefaultSituationContext,
		})
	},
}

func init() {
	rewriteCmd.Flags().StringVarP(&messageFlag, "message", "m", "", "Message to soften")
	rewriteCmd.Flags().StringVarP(&styleFlag, "style", "s", cushion.DefaultRecipientStyle, "Recipient personality style (MBTI code)")
	rewriteCmd.Flags().StringVarP(&contextFlag, "context", "c", cushion.DefaultSituationContext, "Situation context")
	rewriteCmd.Flags().StringVarP(&imageFlag, "image", "i", "", "Screenshot of the message to soften")
	rewriteCmd.Flags().StringVar(&mimeFlag, "mime", "", "Media type of --image (detected from the file when empty)")
	rewriteCmd.Flags().StringVar(&modelFlag, "model", "", "Gemini model (overrides GEMINI_MODEL)")

	rootCmd.AddCommand(rewriteCmd, optionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runRewrite(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if m := strings.TrimSpace(modelFlag); m != "" {
		cfg.GeminiModel = m
	}

	in := cushion.RawInput{
		OriginalMessage:  messageFlag,
		RecipientStyle:   styleFlag,
		SituationContext: contextFlag,
	}
	if imageFlag != "" {
		data, mimeType, err := readImage(imageFlag, mimeFlag)
		if err != nil {
			return err
		}
		in.ImageBase64 = base64.StdEncoding.EncodeToString(data)
		in.ImageMIMEType = mimeType
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := app.NewLogger(cfg.LogLevel, cmd.ErrOrStderr())
	comps, err := app.Build(ctx, cfg, app.NewHTTPClient(cfg.RequestTimeout), logger, nil)
	if err != nil {
		return err
	}

	out, err := comps.Pipeline.Run(ctx, in)
	if err != nil {
		return describeFailure(err)
	}

	return printJSON(cmd.OutOrStdout(), model.CushionResponse{
		Score:             out.Result.Score,
		Suggestion:        out.Result.Suggestion,
		KoreanTranslation: out.Result.KoreanTranslation,
		Insights:          out.Result.Insights,
	})
}

func readImage(path, mimeType string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
		if i := strings.IndexByte(mimeType, ';'); i >= 0 {
			mimeType = mimeType[:i]
		}
	}
	return data, mimeType, nil
}

func describeFailure(err error) error {
	switch cushion.KindOf(err) {
	case cushion.KindConfiguration:
		return fmt.Errorf("GEMINI_API_KEY is not set: %w", err)
	case cushion.KindValidation:
		if cushion.ReasonOf(err) == cushion.ReasonEmptyInput {
			return fmt.Errorf("nothing to rewrite, pass --message or --image: %w", err)
		}
		return err
	default:
		return err
	}
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
