package main

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pdptracker/internal/assistant"
)

var (
	analyzeServer string
	analyzeText   string
	analyzeImage  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Send text or a screenshot to a running server's assistant",
	Example: `  pdptracker-admin analyze --text "Espinosa 120, Chema 98"
  pdptracker-admin analyze --image captura.png --server http://localhost:8081`,
	Args: cobra.NoArgs,
	// The assistant runs in the server; no backend or config is needed here.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		var dataURI string
		if analyzeImage != "" {
			uri, err := imageDataURI(analyzeImage)
			if err != nil {
				return err
			}
			dataURI = uri
		}
		if strings.TrimSpace(analyzeText) == "" && dataURI == "" {
			return fmt.Errorf("--text or --image is required")
		}

		ctx, cancel := commandContext()
		defer cancel()

		out, err := assistant.NewClient(analyzeServer, nil).Analyze(ctx, analyzeText, dataURI)
		fmt.Fprintln(cmd.OutOrStdout(), assistant.Display(out, err))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeServer, "server", "http://localhost:8081", "Server base URL")
	analyzeCmd.Flags().StringVar(&analyzeText, "text", "", "Text to analyze")
	analyzeCmd.Flags().StringVar(&analyzeImage, "image", "", "Path to a screenshot")
}

// imageDataURI encodes the file at path as a base64 data URI.
func imageDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	mediaType := http.DetectContentType(data)
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%s is not an image (%s)", path, mediaType)
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
