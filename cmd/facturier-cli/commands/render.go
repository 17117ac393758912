package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/facturier/facturier/cmd/facturier-cli/ui"
	"github.com/facturier/facturier/internal/config"
	"github.com/facturier/facturier/internal/extract"
	"github.com/facturier/facturier/internal/render"
)

var (
	renderInputPath  string
	renderOutputPath string
	renderLogoPath   string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a document file to a printable PDF",
	Long:  "Render a YAML or JSON invoice or estimate document to PDF without the HTTP API.",
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderInputPath, "input", "i", "", "Path to document file, YAML or JSON (required)")
	renderCmd.Flags().StringVarP(&renderOutputPath, "output", "o", "", "Output path for the PDF (default: input path with .pdf)")
	renderCmd.Flags().StringVar(&renderLogoPath, "logo", "", "Logo image drawn on the document")
	renderCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(renderCmd)
}

// documentFile is the on-disk document shape, the same fields the HTTP
// API accepts when creating an invoice plus an optional number.
type documentFile struct {
	Mode        string             `yaml:"mode" json:"mode"`
	Language    string             `yaml:"language" json:"language"`
	Number      string             `yaml:"number" json:"number"`
	Date        string             `yaml:"date" json:"date"`
	DocTitle    string             `yaml:"doc_title" json:"doc_title"`
	FromAddress []string           `yaml:"from_address" json:"from_address"`
	ToAddress   []string           `yaml:"to_address" json:"to_address"`
	Items       []extract.LineItem `yaml:"items" json:"items"`
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ui.InitUI(noColor, verbose)
	defer ui.Close()

	ui.Section("Document Rendering")

	doc, err := loadDocument(renderInputPath, cfg.Render)
	if err != nil {
		return err
	}

	logo := renderLogoPath
	if logo == "" {
		logo = cfg.Render.LogoPath
	}
	if logo != "" {
		ui.Verbose("Logo: %s", logo)
	}

	if renderOutputPath == "" {
		renderOutputPath = strings.TrimSuffix(renderInputPath, filepath.Ext(renderInputPath)) + ".pdf"
	}

	ui.Info("Document: %s", renderInputPath)
	ui.Info("Output: %s", renderOutputPath)
	ui.Newline()

	spinner := ui.NewSpinner("Rendering PDF...")
	spinner.Start()
	pdfBytes, err := render.NewRenderer(logo).Render(doc)
	spinner.Stop()

	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if err := os.WriteFile(renderOutputPath, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}

	ui.Success("Rendering completed successfully!")
	ui.Newline()
	ui.Table([]string{"Field", "Value"}, [][]string{
		{"Mode", string(doc.Mode)},
		{"Language", string(doc.Language)},
		{"Number", doc.Number},
		{"Date", doc.Date},
		{"Items", strconv.Itoa(len(doc.Items))},
		{"Total", fmt.Sprintf("%.2f", doc.Total)},
		{"Size", ui.FormatBytes(int64(len(pdfBytes)))},
	})

	return nil
}

// loadDocument reads and normalizes a document file. Mode, language,
// date and number receive the same defaults the HTTP API applies, the
// issuer block falls back to the configured default when the file omits
// it, and the total is always recomputed from the items.
func loadDocument(path string, rc config.RenderConfig) (render.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return render.Document{}, fmt.Errorf("read document: %w", err)
	}

	var file documentFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &file)
	default:
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return render.Document{}, fmt.Errorf("parse document: %w", err)
	}

	if file.Mode == "" {
		file.Mode = string(extract.ModeInvoice)
	}
	if file.Mode != string(extract.ModeInvoice) && file.Mode != string(extract.ModeEstimate) {
		return render.Document{}, fmt.Errorf("mode must be invoice or estimate, got %q", file.Mode)
	}

	if file.Language == "" {
		file.Language = string(extract.LangEN)
	}
	if file.Language != string(extract.LangEN) && file.Language != string(extract.LangFR) {
		return render.Document{}, fmt.Errorf("language must be en or fr, got %q", file.Language)
	}

	if len(file.Items) == 0 {
		return render.Document{}, fmt.Errorf("document has no items")
	}
	for i, item := range file.Items {
		if item.Quantity <= 0 {
			return render.Document{}, fmt.Errorf("item %d: quantity must be positive", i+1)
		}
		if item.Price < 0 {
			return render.Document{}, fmt.Errorf("item %d: price must not be negative", i+1)
		}
	}

	now := time.Now().UTC()
	if file.Date == "" {
		file.Date = now.Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", file.Date); err != nil {
		return render.Document{}, fmt.Errorf("date must be formatted YYYY-MM-DD, got %q", file.Date)
	}
	if file.Number == "" {
		file.Number = now.Format("20060102-150405")
	}

	from := file.FromAddress
	if len(from) == 0 {
		from = issuerBlock(rc)
	}

	return render.Document{
		Mode:        extract.Mode(file.Mode),
		Language:    extract.Language(file.Language),
		Number:      file.Number,
		Date:        file.Date,
		DocTitle:    file.DocTitle,
		FromAddress: from,
		ToAddress:   file.ToAddress,
		Items:       file.Items,
		Total:       documentTotal(file.Items),
	}, nil
}

// issuerBlock builds the default issuer address from config, company
// name first.
func issuerBlock(rc config.RenderConfig) []string {
	var lines []string
	if rc.CompanyName != "" {
		lines = append(lines, rc.CompanyName)
	}
	return append(lines, rc.FromAddress...)
}

// documentTotal sums quantity times unit price over all items, rounded
// to two decimal places.
func documentTotal(items []extract.LineItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	f, _ := total.Round(2).Float64()
	return f
}
