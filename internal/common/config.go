package common

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cquispe/eoi-consolidator/internal/criteria"
)

// Config holds all application configuration
type Config struct {
	// InputRoot is the base path holding one directory per selection process.
	InputRoot string `json:"input_root"`

	Folders  FoldersConfig  `json:"folders"`
	PDF      PDFConfig      `json:"pdf"`
	Excel    ExcelConfig    `json:"excel"`
	Template TemplateConfig `json:"template"`
	OCR      OCRConfig      `json:"ocr"`
	LLM      LLMConfig      `json:"llm"`

	// Scorer selects the criteria evaluation backend: "rules" or "openai".
	Scorer string `json:"scorer"`

	// Criteria is the configured rule set evaluated against each candidate.
	Criteria []criteria.Rule `json:"criterios"`

	// Parallelism bounds concurrent extraction workers (writes stay serial).
	Parallelism int `json:"parallelism"`
}

// FoldersConfig names the per-process subdirectories of the input layout.
type FoldersConfig struct {
	EOIReceived string `json:"eoi_received"` // where candidate folders live
	Committee   string `json:"committee"`    // where outputs and the template live
}

// PDFConfig holds PDF classification and extraction settings.
type PDFConfig struct {
	UseOCR bool `json:"use_ocr"`
	// MinAvgCharsPerPage is the scanned-PDF threshold: below it a PDF is
	// treated as image-only.
	MinAvgCharsPerPage int `json:"min_avg_chars_per_page"`
	// EmptyPageRatio marks a PDF scanned when this share of pages is near-empty.
	EmptyPageRatio float64 `json:"empty_page_ratio"`
}

// ExcelConfig maps normalized field names to spreadsheet cell addresses and
// describes the repeatable course/experience blocks of the EOI form.
type ExcelConfig struct {
	Sheet          string            `json:"sheet"`
	Cells          map[string]string `json:"cells"`
	CourseColumn   int               `json:"course_column"`
	CourseRowFrom  int               `json:"course_row_from"`
	CourseRowTo    int               `json:"course_row_to"`
	ExperienceRows []int             `json:"experience_rows"`
}

// TemplateConfig describes the evaluation workbook's block layout.
type TemplateConfig struct {
	FilePrefix string `json:"file_prefix"`
	Sheet      string `json:"sheet"`
	HeaderRow  int    `json:"header_row"`
	StartCol   int    `json:"start_col"` // first block base column (6 = F)
	StepCols   int    `json:"step_cols"` // block width (2 = detail + score)
	MaxSlots   int    `json:"max_slots"`
	// CriterionRows maps rule ID -> row holding that criterion's cells.
	CriterionRows map[string]int `json:"criterion_rows"`
	TotalRow      int            `json:"total_row"`
	StartRow      int            `json:"start_row"` // first writable row of a block
	EndRow        int            `json:"end_row"`   // last writable row of a block
}

// OCRConfig holds external binary names and OCR behavior.
type OCRConfig struct {
	Pdftotext   string        `json:"pdftotext"`
	Pdftoppm    string        `json:"pdftoppm"`
	Tesseract   string        `json:"tesseract"`
	Lang        string        `json:"lang"`
	DPI         int           `json:"dpi"`
	MaxPages    int           `json:"max_pages"`
	TessdataDir string        `json:"tessdata_dir"`
	Timeout     time.Duration `json:"-"`
	TimeoutSec  int           `json:"timeout_sec"`
}

// LLMConfig holds settings for the OpenAI-backed scorer.
type LLMConfig struct {
	BaseURL     string        `json:"base_url"`
	Model       string        `json:"model"`
	APIKey      string        `json:"-"`
	Temperature float32       `json:"temperature"`
	Timeout     time.Duration `json:"-"`
	TimeoutSec  int           `json:"timeout_sec"`
}

// LoadConfig reads the JSON config file at path, validates it against the
// embedded schema, applies environment overrides and fills defaults.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, NewAppError(CodeConfig, fmt.Sprintf("read config %s", path), err)
	}
	if err := ValidateConfigJSON(raw); err != nil {
		return nil, NewAppError(CodeConfig, "config does not match schema", err)
	}
	cfg := &Config{}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, NewAppError(CodeConfig, "decode config", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// DefaultConfig returns a Config with all defaults applied and no criteria.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyEnv() {
	c.InputRoot = getEnv("EOI_INPUT_ROOT", c.InputRoot)
	c.OCR.Pdftotext = getEnv("PDFTOTEXT_BIN", c.OCR.Pdftotext)
	c.OCR.Pdftoppm = getEnv("PDFTOPPM_BIN", c.OCR.Pdftoppm)
	c.OCR.Tesseract = getEnv("TESSERACT_BIN", c.OCR.Tesseract)
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.Model = getEnv("OPENAI_MODEL", c.LLM.Model)
	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.Parallelism = getEnvAsInt("EOI_PARALLELISM", c.Parallelism)
}

func (c *Config) applyDefaults() {
	if c.Folders.EOIReceived == "" {
		c.Folders.EOIReceived = "009. EDI RECIBIDAS"
	}
	if c.Folders.Committee == "" {
		c.Folders.Committee = "011. INSTALACIÓN DE COMITÉ"
	}
	if c.PDF.MinAvgCharsPerPage <= 0 {
		c.PDF.MinAvgCharsPerPage = 60
	}
	if c.PDF.EmptyPageRatio <= 0 {
		c.PDF.EmptyPageRatio = 0.6
	}
	if c.Excel.CourseColumn <= 0 {
		c.Excel.CourseColumn = 6 // F
	}
	if c.Excel.CourseRowFrom <= 0 {
		c.Excel.CourseRowFrom = 55
	}
	if c.Excel.CourseRowTo <= 0 {
		c.Excel.CourseRowTo = 90
	}
	if len(c.Excel.ExperienceRows) == 0 {
		c.Excel.ExperienceRows = []int{96, 102, 108, 114, 120}
	}
	if len(c.Excel.Cells) == 0 {
		c.Excel.Cells = map[string]string{
			"ap_paterno": "C13",
			"ap_materno": "G13",
			"nombres":    "C15",
			"dni":        "H17",
			"direccion":  "C19",
			"telefono":   "C23",
			"celular":    "E23",
			"email":      "F23",
			"titulo":     "C47",
		}
	}
	if c.Template.FilePrefix == "" {
		c.Template.FilePrefix = "Cuadro_Evaluacion"
	}
	if c.Template.Sheet == "" {
		c.Template.Sheet = "Evaluación CV"
	}
	if c.Template.HeaderRow <= 0 {
		c.Template.HeaderRow = 3
	}
	if c.Template.StartCol <= 0 {
		c.Template.StartCol = 6 // F
	}
	if c.Template.StepCols <= 0 {
		c.Template.StepCols = 2
	}
	if c.Template.MaxSlots <= 0 {
		c.Template.MaxSlots = 8
	}
	if c.Template.TotalRow <= 0 {
		c.Template.TotalRow = 22
	}
	if c.Template.StartRow <= 0 {
		c.Template.StartRow = 3
	}
	if c.Template.EndRow <= 0 {
		c.Template.EndRow = 22
	}
	if c.OCR.Pdftotext == "" {
		c.OCR.Pdftotext = "pdftotext"
	}
	if c.OCR.Pdftoppm == "" {
		c.OCR.Pdftoppm = "pdftoppm"
	}
	if c.OCR.Tesseract == "" {
		c.OCR.Tesseract = "tesseract"
	}
	if c.OCR.Lang == "" {
		c.OCR.Lang = "spa"
	}
	if c.OCR.DPI <= 0 {
		c.OCR.DPI = 300
	}
	if c.OCR.TimeoutSec <= 0 {
		c.OCR.TimeoutSec = 120
	}
	c.OCR.Timeout = time.Duration(c.OCR.TimeoutSec) * time.Second
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 45
	}
	c.LLM.Timeout = time.Duration(c.LLM.TimeoutSec) * time.Second
	if c.Scorer == "" {
		c.Scorer = "rules"
	}
	if c.Parallelism <= 0 {
		c.Parallelism = 4
	}
}

// Validate checks cross-field constraints the schema cannot express.
func (c *Config) Validate() error {
	if c.InputRoot == "" {
		return NewAppError(CodeConfig, "input_root is required", ErrInvalidInput)
	}
	if c.Scorer != "rules" && c.Scorer != "openai" {
		return NewAppError(CodeConfig, fmt.Sprintf("unknown scorer %q", c.Scorer), ErrInvalidInput)
	}
	if c.Scorer == "openai" && c.LLM.APIKey == "" {
		return NewAppError(CodeConfig, "OPENAI_API_KEY is required for the openai scorer", ErrInvalidInput)
	}
	for i, r := range c.Criteria {
		if err := r.Validate(); err != nil {
			return NewAppError(CodeConfig, fmt.Sprintf("criterios[%d]", i), err)
		}
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
