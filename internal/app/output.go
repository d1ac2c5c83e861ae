package app

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// OutputFormat is a supported output format.
type OutputFormat string

const (
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
	OutputFormatText  OutputFormat = "text"
	OutputFormatQuiet OutputFormat = "quiet"
)

// ParseOutputFormat parses --format. Empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "", "text":
		return OutputFormatText, nil
	case "json":
		return OutputFormatJSON, nil
	case "yaml", "yml":
		return OutputFormatYAML, nil
	case "quiet":
		return OutputFormatQuiet, nil
	default:
		return "", fmt.Errorf("unknown output format %q (valid: text, json, yaml, quiet)", s)
	}
}

// formatForPath picks the file format for -o: an explicit structured
// format wins, otherwise the extension decides (.yaml/.yml or JSON).
func formatForPath(path, format string) OutputFormat {
	if f, err := ParseOutputFormat(format); err == nil && (f == OutputFormatJSON || f == OutputFormatYAML) {
		return f
	}
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return OutputFormatYAML
	}
	return OutputFormatJSON
}

// FormatOutput serializes v. JSON is indented; YAML goes through JSON first
// so json tags decide the field names.
func FormatOutput(v any, format OutputFormat) ([]byte, error) {
	switch format {
	case OutputFormatJSON:
		return json.MarshalIndent(v, "", "  ")
	case OutputFormatYAML:
		norm, err := NormalizeJSON(v)
		if err != nil {
			return nil, err
		}
		return yaml.Marshal(norm)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Renderable is implemented by results with a human-friendly form.
type Renderable interface {
	Render() string
}

func outputResultCore(v any, format, outputPath string, code int, textFn func() string) error {
	outFormat, err := ParseOutputFormat(format)
	if err != nil {
		return UsageExit(err.Error())
	}
	if outFormat == OutputFormatQuiet {
		return ExitResult{Code: code}
	}

	if outputPath != "" {
		var b []byte
		switch ff := formatForPath(outputPath, format); {
		case outFormat == OutputFormatText && format == "text":
			b = []byte(renderText(v, textFn))
		default:
			if b, err = FormatOutput(v, ff); err != nil {
				return err
			}
		}
		if err := AtomicWriteFile(outputPath, b, FilePerm); err != nil {
			return Fail(err)
		}
		return ExitResult{Code: code, Message: "Wrote " + outputPath}
	}

	if outFormat == OutputFormatText {
		return ExitResult{Code: code, Message: renderText(v, textFn)}
	}
	b, err := FormatOutput(v, outFormat)
	if err != nil {
		return err
	}
	return ExitResult{Code: code, Message: string(b)}
}

// renderText prefers textFn, then Renderable, then indented JSON.
func renderText(v any, textFn func() string) string {
	if textFn != nil {
		return strings.TrimRight(textFn(), "\n")
	}
	if r, ok := v.(Renderable); ok {
		return r.Render()
	}
	b, err := FormatOutput(v, OutputFormatJSON)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// OutputResult writes v per --format and -o, as an ExitResult.
func OutputResult(v any, format, outputPath string) error {
	return outputResultCore(v, format, outputPath, 0, nil)
}

// OutputResultWithCode is OutputResult with a chosen exit code, for results
// that are valid data but should still fail the process.
func OutputResultWithCode(v any, format, outputPath string, code int) error {
	return outputResultCore(v, format, outputPath, code, nil)
}

// OutputResultText is OutputResult with an explicit text renderer.
func OutputResultText(v any, format, outputPath string, textFn func() string) error {
	return outputResultCore(v, format, outputPath, 0, textFn)
}
