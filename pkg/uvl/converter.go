package uvl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Format 是下载时支持的导出格式。
type Format string

const (
	FormatGlencoe Format = "glencoe"
	FormatDimacs  Format = "dimacs"
	FormatSplot   Format = "splot"
	FormatJSON    Format = "json"
	FormatAFM     Format = "afm"
	FormatUVL     Format = "uvl"
)

// ExportFormats 按打包顺序列出全部导出格式。
var ExportFormats = []Format{FormatGlencoe, FormatDimacs, FormatSplot, FormatJSON, FormatAFM, FormatUVL}

// EntryName 返回 zip 中的条目名，例如 "model.uvl_cnf.txt"。
func (f Format) EntryName(fileName string) string {
	suffix := string(f)
	if f == FormatDimacs {
		suffix = "cnf"
	}
	return fmt.Sprintf("%s_%s.txt", fileName, suffix)
}

// ErrConverterUnavailable 表示未配置外部转换程序。
var ErrConverterUnavailable = errors.New("uvl converter is not configured")

// Converter 将 UVL 文件转换为其他格式。
type Converter interface {
	Convert(ctx context.Context, uvlPath string, format Format) ([]byte, error)
}

// CommandConverter 调用外部转换程序：`<command> <format> <input.uvl>`，结果从 stdout 读取。
// uvl 格式直接返回原文件内容。
type CommandConverter struct {
	Command string
}

// NewCommandConverter 创建转换器，command 为空时仅支持 uvl 格式。
func NewCommandConverter(command string) *CommandConverter {
	return &CommandConverter{Command: strings.TrimSpace(command)}
}

// Convert 实现 Converter 接口，ctx 取消或超时会终止外部进程。
func (c *CommandConverter) Convert(ctx context.Context, uvlPath string, format Format) ([]byte, error) {
	if format == FormatUVL {
		return os.ReadFile(uvlPath)
	}
	if c.Command == "" {
		return nil, ErrConverterUnavailable
	}

	parts := strings.Fields(c.Command)
	args := append(parts[1:], string(format), uvlPath)
	cmd := exec.CommandContext(ctx, parts[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("convert %s to %s: %w", uvlPath, format, ctxErr)
		}
		return nil, fmt.Errorf("convert %s to %s: %w: %s", uvlPath, format, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
