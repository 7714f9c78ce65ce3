// Package uvl 处理 UVL 特征模型文件：特征计数与格式转换。
package uvl

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// CountFeatures 统计 "features" 块中缩进为奇数个制表符的行数。
// 4 个空格视为 1 个制表符；遇到第一行空行或文件结束即停止。
// 没有 "features" 行的文件计为 0。
func CountFeatures(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	inFeatures := false
	count := 0
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if !inFeatures {
			inFeatures = line == "features"
			continue
		}
		if line == "" {
			return count, nil
		}
		line = strings.ReplaceAll(line, "    ", "\t")
		tabs := len(line) - len(strings.TrimLeft(line, "\t"))
		if tabs%2 == 1 {
			count++
		}
	}
	return count, scanner.Err()
}

// CountFeaturesFile 打开文件并统计特征数。
func CountFeaturesFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return CountFeatures(f)
}
