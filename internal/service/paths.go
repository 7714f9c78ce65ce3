package service

import (
	"path/filepath"
	"strconv"
)

// Paths 计算 uploads 目录下的暂存与永久路径。
type Paths struct {
	UploadsDir string
}

// TempFolder 返回用户的暂存目录 uploads/temp/<user_id>。
func (p Paths) TempFolder(userID uint) string {
	return filepath.Join(p.UploadsDir, "temp", strconv.FormatUint(uint64(userID), 10))
}

// DatasetFolder 返回数据集的永久目录 uploads/user_<u>/dataset_<d>。
func (p Paths) DatasetFolder(userID, datasetID uint) string {
	return filepath.Join(p.UploadsDir, "user_"+strconv.FormatUint(uint64(userID), 10),
		"dataset_"+strconv.FormatUint(uint64(datasetID), 10))
}
