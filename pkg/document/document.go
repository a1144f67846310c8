// Package document 报表文件渲染：PDF 成绩单、XLSX 学生名册、ICS 课程日历
package document

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// 文件类型
const (
	FileTypePDF  = "pdf"
	FileTypeXLSX = "xlsx"
	FileTypeICS  = "ics"
)

// Renderer 报表渲染器
type Renderer struct {
	compressPDF bool
}

// NewRenderer 创建渲染器；compressPDF 为 false 时 PDF 内容流保持明文
func NewRenderer(compressPDF bool) *Renderer {
	return &Renderer{compressPDF: compressPDF}
}

// SaveFile 创建 path（含上级目录）并交给 write 写入内容
// path 已存在时不覆盖，返回可用 errors.Is(err, fs.ErrExist) 判断的错误；
// 写入失败时删除本次创建的半成品文件
func SaveFile(path string, write func(w io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建报表目录失败: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("创建报表文件失败: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("关闭报表文件失败: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if err := write(f); err != nil {
		return fmt.Errorf("写入报表文件失败: %w", err)
	}
	return nil
}
